package schema

import (
	"fmt"
	"strings"
)

// Definition is one parsed schema line: a constructor or function, its
// wire id, arguments and boxed result type.
type Definition struct {
	// Name is the bare constructor name without namespace.
	Name string

	// Namespace is the dotted prefix, empty for top-level definitions.
	Namespace string

	// ID is the 32-bit constructor id from the '#' suffix.
	ID uint32

	// IsFunction marks definitions found under a ---functions--- marker.
	IsFunction bool

	// Args holds the arguments in declaration order, including flag
	// indicators and generic parameter declarations.
	Args []Argument

	// GenericParams lists the type variables declared as {X:Type}, in
	// order of declaration.
	GenericParams []string

	// Result is the boxed result type exactly as written, e.g. "User"
	// or "Vector<int>".
	Result string

	// File and Line locate the definition in its source for diagnostics.
	File string
	Line int

	// Raw is the trimmed source line the definition was parsed from.
	Raw string
}

// FullName returns the namespace-qualified name, e.g. "messages.send".
func (d *Definition) FullName() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + "." + d.Name
}

// String renders the definition in canonical schema syntax.
func (d *Definition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s#%08x", d.FullName(), d.ID)
	for _, a := range d.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	fmt.Fprintf(&b, " = %s;", d.Result)
	return b.String()
}

// FlagIndicator returns the flag indicator argument, if the definition has
// one.
func (d *Definition) FlagIndicator() (Argument, bool) {
	for _, a := range d.Args {
		if a.IsFlagIndicator {
			return a, true
		}
	}
	return Argument{}, false
}

// HasFlags reports whether any argument is gated on a flag bit.
func (d *Definition) HasFlags() bool {
	for _, a := range d.Args {
		if a.IsFlag {
			return true
		}
	}
	return false
}

// IsGenericParam reports whether name was declared as a generic type
// variable on this definition.
func (d *Definition) IsGenericParam(name string) bool {
	for _, p := range d.GenericParams {
		if p == name {
			return true
		}
	}
	return false
}

// ResultBase returns the result type with any Vector<> wrapper stripped:
// "Vector<User>" becomes "User", "Updates" stays "Updates".
func (d *Definition) ResultBase() string {
	r := d.Result
	if open := strings.IndexByte(r, '<'); open >= 0 && strings.HasSuffix(r, ">") {
		return r[open+1 : len(r)-1]
	}
	return r
}

// Document is the merged result of parsing one or more schema sources.
type Document struct {
	Definitions []*Definition
}

// Types returns the definitions that declare constructors.
func (d *Document) Types() []*Definition {
	var out []*Definition
	for _, def := range d.Definitions {
		if !def.IsFunction {
			out = append(out, def)
		}
	}
	return out
}

// Functions returns the definitions that declare callable functions.
func (d *Document) Functions() []*Definition {
	var out []*Definition
	for _, def := range d.Definitions {
		if def.IsFunction {
			out = append(out, def)
		}
	}
	return out
}
