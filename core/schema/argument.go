package schema

import (
	"fmt"
	"strings"
)

// Argument is one name:type pair of a definition.
type Argument struct {
	// Name is the argument name as written in the schema.
	Name string

	// Type is the bare type name with Vector<>, the conditional prefix
	// and the '!' generic marker already stripped. For a flag indicator
	// it is "#".
	Type string

	// IsVector marks Vector<T> (or bare vector<T>) arguments; Type then
	// holds the element type T.
	IsVector bool

	// IsFlag marks arguments written as name:flags.N?type, present on
	// the wire only when bit N of the named indicator is set.
	IsFlag bool

	// FlagName is the indicator argument the condition references,
	// normally "flags".
	FlagName string

	// FlagIndex is the bit position in [0,31] the condition tests.
	FlagIndex int

	// IsFlagIndicator marks the name:# argument that carries the bitmask.
	IsFlagIndicator bool

	// IsGeneric marks !X arguments whose value is encoded by delegation
	// to another registered constructor.
	IsGeneric bool

	// IsGenericDef marks {X:Type} declarations. They introduce a type
	// variable and have no wire presence of their own.
	IsGenericDef bool
}

// String renders the argument in canonical schema syntax.
func (a Argument) String() string {
	if a.IsGenericDef {
		return fmt.Sprintf("{%s:%s}", a.Name, a.Type)
	}
	if a.IsFlagIndicator {
		return a.Name + ":#"
	}
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte(':')
	if a.IsFlag {
		fmt.Fprintf(&b, "%s.%d?", a.FlagName, a.FlagIndex)
	}
	typ := a.Type
	if a.IsGeneric {
		typ = "!" + typ
	}
	if a.IsVector {
		typ = "Vector<" + typ + ">"
	}
	b.WriteString(typ)
	return b.String()
}
