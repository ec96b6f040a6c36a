// Package codegen derives wire layouts from parsed schema definitions.
//
// For every definition it produces a Spec: an ordered tree of Steps saying
// exactly what to put on the wire and what to read back. Derivation is pure
// and per definition, so a batch can be generated concurrently; the only
// shared input is the name set used to resolve custom type references.
package codegen

import (
	"fmt"

	"github.com/IbnNafis007/tlgen/core/schema"
)

// Spec is the derived wire layout of one definition.
type Spec struct {
	Def *schema.Definition

	// Encode starts with a ConstructorStep and then follows argument
	// declaration order.
	Encode []Step

	// Decode follows argument declaration order for types. For functions
	// it is a single ResultStep.
	Decode []Step
}

// ResolveError reports an argument whose type names neither a primitive, a
// declared generic variable, nor any known definition or result type.
type ResolveError struct {
	Definition string
	Argument   string
	Type       string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: argument %q references unknown type %q", e.Definition, e.Argument, e.Type)
}

// FlagError reports a flag-gated argument in a definition that has no flag
// indicator to gate it.
type FlagError struct {
	Definition string
	Argument   string
}

func (e *FlagError) Error() string {
	return fmt.Sprintf("%s: argument %q is flag-gated but there is no flag indicator", e.Definition, e.Argument)
}

// Generator derives Specs against the type names of one document.
type Generator struct {
	names map[string]bool
}

// NewGenerator builds a generator whose resolution set holds every
// definition's full name and every boxed result type of defs.
func NewGenerator(defs []*schema.Definition) *Generator {
	names := make(map[string]bool, 2*len(defs))
	for _, def := range defs {
		names[def.FullName()] = true
		names[def.ResultBase()] = true
	}
	return &Generator{names: names}
}

// Resolves reports whether typ is usable as an argument type in def.
func (g *Generator) Resolves(def *schema.Definition, typ string) bool {
	if _, ok := Primitive(typ); ok {
		return true
	}
	if def.IsGenericParam(typ) {
		return true
	}
	return g.names[typ]
}

// Check is the batch pre-pass: it reports a semantic diagnostic for every
// argument whose type cannot be resolved, without deriving any layouts.
func (g *Generator) Check(defs []*schema.Definition) schema.Diagnostics {
	var diags schema.Diagnostics
	for _, def := range defs {
		for _, arg := range def.Args {
			if arg.IsFlagIndicator || arg.IsGenericDef || arg.IsGeneric {
				continue
			}
			if !g.Resolves(def, arg.Type) {
				diags = append(diags, schema.Diagnostic{
					Kind:       schema.KindSemantic,
					File:       def.File,
					Line:       def.Line,
					Definition: def.FullName(),
					Text:       def.Raw,
					Message:    fmt.Sprintf("argument %q references unknown type %q", arg.Name, arg.Type),
				})
			}
		}
	}
	return diags
}

// Generate derives the wire layout of one definition. The definition is not
// modified; vector element steps are derived from the element type alone.
func (g *Generator) Generate(def *schema.Definition) (*Spec, error) {
	var argSteps []Step
	for _, arg := range def.Args {
		s, err := g.argStep(def, arg)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		argSteps = append(argSteps, s)
	}

	spec := &Spec{Def: def}
	spec.Encode = append([]Step{ConstructorStep{ID: def.ID}}, argSteps...)
	if def.IsFunction {
		spec.Decode = []Step{ResultStep{}}
	} else {
		spec.Decode = argSteps
	}
	return spec, nil
}

// GenerateAll derives layouts for every definition, collecting failures as
// diagnostics instead of stopping. Successfully derived specs keep their
// declaration order.
func (g *Generator) GenerateAll(defs []*schema.Definition) ([]*Spec, schema.Diagnostics) {
	var specs []*Spec
	var diags schema.Diagnostics
	for _, def := range defs {
		spec, err := g.Generate(def)
		if err != nil {
			diags = append(diags, schema.Diagnostic{
				Kind:       schema.KindSemantic,
				File:       def.File,
				Line:       def.Line,
				Definition: def.FullName(),
				Text:       def.Raw,
				Message:    err.Error(),
			})
			continue
		}
		specs = append(specs, spec)
	}
	return specs, diags
}

func (g *Generator) argStep(def *schema.Definition, arg schema.Argument) (Step, error) {
	if arg.IsGenericDef {
		return nil, nil
	}
	if arg.IsFlagIndicator {
		return FlagsStep{Arg: arg.Name, Bits: flagBits(def)}, nil
	}

	var s Step
	if arg.IsVector {
		elem, err := g.valueStep(def, arg, arg.Type)
		if err != nil {
			return nil, err
		}
		s = VectorStep{Arg: arg.Name, Elem: elem}
	} else {
		var err error
		s, err = g.namedStep(def, arg)
		if err != nil {
			return nil, err
		}
	}

	if arg.IsFlag {
		if _, ok := def.FlagIndicator(); !ok {
			return nil, &FlagError{Definition: def.FullName(), Argument: arg.Name}
		}
		s = CondStep{Arg: arg.Name, FlagsArg: arg.FlagName, Index: arg.FlagIndex, Inner: s}
	}
	return s, nil
}

// namedStep derives the step for a scalar argument and stamps it with the
// argument name.
func (g *Generator) namedStep(def *schema.Definition, arg schema.Argument) (Step, error) {
	s, err := g.valueStep(def, arg, arg.Type)
	if err != nil {
		return nil, err
	}
	switch t := s.(type) {
	case PrimitiveStep:
		t.Arg = arg.Name
		return t, nil
	case TrueStep:
		t.Arg = arg.Name
		return t, nil
	case ObjectStep:
		t.Arg = arg.Name
		return t, nil
	default:
		return nil, fmt.Errorf("%s: argument %q derived unexpected step %T", def.FullName(), arg.Name, s)
	}
}

// valueStep derives the step moving one value of type typ. The result
// carries no argument name; callers stamp one on when the value is a field
// rather than a vector element.
func (g *Generator) valueStep(def *schema.Definition, arg schema.Argument, typ string) (Step, error) {
	if k, ok := Primitive(typ); ok {
		if k == PrimTrue {
			return TrueStep{}, nil
		}
		return PrimitiveStep{Kind: k}, nil
	}
	if arg.IsGeneric || def.IsGenericParam(typ) {
		return ObjectStep{Type: typ, Generic: true}, nil
	}
	if !g.names[typ] {
		return nil, &ResolveError{Definition: def.FullName(), Argument: arg.Name, Type: typ}
	}
	return ObjectStep{Type: typ}, nil
}

// flagBits collects, in declaration order, every gated argument and its bit.
func flagBits(def *schema.Definition) []FlagBit {
	var bits []FlagBit
	for _, a := range def.Args {
		if a.IsFlag {
			bits = append(bits, FlagBit{Arg: a.Name, Index: a.FlagIndex})
		}
	}
	return bits
}
