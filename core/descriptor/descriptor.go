// Package descriptor flattens a built registry into a JSON document.
//
// The descriptor is the machine-readable counterpart of the generated Go
// files: one entry per definition carrying the constructor id and the
// full derived wire layout. External tools can consume it to build
// decoders in other languages without re-deriving anything.
package descriptor

import (
	"encoding/json"
	"fmt"

	"github.com/IbnNafis007/tlgen/core/codegen"
	"github.com/IbnNafis007/tlgen/core/registry"
)

// Document is the root of the exported descriptor. Definition order
// follows schema declaration order, so the output is stable across runs.
type Document struct {
	Types       int          `json:"types"`
	Functions   int          `json:"functions"`
	Definitions []Definition `json:"definitions"`
}

// Definition is one schema definition with its derived layout.
type Definition struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Result string `json:"result"`
	Encode []Step `json:"encode"`
	Decode []Step `json:"decode"`
}

// Step is the serialized form of one wire step. Op discriminates the
// shape; the other fields are populated per op and omitted otherwise.
type Step struct {
	Op      string    `json:"op"`
	Arg     string    `json:"arg,omitempty"`
	ID      string    `json:"id,omitempty"`
	Flags   string    `json:"flags,omitempty"`
	Bit     *int      `json:"bit,omitempty"`
	Bits    []FlagBit `json:"bits,omitempty"`
	Type    string    `json:"type,omitempty"`
	Generic bool      `json:"generic,omitempty"`
	Elem    *Step     `json:"elem,omitempty"`
	Value   *Step     `json:"value,omitempty"`
}

// FlagBit records one presence bit of a flags step.
type FlagBit struct {
	Arg string `json:"arg"`
	Bit int    `json:"bit"`
}

// Build flattens every registry entry into the descriptor document.
func Build(reg *registry.Registry) (*Document, error) {
	doc := &Document{Definitions: make([]Definition, 0, reg.Len())}
	for _, spec := range reg.Entries() {
		def := Definition{
			Name:   spec.Def.FullName(),
			ID:     fmt.Sprintf("0x%08x", spec.Def.ID),
			Kind:   "type",
			Result: spec.Def.Result,
		}
		if spec.Def.IsFunction {
			def.Kind = "function"
			doc.Functions++
		} else {
			doc.Types++
		}

		var err error
		if def.Encode, err = steps(spec.Encode); err != nil {
			return nil, fmt.Errorf("describing %s: %w", def.Name, err)
		}
		if def.Decode, err = steps(spec.Decode); err != nil {
			return nil, fmt.Errorf("describing %s: %w", def.Name, err)
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return doc, nil
}

// JSON renders the document with two-space indentation and a trailing
// newline so the artifact diffs cleanly under version control.
func (d *Document) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func steps(in []codegen.Step) ([]Step, error) {
	out := make([]Step, 0, len(in))
	for _, s := range in {
		step, err := describe(s)
		if err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	return out, nil
}

func describe(s codegen.Step) (Step, error) {
	switch st := s.(type) {
	case codegen.ConstructorStep:
		return Step{Op: "constructor", ID: fmt.Sprintf("0x%08x", st.ID)}, nil
	case codegen.FlagsStep:
		out := Step{Op: "flags", Arg: st.Arg}
		for _, b := range st.Bits {
			out.Bits = append(out.Bits, FlagBit{Arg: b.Arg, Bit: b.Index})
		}
		return out, nil
	case codegen.CondStep:
		inner, err := describe(st.Inner)
		if err != nil {
			return Step{}, err
		}
		bit := st.Index
		return Step{Op: "conditional", Arg: st.Arg, Flags: st.FlagsArg, Bit: &bit, Value: &inner}, nil
	case codegen.VectorStep:
		elem, err := describe(st.Elem)
		if err != nil {
			return Step{}, err
		}
		return Step{Op: "vector", Arg: st.Arg, Elem: &elem}, nil
	case codegen.PrimitiveStep:
		return Step{Op: st.Kind.String(), Arg: st.Arg}, nil
	case codegen.TrueStep:
		return Step{Op: "true", Arg: st.Arg}, nil
	case codegen.ObjectStep:
		return Step{Op: "object", Arg: st.Arg, Type: st.Type, Generic: st.Generic}, nil
	case codegen.ResultStep:
		return Step{Op: "result"}, nil
	}
	return Step{}, fmt.Errorf("unknown step %T", s)
}
