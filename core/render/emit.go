package render

import (
	"fmt"
	"strings"

	"github.com/IbnNafis007/tlgen/core/codegen"
)

// emitter accumulates indented Go statements for a method body. The
// output is still run through format.Source, so indentation only has to
// be structurally right.
type emitter struct {
	b     strings.Builder
	depth int
}

func (e *emitter) line(format string, args ...any) {
	for i := 0; i <= e.depth; i++ {
		e.b.WriteByte('\t')
	}
	fmt.Fprintf(&e.b, format, args...)
	e.b.WriteByte('\n')
}

func (e *emitter) in()  { e.depth++ }
func (e *emitter) out() { e.depth-- }

func (e *emitter) String() string { return e.b.String() }

// encodeBody renders the statements of a generated Encode method. The
// writer carries the error, so the body is a straight-line sequence of
// Put calls with conditional gates around optional arguments.
func encodeBody(spec *codegen.Spec, fields map[string]field, constName string) (string, error) {
	e := &emitter{}
	for _, s := range spec.Encode {
		switch st := s.(type) {
		case codegen.ConstructorStep:
			e.line("w.PutUint32(%s)", constName)
		case codegen.FlagsStep:
			e.line("var %s uint32", flagsVar(st.Arg))
			for _, bit := range st.Bits {
				f, ok := fields[bit.Arg]
				if !ok {
					return "", fmt.Errorf("flag bit references unknown argument %q", bit.Arg)
				}
				e.line("if %s {", f.presentExpr())
				e.in()
				e.line("%s |= 1 << %d", flagsVar(st.Arg), bit.Index)
				e.out()
				e.line("}")
			}
			e.line("w.PutUint32(%s)", flagsVar(st.Arg))
		case codegen.CondStep:
			f, ok := fields[st.Arg]
			if !ok {
				return "", fmt.Errorf("conditional step references unknown argument %q", st.Arg)
			}
			e.line("if %s {", f.presentExpr())
			e.in()
			if err := encodeValue(e, st.Inner, f.valueExpr()); err != nil {
				return "", err
			}
			e.out()
			e.line("}")
		default:
			f, ok := fields[stepArg(s)]
			if !ok {
				return "", fmt.Errorf("step references unknown argument %q", stepArg(s))
			}
			if err := encodeValue(e, s, f.valueExpr()); err != nil {
				return "", err
			}
		}
	}
	return e.String(), nil
}

func encodeValue(e *emitter, s codegen.Step, expr string) error {
	switch st := s.(type) {
	case codegen.TrueStep:
		e.line("w.PutTrue()")
	case codegen.PrimitiveStep:
		p, ok := prims[st.Kind]
		if !ok {
			return fmt.Errorf("no writer method for %s", st.Kind)
		}
		e.line("w.%s(%s)", p.put, expr)
	case codegen.ObjectStep:
		e.line("w.PutObject(%s)", expr)
	case codegen.VectorStep:
		e.line("w.PutVectorHeader(len(%s))", expr)
		e.line("for _, item := range %s {", expr)
		e.in()
		if err := encodeValue(e, st.Elem, "item"); err != nil {
			return err
		}
		e.out()
		e.line("}")
	default:
		return fmt.Errorf("unexpected encode step %T", s)
	}
	return nil
}

// decodeBody renders the statements of a generated Decode method. Gated
// arguments clear their field when the flag bit is absent, so decoding
// into a reused struct cannot leak stale values.
func decodeBody(spec *codegen.Spec, fields map[string]field) (string, error) {
	e := &emitter{}
	for _, s := range spec.Decode {
		switch st := s.(type) {
		case codegen.FlagsStep:
			if gatedSteps(spec) == 0 {
				e.line("r.Uint32()")
			} else {
				e.line("%s := r.Uint32()", flagsVar(st.Arg))
			}
		case codegen.CondStep:
			f, ok := fields[st.Arg]
			if !ok {
				return "", fmt.Errorf("conditional step references unknown argument %q", st.Arg)
			}
			e.line("if %s&(1<<%d) != 0 {", flagsVar(st.FlagsArg), st.Index)
			e.in()
			if err := decodeGated(e, st.Inner, f); err != nil {
				return "", err
			}
			e.out()
			e.line("} else {")
			e.in()
			e.line("%s", f.clearExpr())
			e.out()
			e.line("}")
		case codegen.ResultStep:
			e.line("obj, err := r.ReadObject()")
			e.line("if err != nil {")
			e.in()
			e.line("return err")
			e.out()
			e.line("}")
			e.line("t.Result = obj")
		default:
			f, ok := fields[stepArg(s)]
			if !ok {
				return "", fmt.Errorf("step references unknown argument %q", stepArg(s))
			}
			if err := decodePlain(e, s, f); err != nil {
				return "", err
			}
		}
	}
	return e.String(), nil
}

// decodePlain assigns a required field. Object and vector reads need
// scratch variables, so they run inside a block to keep names reusable
// across fields.
func decodePlain(e *emitter, s codegen.Step, f field) error {
	switch st := s.(type) {
	case codegen.TrueStep:
		e.line("%s = r.True()", f.expr())
	case codegen.PrimitiveStep:
		p, ok := prims[st.Kind]
		if !ok {
			return fmt.Errorf("no reader method for %s", st.Kind)
		}
		e.line("%s = r.%s()", f.expr(), p.get)
	case codegen.ObjectStep:
		e.line("{")
		e.in()
		e.line("obj, err := r.ReadObject()")
		e.line("if err != nil {")
		e.in()
		e.line("return err")
		e.out()
		e.line("}")
		e.line("%s = obj", f.expr())
		e.out()
		e.line("}")
	case codegen.VectorStep:
		e.line("{")
		e.in()
		if err := decodeVector(e, st, f.expr(), false); err != nil {
			return err
		}
		e.out()
		e.line("}")
	default:
		return fmt.Errorf("unexpected decode step %T", s)
	}
	return nil
}

// decodeGated assigns a field inside its flag gate.
func decodeGated(e *emitter, s codegen.Step, f field) error {
	switch st := s.(type) {
	case codegen.TrueStep:
		e.line("%s = r.True()", f.expr())
	case codegen.PrimitiveStep:
		p, ok := prims[st.Kind]
		if !ok {
			return fmt.Errorf("no reader method for %s", st.Kind)
		}
		if f.wrapped {
			e.line("v := r.%s()", p.get)
			e.line("%s = &v", f.expr())
		} else {
			e.line("%s = r.%s()", f.expr(), p.get)
		}
	case codegen.ObjectStep:
		e.line("obj, err := r.ReadObject()")
		e.line("if err != nil {")
		e.in()
		e.line("return err")
		e.out()
		e.line("}")
		e.line("%s = obj", f.expr())
	case codegen.VectorStep:
		if err := decodeVector(e, st, "items", true); err != nil {
			return err
		}
		e.line("%s = &items", f.expr())
	default:
		return fmt.Errorf("unexpected decode step %T", s)
	}
	return nil
}

// decodeVector reads a counted vector into dst. The element count comes
// off the wire, so the loop re-checks the reader error instead of
// trusting the count for allocation.
func decodeVector(e *emitter, st codegen.VectorStep, dst string, local bool) error {
	elem, err := elemGoType(st.Elem)
	if err != nil {
		return err
	}
	e.line("n := r.VectorHeader()")
	if local {
		e.line("%s := make([]%s, 0)", dst, elem)
	} else {
		e.line("%s = make([]%s, 0)", dst, elem)
	}
	e.line("for i := 0; i < n && r.Err() == nil; i++ {")
	e.in()
	switch es := st.Elem.(type) {
	case codegen.ObjectStep:
		e.line("obj, err := r.ReadObject()")
		e.line("if err != nil {")
		e.in()
		e.line("return err")
		e.out()
		e.line("}")
		e.line("%s = append(%s, obj)", dst, dst)
	case codegen.TrueStep:
		e.line("%s = append(%s, r.True())", dst, dst)
	case codegen.PrimitiveStep:
		p, ok := prims[es.Kind]
		if !ok {
			return fmt.Errorf("no reader method for %s", es.Kind)
		}
		e.line("%s = append(%s, r.%s())", dst, dst, p.get)
	default:
		return fmt.Errorf("unexpected element step %T", st.Elem)
	}
	e.out()
	e.line("}")
	return nil
}

// reservedLocals are names the emitted bodies already use: the method
// receiver and parameters, scratch variables, and Go keywords that are
// legal schema identifiers.
var reservedLocals = map[string]bool{
	"t": true, "w": true, "r": true,
	"v": true, "obj": true, "err": true, "n": true, "i": true,
	"item": true, "items": true,
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}

// flagsVar names the local variable holding a flag indicator.
func flagsVar(arg string) string {
	if reservedLocals[arg] {
		return arg + "_"
	}
	return arg
}

func stepArg(s codegen.Step) string {
	switch st := s.(type) {
	case codegen.CondStep:
		return st.Arg
	case codegen.VectorStep:
		return st.Arg
	case codegen.PrimitiveStep:
		return st.Arg
	case codegen.TrueStep:
		return st.Arg
	case codegen.ObjectStep:
		return st.Arg
	}
	return ""
}

func gatedSteps(spec *codegen.Spec) int {
	n := 0
	for _, s := range spec.Decode {
		if _, ok := s.(codegen.CondStep); ok {
			n++
		}
	}
	return n
}
