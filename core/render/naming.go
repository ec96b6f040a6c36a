package render

import (
	"fmt"
	"strings"

	"github.com/IbnNafis007/tlgen/core/codegen"
	"github.com/IbnNafis007/tlgen/core/schema"
)

// primGo maps a primitive kind to its Go representation and the writer and
// reader methods that move it.
type primGo struct {
	goType string
	put    string
	get    string
}

var prims = map[codegen.PrimitiveKind]primGo{
	codegen.PrimInt:    {"int32", "PutInt", "Int"},
	codegen.PrimLong:   {"int64", "PutLong", "Long"},
	codegen.PrimInt128: {"*big.Int", "PutInt128", "Int128"},
	codegen.PrimInt256: {"*big.Int", "PutInt256", "Int256"},
	codegen.PrimDouble: {"float64", "PutDouble", "Double"},
	codegen.PrimString: {"string", "PutString", "String"},
	codegen.PrimBytes:  {"[]byte", "PutBytes", "Bytes"},
	codegen.PrimBool:   {"bool", "PutBool", "Bool"},
}

// exportedName converts a schema identifier to an exported Go name:
// first_name becomes FirstName, inputPeerEmpty becomes InputPeerEmpty.
func exportedName(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// typeName derives the Go type name of a definition. Functions get a
// Request suffix so a function and a type sharing a schema name cannot
// collide.
func typeName(def *schema.Definition) string {
	n := exportedName(def.Name)
	if def.Namespace != "" {
		n = exportedName(def.Namespace) + n
	}
	if def.IsFunction {
		n += "Request"
	}
	return n
}

// fileName derives the generated file name from a Go type name:
// MessagesSendRequest becomes messages_send_request_gen.go.
func fileName(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	b.WriteString("_gen.go")
	return b.String()
}

// field is one struct field of a generated type, with everything the
// statement emitters need.
type field struct {
	GoName string
	GoType string

	// step is the unwrapped inner step: Primitive, True, Object or
	// Vector. Conditional wrapping is tracked by optional instead.
	step     codegen.Step
	optional bool

	// wrapped means optionality added a pointer that encode must deref.
	// Inherently nil-able fields (big ints, objects) never wrap.
	wrapped bool
}

func (f field) expr() string { return "t." + f.GoName }

func (f field) valueExpr() string {
	if f.wrapped {
		return "*" + f.expr()
	}
	return f.expr()
}

// presentExpr is the encode-time presence test used for flag bits and
// conditional gates.
func (f field) presentExpr() string {
	if _, isTrue := f.step.(codegen.TrueStep); isTrue {
		return f.expr()
	}
	return f.expr() + " != nil"
}

// clearExpr resets the field when its flag bit is absent.
func (f field) clearExpr() string {
	if _, isTrue := f.step.(codegen.TrueStep); isTrue {
		return f.expr() + " = false"
	}
	return f.expr() + " = nil"
}

// buildFields derives the field list of a generated struct from the encode
// steps, preserving wire order. Names are deduplicated against the method
// set of the generated type.
func buildFields(spec *codegen.Spec) ([]field, map[string]field, error) {
	used := map[string]bool{"TypeID": true, "Encode": true, "Decode": true}
	if spec.Def.IsFunction {
		used["Result"] = true
	}

	var list []field
	byArg := make(map[string]field)
	for _, s := range spec.Encode {
		var arg string
		inner := s
		optional := false
		switch st := s.(type) {
		case codegen.ConstructorStep, codegen.FlagsStep:
			continue
		case codegen.CondStep:
			arg, inner, optional = st.Arg, st.Inner, true
		case codegen.VectorStep:
			arg = st.Arg
		case codegen.PrimitiveStep:
			arg = st.Arg
		case codegen.TrueStep:
			arg = st.Arg
		case codegen.ObjectStep:
			arg = st.Arg
		default:
			return nil, nil, fmt.Errorf("unexpected step %T", s)
		}

		f, err := deriveField(arg, inner, optional)
		if err != nil {
			return nil, nil, err
		}
		for used[f.GoName] {
			f.GoName += "_"
		}
		used[f.GoName] = true
		list = append(list, f)
		byArg[arg] = f
	}
	return list, byArg, nil
}

func deriveField(arg string, inner codegen.Step, optional bool) (field, error) {
	f := field{GoName: exportedName(arg), step: inner, optional: optional}
	switch st := inner.(type) {
	case codegen.TrueStep:
		f.GoType = "bool"
	case codegen.ObjectStep:
		f.GoType = "wire.Object"
	case codegen.PrimitiveStep:
		p, ok := prims[st.Kind]
		if !ok {
			return field{}, fmt.Errorf("argument %q: no Go mapping for %s", arg, st.Kind)
		}
		f.GoType = p.goType
		if optional && !strings.HasPrefix(p.goType, "*") {
			f.GoType = "*" + p.goType
			f.wrapped = true
		}
	case codegen.VectorStep:
		elem, err := elemGoType(st.Elem)
		if err != nil {
			return field{}, fmt.Errorf("argument %q: %w", arg, err)
		}
		f.GoType = "[]" + elem
		if optional {
			f.GoType = "*" + f.GoType
			f.wrapped = true
		}
	default:
		return field{}, fmt.Errorf("argument %q: unexpected step %T", arg, inner)
	}
	return f, nil
}

func elemGoType(elem codegen.Step) (string, error) {
	switch st := elem.(type) {
	case codegen.ObjectStep:
		return "wire.Object", nil
	case codegen.TrueStep:
		return "bool", nil
	case codegen.PrimitiveStep:
		p, ok := prims[st.Kind]
		if !ok {
			return "", fmt.Errorf("no Go mapping for element kind %s", st.Kind)
		}
		return p.goType, nil
	default:
		return "", fmt.Errorf("unexpected element step %T", elem)
	}
}
