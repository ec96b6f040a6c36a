package codegen

// PrimitiveKind identifies a wire type with a fixed, schema-independent
// encoding.
type PrimitiveKind int

const (
	PrimInvalid PrimitiveKind = iota
	PrimInt
	PrimLong
	PrimInt128
	PrimInt256
	PrimDouble
	PrimString
	PrimBytes
	PrimBool
	PrimTrue
)

var primitiveNames = map[string]PrimitiveKind{
	"int":    PrimInt,
	"long":   PrimLong,
	"int128": PrimInt128,
	"int256": PrimInt256,
	"double": PrimDouble,
	"string": PrimString,
	"bytes":  PrimBytes,
	"Bool":   PrimBool,
	"true":   PrimTrue,
}

// Primitive maps a schema type name to its primitive kind. The boolean is
// false for custom types, which encode by delegation instead.
func Primitive(name string) (PrimitiveKind, bool) {
	k, ok := primitiveNames[name]
	return k, ok
}

func (k PrimitiveKind) String() string {
	switch k {
	case PrimInt:
		return "int"
	case PrimLong:
		return "long"
	case PrimInt128:
		return "int128"
	case PrimInt256:
		return "int256"
	case PrimDouble:
		return "double"
	case PrimString:
		return "string"
	case PrimBytes:
		return "bytes"
	case PrimBool:
		return "Bool"
	case PrimTrue:
		return "true"
	default:
		return "invalid"
	}
}
