package runtime

import (
	"fmt"
	"math"
	"math/big"

	"github.com/IbnNafis007/tlgen/core/codegen"
	"github.com/IbnNafis007/tlgen/core/schema"
	"github.com/IbnNafis007/tlgen/pkg/wire"
)

// UnknownTypeError reports a definition name absent from the registry.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no definition named %q", e.Name)
}

// UnknownArgError reports a Set or Get against an argument the definition
// does not declare as settable.
type UnknownArgError struct {
	Definition string
	Argument   string
}

func (e *UnknownArgError) Error() string {
	return fmt.Sprintf("%s has no settable argument %q", e.Definition, e.Argument)
}

// MissingArgError reports a required argument left unset at encode time.
type MissingArgError struct {
	Definition string
	Argument   string
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("%s: argument %q is required but unset", e.Definition, e.Argument)
}

// ValueError reports a value whose Go type cannot encode as the argument's
// wire type.
type ValueError struct {
	Definition string
	Argument   string
	Want       string
	Got        any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: argument %q: cannot encode %T as %s", e.Definition, e.Argument, e.Got, e.Want)
}

// Object is a dynamically built schema value. Arguments live in a name to
// value map; flag indicators are derived at encode time and never stored.
//
// Admissible values per wire type: int32 or int for int; int64 or int for
// long; *big.Int for int128 and int256; float64 for double; string; []byte
// for bytes; bool for Bool; true (the Go value) for the true pseudo-type;
// wire.Object for custom and generic arguments; []any for vectors. Setting
// nil clears an argument.
type Object struct {
	spec   *codegen.Spec
	values map[string]any
	result wire.Object
}

func newObject(spec *codegen.Spec) *Object {
	return &Object{
		spec:   spec,
		values: make(map[string]any),
	}
}

// Definition returns the parsed definition this object instantiates.
func (o *Object) Definition() *schema.Definition {
	return o.spec.Def
}

// TypeID returns the definition's constructor id.
func (o *Object) TypeID() uint32 {
	return o.spec.Def.ID
}

// Set assigns an argument value. Flag indicators and generic declarations
// are not settable: the former are computed, the latter carry no value.
func (o *Object) Set(name string, v any) error {
	a, ok := o.argByName(name)
	if !ok || a.IsFlagIndicator || a.IsGenericDef {
		return &UnknownArgError{Definition: o.spec.Def.FullName(), Argument: name}
	}
	if v == nil {
		delete(o.values, name)
		return nil
	}
	o.values[name] = v
	return nil
}

// Get returns an argument value and whether it is present.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Values returns a shallow copy of the present arguments.
func (o *Object) Values() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// Result returns the decoded reply of a function object, nil before Decode
// or for plain types.
func (o *Object) Result() wire.Object {
	return o.result
}

func (o *Object) argByName(name string) (schema.Argument, bool) {
	for _, a := range o.spec.Def.Args {
		if a.Name == name {
			return a, true
		}
	}
	return schema.Argument{}, false
}

// present reports whether an argument counts toward its flag bit. A
// true-typed argument is present only when set to true: false means the
// marker is simply not written.
func (o *Object) present(name string) bool {
	v, ok := o.values[name]
	if !ok || v == nil {
		return false
	}
	if a, found := o.argByName(name); found && a.Type == "true" && !a.IsVector {
		b, isBool := v.(bool)
		return isBool && b
	}
	return true
}

// Encode walks the encode steps in order. The first failure aborts.
func (o *Object) Encode(w *wire.Writer) error {
	for _, s := range o.spec.Encode {
		if err := o.encodeStep(w, s); err != nil {
			return err
		}
	}
	return w.Err()
}

func (o *Object) encodeStep(w *wire.Writer, s codegen.Step) error {
	switch s := s.(type) {
	case codegen.ConstructorStep:
		w.PutUint32(s.ID)
		return nil

	case codegen.FlagsStep:
		var mask uint32
		for _, bit := range s.Bits {
			if o.present(bit.Arg) {
				mask |= 1 << uint(bit.Index)
			}
		}
		w.PutUint32(mask)
		return nil

	case codegen.CondStep:
		if !o.present(s.Arg) {
			return nil
		}
		return o.encodeStep(w, s.Inner)

	case codegen.VectorStep:
		v, ok := o.values[s.Arg]
		if !ok {
			return &MissingArgError{Definition: o.defName(), Argument: s.Arg}
		}
		items, ok := v.([]any)
		if !ok {
			return &ValueError{Definition: o.defName(), Argument: s.Arg, Want: "vector ([]any)", Got: v}
		}
		w.PutVectorHeader(len(items))
		for _, item := range items {
			if err := o.encodeValue(w, s.Elem, s.Arg, item); err != nil {
				return err
			}
		}
		return nil

	case codegen.TrueStep:
		w.PutTrue()
		return nil

	case codegen.PrimitiveStep:
		v, ok := o.values[s.Arg]
		if !ok {
			return &MissingArgError{Definition: o.defName(), Argument: s.Arg}
		}
		return o.encodeValue(w, s, s.Arg, v)

	case codegen.ObjectStep:
		v, ok := o.values[s.Arg]
		if !ok {
			return &MissingArgError{Definition: o.defName(), Argument: s.Arg}
		}
		return o.encodeValue(w, s, s.Arg, v)

	default:
		return fmt.Errorf("%s: unexpected encode step %T", o.defName(), s)
	}
}

// encodeValue writes one leaf value: a primitive, a true marker, or a
// delegated object. Vector elements and named fields both come through
// here.
func (o *Object) encodeValue(w *wire.Writer, s codegen.Step, arg string, v any) error {
	switch s := s.(type) {
	case codegen.TrueStep:
		w.PutTrue()
		return nil

	case codegen.PrimitiveStep:
		return o.encodePrimitive(w, s.Kind, arg, v)

	case codegen.ObjectStep:
		obj, ok := v.(wire.Object)
		if !ok {
			return &ValueError{Definition: o.defName(), Argument: arg, Want: "wire.Object", Got: v}
		}
		w.PutObject(obj)
		return nil

	default:
		return fmt.Errorf("%s: unexpected element step %T", o.defName(), s)
	}
}

func (o *Object) encodePrimitive(w *wire.Writer, k codegen.PrimitiveKind, arg string, v any) error {
	fail := func() error {
		return &ValueError{Definition: o.defName(), Argument: arg, Want: k.String(), Got: v}
	}
	switch k {
	case codegen.PrimInt:
		switch n := v.(type) {
		case int32:
			w.PutInt(n)
		case int:
			if n < math.MinInt32 || n > math.MaxInt32 {
				return fail()
			}
			w.PutInt(int32(n))
		default:
			return fail()
		}
	case codegen.PrimLong:
		switch n := v.(type) {
		case int64:
			w.PutLong(n)
		case int:
			w.PutLong(int64(n))
		default:
			return fail()
		}
	case codegen.PrimInt128:
		n, ok := v.(*big.Int)
		if !ok {
			return fail()
		}
		w.PutInt128(n)
	case codegen.PrimInt256:
		n, ok := v.(*big.Int)
		if !ok {
			return fail()
		}
		w.PutInt256(n)
	case codegen.PrimDouble:
		n, ok := v.(float64)
		if !ok {
			return fail()
		}
		w.PutDouble(n)
	case codegen.PrimString:
		s, ok := v.(string)
		if !ok {
			return fail()
		}
		w.PutString(s)
	case codegen.PrimBytes:
		b, ok := v.([]byte)
		if !ok {
			return fail()
		}
		w.PutBytes(b)
	case codegen.PrimBool:
		b, ok := v.(bool)
		if !ok {
			return fail()
		}
		w.PutBool(b)
	default:
		return fail()
	}
	return nil
}

// Decode walks the decode steps in order, populating values. For functions
// the single step dispatches the reply into the result slot.
func (o *Object) Decode(r *wire.Reader) error {
	var flags uint32
	for _, s := range o.spec.Decode {
		if err := o.decodeStep(r, s, &flags); err != nil {
			return err
		}
	}
	return r.Err()
}

func (o *Object) decodeStep(r *wire.Reader, s codegen.Step, flags *uint32) error {
	switch s := s.(type) {
	case codegen.FlagsStep:
		*flags = r.Uint32()
		return r.Err()

	case codegen.CondStep:
		if *flags&(1<<uint(s.Index)) == 0 {
			delete(o.values, s.Arg)
			return nil
		}
		return o.decodeStep(r, s.Inner, flags)

	case codegen.VectorStep:
		n := r.VectorHeader()
		items := make([]any, 0)
		for i := 0; i < n && r.Err() == nil; i++ {
			v, err := o.decodeValue(r, s.Elem)
			if err != nil {
				return err
			}
			items = append(items, v)
		}
		if err := r.Err(); err != nil {
			return err
		}
		o.values[s.Arg] = items
		return nil

	case codegen.TrueStep:
		o.values[s.Arg] = r.True()
		return r.Err()

	case codegen.PrimitiveStep:
		v, err := o.decodeValue(r, s)
		if err != nil {
			return err
		}
		o.values[s.Arg] = v
		return nil

	case codegen.ObjectStep:
		obj, err := r.ReadObject()
		if err != nil {
			return err
		}
		o.values[s.Arg] = obj
		return nil

	case codegen.ResultStep:
		obj, err := r.ReadObject()
		if err != nil {
			return err
		}
		o.result = obj
		return nil

	default:
		return fmt.Errorf("%s: unexpected decode step %T", o.defName(), s)
	}
}

// decodeValue reads one leaf value, mirroring encodeValue.
func (o *Object) decodeValue(r *wire.Reader, s codegen.Step) (any, error) {
	switch s := s.(type) {
	case codegen.TrueStep:
		return r.True(), r.Err()

	case codegen.PrimitiveStep:
		switch s.Kind {
		case codegen.PrimInt:
			return r.Int(), r.Err()
		case codegen.PrimLong:
			return r.Long(), r.Err()
		case codegen.PrimInt128:
			return r.Int128(), r.Err()
		case codegen.PrimInt256:
			return r.Int256(), r.Err()
		case codegen.PrimDouble:
			return r.Double(), r.Err()
		case codegen.PrimString:
			return r.String(), r.Err()
		case codegen.PrimBytes:
			return r.Bytes(), r.Err()
		case codegen.PrimBool:
			return r.Bool(), r.Err()
		default:
			return nil, fmt.Errorf("%s: unexpected primitive kind %s", o.defName(), s.Kind)
		}

	case codegen.ObjectStep:
		return r.ReadObject()

	default:
		return nil, fmt.Errorf("%s: unexpected element step %T", o.defName(), s)
	}
}

func (o *Object) defName() string {
	return o.spec.Def.FullName()
}
