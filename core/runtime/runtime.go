// Package runtime executes derived wire layouts directly, without generated
// code. A Codec built over a registry can construct any schema object by
// name, fill its arguments, serialize it, and decode payloads back by
// constructor-id dispatch.
//
// The runtime codec and the generated code are two consumers of the same
// step trees, so they produce byte-identical wire output. The codec is what
// the checker and tests use; generated code is what library consumers ship.
package runtime

import (
	"github.com/IbnNafis007/tlgen/core/registry"
	"github.com/IbnNafis007/tlgen/pkg/wire"
)

// Codec builds and decodes dynamic objects against one registry. It is
// stateless beyond the registry reference and safe for concurrent use.
type Codec struct {
	reg *registry.Registry
}

// New returns a codec over reg.
func New(reg *registry.Registry) *Codec {
	return &Codec{reg: reg}
}

// Registry returns the registry the codec dispatches against.
func (c *Codec) Registry() *registry.Registry {
	return c.reg
}

// NewObject constructs an empty object for the definition with the given
// full name, e.g. "messages.send".
func (c *Codec) NewObject(fullName string) (*Object, error) {
	spec, ok := c.reg.LookupName(fullName)
	if !ok {
		return nil, &UnknownTypeError{Name: fullName}
	}
	return newObject(spec), nil
}

// NewObjectByID constructs an empty object for the definition registered
// under id.
func (c *Codec) NewObjectByID(id uint32) (*Object, error) {
	spec, ok := c.reg.Lookup(id)
	if !ok {
		return nil, &wire.UnknownIDError{ID: id}
	}
	return newObject(spec), nil
}

// DecodeObject reads a constructor id from r and decodes the matching
// object. It implements wire.ObjectDecoder, so a codec can be attached to
// any reader. The Bool sentinels decode without a registry entry because
// the wire format hardcodes them.
func (c *Codec) DecodeObject(r *wire.Reader) (wire.Object, error) {
	id := r.Uint32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	switch id {
	case wire.BoolTrueID:
		return &Bool{Value: true}, nil
	case wire.BoolFalseID:
		return &Bool{Value: false}, nil
	}
	spec, ok := c.reg.Lookup(id)
	if !ok {
		return nil, &wire.UnknownIDError{ID: id}
	}
	obj := newObject(spec)
	if err := obj.Decode(r); err != nil {
		return nil, err
	}
	return obj, nil
}

// Decode deserializes one object from data, dispatching on its leading
// constructor id.
func (c *Codec) Decode(data []byte) (wire.Object, error) {
	r := wire.NewReaderWithObjects(data, c)
	obj, err := c.DecodeObject(r)
	if err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return obj, nil
}

// Reader returns a reader over data with this codec attached for embedded
// object dispatch.
func (c *Codec) Reader(data []byte) *wire.Reader {
	return wire.NewReaderWithObjects(data, c)
}

// Bool is the dynamic decoding of a Bool sentinel found where an object was
// expected, typically as a function result.
type Bool struct {
	Value bool
}

// TypeID returns the sentinel matching the value.
func (b *Bool) TypeID() uint32 {
	if b.Value {
		return wire.BoolTrueID
	}
	return wire.BoolFalseID
}

// Encode writes the sentinel; it is the entire encoding.
func (b *Bool) Encode(w *wire.Writer) error {
	w.PutBool(b.Value)
	return w.Err()
}

// Decode is a no-op: the sentinel doubles as the constructor id and has
// already been consumed by dispatch.
func (b *Bool) Decode(r *wire.Reader) error {
	return r.Err()
}
