// Package wire implements the binary encoding primitives shared by every
// generated and runtime-built schema object: little-endian integers, IEEE
// doubles, length-prefixed padded byte strings, boolean sentinels and vector
// framing.
//
// Writer and Reader carry a sticky error: after the first failure every
// subsequent operation is a no-op, so callers chain puts and gets freely and
// check Err once at the end.
package wire

import (
	"errors"
	"fmt"
)

// Well-known constructor ids that appear on the wire without a schema
// definition of their own.
const (
	// VectorID prefixes every boxed vector payload.
	VectorID uint32 = 0x1cb5c415

	// BoolTrueID and BoolFalseID are the two encodings of the Bool type.
	BoolTrueID  uint32 = 0x997275b5
	BoolFalseID uint32 = 0xbc799737

	// TrueID is the bare true marker used by flag-gated true arguments
	// when they are written explicitly.
	TrueID uint32 = 0x3fedd339
)

var (
	// ErrShortRead reports a read past the end of the buffer.
	ErrShortRead = errors.New("wire: short read")

	// ErrBadBool reports a Bool payload that is neither sentinel.
	ErrBadBool = errors.New("wire: invalid boolean sentinel")

	// ErrBadVector reports a vector payload that does not start with VectorID.
	ErrBadVector = errors.New("wire: invalid vector marker")

	// ErrBadFrame reports a malformed string length prefix.
	ErrBadFrame = errors.New("wire: invalid string frame")

	// ErrStringTooLong reports a byte string longer than the frame format
	// can carry (2^24-1 bytes).
	ErrStringTooLong = errors.New("wire: string exceeds maximum encodable length")

	// ErrIntOutOfRange reports a large integer that does not fit its
	// declared width.
	ErrIntOutOfRange = errors.New("wire: large integer out of range")

	// ErrNilInt reports a nil big integer handed to the writer.
	ErrNilInt = errors.New("wire: nil large integer")

	// ErrNilObject reports a nil object handed to the writer.
	ErrNilObject = errors.New("wire: nil object")

	// ErrNoDecoder reports an object read on a reader that has no decoder
	// attached.
	ErrNoDecoder = errors.New("wire: reader has no object decoder")
)

// Object is anything that knows its constructor id and how to move itself
// through a Writer or Reader. Generated types implement it, and the runtime
// codec implements it for dynamically built values.
type Object interface {
	// TypeID returns the 32-bit constructor id.
	TypeID() uint32

	// Encode writes the object, constructor id first, to w.
	Encode(w *Writer) error

	// Decode reads the object body from r. The constructor id has already
	// been consumed by whoever dispatched to this object.
	Decode(r *Reader) error
}

// ObjectDecoder turns a constructor id found on the wire into a decoded
// Object. A Reader needs one attached before ReadObject can work; keeping it
// explicit means two readers can decode against two different schemas in the
// same process.
type ObjectDecoder interface {
	DecodeObject(r *Reader) (Object, error)
}

// UnknownIDError reports a constructor id with no registered decoder.
type UnknownIDError struct {
	ID uint32
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("wire: unknown constructor id 0x%08x", e.ID)
}

// Marshal serializes o into a fresh buffer.
func Marshal(o Object) ([]byte, error) {
	w := NewWriter()
	if err := o.Encode(w); err != nil {
		return nil, err
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
