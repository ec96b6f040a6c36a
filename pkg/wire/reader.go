package wire

import (
	"encoding/binary"
	"math"
	"math/big"
)

// Reader deserializes values from a byte slice using the schema wire format.
//
// Reader is sticky on error: after the first failure every subsequent get
// returns a zero value and Err keeps reporting the original problem. Methods
// that can fail for reasons other than truncation (ReadObject) also return
// the error directly.
type Reader struct {
	buf     []byte
	off     int
	err     error
	objects ObjectDecoder
}

// NewReader returns a reader over data with no object decoder attached.
// ReadObject will fail with ErrNoDecoder until one is provided.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// NewReaderWithObjects returns a reader over data that resolves embedded
// objects through dec.
func NewReaderWithObjects(data []byte, dec ObjectDecoder) *Reader {
	return &Reader{buf: data, objects: dec}
}

// Err returns the first error encountered, or nil.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// take consumes n bytes, or fails with ErrShortRead and returns nil.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.fail(ErrShortRead)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Uint32 reads a little-endian 32-bit word.
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Int reads a signed 32-bit integer.
func (r *Reader) Int() int32 {
	return int32(r.Uint32())
}

// Long reads a signed 64-bit integer.
func (r *Reader) Long() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// Double reads an IEEE 754 double.
func (r *Reader) Double() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// Int128 reads a signed 128-bit integer.
func (r *Reader) Int128() *big.Int {
	return r.bigInt(16)
}

// Int256 reads a signed 256-bit integer.
func (r *Reader) Int256() *big.Int {
	return r.bigInt(32)
}

func (r *Reader) bigInt(width int) *big.Int {
	b := r.take(width)
	if b == nil {
		return new(big.Int)
	}
	return leToBigInt(b)
}

// String reads a length-prefixed padded string.
func (r *Reader) String() string {
	return string(r.framed())
}

// Bytes reads a length-prefixed padded byte string. The result is a copy.
func (r *Reader) Bytes() []byte {
	b := r.framed()
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Raw consumes n unframed bytes. The result is a copy.
func (r *Reader) Raw(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// framed consumes one string frame and returns the payload, still aliasing
// the reader's buffer.
func (r *Reader) framed() []byte {
	first := r.take(1)
	if first == nil {
		return nil
	}
	n := int(first[0])
	prefix := 1
	switch {
	case n == 254:
		lb := r.take(3)
		if lb == nil {
			return nil
		}
		n = int(lb[0]) | int(lb[1])<<8 | int(lb[2])<<16
		prefix = 4
	case n == 255:
		r.fail(ErrBadFrame)
		return nil
	}
	data := r.take(n)
	if data == nil {
		return nil
	}
	if pad := (4 - (prefix+n)%4) % 4; pad > 0 {
		if r.take(pad) == nil {
			return nil
		}
	}
	return data
}

// Bool reads a Bool sentinel. Anything else fails with ErrBadBool.
func (r *Reader) Bool() bool {
	switch r.Uint32() {
	case BoolTrueID:
		return true
	case BoolFalseID:
		return false
	default:
		r.fail(ErrBadBool)
		return false
	}
}

// True reads one word and reports whether it is the bare true marker.
func (r *Reader) True() bool {
	return r.Uint32() == TrueID
}

// VectorHeader consumes the vector marker and returns the element count.
// A payload that does not start with VectorID fails with ErrBadVector.
func (r *Reader) VectorHeader() int {
	if id := r.Uint32(); r.err == nil && id != VectorID {
		r.fail(ErrBadVector)
		return 0
	}
	if r.err != nil {
		return 0
	}
	return int(r.Uint32())
}

// ReadObject dispatches the next embedded object through the attached
// decoder. The decoder consumes the constructor id itself.
func (r *Reader) ReadObject() (Object, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.objects == nil {
		r.fail(ErrNoDecoder)
		return nil, ErrNoDecoder
	}
	obj, err := r.objects.DecodeObject(r)
	if err != nil {
		r.fail(err)
		return nil, err
	}
	return obj, nil
}

// leToBigInt interprets b as a little-endian two's-complement integer.
func leToBigInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	v := new(big.Int).SetBytes(be)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return v
}
