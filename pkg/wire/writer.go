package wire

import (
	"encoding/binary"
	"math"
	"math/big"
)

// Writer serializes values into an in-memory buffer using the schema wire
// format. The zero value is not usable; call NewWriter.
//
// Writer is sticky on error: once any put fails, later puts do nothing and
// Err returns the first failure.
type Writer struct {
	buf []byte
	err error
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Err returns the first error encountered, or nil.
func (w *Writer) Err() error { return w.err }

// Bytes returns the serialized payload. The slice aliases the writer's
// internal buffer and is only valid until the next put.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards the buffer contents and clears any sticky error.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.err = nil
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// PutUint32 writes a little-endian 32-bit word. Constructor ids, flag
// bitmasks and sentinels all go through here.
func (w *Writer) PutUint32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// PutInt writes a signed 32-bit integer.
func (w *Writer) PutInt(v int32) {
	w.PutUint32(uint32(v))
}

// PutLong writes a signed 64-bit integer.
func (w *Writer) PutLong(v int64) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

// PutDouble writes an IEEE 754 double.
func (w *Writer) PutDouble(v float64) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// PutInt128 writes a signed 128-bit integer as 16 little-endian bytes.
func (w *Writer) PutInt128(v *big.Int) {
	w.putBigInt(v, 16)
}

// PutInt256 writes a signed 256-bit integer as 32 little-endian bytes.
func (w *Writer) PutInt256(v *big.Int) {
	w.putBigInt(v, 32)
}

func (w *Writer) putBigInt(v *big.Int, width int) {
	if w.err != nil {
		return
	}
	if v == nil {
		w.fail(ErrNilInt)
		return
	}
	b, err := bigIntToLE(v, width)
	if err != nil {
		w.fail(err)
		return
	}
	w.buf = append(w.buf, b...)
}

// PutString writes s with the standard length prefix and zero padding to a
// four-byte boundary.
func (w *Writer) PutString(s string) {
	w.putFramed(len(s), func() { w.buf = append(w.buf, s...) })
}

// PutBytes writes b with the same framing as PutString.
func (w *Writer) PutBytes(b []byte) {
	w.putFramed(len(b), func() { w.buf = append(w.buf, b...) })
}

// PutRaw appends b without any framing. Callers own the length bookkeeping.
func (w *Writer) PutRaw(b []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, b...)
}

// putFramed emits the length prefix, lets emit append exactly n payload
// bytes, then pads the frame to a multiple of four.
func (w *Writer) putFramed(n int, emit func()) {
	if w.err != nil {
		return
	}
	var written int
	switch {
	case n < 254:
		w.buf = append(w.buf, byte(n))
		written = 1 + n
	case n <= 0xffffff:
		w.buf = append(w.buf, 0xfe, byte(n), byte(n>>8), byte(n>>16))
		written = 4 + n
	default:
		w.fail(ErrStringTooLong)
		return
	}
	emit()
	for written%4 != 0 {
		w.buf = append(w.buf, 0)
		written++
	}
}

// PutBool writes one of the two Bool sentinels.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint32(BoolTrueID)
	} else {
		w.PutUint32(BoolFalseID)
	}
}

// PutTrue writes the bare true marker.
func (w *Writer) PutTrue() {
	w.PutUint32(TrueID)
}

// PutVectorHeader writes the vector marker followed by the element count.
// The caller then writes n elements back to back.
func (w *Writer) PutVectorHeader(n int) {
	w.PutUint32(VectorID)
	w.PutUint32(uint32(n))
}

// PutObject delegates to o.Encode, which writes its own constructor id.
func (w *Writer) PutObject(o Object) {
	if w.err != nil {
		return
	}
	if o == nil {
		w.fail(ErrNilObject)
		return
	}
	if err := o.Encode(w); err != nil {
		w.fail(err)
	}
}

// bigIntToLE renders v as width little-endian two's-complement bytes.
func bigIntToLE(v *big.Int, width int) ([]byte, error) {
	bits := uint(width * 8)
	limit := new(big.Int).Lsh(big.NewInt(1), bits-1)
	if v.Cmp(limit) >= 0 {
		return nil, ErrIntOutOfRange
	}
	if v.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, ErrIntOutOfRange
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	t := new(big.Int).And(v, mask)
	out := make([]byte, width)
	t.FillBytes(out)
	reverseBytes(out)
	return out, nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
