package wire_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/IbnNafis007/tlgen/pkg/wire"
)

func TestPutUint32LittleEndian(t *testing.T) {
	w := wire.NewWriter()
	w.PutUint32(0x1a2b3c4d)
	if err := w.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := []byte{0x4d, 0x3c, 0x2b, 0x1a}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes = % x, want % x", w.Bytes(), want)
	}
}

func TestPutStringFraming(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"empty", "", []byte{0x00, 0x00, 0x00, 0x00}},
		{"one byte padded", "a", []byte{0x01, 'a', 0x00, 0x00}},
		{"two bytes padded", "hi", []byte{0x02, 'h', 'i', 0x00}},
		{"three bytes aligned", "abc", []byte{0x03, 'a', 'b', 'c'}},
		{"four bytes", "abcd", []byte{0x04, 'a', 'b', 'c', 'd', 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wire.NewWriter()
			w.PutString(tt.in)
			if err := w.Err(); err != nil {
				t.Fatalf("Err: %v", err)
			}
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("Bytes = % x, want % x", w.Bytes(), tt.want)
			}
		})
	}
}

func TestPutStringLongForm(t *testing.T) {
	// 254 bytes forces the 0xfe prefix with a 3-byte length.
	in := bytes.Repeat([]byte{'x'}, 254)
	w := wire.NewWriter()
	w.PutBytes(in)
	if err := w.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	out := w.Bytes()
	if out[0] != 0xfe {
		t.Fatalf("prefix = %#x, want 0xfe", out[0])
	}
	if got := int(out[1]) | int(out[2])<<8 | int(out[3])<<16; got != 254 {
		t.Errorf("encoded length = %d, want 254", got)
	}
	if len(out)%4 != 0 {
		t.Errorf("frame length %d not aligned to 4", len(out))
	}
	// 4 prefix + 254 payload + 2 padding.
	if len(out) != 260 {
		t.Errorf("frame length = %d, want 260", len(out))
	}
}

func TestPutStringShortFormBoundary(t *testing.T) {
	// 253 bytes is the longest payload the single-byte prefix can carry.
	in := bytes.Repeat([]byte{'y'}, 253)
	w := wire.NewWriter()
	w.PutBytes(in)
	out := w.Bytes()
	if out[0] != 253 {
		t.Fatalf("prefix = %d, want 253", out[0])
	}
	// 1 prefix + 253 payload + 2 padding.
	if len(out) != 256 {
		t.Errorf("frame length = %d, want 256", len(out))
	}
}

func TestPutStringTooLong(t *testing.T) {
	w := wire.NewWriter()
	w.PutBytes(make([]byte, 1<<24))
	if err := w.Err(); err != wire.ErrStringTooLong {
		t.Fatalf("Err = %v, want ErrStringTooLong", err)
	}
}

func TestPutBoolSentinels(t *testing.T) {
	w := wire.NewWriter()
	w.PutBool(true)
	w.PutBool(false)
	w.PutTrue()
	want := []byte{
		0xb5, 0x75, 0x72, 0x99,
		0x37, 0x97, 0x79, 0xbc,
		0x39, 0xd3, 0xed, 0x3f,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes = % x, want % x", w.Bytes(), want)
	}
}

func TestPutVectorHeader(t *testing.T) {
	w := wire.NewWriter()
	w.PutVectorHeader(3)
	want := []byte{0x15, 0xc4, 0xb5, 0x1c, 0x03, 0x00, 0x00, 0x00}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes = % x, want % x", w.Bytes(), want)
	}
}

func TestPutInt128(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Int
		want []byte
	}{
		{"zero", big.NewInt(0), make([]byte, 16)},
		{"small", big.NewInt(1), append([]byte{1}, make([]byte, 15)...)},
		{"negative one", big.NewInt(-1), bytes.Repeat([]byte{0xff}, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wire.NewWriter()
			w.PutInt128(tt.in)
			if err := w.Err(); err != nil {
				t.Fatalf("Err: %v", err)
			}
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("Bytes = % x, want % x", w.Bytes(), tt.want)
			}
		})
	}
}

func TestPutInt128Range(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), 127) // 2^127, one past the top
	min := new(big.Int).Neg(max)                // -2^127, still in range

	w := wire.NewWriter()
	w.PutInt128(min)
	if err := w.Err(); err != nil {
		t.Fatalf("min in range, Err: %v", err)
	}
	if w.Len() != 16 {
		t.Errorf("Len = %d, want 16", w.Len())
	}

	w = wire.NewWriter()
	w.PutInt128(max)
	if err := w.Err(); err != wire.ErrIntOutOfRange {
		t.Errorf("Err = %v, want ErrIntOutOfRange", err)
	}

	w = wire.NewWriter()
	w.PutInt128(nil)
	if err := w.Err(); err != wire.ErrNilInt {
		t.Errorf("Err = %v, want ErrNilInt", err)
	}
}

func TestWriterSticky(t *testing.T) {
	w := wire.NewWriter()
	w.PutInt128(nil)
	if w.Err() == nil {
		t.Fatal("expected error")
	}
	n := w.Len()
	w.PutUint32(1)
	w.PutString("ignored")
	if w.Len() != n {
		t.Errorf("writes continued after error: Len = %d, want %d", w.Len(), n)
	}
	if w.Err() != wire.ErrNilInt {
		t.Errorf("Err = %v, want first error to stick", w.Err())
	}
}

func TestPutObjectNil(t *testing.T) {
	w := wire.NewWriter()
	w.PutObject(nil)
	if err := w.Err(); err != wire.ErrNilObject {
		t.Fatalf("Err = %v, want ErrNilObject", err)
	}
}

func TestWriterReset(t *testing.T) {
	w := wire.NewWriter()
	w.PutInt128(nil)
	w.Reset()
	if w.Err() != nil || w.Len() != 0 {
		t.Fatalf("Reset left err=%v len=%d", w.Err(), w.Len())
	}
	w.PutUint32(7)
	if w.Len() != 4 {
		t.Errorf("Len after reset write = %d, want 4", w.Len())
	}
}
