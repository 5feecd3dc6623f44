package bitstream

import (
	"errors"
	"math/rand"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0xFFFFFFF, 0xFFFFFFFF}

	for _, v := range values {
		b := AppendUvarint(nil, v)
		u, n, err := Uvarint(b)
		if err != nil {
			t.Fatalf("decoding varint of %d: %v", v, err)
		}
		if n != len(b) {
			t.Errorf("varint of %d: consumed %d of %d bytes", v, n, len(b))
		}
		if u != v {
			t.Errorf("varint round trip of %d returned %d", v, u)
		}
	}
}

func TestUvarintRandomRoundTrip(t *testing.T) {
	prng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		v := uint64(prng.Uint32())
		b := AppendUvarint(nil, v)
		u, n, err := Uvarint(b)
		if err != nil || n != len(b) || u != v {
			t.Fatalf("varint round trip of %d: value=%d n=%d err=%v", v, u, n, err)
		}
	}
}

func TestUvarintOverflow(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("6-byte varint: got %v, want ErrMalformed", err)
	}
}

func TestUvarintUnterminated(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80, 0x80})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("unterminated varint: got %v, want ErrMalformed", err)
	}
}

func TestReadIntLEZeroWidth(t *testing.T) {
	v, err := ReadIntLE(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("zero-width integer = %d, want 0", v)
	}
}

func TestReadIntLE(t *testing.T) {
	prng := rand.New(rand.NewSource(2))

	for width := 1; width <= 4; width++ {
		max := uint64(1) << (8 * uint(width))

		for i := 0; i < 100; i++ {
			x := int32(uint32(prng.Uint64() % max))
			b := AppendIntLE(nil, x, width)
			if len(b) != width {
				t.Fatalf("width %d: encoded %d bytes", width, len(b))
			}
			v, err := ReadIntLE(b, width)
			if err != nil {
				t.Fatal(err)
			}
			if v != x {
				t.Errorf("width %d: read %d, want %d", width, v, x)
			}
		}
	}
}

func TestReadIntLEWidth3KeepsLow24Bits(t *testing.T) {
	b := AppendIntLE(nil, -1, 3)
	v, err := ReadIntLE(b, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xFFFFFF {
		t.Errorf("read %#x, want 0xFFFFFF", v)
	}
}

func TestReadIntLEWidthTooLarge(t *testing.T) {
	_, err := ReadIntLE(make([]byte, 8), 5)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("width 5: got %v, want ErrMalformed", err)
	}
}

func TestReadIntLETruncated(t *testing.T) {
	_, err := ReadIntLE([]byte{1, 2}, 4)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("truncated input: got %v, want ErrMalformed", err)
	}
}
