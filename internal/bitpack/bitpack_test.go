package bitpack

import (
	"math/rand"
	"testing"
)

func TestUnpackSingleByte(t *testing.T) {
	// 0b10_01_00_11 at width 2 is [3,0,1,2] LSB-first.
	dst := make([]int32, 4)
	n := Unpack(dst, []byte{0x93}, 2)
	if n != 4 {
		t.Fatalf("unpacked %d values, want 4", n)
	}
	for i, want := range []int32{3, 0, 1, 2} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want)
		}
	}
}

func TestUnpackSpanningBytes(t *testing.T) {
	// The parquet-format documentation packs [0..7] at width 3 as the bytes
	// 10001000 11000110 11111010.
	dst := make([]int32, 8)
	n := Unpack(dst, []byte{0x88, 0xC6, 0xFA}, 3)
	if n != 8 {
		t.Fatalf("unpacked %d values, want 8", n)
	}
	for i := range dst {
		if dst[i] != int32(i) {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], i)
		}
	}
}

func TestUnpackTruncatedSource(t *testing.T) {
	// Two bytes hold only 5 complete 3-bit values.
	dst := make([]int32, 8)
	if n := Unpack(dst, []byte{0x88, 0xC6}, 3); n != 5 {
		t.Fatalf("unpacked %d values, want 5", n)
	}
}

func TestUnpackZeroWidth(t *testing.T) {
	dst := []int32{1, 2, 3}
	if n := Unpack(dst, nil, 0); n != 3 {
		t.Fatalf("unpacked %d values, want 3", n)
	}
	for i := range dst {
		if dst[i] != 0 {
			t.Errorf("dst[%d] = %d, want 0", i, dst[i])
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	prng := rand.New(rand.NewSource(0))

	for bitWidth := uint(1); bitWidth <= 31; bitWidth++ {
		src := make([]int32, 8*(1+prng.Intn(16)))
		for i := range src {
			src[i] = prng.Int31() & int32((uint32(1)<<bitWidth)-1)
		}

		packed := Pack(nil, src, bitWidth)
		if len(packed) != ByteCount(uint(len(src))*bitWidth) {
			t.Fatalf("bitWidth=%d: packed %d bytes, want %d", bitWidth, len(packed), ByteCount(uint(len(src))*bitWidth))
		}

		dst := make([]int32, len(src))
		if n := Unpack(dst, packed, bitWidth); n != len(src) {
			t.Fatalf("bitWidth=%d: unpacked %d values, want %d", bitWidth, n, len(src))
		}
		for i := range src {
			if dst[i] != src[i] {
				t.Fatalf("bitWidth=%d: dst[%d] = %d, want %d", bitWidth, i, dst[i], src[i])
			}
		}
	}
}
