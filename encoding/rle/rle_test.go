package rle

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/hollowdb/parquet/internal/bitpack"
	"github.com/hollowdb/parquet/internal/bitstream"
	"github.com/hollowdb/parquet/internal/quick"
)

func TestDecodeRLERun(t *testing.T) {
	// One run of 10 times the value 5 at bit width 3.
	src := bitstream.AppendUvarint(nil, 10<<1)
	src = append(src, 5)

	dst, err := Decode(nil, src, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(dst) != 10 {
		t.Fatalf("decoded %d values, want 10", len(dst))
	}
	for i, v := range dst {
		if v != 5 {
			t.Errorf("dst[%d] = %d, want 5", i, v)
		}
	}
}

func TestDecodeBitPackedRun(t *testing.T) {
	// One bit-packed group of [0..7] at bit width 3.
	src := bitstream.AppendUvarint(nil, (1<<1)|1)
	src = append(src, 0x88, 0xC6, 0xFA)

	dst, err := Decode(nil, src, 3, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{0, 1, 2, 3, 4, 5, 6, 7}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeMixedRuns(t *testing.T) {
	// An RLE run of 4 ones followed by a bit-packed group of [0..7], width 3.
	src := bitstream.AppendUvarint(nil, 4<<1)
	src = append(src, 1)
	src = bitstream.AppendUvarint(src, (1<<1)|1)
	src = append(src, 0x88, 0xC6, 0xFA)

	dst, err := Decode(nil, src, 3, 12)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{1, 1, 1, 1, 0, 1, 2, 3, 4, 5, 6, 7}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeZeroCountRunTerminates(t *testing.T) {
	// A zero-length RLE run stops decoding; the trailing garbage run header
	// must not be consumed.
	src := bitstream.AppendUvarint(nil, 3<<1)
	src = append(src, 9)
	src = bitstream.AppendUvarint(src, 0)
	src = append(src, 0xFF, 0xFF, 0xFF)

	dst, err := Decode(nil, src, 4, 100)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int32{9, 9, 9}; !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeTruncatedBitPackedTail(t *testing.T) {
	// The header announces 2 groups (16 values) at width 4 but only 5 of the
	// nominal 8 bytes follow; the 10 values that fit are returned.
	src := bitstream.AppendUvarint(nil, (2<<1)|1)
	packed := bitpack.Pack(nil, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 0}, 4)
	src = append(src, packed[:5]...)

	dst, err := Decode(nil, src, 4, 16)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeStopsAtMaxItems(t *testing.T) {
	src := bitstream.AppendUvarint(nil, 100<<1)
	src = append(src, 7)

	dst, err := Decode(nil, src, 3, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(dst) != 12 {
		t.Errorf("decoded %d values, want 12", len(dst))
	}
}

func TestDecodeBitWidthZero(t *testing.T) {
	dst, err := Decode(nil, nil, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int32{0, 0, 0, 0, 0}; !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeBitWidth32Rejected(t *testing.T) {
	_, err := Decode(nil, []byte{0x02, 0x01}, 32, 1)
	if !errors.Is(err, bitstream.ErrMalformed) {
		t.Errorf("bit width 32: got %v, want ErrMalformed", err)
	}
}

func TestDecodeUnterminatedVarint(t *testing.T) {
	_, err := Decode(nil, []byte{0x80, 0x80}, 3, 10)
	if !errors.Is(err, bitstream.ErrMalformed) {
		t.Errorf("unterminated header: got %v, want ErrMalformed", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := []int32{7, 7, 7, 7, 9, 9}

	enc, err := Encode(nil, src, 4)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := Decode(nil, enc, 4, len(src))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("round trip of %v returned %v", src, dst)
	}
}

func TestEncodeDecodeRandomRoundTrip(t *testing.T) {
	for _, bitWidth := range []int{1, 2, 3, 5, 8, 13, 16, 21, 31} {
		bitWidth := bitWidth
		t.Run(fmt.Sprintf("bitWidth=%d", bitWidth), func(t *testing.T) {
			mask := int32(uint32(1)<<uint(bitWidth) - 1)
			err := quick.Check(func(in []int32) bool {
				src := make([]int32, len(in))
				for i, v := range in {
					src[i] = v & mask
				}
				enc, err := Encode(nil, src, bitWidth)
				if err != nil {
					return false
				}
				dst, err := Decode(nil, enc, bitWidth, len(src))
				if err != nil {
					return false
				}
				if len(src) == 0 {
					return len(dst) == 0
				}
				return reflect.DeepEqual(dst, src)
			})
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestEncodeWithLengthFraming(t *testing.T) {
	src := []int32{1, 1, 0, 0, 0, 1}

	enc, err := EncodeWithLength(nil, src, 1)
	if err != nil {
		t.Fatal(err)
	}

	dst, consumed, err := DecodeWithLength(nil, enc, 1, len(src))
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(enc) {
		t.Errorf("consumed %d of %d bytes", consumed, len(enc))
	}
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("round trip of %v returned %v", src, dst)
	}
}

func TestDecodeWithLengthTrailingBytesUntouched(t *testing.T) {
	enc, err := EncodeWithLength(nil, []int32{3, 3, 3}, 2)
	if err != nil {
		t.Fatal(err)
	}
	withTrailer := append(enc, 0xAA, 0xBB)

	dst, consumed, err := DecodeWithLength(nil, withTrailer, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(enc) {
		t.Errorf("consumed %d bytes, want %d", consumed, len(enc))
	}
	if want := []int32{3, 3, 3}; !reflect.DeepEqual(dst, want) {
		t.Errorf("decoded %v, want %v", dst, want)
	}
}

func TestDecodeWithLengthTruncatedPrefix(t *testing.T) {
	_, _, err := DecodeWithLength(nil, []byte{1, 0}, 1, 1)
	if !errors.Is(err, bitstream.ErrMalformed) {
		t.Errorf("short prefix: got %v, want ErrMalformed", err)
	}
}
