// Package bitstream implements the integer primitives shared by the parquet
// encodings: unsigned LEB128 varints and fixed-width little-endian integers
// with byte widths between 0 and 4.
package bitstream

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel wrapped by all decoding errors of this
// package; the root package re-exports it as parquet.ErrMalformed.
var ErrMalformed = errors.New("parquet: malformed data")

// maxUvarintLen32 bounds the number of bytes a varint carrying a 32-bit value
// may occupy before the decoder declares the stream malformed.
const maxUvarintLen32 = 5

// AppendUvarint appends the unsigned LEB128 representation of v to dst.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// Uvarint decodes an unsigned LEB128 integer from the head of b, returning
// the value and the number of bytes consumed.
func Uvarint(b []byte) (uint64, int, error) {
	var v uint64
	var shift uint

	for i, c := range b {
		if i == maxUvarintLen32 {
			return 0, 0, fmt.Errorf("varint longer than %d bytes: %w", maxUvarintLen32, ErrMalformed)
		}
		v |= uint64(c&0x7F) << shift
		if (c & 0x80) == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}

	return 0, 0, fmt.Errorf("unterminated varint: %w", ErrMalformed)
}

// ReadIntLE reads a little-endian unsigned integer of the given byte width
// from the head of b. A width of zero yields zero without consuming input;
// widths above 4 are rejected. The result is an int32, so at width 4 a value
// with the top bit set comes back negative.
func ReadIntLE(b []byte, width int) (int32, error) {
	if width > 4 {
		return 0, fmt.Errorf("integer byte width %d out of range: %w", width, ErrMalformed)
	}
	if len(b) < width {
		return 0, fmt.Errorf("need %d bytes to read integer, have %d: %w", width, len(b), ErrMalformed)
	}

	v := uint32(0)
	for i := 0; i < width; i++ {
		v |= uint32(b[i]) << (8 * uint(i))
	}
	return int32(v), nil
}

// AppendIntLE appends the low width bytes of v to dst in little-endian order.
func AppendIntLE(dst []byte, v int32, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(uint32(v)>>(8*uint(i))))
	}
	return dst
}
