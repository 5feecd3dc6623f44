// Package rle implements the hybrid RLE/bit-packed encoding employed for
// repetition levels, definition levels, and dictionary indices.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#run-length-encoding--bit-packing-hybrid-rle--3
package rle

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hollowdb/parquet/encoding"
	"github.com/hollowdb/parquet/format"
	"github.com/hollowdb/parquet/internal/bitpack"
	"github.com/hollowdb/parquet/internal/bitstream"
)

// MaxBitWidth is the largest bit width the codec accepts. Parquet caps level
// and index widths well below this; 32 is rejected because the run value
// reader returns int32.
const MaxBitWidth = 31

// maxRunLength is the largest count a single RLE run header can carry.
const maxRunLength = math.MaxInt32 >> 1

// Encoding implements the encoding.Encoding interface for the hybrid codec.
type Encoding struct {
	BitWidth int
}

func (e *Encoding) String() string { return "RLE" }

func (e *Encoding) Encoding() format.Encoding { return format.RLE }

func checkBitWidth(bitWidth int) error {
	if bitWidth < 0 || bitWidth > MaxBitWidth {
		return fmt.Errorf("rle: bit width %d out of range [0,%d]: %w", bitWidth, MaxBitWidth, bitstream.ErrMalformed)
	}
	return nil
}

// Decode appends to dst up to maxItems values decoded from the hybrid stream
// in src, reading runs until src is exhausted, maxItems values have been
// produced, or a zero-length RLE run terminates the stream.
//
// A bit-packed run whose trailing bytes are missing yields the values that
// fit; the last page of a column chunk is allowed to be short.
func Decode(dst []int32, src []byte, bitWidth, maxItems int) ([]int32, error) {
	if err := checkBitWidth(bitWidth); err != nil {
		return dst, err
	}

	if bitWidth == 0 {
		for i := 0; i < maxItems; i++ {
			dst = append(dst, 0)
		}
		return dst, nil
	}

	for maxItems > 0 && len(src) > 0 {
		u, n, err := bitstream.Uvarint(src)
		if err != nil {
			return dst, fmt.Errorf("rle: reading run header: %w", err)
		}
		src = src[n:]

		if (u & 1) != 0 { // bit-packed run
			groups := int(u >> 1)
			runBytes := groups * bitWidth
			if runBytes > len(src) {
				runBytes = len(src)
			}

			count := 8 * groups
			if count > maxItems {
				count = maxItems
			}

			i := len(dst)
			for j := 0; j < count; j++ {
				dst = append(dst, 0)
			}
			decoded := bitpack.Unpack(dst[i:], src[:runBytes], uint(bitWidth))
			dst = dst[:i+decoded]

			src = src[runBytes:]
			maxItems -= decoded

			if decoded < count {
				// Truncated tail; nothing more to read.
				return dst, nil
			}
		} else { // rle run
			count := int(u >> 1)
			if count == 0 {
				// A zero-length run marks the end of the stream; stopping here
				// keeps a corrupted header from cascading into garbage values.
				return dst, nil
			}

			width := bitpack.ByteCount(uint(bitWidth))
			value, err := bitstream.ReadIntLE(src, width)
			if err != nil {
				return dst, fmt.Errorf("rle: reading repeated value of run length %d: %w", count, err)
			}
			src = src[width:]

			if count > maxItems {
				count = maxItems
			}
			for i := 0; i < count; i++ {
				dst = append(dst, value)
			}
			maxItems -= count
		}
	}

	return dst, nil
}

// Encode appends the hybrid encoding of src at the given bit width to dst.
//
// The encoder emits RLE runs only, chunking consecutive equal values; this is
// a conformant subset of the format, and decoders accept it interchangeably
// with bit-packed runs.
func Encode(dst []byte, src []int32, bitWidth int) ([]byte, error) {
	if err := checkBitWidth(bitWidth); err != nil {
		return dst, err
	}

	width := bitpack.ByteCount(uint(bitWidth))

	for i := 0; i < len(src); {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}

		for count := j - i; count > 0; {
			run := count
			if run > maxRunLength {
				run = maxRunLength
			}
			dst = bitstream.AppendUvarint(dst, uint64(run)<<1)
			dst = bitstream.AppendIntLE(dst, src[i], width)
			count -= run
		}

		i = j
	}

	return dst, nil
}

// EncodeWithLength appends the hybrid encoding of src preceded by its byte
// length as a little-endian int32, the framing used by definition and
// repetition level streams of data pages v1.
func EncodeWithLength(dst []byte, src []int32, bitWidth int) ([]byte, error) {
	base := len(dst)
	dst = append(dst, 0, 0, 0, 0)

	dst, err := Encode(dst, src, bitWidth)
	if err != nil {
		return dst, err
	}

	binary.LittleEndian.PutUint32(dst[base:], uint32(len(dst)-base-4))
	return dst, nil
}

// DecodeWithLength decodes a length-prefixed hybrid stream from the head of
// src, returning the decoded values and the total number of bytes consumed
// including the 4-byte prefix.
func DecodeWithLength(dst []int32, src []byte, bitWidth, maxItems int) ([]int32, int, error) {
	if len(src) < 4 {
		return dst, 0, fmt.Errorf("rle: stream shorter than its length prefix: %w", bitstream.ErrMalformed)
	}

	length := int(binary.LittleEndian.Uint32(src))
	if length > len(src)-4 {
		return dst, 0, fmt.Errorf("rle: length prefix %d exceeds remaining %d bytes: %w", length, len(src)-4, bitstream.ErrMalformed)
	}

	dst, err := Decode(dst, src[4:4+length], bitWidth, maxItems)
	return dst, 4 + length, err
}

var _ encoding.Encoding = (*Encoding)(nil)
