// Package plain implements the PLAIN parquet encoding: fixed-width
// little-endian values for numeric types, length-prefixed buffers for byte
// arrays, and bit-packed booleans.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#plain-plain--0
package plain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hollowdb/parquet/encoding"
	"github.com/hollowdb/parquet/format"
	"github.com/hollowdb/parquet/internal/bitstream"
)

// ByteArrayLengthSize is the size of the length prefix of byte array values.
const ByteArrayLengthSize = 4

// Int96Size is the size of an INT96 value in bytes.
const Int96Size = 12

type Encoding struct{}

func (e *Encoding) String() string { return "PLAIN" }

func (e *Encoding) Encoding() format.Encoding { return format.Plain }

func errTruncated(what string, need, have int) error {
	return fmt.Errorf("plain: %s needs %d bytes, have %d: %w", what, need, have, bitstream.ErrMalformed)
}

// DecodeBoolean appends count booleans decoded from the bit-packed head of
// src to dst, returning the extended slice and the number of bytes consumed.
func DecodeBoolean(dst []bool, src []byte, count int) ([]bool, int, error) {
	n := (count + 7) / 8
	if n > len(src) {
		return dst, 0, errTruncated("boolean values", n, len(src))
	}
	for i := 0; i < count; i++ {
		dst = append(dst, (src[i/8]>>(uint(i)%8))&1 != 0)
	}
	return dst, n, nil
}

// AppendBoolean appends the bit-packed encoding of src to dst.
func AppendBoolean(dst []byte, src []bool) []byte {
	var current byte
	for i, v := range src {
		if v {
			current |= 1 << (uint(i) % 8)
		}
		if i%8 == 7 {
			dst = append(dst, current)
			current = 0
		}
	}
	if len(src)%8 != 0 {
		dst = append(dst, current)
	}
	return dst
}

// DecodeInt32 appends count int32 values decoded from src to dst.
func DecodeInt32(dst []int32, src []byte, count int) ([]int32, int, error) {
	n := 4 * count
	if n > len(src) {
		return dst, 0, errTruncated("int32 values", n, len(src))
	}
	for i := 0; i < n; i += 4 {
		dst = append(dst, int32(binary.LittleEndian.Uint32(src[i:])))
	}
	return dst, n, nil
}

func AppendInt32(dst []byte, src []int32) []byte {
	var b [4]byte
	for _, v := range src {
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// DecodeInt64 appends count int64 values decoded from src to dst.
func DecodeInt64(dst []int64, src []byte, count int) ([]int64, int, error) {
	n := 8 * count
	if n > len(src) {
		return dst, 0, errTruncated("int64 values", n, len(src))
	}
	for i := 0; i < n; i += 8 {
		dst = append(dst, int64(binary.LittleEndian.Uint64(src[i:])))
	}
	return dst, n, nil
}

func AppendInt64(dst []byte, src []int64) []byte {
	var b [8]byte
	for _, v := range src {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// DecodeInt96 appends count 12-byte INT96 values decoded from src to dst.
func DecodeInt96(dst [][12]byte, src []byte, count int) ([][12]byte, int, error) {
	n := Int96Size * count
	if n > len(src) {
		return dst, 0, errTruncated("int96 values", n, len(src))
	}
	for i := 0; i < n; i += Int96Size {
		var v [12]byte
		copy(v[:], src[i:i+Int96Size])
		dst = append(dst, v)
	}
	return dst, n, nil
}

func AppendInt96(dst []byte, src [][12]byte) []byte {
	for i := range src {
		dst = append(dst, src[i][:]...)
	}
	return dst
}

// DecodeFloat appends count float32 values decoded from src to dst.
func DecodeFloat(dst []float32, src []byte, count int) ([]float32, int, error) {
	n := 4 * count
	if n > len(src) {
		return dst, 0, errTruncated("float values", n, len(src))
	}
	for i := 0; i < n; i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(src[i:])))
	}
	return dst, n, nil
}

func AppendFloat(dst []byte, src []float32) []byte {
	var b [4]byte
	for _, v := range src {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// DecodeDouble appends count float64 values decoded from src to dst.
func DecodeDouble(dst []float64, src []byte, count int) ([]float64, int, error) {
	n := 8 * count
	if n > len(src) {
		return dst, 0, errTruncated("double values", n, len(src))
	}
	for i := 0; i < n; i += 8 {
		dst = append(dst, math.Float64frombits(binary.LittleEndian.Uint64(src[i:])))
	}
	return dst, n, nil
}

func AppendDouble(dst []byte, src []float64) []byte {
	var b [8]byte
	for _, v := range src {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		dst = append(dst, b[:]...)
	}
	return dst
}

// DecodeByteArray appends count byte array values decoded from src to dst.
// Each returned slice is a copy; it does not alias src.
func DecodeByteArray(dst [][]byte, src []byte, count int) ([][]byte, int, error) {
	consumed := 0
	for i := 0; i < count; i++ {
		if len(src) < ByteArrayLengthSize {
			return dst, consumed, errTruncated("byte array length", ByteArrayLengthSize, len(src))
		}
		length := int(binary.LittleEndian.Uint32(src))
		src = src[ByteArrayLengthSize:]
		if length < 0 || length > len(src) {
			return dst, consumed, errTruncated("byte array value", length, len(src))
		}
		value := make([]byte, length)
		copy(value, src)
		dst = append(dst, value)
		src = src[length:]
		consumed += ByteArrayLengthSize + length
	}
	return dst, consumed, nil
}

func AppendByteArray(dst []byte, src [][]byte) []byte {
	var b [4]byte
	for _, v := range src {
		binary.LittleEndian.PutUint32(b[:], uint32(len(v)))
		dst = append(dst, b[:]...)
		dst = append(dst, v...)
	}
	return dst
}

// DecodeFixedLenByteArray appends count values of the given size decoded from
// src to dst. The size comes from the schema, never from the page.
func DecodeFixedLenByteArray(dst [][]byte, src []byte, size, count int) ([][]byte, int, error) {
	if size <= 0 {
		return dst, 0, fmt.Errorf("plain: invalid fixed length byte array size %d: %w", size, bitstream.ErrMalformed)
	}
	n := size * count
	if n > len(src) {
		return dst, 0, errTruncated("fixed length byte array values", n, len(src))
	}
	for i := 0; i < n; i += size {
		value := make([]byte, size)
		copy(value, src[i:i+size])
		dst = append(dst, value)
	}
	return dst, n, nil
}

func AppendFixedLenByteArray(dst []byte, src [][]byte) []byte {
	for _, v := range src {
		dst = append(dst, v...)
	}
	return dst
}

var _ encoding.Encoding = (*Encoding)(nil)
