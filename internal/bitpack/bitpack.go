// Package bitpack implements the little-endian bit packing layout used by the
// parquet RLE/bit-packed hybrid encoding: values occupy bitWidth bits each,
// LSB-first within each byte, spanning byte boundaries, in groups of 8.
package bitpack

// ByteCount returns the number of bytes needed to hold the given count of
// bits.
func ByteCount(bitCount uint) int {
	return int((bitCount + 7) / 8)
}

// Unpack decodes values of the given bit width from src into dst, returning
// the number of values decoded.
//
// Decoding stops when dst is full or when src does not contain enough bits to
// form a complete value; partial trailing values are not materialized.
func Unpack(dst []int32, src []byte, bitWidth uint) int {
	if bitWidth == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return len(dst)
	}

	count := int((8 * uint(len(src))) / bitWidth)
	if count > len(dst) {
		count = len(dst)
	}

	mask := uint32(1<<bitWidth) - 1
	bitIndex := uint(0)

	for i := 0; i < count; i++ {
		byteIndex := bitIndex / 8
		bitOffset := bitIndex % 8

		bits := uint32(src[byteIndex]) >> bitOffset
		loaded := 8 - bitOffset

		for loaded < bitWidth {
			byteIndex++
			bits |= uint32(src[byteIndex]) << loaded
			loaded += 8
		}

		dst[i] = int32(bits & mask)
		bitIndex += bitWidth
	}

	return count
}

// Pack appends the values of src to dst at the given bit width, padding the
// last byte with zero bits, and returns the extended buffer.
//
// Values are truncated to bitWidth bits; callers are expected to have checked
// that the values fit.
func Pack(dst []byte, src []int32, bitWidth uint) []byte {
	if bitWidth == 0 {
		return dst
	}

	mask := uint32(1<<bitWidth) - 1
	accum := uint64(0)
	loaded := uint(0)

	for _, v := range src {
		accum |= uint64(uint32(v)&mask) << loaded
		loaded += bitWidth

		for loaded >= 8 {
			dst = append(dst, byte(accum))
			accum >>= 8
			loaded -= 8
		}
	}

	if loaded > 0 {
		dst = append(dst, byte(accum))
	}

	return dst
}
