// Package lz4 implements the LZ4_RAW parquet compression codec.
//
// The legacy LZ4 codec wrapped the blocks in the hadoop framing; LZ4_RAW is
// the plain block format and is what modern writers emit.
package lz4

import (
	"github.com/pierrec/lz4/v4"

	"github.com/hollowdb/parquet/format"
)

type Level = lz4.CompressionLevel

const (
	Fastest = lz4.Fast
	Level1  = lz4.Level1
	Level5  = lz4.Level5
	Level9  = lz4.Level9
)

const DefaultLevel = Fastest

type Codec struct {
	Level Level
}

func (c *Codec) String() string { return "LZ4_RAW" }

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Lz4Raw
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	// CompressBlock* requires the destination to have the full worst-case
	// capacity up front, it does not reallocate.
	if limit := lz4.CompressBlockBound(len(src)); cap(dst) < limit {
		dst = make([]byte, limit)
	} else {
		dst = dst[:cap(dst)]
	}

	var (
		n   int
		err error
	)
	if c.Level == Fastest {
		var compressor lz4.Compressor
		n, err = compressor.CompressBlock(src, dst)
	} else {
		compressor := lz4.CompressorHC{Level: c.Level}
		n, err = compressor.CompressBlock(src, dst)
	}
	if err != nil {
		return dst[:0], err
	}
	if n == 0 {
		// Incompressible input is stored as a raw lz4 literal sequence so the
		// decoder side stays uniform.
		var compressor lz4.Compressor
		n, err = compressor.CompressBlock(src, dst)
		if err != nil {
			return dst[:0], err
		}
	}
	return dst[:n], nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	for {
		n, err := lz4.UncompressBlock(src, dst)
		if err == nil {
			return dst[:n], nil
		}
		if len(dst) >= 8*len(src) && len(dst) > 0 {
			return dst[:0], err
		}
		if size := 2 * (len(dst) + len(src)); cap(dst) < size {
			dst = make([]byte, size)
		} else {
			dst = dst[:cap(dst)]
		}
	}
}
