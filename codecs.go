package parquet

import (
	"fmt"

	"github.com/hollowdb/parquet/compress"
	"github.com/hollowdb/parquet/compress/brotli"
	"github.com/hollowdb/parquet/compress/gzip"
	"github.com/hollowdb/parquet/compress/lz4"
	"github.com/hollowdb/parquet/compress/snappy"
	"github.com/hollowdb/parquet/compress/uncompressed"
	"github.com/hollowdb/parquet/compress/zstd"
	"github.com/hollowdb/parquet/format"
)

var (
	// Uncompressed is a parquet compression codec representing uncompressed
	// pages.
	Uncompressed uncompressed.Codec

	// Snappy is the SNAPPY parquet compression codec.
	Snappy snappy.Codec

	// Gzip is the GZIP parquet compression codec.
	Gzip = gzip.Codec{
		Level: gzip.DefaultCompression,
	}

	// Brotli is the BROTLI parquet compression codec.
	Brotli = brotli.Codec{
		Quality: brotli.DefaultQuality,
		LGWin:   brotli.DefaultLGWin,
	}

	// Zstd is the ZSTD parquet compression codec.
	Zstd = zstd.Codec{
		Level: zstd.DefaultLevel,
	}

	// Lz4Raw is the LZ4_RAW parquet compression codec.
	Lz4Raw = lz4.Codec{
		Level: lz4.DefaultLevel,
	}
)

// compressionCodecs is indexed by format.CompressionCodec. Codes with no
// implementation (LZO, and the legacy hadoop-framed LZ4) are left nil.
var compressionCodecs = [...]compress.Codec{
	format.Uncompressed: &Uncompressed,
	format.Snappy:       &Snappy,
	format.Gzip:         &Gzip,
	format.Brotli:       &Brotli,
	format.Zstd:         &Zstd,
	format.Lz4Raw:       &Lz4Raw,
}

// lookupCompressionCodec returns the implementation of the given codec code,
// or an error wrapping ErrNotSupported when the code is recognized but has no
// implementation.
func lookupCompressionCodec(codec format.CompressionCodec) (compress.Codec, error) {
	if codec >= 0 && int(codec) < len(compressionCodecs) {
		if c := compressionCodecs[codec]; c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("compression codec %s: %w", codec, ErrNotSupported)
}
