package compress_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/hollowdb/parquet/compress"
	"github.com/hollowdb/parquet/compress/brotli"
	"github.com/hollowdb/parquet/compress/gzip"
	"github.com/hollowdb/parquet/compress/lz4"
	"github.com/hollowdb/parquet/compress/snappy"
	"github.com/hollowdb/parquet/compress/uncompressed"
	"github.com/hollowdb/parquet/compress/zstd"
)

var codecs = [...]compress.Codec{
	new(uncompressed.Codec),
	new(snappy.Codec),
	new(gzip.Codec),
	new(brotli.Codec),
	new(zstd.Codec),
	new(lz4.Codec),
}

var testdata = [...][]byte{
	nil,
	[]byte(""),
	[]byte("A"),
	[]byte("1234567890qwertyuiopasdfghjklzxcvbnm"),
	bytes.Repeat([]byte("0123456789"), 1000),
	randomBytes(4096),
}

func randomBytes(n int) []byte {
	prng := rand.New(rand.NewSource(0))
	b := make([]byte, n)
	prng.Read(b)
	return b
}

func TestCompressionCodecs(t *testing.T) {
	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			for _, input := range testdata {
				compressed, err := codec.Encode(nil, input)
				if err != nil {
					t.Fatal("encode:", err)
				}

				decompressed, err := codec.Decode(nil, compressed)
				if err != nil {
					t.Fatal("decode:", err)
				}
				if !bytes.Equal(input, decompressed) {
					t.Errorf("content mismatch after round trip: %d bytes in, %d bytes out", len(input), len(decompressed))
				}

				// Codecs are reused across pages, the buffers they hand back
				// must be safe to pass in again.
				compressed, err = codec.Encode(compressed, input)
				if err != nil {
					t.Fatal("encode (reused buffer):", err)
				}
				decompressed, err = codec.Decode(decompressed, compressed)
				if err != nil {
					t.Fatal("decode (reused buffer):", err)
				}
				if !bytes.Equal(input, decompressed) {
					t.Errorf("content mismatch after buffered round trip: %d bytes in, %d bytes out", len(input), len(decompressed))
				}
			}
		})
	}
}
