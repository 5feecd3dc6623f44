// Package brotli implements the BROTLI parquet compression codec.
package brotli

import (
	"io"

	"github.com/andybalholm/brotli"

	"github.com/hollowdb/parquet/compress"
	"github.com/hollowdb/parquet/format"
)

const (
	DefaultQuality = 0 // brotli's fastest level
	DefaultLGWin   = 0
)

type Codec struct {
	Quality int
	LGWin   int

	r compress.Decompressor
	w compress.Compressor
}

func (c *Codec) String() string { return "BROTLI" }

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Brotli
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.w.Encode(dst, src, func(w io.Writer) (compress.Writer, error) {
		return writer{brotli.NewWriterOptions(w, brotli.WriterOptions{
			Quality: c.Quality,
			LGWin:   c.LGWin,
		})}, nil
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.r.Decode(dst, src, func(r io.Reader) (compress.Reader, error) {
		return reader{brotli.NewReader(r)}, nil
	})
}

type writer struct{ *brotli.Writer }

type reader struct{ *brotli.Reader }

func (r reader) Close() error { return nil }

func (r reader) Reset(rr io.Reader) error {
	if rr == nil {
		return nil
	}
	return r.Reader.Reset(rr)
}
