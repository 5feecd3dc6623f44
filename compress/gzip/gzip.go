// Package gzip implements the GZIP parquet compression codec.
package gzip

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/hollowdb/parquet/compress"
	"github.com/hollowdb/parquet/format"
)

const (
	NoCompression      = gzip.NoCompression
	BestSpeed          = gzip.BestSpeed
	BestCompression    = gzip.BestCompression
	DefaultCompression = gzip.DefaultCompression
)

type Codec struct {
	Level int

	r compress.Decompressor
	w compress.Compressor
}

func (c *Codec) String() string { return "GZIP" }

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Gzip
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.w.Encode(dst, src, func(w io.Writer) (compress.Writer, error) {
		level := c.Level
		if level == 0 {
			level = DefaultCompression
		}
		return gzip.NewWriterLevel(w, level)
	})
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.r.Decode(dst, src, func(r io.Reader) (compress.Reader, error) {
		z, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &reader{z}, nil
	})
}

type reader struct{ *gzip.Reader }

func (r *reader) Reset(rr io.Reader) error {
	if rr == nil {
		return nil
	}
	return r.Reader.Reset(rr)
}
