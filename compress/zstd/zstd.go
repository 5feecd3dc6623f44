// Package zstd implements the ZSTD parquet compression codec.
package zstd

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hollowdb/parquet/format"
)

type Level = zstd.EncoderLevel

const (
	// SpeedFastest will choose the fastest reasonable compression.
	SpeedFastest = zstd.SpeedFastest

	// SpeedDefault is the default "pretty fast" compression option, roughly
	// equivalent to zstd level 3.
	SpeedDefault = zstd.SpeedDefault

	// SpeedBetterCompression will yield better compression than the default
	// at roughly 2x-3x the CPU usage.
	SpeedBetterCompression = zstd.SpeedBetterCompression

	// SpeedBestCompression will choose the best available compression option.
	SpeedBestCompression = zstd.SpeedBestCompression
)

const (
	DefaultLevel       = SpeedDefault
	DefaultConcurrency = 1
)

type Codec struct {
	Level       Level
	Concurrency int

	encoders sync.Pool // *zstd.Encoder
	decoders sync.Pool // *zstd.Decoder
}

func (c *Codec) String() string { return "ZSTD" }

func (c *Codec) CompressionCodec() format.CompressionCodec {
	return format.Zstd
}

func (c *Codec) level() Level {
	if c.Level != 0 {
		return c.Level
	}
	return DefaultLevel
}

func (c *Codec) concurrency() int {
	if c.Concurrency != 0 {
		return c.Concurrency
	}
	return DefaultConcurrency
}

func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	e, _ := c.encoders.Get().(*zstd.Encoder)
	if e == nil {
		var err error
		e, err = zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(c.concurrency()),
			zstd.WithEncoderLevel(c.level()),
			zstd.WithZeroFrames(true),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			return dst, err
		}
	}
	defer c.encoders.Put(e)
	return e.EncodeAll(src, dst[:0]), nil
}

func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	d, _ := c.decoders.Get().(*zstd.Decoder)
	if d == nil {
		var err error
		d, err = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(c.concurrency()),
		)
		if err != nil {
			return dst, err
		}
	}
	defer c.decoders.Put(d)
	return d.DecodeAll(src, dst[:0])
}
