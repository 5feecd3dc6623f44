package parquet

import (
	"github.com/hollowdb/parquet/encoding"
	"github.com/hollowdb/parquet/encoding/plain"
	"github.com/hollowdb/parquet/encoding/rle"
	"github.com/hollowdb/parquet/format"
)

var (
	plainEncoding plain.Encoding
	rleEncoding   rle.Encoding
)

// lookupEncoding maps a format encoding code to its implementation. Codes
// the library recognizes but does not implement map to a NotSupported stub,
// so callers get ErrNotSupported at use time instead of a nil dereference.
func lookupEncoding(enc format.Encoding) encoding.Encoding {
	switch enc {
	case format.Plain:
		return &plainEncoding
	case format.RLE, format.PlainDictionary, format.RLEDictionary:
		return &rleEncoding
	default:
		return encoding.NotSupported{Code: enc}
	}
}

// errUnsupportedEncoding builds the error surfaced when a page uses a
// recognized encoding with no implementation.
func errUnsupportedEncoding(enc format.Encoding) error {
	return encoding.Error(lookupEncoding(enc), encoding.ErrNotSupported)
}
