package parquet

import (
	"errors"

	"github.com/hollowdb/parquet/encoding"
	"github.com/hollowdb/parquet/internal/bitstream"
)

var (
	// ErrMalformed is returned when the bytes of a file, page, or level
	// stream do not match the parquet wire format: varint overflow, run value
	// widths above 4 bytes, truncated structures, or bad magic. It is shared
	// with the encoding sub-packages.
	ErrMalformed = bitstream.ErrMalformed

	// ErrSchemaAssignConflict is returned when assigning a child to a schema
	// node that already has its children.
	ErrSchemaAssignConflict = errors.New("parquet: schema node already assigned")

	// ErrLevelMismatch is returned when record assembly produces a number of
	// rows different from the row group's declared row count.
	ErrLevelMismatch = errors.New("parquet: level/row count mismatch")

	// ErrTypeMismatch is returned when a column is requested as a type
	// incompatible with its physical type.
	ErrTypeMismatch = errors.New("parquet: column type mismatch")

	// ErrMissingRootColumn is returned by OpenFile when the footer carries an
	// empty schema.
	ErrMissingRootColumn = errors.New("parquet: file is missing a root column")

	// ErrNotSupported is returned when a page carries a value encoding or
	// compression codec that the library recognizes but does not implement.
	ErrNotSupported = encoding.ErrNotSupported
)
