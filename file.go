package parquet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/segmentio/encoding/thrift"

	"github.com/hollowdb/parquet/format"
	"github.com/hollowdb/parquet/internal/debug"
)

// File represents a parquet file opened for reading.
type File struct {
	metadata  format.FileMetaData
	protocol  thrift.CompactProtocol
	reader    io.ReaderAt
	size      int64
	buffer    [8]byte
	schema    *Schema
	config    *ReaderConfig
	rowGroups []*RowGroup
}

// OpenFile opens a parquet file from the content between offset 0 and the
// given size in r.
//
// Only the parquet magic bytes and footer are read; column chunks and other
// parts of the file are left untouched. This means that successfully opening
// a file does not validate that the pages are not corrupted.
func OpenFile(r io.ReaderAt, size int64, options ...ReaderOption) (*File, error) {
	c := DefaultReaderConfig()
	c.Apply(options...)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f := &File{
		reader: r,
		size:   size,
		config: c,
	}

	if size < 12 {
		return nil, fmt.Errorf("file of size %d is too short to be a parquet file: %w", size, ErrMalformed)
	}

	if _, err := r.ReadAt(f.buffer[:4], 0); err != nil {
		return nil, fmt.Errorf("reading magic header of parquet file: %w", err)
	}
	if string(f.buffer[:4]) != "PAR1" {
		return nil, fmt.Errorf("invalid magic header of parquet file: %q: %w", f.buffer[:4], ErrMalformed)
	}

	if _, err := r.ReadAt(f.buffer[:8], size-8); err != nil {
		return nil, fmt.Errorf("reading magic footer of parquet file: %w", err)
	}
	if string(f.buffer[4:8]) != "PAR1" {
		return nil, fmt.Errorf("invalid magic footer of parquet file: %q: %w", f.buffer[4:8], ErrMalformed)
	}

	footerSize := int64(binary.LittleEndian.Uint32(f.buffer[:4]))
	if footerSize > size-12 {
		return nil, fmt.Errorf("footer of size %d overflows the file: %w", footerSize, ErrMalformed)
	}
	footerData := io.NewSectionReader(r, size-(footerSize+8), footerSize)

	if err := thrift.NewDecoder(f.protocol.NewReader(bufio.NewReader(footerData))).Decode(&f.metadata); err != nil {
		return nil, fmt.Errorf("reading parquet file metadata: %w", err)
	}

	if len(f.metadata.Schema) == 0 {
		return nil, ErrMissingRootColumn
	}

	schema, err := SchemaOf(f.metadata.Schema)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file schema: %w", err)
	}
	f.schema = schema

	f.rowGroups = make([]*RowGroup, len(f.metadata.RowGroups))
	for i := range f.metadata.RowGroups {
		f.rowGroups[i] = &RowGroup{
			file:     f,
			metadata: &f.metadata.RowGroups[i],
		}
	}

	debug.Format("parquet: opened file of %d bytes, footer of %d bytes, %d row groups",
		size, footerSize, len(f.rowGroups))
	return f, nil
}

// Schema returns the schema decoded from the file footer.
func (f *File) Schema() *Schema { return f.schema }

// Metadata returns the raw footer metadata of f.
func (f *File) Metadata() *format.FileMetaData { return &f.metadata }

// NumRows returns the total number of rows declared by the footer.
func (f *File) NumRows() int64 { return f.metadata.NumRows }

// CreatedBy returns the application string recorded by the file writer, or
// an empty string if it was omitted.
func (f *File) CreatedBy() string { return f.metadata.CreatedBy }

// Lookup returns the value of the file-level key/value metadata entry with
// the given key.
func (f *File) Lookup(key string) (string, bool) {
	for _, kv := range f.metadata.KeyValueMetadata {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// RowGroups returns the row groups of f in file order.
func (f *File) RowGroups() []*RowGroup { return f.rowGroups }

// ReadRows reads and assembles the rows of every row group of f in file
// order.
func (f *File) ReadRows() ([]Value, error) {
	var rows []Value
	for _, g := range f.rowGroups {
		r, err := g.ReadRows()
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

// Size returns the size of f (in bytes).
func (f *File) Size() int64 { return f.size }

// ReadAt reads bytes into b from f at the given offset.
//
// The method satisfies the io.ReaderAt interface.
func (f *File) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off >= f.size {
		return 0, io.EOF
	}

	if limit := f.size - off; limit < int64(len(b)) {
		n, err := f.reader.ReadAt(b[:limit], off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}

	return f.reader.ReadAt(b, off)
}

var (
	_ io.ReaderAt = (*File)(nil)
)
