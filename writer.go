package parquet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/segmentio/encoding/thrift"

	"github.com/hollowdb/parquet/format"
)

// WriteFile writes rows to w as a parquet file with a single row group.
//
// Rows must be struct values whose fields match the schema's top level
// fields by name; missing optional fields are written as nulls. The file
// produced round-trips through OpenFile.
func WriteFile(w io.Writer, schema *Schema, rows []Value, options ...WriterOption) error {
	config := DefaultWriterConfig()
	config.Apply(options...)
	if err := config.Validate(); err != nil {
		return err
	}

	columns, err := shredRows(schema, rows)
	if err != nil {
		return err
	}

	cw := &countingWriter{writer: w}
	if _, err := io.WriteString(cw, "PAR1"); err != nil {
		return err
	}

	rowGroupOffset := cw.offset
	chunks := make([]format.ColumnChunk, len(columns))
	totalByteSize := int64(0)
	for i, column := range columns {
		ccw := columnChunkWriter{config: config, column: column}
		meta, err := ccw.writeTo(cw)
		if err != nil {
			return fmt.Errorf("writing column %q: %w", column.field.Name(), err)
		}
		chunks[i] = format.ColumnChunk{
			FileOffset: meta.DataPageOffset,
			MetaData:   meta,
		}
		totalByteSize += meta.TotalUncompressedSize
	}

	numRows := int64(len(rows))
	metadata := format.FileMetaData{
		Version: 1,
		Schema:  schema.schemaElements(),
		NumRows: numRows,
		RowGroups: []format.RowGroup{{
			Columns:       chunks,
			TotalByteSize: totalByteSize,
			NumRows:       numRows,
			FileOffset:    &rowGroupOffset,
		}},
		CreatedBy: config.CreatedBy,
	}

	footer, err := thrift.Marshal(new(thrift.CompactProtocol), &metadata)
	if err != nil {
		return fmt.Errorf("encoding parquet file metadata: %w", err)
	}
	if _, err := cw.Write(footer); err != nil {
		return err
	}

	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(footer)))
	if _, err := cw.Write(length[:]); err != nil {
		return err
	}
	_, err = io.WriteString(cw, "PAR1")
	return err
}
