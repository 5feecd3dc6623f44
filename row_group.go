package parquet

import (
	"fmt"
	"strings"

	"github.com/hollowdb/parquet/format"
)

// RowGroup is a view of one row group of an open file. The zero value is not
// usable; row groups are obtained from File.RowGroups.
type RowGroup struct {
	file     *File
	metadata *format.RowGroup
}

// NumRows returns the number of rows declared by the row group metadata.
func (g *RowGroup) NumRows() int64 { return g.metadata.NumRows }

// Schema returns the schema of the file the row group belongs to.
func (g *RowGroup) Schema() *Schema { return g.file.schema }

// Metadata returns the raw footer metadata of g.
func (g *RowGroup) Metadata() *format.RowGroup { return g.metadata }

// ReadColumns reads every column chunk of the row group and returns the
// decoded columns in leaf order.
func (g *RowGroup) ReadColumns() ([]*DataColumn, error) {
	columns := make([]*DataColumn, len(g.metadata.Columns))
	for i := range g.metadata.Columns {
		c, err := g.readColumnChunk(&g.metadata.Columns[i])
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}
	return columns, nil
}

// ReadRows reads every column chunk of the row group and assembles the
// decoded columns back into rows. Each returned value is a struct mirroring
// the top level fields of the schema.
func (g *RowGroup) ReadRows() ([]Value, error) {
	columns, err := g.ReadColumns()
	if err != nil {
		return nil, err
	}
	return assembleRows(g.file.schema, columns, g.metadata.NumRows)
}

// ReadColumn reads the column chunk of the leaf column at the given path,
// expressed the way ColumnMetaData.PathInSchema expresses it, without the
// root.
func (g *RowGroup) ReadColumn(path ...string) (*DataColumn, error) {
	for i := range g.metadata.Columns {
		meta := g.metadata.Columns[i].MetaData
		if meta != nil && columnPath(meta.PathInSchema).equal(path) {
			return g.readColumnChunk(&g.metadata.Columns[i])
		}
	}
	return nil, fmt.Errorf("row group has no column %q", strings.Join(path, "."))
}

func (g *RowGroup) readColumnChunk(chunk *format.ColumnChunk) (*DataColumn, error) {
	meta := chunk.MetaData
	if meta == nil {
		return nil, fmt.Errorf("column chunk carries no metadata: %w", ErrMalformed)
	}

	leaf, ok := g.file.schema.Lookup(meta.PathInSchema...)
	if !ok {
		return nil, fmt.Errorf("column chunk path %q not found in schema: %w",
			strings.Join(meta.PathInSchema, "."), ErrMalformed)
	}
	if meta.Type != leaf.Type() {
		return nil, fmt.Errorf("column %q declares physical type %s but the schema says %s: %w",
			strings.Join(meta.PathInSchema, "."), meta.Type, leaf.Type(), ErrTypeMismatch)
	}

	cr := columnChunkReader{
		file: g.file,
		leaf: leaf,
		meta: meta,
	}
	column, err := cr.readColumn()
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", strings.Join(meta.PathInSchema, "."), err)
	}
	return column, nil
}
