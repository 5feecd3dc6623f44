package parquet

import (
	"fmt"
	"strings"

	"github.com/hollowdb/parquet/format"
)

// shreddedColumn accumulates the value and level streams of one leaf column
// while rows are decomposed for writing.
type shreddedColumn struct {
	field  *DataField
	values []Value
	def    []int32
	rep    []int32
}

func (c *shreddedColumn) push(rep, def int32) {
	c.rep = append(c.rep, rep)
	c.def = append(c.def, def)
}

// shredRows decomposes rows into one value and level stream per schema leaf,
// in leaf order. Rows must be struct values keyed by the schema's top level
// field names; missing fields shred as nulls.
func shredRows(schema *Schema, rows []Value) ([]*shreddedColumn, error) {
	leaves := schema.Leaves()
	columns := make([]*shreddedColumn, len(leaves))
	for i, leaf := range leaves {
		columns[i] = &shreddedColumn{field: leaf}
	}

	fields := schema.Fields()
	for rowIndex, row := range rows {
		if kind := row.Kind(); kind != Struct {
			return nil, fmt.Errorf("row %d is a %s, rows must be structs: %w", rowIndex, kind, ErrTypeMismatch)
		}
		for _, f := range fields {
			if err := shredValue(f, row.FieldByName(f.Name()), 0, 0, 0, columns); err != nil {
				return nil, fmt.Errorf("row %d: %w", rowIndex, err)
			}
		}
	}
	return columns, nil
}

// shredValue records v into the columns of the subtree of field. rep is the
// repetition level of the first slot the value produces, def the definition
// level already established by the field's ancestors, and repDepth the
// number of repeated ancestors entered so far.
func shredValue(field Field, v Value, rep, def, repDepth int32, columns []*shreddedColumn) error {
	switch f := field.(type) {
	case *DataField:
		c := columns[f.ColumnIndex()]
		if v.IsNull() {
			if !f.Optional() {
				return fmt.Errorf("field %q is required but the row holds no value: %w",
					strings.Join(f.Path(), "."), ErrTypeMismatch)
			}
			c.push(rep, def)
			return nil
		}
		if err := checkValueKind(f, v); err != nil {
			return err
		}
		d := def
		if f.Optional() {
			d++
		}
		c.push(rep, d)
		c.values = append(c.values, v)
		return nil

	case *StructField:
		if v.IsNull() {
			if !f.Optional() {
				return fmt.Errorf("field %q is required but the row holds no value: %w",
					f.Name(), ErrTypeMismatch)
			}
			shredNull(f, rep, def, columns)
			return nil
		}
		if v.Kind() != Struct {
			return fmt.Errorf("field %q holds a %s, want STRUCT: %w", f.Name(), v.Kind(), ErrTypeMismatch)
		}
		d := def
		if f.Optional() {
			d++
		}
		for _, child := range f.Fields() {
			if err := shredValue(child, v.FieldByName(child.Name()), rep, d, repDepth, columns); err != nil {
				return err
			}
		}
		return nil

	case *ListField:
		defPresent := def
		if f.Optional() {
			defPresent++
		}
		if v.IsNull() {
			// Null lists of a non-nullable list field shred like empty ones.
			if !f.Optional() {
				def = defPresent
			}
			shredNull(f, rep, def, columns)
			return nil
		}
		if v.Kind() != List {
			return fmt.Errorf("field %q holds a %s, want LIST: %w", f.Name(), v.Kind(), ErrTypeMismatch)
		}
		if v.Len() == 0 {
			shredNull(f, rep, defPresent, columns)
			return nil
		}
		elementRep := repDepth + 1
		for i := 0; i < v.Len(); i++ {
			r := rep
			if i > 0 {
				r = elementRep
			}
			if err := shredValue(f.Item(), v.Index(i), r, defPresent+1, elementRep, columns); err != nil {
				return err
			}
		}
		return nil

	case *MapField:
		defPresent := def
		if f.Optional() {
			defPresent++
		}
		if v.IsNull() {
			if !f.Optional() {
				return fmt.Errorf("field %q is required but the row holds no value: %w",
					f.Name(), ErrTypeMismatch)
			}
			shredNull(f, rep, def, columns)
			return nil
		}
		if v.Kind() != Map {
			return fmt.Errorf("field %q holds a %s, want MAP: %w", f.Name(), v.Kind(), ErrTypeMismatch)
		}
		if v.Len() == 0 {
			shredNull(f, rep, defPresent, columns)
			return nil
		}
		entryRep := repDepth + 1
		for i := 0; i < v.Len(); i++ {
			r := rep
			if i > 0 {
				r = entryRep
			}
			if err := shredValue(f.Key(), v.MapKey(i), r, defPresent+1, entryRep, columns); err != nil {
				return err
			}
			if err := shredValue(f.Value(), v.MapValue(i), r, defPresent+1, entryRep, columns); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("cannot shred values of field type %T", field)
	}
}

// shredNull records the single bookkeeping slot a null or empty container
// leaves in every leaf column of its subtree.
func shredNull(field Field, rep, def int32, columns []*shreddedColumn) {
	if f, ok := field.(*DataField); ok {
		columns[f.ColumnIndex()].push(rep, def)
		return
	}
	for _, child := range field.Fields() {
		shredNull(child, rep, def, columns)
	}
}

// checkValueKind verifies that a value matches the physical type of the leaf
// it is written to.
func checkValueKind(f *DataField, v Value) error {
	if v.Kind() != Kind(f.Type()) {
		return fmt.Errorf("field %q has physical type %s but the row holds a %s value: %w",
			strings.Join(f.Path(), "."), f.Type(), v.Kind(), ErrTypeMismatch)
	}
	if f.Type() == format.FixedLenByteArray && int32(len(v.ByteArray())) != f.TypeLength() {
		return fmt.Errorf("field %q holds fixed length byte arrays of %d bytes, the row holds %d: %w",
			strings.Join(f.Path(), "."), f.TypeLength(), len(v.ByteArray()), ErrTypeMismatch)
	}
	return nil
}
