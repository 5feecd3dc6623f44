package parquet

import (
	"fmt"
	"strings"
)

// leafCursor walks the parallel value and level streams of one decoded
// column during record assembly.
type leafCursor struct {
	column *DataColumn
	maxDef int32
	slot   int
	value  int
}

func (c *leafCursor) done() bool { return c.slot >= c.column.NumValues() }

// peekDef returns the definition level of the current slot. Columns with no
// level stream are always fully defined.
func (c *leafCursor) peekDef() int32 {
	if c.column.definitionLevels == nil {
		return c.maxDef
	}
	return c.column.definitionLevels[c.slot]
}

// peekRep returns the repetition level of the current slot. Columns with no
// level stream always start a new row.
func (c *leafCursor) peekRep() int32 {
	if c.column.repetitionLevels == nil {
		return 0
	}
	return c.column.repetitionLevels[c.slot]
}

func (c *leafCursor) path() string {
	return strings.Join(c.column.field.Path(), ".")
}

// next consumes the current slot and returns the value it holds, or the null
// value when one of the column's ancestors was null or empty at this slot.
func (c *leafCursor) next() (Value, error) {
	if c.done() {
		return Value{}, fmt.Errorf("column %q ran out of values: %w", c.path(), ErrLevelMismatch)
	}
	d := c.peekDef()
	c.slot++
	if d < c.maxDef {
		return Value{}, nil
	}
	if c.value >= len(c.column.values) {
		return Value{}, fmt.Errorf("column %q levels declare more present values than the column holds: %w",
			c.path(), ErrLevelMismatch)
	}
	v := c.column.values[c.value]
	c.value++
	return v, nil
}

// skipSlot consumes one slot of every cursor, the bookkeeping entry a null or
// empty container leaves in each of its descendant columns.
func skipSlot(leaves []*leafCursor) error {
	for _, c := range leaves {
		if c.done() {
			return fmt.Errorf("column %q ran out of values: %w", c.path(), ErrLevelMismatch)
		}
		c.slot++
	}
	return nil
}

// leafCount returns the number of leaf columns in the subtree of field.
func leafCount(field Field) int {
	if _, ok := field.(*DataField); ok {
		return 1
	}
	n := 0
	for _, child := range field.Fields() {
		n += leafCount(child)
	}
	return n
}

// assembleRows reconstructs the rows of a row group from its decoded leaf
// columns. Columns may be given in any order; they are matched to the schema
// leaves by column index. The error is ErrLevelMismatch when the level
// streams do not assemble into exactly numRows rows.
func assembleRows(schema *Schema, columns []*DataColumn, numRows int64) ([]Value, error) {
	leaves := schema.Leaves()
	if len(columns) != len(leaves) {
		return nil, fmt.Errorf("assembling rows from %d columns of a schema with %d leaves: %w",
			len(columns), len(leaves), ErrLevelMismatch)
	}

	cursors := make([]*leafCursor, len(leaves))
	for _, column := range columns {
		i := column.field.ColumnIndex()
		if i < 0 || i >= len(cursors) || leaves[i] != column.field {
			return nil, fmt.Errorf("column %q does not belong to the schema: %w",
				strings.Join(column.field.Path(), "."), ErrLevelMismatch)
		}
		cursors[i] = &leafCursor{column: column, maxDef: int32(column.field.MaxDefinitionLevel())}
	}
	for i, c := range cursors {
		if c == nil {
			return nil, fmt.Errorf("column %q was not provided: %w",
				strings.Join(leaves[i].Path(), "."), ErrLevelMismatch)
		}
	}

	fields := schema.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}

	rows := make([]Value, 0, numRows)
	for {
		remaining := 0
		for _, c := range cursors {
			if !c.done() {
				remaining++
			}
		}
		if remaining == 0 {
			break
		}
		if remaining != len(cursors) {
			return nil, fmt.Errorf("columns hold different numbers of rows: %w", ErrLevelMismatch)
		}
		for _, c := range cursors {
			if c.peekRep() != 0 {
				return nil, fmt.Errorf("column %q continues a repeated field at a row boundary: %w",
					c.path(), ErrLevelMismatch)
			}
		}

		values := make([]Value, len(fields))
		offset := 0
		for i, f := range fields {
			n := leafCount(f)
			v, err := assembleValue(f, cursors[offset:offset+n], 0, 0)
			if err != nil {
				return nil, err
			}
			values[i] = v
			offset += n
		}
		rows = append(rows, StructValueOf(names, values))
	}

	if int64(len(rows)) != numRows {
		return nil, fmt.Errorf("assembled %d rows of a row group declaring %d: %w",
			len(rows), numRows, ErrLevelMismatch)
	}
	for _, c := range cursors {
		if c.value != len(c.column.values) {
			return nil, fmt.Errorf("column %q holds %d values the levels never reference: %w",
				c.path(), len(c.column.values)-c.value, ErrLevelMismatch)
		}
	}
	return rows, nil
}

// assembleValue reconstructs one value of field from the cursors of its leaf
// columns. parentRep is the repetition level of the innermost repeated
// ancestor and parentDef the definition level at which the field's parent is
// fully present.
func assembleValue(field Field, leaves []*leafCursor, parentRep, parentDef int32) (Value, error) {
	switch f := field.(type) {
	case *DataField:
		return leaves[0].next()

	case *StructField:
		structDef := parentDef
		if f.Optional() {
			structDef++
			if leaves[0].done() {
				return Value{}, fmt.Errorf("column %q ran out of values: %w", leaves[0].path(), ErrLevelMismatch)
			}
			if leaves[0].peekDef() < structDef {
				if err := skipSlot(leaves); err != nil {
					return Value{}, err
				}
				return Value{}, nil
			}
		}

		children := f.Fields()
		names := make([]string, len(children))
		values := make([]Value, len(children))
		offset := 0
		for i, child := range children {
			n := leafCount(child)
			v, err := assembleValue(child, leaves[offset:offset+n], parentRep, structDef)
			if err != nil {
				return Value{}, err
			}
			names[i] = child.Name()
			values[i] = v
			offset += n
		}
		return StructValueOf(names, values), nil

	case *ListField:
		defPresent := parentDef
		if f.Optional() {
			defPresent++
		}
		defNonEmpty := defPresent + 1
		elementRep := parentRep + 1

		if leaves[0].done() {
			return Value{}, fmt.Errorf("column %q ran out of values: %w", leaves[0].path(), ErrLevelMismatch)
		}
		switch d := leaves[0].peekDef(); {
		case d < defPresent:
			if err := skipSlot(leaves); err != nil {
				return Value{}, err
			}
			return Value{}, nil
		case d < defNonEmpty:
			if err := skipSlot(leaves); err != nil {
				return Value{}, err
			}
			return ListValueOf(), nil
		}

		var elements []Value
		for {
			v, err := assembleValue(f.Item(), leaves, elementRep, defNonEmpty)
			if err != nil {
				return Value{}, err
			}
			elements = append(elements, v)
			if leaves[0].done() || leaves[0].peekRep() != elementRep {
				break
			}
		}
		return ListValueOf(elements...), nil

	case *MapField:
		defPresent := parentDef
		if f.Optional() {
			defPresent++
		}
		defNonEmpty := defPresent + 1
		entryRep := parentRep + 1

		if leaves[0].done() {
			return Value{}, fmt.Errorf("column %q ran out of values: %w", leaves[0].path(), ErrLevelMismatch)
		}
		switch d := leaves[0].peekDef(); {
		case d < defPresent:
			if err := skipSlot(leaves); err != nil {
				return Value{}, err
			}
			return Value{}, nil
		case d < defNonEmpty:
			if err := skipSlot(leaves); err != nil {
				return Value{}, err
			}
			return MapValueOf(nil, nil), nil
		}

		numKeyLeaves := leafCount(f.Key())
		keyLeaves := leaves[:numKeyLeaves]
		valueLeaves := leaves[numKeyLeaves:]

		var keys, values []Value
		for {
			k, err := assembleValue(f.Key(), keyLeaves, entryRep, defNonEmpty)
			if err != nil {
				return Value{}, err
			}
			v, err := assembleValue(f.Value(), valueLeaves, entryRep, defNonEmpty)
			if err != nil {
				return Value{}, err
			}
			keys = append(keys, k)
			values = append(values, v)
			if keyLeaves[0].done() || keyLeaves[0].peekRep() != entryRep {
				break
			}
		}
		return MapValueOf(keys, values), nil

	default:
		return Value{}, fmt.Errorf("cannot assemble values of field type %T", field)
	}
}
