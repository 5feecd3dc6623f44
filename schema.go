package parquet

import (
	"fmt"
	"strings"

	"github.com/hollowdb/parquet/format"
)

// Schema is a frozen parquet schema tree.
//
// Schemas are constructed once, either programmatically with NewSchema or
// from decoded file metadata with SchemaOf, and are immutable afterwards.
// They are therefore safe to share between concurrent column readers.
type Schema struct {
	name   string
	root   *StructField
	leaves []*DataField
	byPath map[string]*DataField
}

// NewSchema freezes the given fields into a schema. It assigns column paths
// and repetition/definition levels top-down, and validates the construction
// rules: struct children have unique names, lists have exactly one item,
// maps have a required hashable key and a value.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	root := &StructField{fieldInfo: fieldInfo{name: name}}
	for _, f := range fields {
		if err := root.AddField(f); err != nil {
			return nil, err
		}
	}

	s := &Schema{
		name:   name,
		root:   root,
		byPath: make(map[string]*DataField),
	}
	for _, f := range fields {
		if err := s.assign(f, nil, 0, 0); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// assign walks the field tree computing paths and levels from the parent's
// repetition and definition levels, per the usual parquet rules: optional
// adds one definition level, repeated adds one definition and one
// repetition level.
func (s *Schema) assign(field Field, parent columnPath, rep, def int8) error {
	// Levels are stored as int8; two slots of headroom cover the container
	// group and optional wrapper a list or map adds in one step.
	if int(def) > MaxDefinitionLevel-2 || int(rep) > MaxRepetitionLevel-1 {
		return fmt.Errorf("schema nests %q deeper than %d levels", parent.append(field.Name()), MaxColumnDepth)
	}

	switch f := field.(type) {
	case *DataField:
		f.path = parent.append(f.name)
		f.maxRep = rep
		f.maxDef = def
		if f.optional {
			f.maxDef++
		}
		if f.typ == format.FixedLenByteArray && f.typeLength <= 0 {
			return fmt.Errorf("leaf %q: fixed_len_byte_array must have a positive size", f.path)
		}
		key := f.path.String()
		if _, exists := s.byPath[key]; exists {
			return fmt.Errorf("duplicate column path %q: %w", key, ErrSchemaAssignConflict)
		}
		f.columnIndex = len(s.leaves)
		s.leaves = append(s.leaves, f)
		s.byPath[key] = f

	case *ListField:
		if f.item == nil {
			return fmt.Errorf("list %q has no item", parent.append(f.name))
		}
		f.path = parent.append(f.name)
		f.maxRep = rep + 1
		f.maxDef = def + 1 // the repeated container group
		if f.optional {
			f.maxDef++
		}
		itemParent := f.path
		switch {
		case f.oneLevel:
			// The repeated element is the list itself, its path is the
			// list's own path.
			itemParent = parent
		case f.containerName != "":
			itemParent = f.path.append(f.containerName)
		}
		return s.assign(f.item, itemParent, f.maxRep, f.maxDef)

	case *MapField:
		if f.key == nil || f.value == nil {
			return fmt.Errorf("map %q is missing its key or value", parent.append(f.name))
		}
		if k, ok := f.key.(*DataField); ok {
			if k.optional {
				return fmt.Errorf("map %q key must be required", parent.append(f.name))
			}
			if !hashableKeyType(k.typ) {
				return fmt.Errorf("map %q key type %s is not hashable", parent.append(f.name), k.typ)
			}
		}
		f.path = parent.append(f.name)
		f.maxRep = rep + 1
		f.maxDef = def + 1 // the repeated key_value group
		if f.optional {
			f.maxDef++
		}
		kv := f.path.append("key_value")
		if err := s.assign(f.key, kv, f.maxRep, f.maxDef); err != nil {
			return err
		}
		return s.assign(f.value, kv, f.maxRep, f.maxDef)

	case *StructField:
		seen := make(map[string]struct{}, len(f.fields))
		for _, child := range f.fields {
			if _, dup := seen[child.Name()]; dup {
				return fmt.Errorf("group %q already has a field named %q: %w",
					f.name, child.Name(), ErrSchemaAssignConflict)
			}
			seen[child.Name()] = struct{}{}
		}
		f.path = parent.append(f.name)
		f.maxRep = rep
		f.maxDef = def
		if f.optional {
			f.maxDef++
		}
		for _, child := range f.fields {
			if err := s.assign(child, f.path, f.maxRep, f.maxDef); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unsupported field variant %T", field)
	}
	return nil
}

// Name returns the name of the root of the schema.
func (s *Schema) Name() string { return s.name }

// Fields returns the top-level fields of the schema in document order.
func (s *Schema) Fields() []Field { return s.root.Fields() }

// Leaves returns the leaf columns of the schema in document order. The
// position of a leaf in the returned slice is its column index.
func (s *Schema) Leaves() []*DataField { return s.leaves }

// Lookup returns the leaf column at the given path, the segments being the
// physical column path as stored in the file metadata.
func (s *Schema) Lookup(path ...string) (*DataField, bool) {
	f, ok := s.byPath[strings.Join(path, ".")]
	return f, ok
}

// Equal compares two schemas structurally, ignoring the root name.
func (s *Schema) Equal(other *Schema) bool {
	f1, f2 := s.root.Fields(), other.root.Fields()
	if len(f1) != len(f2) {
		return false
	}
	for i := range f1 {
		if !EqualFields(f1[i], f2[i]) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	b := new(strings.Builder)
	Print(b, s.name, s.root)
	return b.String()
}

// SchemaOf rebuilds the schema model from the flat schema element list of a
// file footer. The elements are in preorder, each group declaring how many
// of the following elements are its children.
func SchemaOf(elements []format.SchemaElement) (*Schema, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("empty schema: %w", ErrMalformed)
	}
	root := elements[0]
	fields := make([]Field, 0, root.NumChildren)
	index := 1
	for i := int32(0); i < root.NumChildren; i++ {
		field, next, err := fieldOf(elements, index)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		index = next
	}
	if index != len(elements) {
		return nil, fmt.Errorf("schema has %d trailing elements: %w", len(elements)-index, ErrMalformed)
	}
	return NewSchema(root.Name, fields...)
}

// fieldOf decodes the schema element at index and its subtree, returning
// the field and the index of the next sibling.
func fieldOf(elements []format.SchemaElement, index int) (Field, int, error) {
	if index >= len(elements) {
		return nil, index, fmt.Errorf("schema element list truncated at %d: %w", index, ErrMalformed)
	}
	el := elements[index]
	optional := repetitionTypeOf(el) == format.Optional
	repeated := repetitionTypeOf(el) == format.Repeated
	index++

	if el.Type != nil {
		leaf := DataFieldOf(el.Name, *el.Type, optional)
		leaf.logicalType = logicalTypeOf(el)
		if el.TypeLength != nil {
			leaf.typeLength = *el.TypeLength
		}
		if repeated {
			// A repeated primitive is the legacy one-level list encoding.
			leaf.optional = false
			list := ListFieldOf(el.Name, leaf)
			list.optional = false
			list.containerName = ""
			list.oneLevel = true
			return list, index, nil
		}
		return leaf, index, nil
	}

	switch {
	case isListElement(el):
		if el.NumChildren != 1 {
			return nil, index, fmt.Errorf("list group %q has %d children: %w",
				el.Name, el.NumChildren, ErrSchemaAssignConflict)
		}
		if index >= len(elements) {
			return nil, index, fmt.Errorf("schema element list truncated at %d: %w", index, ErrMalformed)
		}
		container := elements[index]
		if repetitionTypeOf(container) != format.Repeated {
			return nil, index, fmt.Errorf("list group %q container is not repeated: %w", el.Name, ErrMalformed)
		}
		list := &ListField{fieldInfo: fieldInfo{name: el.Name, optional: optional}}
		if container.Type == nil && container.NumChildren == 1 && !isLegacyListContainer(container) {
			// Standard three-level encoding, the repeated group wraps the
			// element.
			list.containerName = container.Name
			item, next, err := fieldOf(elements, index+1)
			if err != nil {
				return nil, index, err
			}
			if err := list.SetItem(item); err != nil {
				return nil, index, err
			}
			return list, next, nil
		}
		// Two-level encoding, the repeated node is the element itself.
		item, next, err := fieldOf(elements, index)
		if err != nil {
			return nil, index, err
		}
		list.containerName = ""
		if inner, ok := item.(*ListField); ok && inner.containerName == "" && !inner.optional {
			item = inner.item
		}
		if err := list.SetItem(item); err != nil {
			return nil, index, err
		}
		return list, next, nil

	case isMapElement(el):
		if el.NumChildren != 1 {
			return nil, index, fmt.Errorf("map group %q has %d children: %w",
				el.Name, el.NumChildren, ErrSchemaAssignConflict)
		}
		if index >= len(elements) {
			return nil, index, fmt.Errorf("schema element list truncated at %d: %w", index, ErrMalformed)
		}
		keyValue := elements[index]
		if repetitionTypeOf(keyValue) != format.Repeated || keyValue.NumChildren != 2 {
			return nil, index, fmt.Errorf("map group %q key_value must be a repeated pair: %w",
				el.Name, ErrSchemaAssignConflict)
		}
		key, next, err := fieldOf(elements, index+1)
		if err != nil {
			return nil, index, err
		}
		value, next, err := fieldOf(elements, next)
		if err != nil {
			return nil, index, err
		}
		m := &MapField{fieldInfo: fieldInfo{name: el.Name, optional: optional}}
		if err := m.SetKey(key); err != nil {
			return nil, index, err
		}
		if err := m.SetValue(value); err != nil {
			return nil, index, err
		}
		return m, next, nil

	default:
		group := &StructField{fieldInfo: fieldInfo{name: el.Name, optional: optional}}
		for i := int32(0); i < el.NumChildren; i++ {
			child, next, err := fieldOf(elements, index)
			if err != nil {
				return nil, index, err
			}
			if err := group.AddField(child); err != nil {
				return nil, index, err
			}
			index = next
		}
		if repeated {
			// A repeated unannotated group is a list of structs.
			group.optional = false
			list := ListFieldOf(el.Name, group)
			list.optional = false
			list.containerName = ""
			list.oneLevel = true
			return list, index, nil
		}
		return group, index, nil
	}
}

func repetitionTypeOf(el format.SchemaElement) format.FieldRepetitionType {
	if el.RepetitionType == nil {
		return format.Required
	}
	return *el.RepetitionType
}

func isListElement(el format.SchemaElement) bool {
	if el.LogicalType != nil && el.LogicalType.List != nil {
		return true
	}
	return el.ConvertedType != nil && *el.ConvertedType == format.List
}

func isMapElement(el format.SchemaElement) bool {
	if el.LogicalType != nil && el.LogicalType.Map != nil {
		return true
	}
	return el.ConvertedType != nil &&
		(*el.ConvertedType == format.Map || *el.ConvertedType == format.MapKeyValue)
}

// isLegacyListContainer recognizes the repeated group names the old
// parquet-avro and parquet-thrift writers used for two-level lists.
func isLegacyListContainer(el format.SchemaElement) bool {
	return el.Name == "array" || strings.HasSuffix(el.Name, "_tuple")
}

func logicalTypeOf(el format.SchemaElement) *format.LogicalType {
	if el.LogicalType != nil {
		return el.LogicalType
	}
	if el.ConvertedType == nil {
		return nil
	}
	// Old writers only fill the converted type; lift the ones the logical
	// type model can express so callers see a single annotation surface.
	switch *el.ConvertedType {
	case format.UTF8:
		return &format.LogicalType{UTF8: &format.StringType{}}
	case format.Json:
		return &format.LogicalType{Json: &format.JsonType{}}
	case format.Bson:
		return &format.LogicalType{Bson: &format.BsonType{}}
	case format.Enum:
		return &format.LogicalType{Enum: &format.EnumType{}}
	case format.Date:
		return &format.LogicalType{Date: &format.DateType{}}
	case format.TimeMillis:
		return &format.LogicalType{Time: &format.TimeType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Millis: &format.MilliSeconds{}},
		}}
	case format.TimeMicros:
		return &format.LogicalType{Time: &format.TimeType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Micros: &format.MicroSeconds{}},
		}}
	case format.TimestampMillis:
		return &format.LogicalType{Timestamp: &format.TimestampType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Millis: &format.MilliSeconds{}},
		}}
	case format.TimestampMicros:
		return &format.LogicalType{Timestamp: &format.TimestampType{
			IsAdjustedToUTC: true,
			Unit:            format.TimeUnit{Micros: &format.MicroSeconds{}},
		}}
	case format.Decimal:
		var scale, precision int32
		if el.Scale != nil {
			scale = *el.Scale
		}
		if el.Precision != nil {
			precision = *el.Precision
		}
		return &format.LogicalType{Decimal: &format.DecimalType{
			Scale:     scale,
			Precision: precision,
		}}
	case format.Int8, format.Int16, format.IntType32, format.IntType64:
		return &format.LogicalType{Integer: &format.IntType{
			BitWidth: intBitWidthOf(*el.ConvertedType),
			IsSigned: true,
		}}
	case format.Uint8, format.Uint16, format.Uint32, format.Uint64:
		return &format.LogicalType{Integer: &format.IntType{
			BitWidth: intBitWidthOf(*el.ConvertedType),
			IsSigned: false,
		}}
	}
	return nil
}

func intBitWidthOf(t format.ConvertedType) int8 {
	switch t {
	case format.Int8, format.Uint8:
		return 8
	case format.Int16, format.Uint16:
		return 16
	case format.IntType32, format.Uint32:
		return 32
	default:
		return 64
	}
}

// schemaElements flattens the schema back to the footer representation, in
// the same preorder SchemaOf expects.
func (s *Schema) schemaElements() []format.SchemaElement {
	elements := make([]format.SchemaElement, 0, 1+2*len(s.leaves))
	elements = append(elements, format.SchemaElement{
		Name:        s.name,
		NumChildren: int32(len(s.root.Fields())),
	})
	for _, f := range s.root.Fields() {
		elements = appendSchemaElements(elements, f)
	}
	return elements
}

func repetitionTypePtr(t format.FieldRepetitionType) *format.FieldRepetitionType {
	return &t
}

func appendSchemaElements(elements []format.SchemaElement, field Field) []format.SchemaElement {
	repetition := format.Required
	if field.Optional() {
		repetition = format.Optional
	}

	switch f := field.(type) {
	case *DataField:
		typ := f.typ
		el := format.SchemaElement{
			Type:           &typ,
			RepetitionType: &repetition,
			Name:           f.name,
			LogicalType:    f.logicalType,
			ConvertedType:  convertedTypeOf(f.logicalType),
		}
		if f.typ == format.FixedLenByteArray {
			length := f.typeLength
			el.TypeLength = &length
		}
		if f.logicalType != nil && f.logicalType.Decimal != nil {
			scale, precision := f.logicalType.Decimal.Scale, f.logicalType.Decimal.Precision
			el.Scale, el.Precision = &scale, &precision
		}
		return append(elements, el)

	case *ListField:
		converted := format.List
		elements = append(elements, format.SchemaElement{
			RepetitionType: &repetition,
			Name:           f.name,
			NumChildren:    1,
			ConvertedType:  &converted,
			LogicalType:    &format.LogicalType{List: &format.ListType{}},
		})
		container := f.containerName
		if container == "" {
			container = "list"
		}
		elements = append(elements, format.SchemaElement{
			RepetitionType: repetitionTypePtr(format.Repeated),
			Name:           container,
			NumChildren:    1,
		})
		return appendSchemaElements(elements, f.item)

	case *MapField:
		converted := format.Map
		elements = append(elements, format.SchemaElement{
			RepetitionType: &repetition,
			Name:           f.name,
			NumChildren:    1,
			ConvertedType:  &converted,
			LogicalType:    &format.LogicalType{Map: &format.MapType{}},
		})
		elements = append(elements, format.SchemaElement{
			RepetitionType: repetitionTypePtr(format.Repeated),
			Name:           "key_value",
			NumChildren:    2,
		})
		elements = appendSchemaElements(elements, f.key)
		return appendSchemaElements(elements, f.value)

	case *StructField:
		elements = append(elements, format.SchemaElement{
			RepetitionType: &repetition,
			Name:           f.name,
			NumChildren:    int32(len(f.fields)),
		})
		for _, child := range f.fields {
			elements = appendSchemaElements(elements, child)
		}
		return elements
	}
	return elements
}

func convertedTypeOf(t *format.LogicalType) *format.ConvertedType {
	if t == nil {
		return nil
	}
	var converted format.ConvertedType = -1
	switch {
	case t.UTF8 != nil:
		converted = format.UTF8
	case t.Json != nil:
		converted = format.Json
	case t.Bson != nil:
		converted = format.Bson
	case t.Enum != nil:
		converted = format.Enum
	case t.Date != nil:
		converted = format.Date
	case t.Decimal != nil:
		converted = format.Decimal
	case t.Time != nil:
		if t.Time.Unit.Millis != nil {
			converted = format.TimeMillis
		} else if t.Time.Unit.Micros != nil {
			converted = format.TimeMicros
		}
	case t.Timestamp != nil:
		if t.Timestamp.Unit.Millis != nil {
			converted = format.TimestampMillis
		} else if t.Timestamp.Unit.Micros != nil {
			converted = format.TimestampMicros
		}
	case t.Integer != nil:
		switch {
		case t.Integer.IsSigned && t.Integer.BitWidth == 8:
			converted = format.Int8
		case t.Integer.IsSigned && t.Integer.BitWidth == 16:
			converted = format.Int16
		case t.Integer.IsSigned && t.Integer.BitWidth == 32:
			converted = format.IntType32
		case t.Integer.IsSigned:
			converted = format.IntType64
		case t.Integer.BitWidth == 8:
			converted = format.Uint8
		case t.Integer.BitWidth == 16:
			converted = format.Uint16
		case t.Integer.BitWidth == 32:
			converted = format.Uint32
		default:
			converted = format.Uint64
		}
	}
	if converted < 0 {
		return nil
	}
	return &converted
}
