package parquet

import (
	"fmt"

	"github.com/hollowdb/parquet/format"
)

// Field is a node of a parquet schema tree.
//
// A field is one of four concrete variants: DataField for leaf columns,
// ListField, MapField, and StructField for the group shapes parquet knows
// about. Fields are assembled freely and then frozen by NewSchema, which
// assigns paths and repetition/definition levels top-down; a frozen field
// must not be mutated.
type Field interface {
	// Name returns the name of the field within its parent.
	Name() string

	// Optional returns true if values of the field may be null.
	Optional() bool

	// Path returns the full column path of the field, from the root of the
	// schema to the field itself. The returned slice is shared, do not modify.
	Path() []string

	// MaxRepetitionLevel returns the number of repeated fields on the path,
	// this field included.
	MaxRepetitionLevel() int8

	// MaxDefinitionLevel returns the number of optional and repeated fields
	// on the path, this field included.
	MaxDefinitionLevel() int8

	// Fields returns the child fields in document order, or an empty slice
	// for leaf fields.
	Fields() []Field
}

// fieldInfo carries the parts common to all field variants. The path and
// level fields are populated when the schema is constructed.
type fieldInfo struct {
	name     string
	optional bool
	path     columnPath
	maxRep   int8
	maxDef   int8
}

func (f *fieldInfo) Name() string              { return f.name }
func (f *fieldInfo) Optional() bool            { return f.optional }
func (f *fieldInfo) Path() []string            { return f.path }
func (f *fieldInfo) MaxRepetitionLevel() int8 { return f.maxRep }
func (f *fieldInfo) MaxDefinitionLevel() int8 { return f.maxDef }

// DataField is a leaf of the schema holding values of a single physical
// type, possibly carrying a logical annotation.
type DataField struct {
	fieldInfo

	typ         format.Type
	typeLength  int32
	logicalType *format.LogicalType

	// PropertyName is an optional alternate name used when mapping the
	// column back onto a record property; it defaults to the field name.
	propertyName string

	columnIndex int
}

// DataFieldOf constructs a leaf field of the given physical type.
func DataFieldOf(name string, typ format.Type, nullable bool) *DataField {
	return &DataField{
		fieldInfo: fieldInfo{name: name, optional: nullable},
		typ:       typ,
	}
}

// FixedLenDataFieldOf constructs a FIXED_LEN_BYTE_ARRAY leaf of the given
// size in bytes.
func FixedLenDataFieldOf(name string, size int32, nullable bool) *DataField {
	f := DataFieldOf(name, format.FixedLenByteArray, nullable)
	f.typeLength = size
	return f
}

// WithLogicalType attaches a logical annotation to the field and returns the
// field to allow chaining in schema literals.
func (f *DataField) WithLogicalType(t *format.LogicalType) *DataField {
	f.logicalType = t
	return f
}

// WithPropertyName sets the record property name the column maps to.
func (f *DataField) WithPropertyName(name string) *DataField {
	f.propertyName = name
	return f
}

func (f *DataField) Type() format.Type                { return f.typ }
func (f *DataField) TypeLength() int32                { return f.typeLength }
func (f *DataField) LogicalType() *format.LogicalType { return f.logicalType }
func (f *DataField) Fields() []Field                  { return nil }

// ColumnIndex returns the position of the leaf in the schema's document
// order, which is also the position of its column chunk in every row group.
func (f *DataField) ColumnIndex() int { return f.columnIndex }

func (f *DataField) PropertyName() string {
	if f.propertyName != "" {
		return f.propertyName
	}
	return f.name
}

// ListField wraps a single repeated item field. On the wire it uses the
// three-level LIST encoding: an annotated outer group, a repeated group
// (the container), and the item element.
type ListField struct {
	fieldInfo

	containerName string
	item          Field

	// oneLevel marks lists decoded from the legacy encoding where the
	// repeated element is the list itself, with no container group.
	oneLevel bool
}

// ListFieldOf constructs a nullable list field wrapping item.
func ListFieldOf(name string, item Field) *ListField {
	return &ListField{
		fieldInfo:     fieldInfo{name: name, optional: true},
		containerName: "list",
		item:          item,
	}
}

// SetItem assigns the item of a list constructed without one. Assigning an
// item twice returns ErrSchemaAssignConflict.
func (f *ListField) SetItem(item Field) error {
	if f.item != nil {
		return fmt.Errorf("list %q already has an item: %w", f.name, ErrSchemaAssignConflict)
	}
	f.item = item
	return nil
}

func (f *ListField) Item() Field { return f.item }

func (f *ListField) Fields() []Field {
	if f.item == nil {
		return nil
	}
	return []Field{f.item}
}

// MapField wraps a key field and a value field. On the wire it is an
// annotated outer group holding a repeated key_value group with the two
// children in order.
type MapField struct {
	fieldInfo

	key   Field
	value Field
}

// MapFieldOf constructs a nullable map field from its key and value fields.
// The key is forced required; the value keeps its own nullability.
func MapFieldOf(name string, key, value Field) *MapField {
	f := &MapField{fieldInfo: fieldInfo{name: name, optional: true}}
	f.key = key
	f.value = value
	if k, ok := key.(*DataField); ok {
		k.optional = false
	}
	return f
}

// SetKey assigns the key of a map constructed without one.
func (f *MapField) SetKey(key Field) error {
	if f.key != nil {
		return fmt.Errorf("map %q already has a key: %w", f.name, ErrSchemaAssignConflict)
	}
	f.key = key
	return nil
}

// SetValue assigns the value of a map constructed without one.
func (f *MapField) SetValue(value Field) error {
	if f.value != nil {
		return fmt.Errorf("map %q already has a value: %w", f.name, ErrSchemaAssignConflict)
	}
	f.value = value
	return nil
}

func (f *MapField) Key() Field   { return f.key }
func (f *MapField) Value() Field { return f.value }

func (f *MapField) Fields() []Field {
	fields := make([]Field, 0, 2)
	if f.key != nil {
		fields = append(fields, f.key)
	}
	if f.value != nil {
		fields = append(fields, f.value)
	}
	return fields
}

// StructField groups an ordered set of uniquely named child fields.
type StructField struct {
	fieldInfo

	fields []Field
}

// StructFieldOf constructs a group field from its children in order.
func StructFieldOf(name string, fields ...Field) *StructField {
	return &StructField{
		fieldInfo: fieldInfo{name: name},
		fields:    fields,
	}
}

// Nullable marks the group optional and returns it.
func (f *StructField) Nullable() *StructField {
	f.optional = true
	return f
}

// AddField appends a child; a duplicate child name returns
// ErrSchemaAssignConflict.
func (f *StructField) AddField(child Field) error {
	for _, existing := range f.fields {
		if existing.Name() == child.Name() {
			return fmt.Errorf("group %q already has a field named %q: %w",
				f.name, child.Name(), ErrSchemaAssignConflict)
		}
	}
	f.fields = append(f.fields, child)
	return nil
}

func (f *StructField) Fields() []Field { return f.fields }

// EqualFields compares two fields structurally: same variant, same name,
// same nullability, same physical and logical type, and equal children in
// order. Paths and levels are derived state and do not participate.
func EqualFields(f1, f2 Field) bool {
	switch a := f1.(type) {
	case *DataField:
		b, ok := f2.(*DataField)
		return ok && a.name == b.name &&
			a.optional == b.optional &&
			a.typ == b.typ &&
			a.typeLength == b.typeLength &&
			equalLogicalTypes(a.logicalType, b.logicalType)
	case *ListField:
		b, ok := f2.(*ListField)
		return ok && a.name == b.name &&
			a.optional == b.optional &&
			EqualFields(a.item, b.item)
	case *MapField:
		b, ok := f2.(*MapField)
		return ok && a.name == b.name &&
			a.optional == b.optional &&
			EqualFields(a.key, b.key) &&
			EqualFields(a.value, b.value)
	case *StructField:
		b, ok := f2.(*StructField)
		if !ok || a.name != b.name || a.optional != b.optional || len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !EqualFields(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// equalLogicalTypes compares annotations structurally. The String form of a
// logical type includes every parameter (unit, precision, signedness), which
// makes it a faithful comparison key for the pointer-heavy thrift union.
func equalLogicalTypes(t1, t2 *format.LogicalType) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	return t1.String() == t2.String()
}

// hashableKeyType reports whether a physical type may be used as a map key.
func hashableKeyType(t format.Type) bool {
	switch t {
	case format.Float, format.Double:
		return false
	}
	return true
}
