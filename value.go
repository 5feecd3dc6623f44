package parquet

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hollowdb/parquet/format"
)

// Kind enumerates the variants a Value can take: the physical leaf kinds,
// which share their numeric values with format.Type, and the three container
// kinds produced by record assembly.
type Kind int8

const (
	Null              Kind = -1
	Boolean           Kind = Kind(format.Boolean)
	Int32             Kind = Kind(format.Int32)
	Int64             Kind = Kind(format.Int64)
	Int96             Kind = Kind(format.Int96)
	Float             Kind = Kind(format.Float)
	Double            Kind = Kind(format.Double)
	ByteArray         Kind = Kind(format.ByteArray)
	FixedLenByteArray Kind = Kind(format.FixedLenByteArray)
	List              Kind = 8
	Struct            Kind = 9
	Map               Kind = 10
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "NULL"
	case List:
		return "LIST"
	case Struct:
		return "STRUCT"
	case Map:
		return "MAP"
	default:
		return format.Type(k).String()
	}
}

// Value is one node of an assembled record: a null, a scalar of one of the
// physical types, or a list, struct, or map of other values.
//
// The zero value of the type is the null value.
type Value struct {
	// kind is stored as XOR(Kind) so the zero-value is null.
	kind  int8
	num   uint64
	bytes []byte
	group []Value
	names []string
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind { return ^Kind(v.kind) }

// IsNull returns true if v is the null value.
func (v Value) IsNull() bool { return v.Kind() == Null }

func makeValueKind(kind Kind) Value {
	return Value{kind: ^int8(kind)}
}

// NullValue returns the null value, equal to the zero Value.
func NullValue() Value { return Value{} }

func BooleanValue(b bool) Value {
	v := makeValueKind(Boolean)
	if b {
		v.num = 1
	}
	return v
}

func Int32Value(i int32) Value {
	v := makeValueKind(Int32)
	v.num = uint64(uint32(i))
	return v
}

func Int64Value(i int64) Value {
	v := makeValueKind(Int64)
	v.num = uint64(i)
	return v
}

func Int96Value(b [12]byte) Value {
	v := makeValueKind(Int96)
	v.bytes = append([]byte(nil), b[:]...)
	return v
}

func FloatValue(f float32) Value {
	v := makeValueKind(Float)
	v.num = uint64(math.Float32bits(f))
	return v
}

func DoubleValue(f float64) Value {
	v := makeValueKind(Double)
	v.num = math.Float64bits(f)
	return v
}

// ByteArrayValue constructs a BYTE_ARRAY value referencing b; the caller
// must not modify b afterwards.
func ByteArrayValue(b []byte) Value {
	v := makeValueKind(ByteArray)
	v.bytes = b
	return v
}

// FixedLenByteArrayValue constructs a FIXED_LEN_BYTE_ARRAY value
// referencing b; the caller must not modify b afterwards.
func FixedLenByteArrayValue(b []byte) Value {
	v := makeValueKind(FixedLenByteArray)
	v.bytes = b
	return v
}

// StringValue constructs a BYTE_ARRAY value holding the bytes of s.
func StringValue(s string) Value {
	return ByteArrayValue([]byte(s))
}

// UUIDValue constructs the FIXED_LEN_BYTE_ARRAY(16) form of a UUID.
func UUIDValue(u uuid.UUID) Value {
	return FixedLenByteArrayValue(append([]byte(nil), u[:]...))
}

// ListValueOf constructs a list from its elements in order.
func ListValueOf(elements ...Value) Value {
	v := makeValueKind(List)
	v.group = elements
	return v
}

// StructValueOf constructs a struct from parallel name and value slices.
func StructValueOf(names []string, values []Value) Value {
	if len(names) != len(values) {
		panic("parquet: mismatched struct field names and values")
	}
	v := makeValueKind(Struct)
	v.names = names
	v.group = values
	return v
}

// MapValueOf constructs a map from parallel key and value slices, keeping
// entry order.
func MapValueOf(keys, values []Value) Value {
	if len(keys) != len(values) {
		panic("parquet: mismatched map keys and values")
	}
	v := makeValueKind(Map)
	v.group = make([]Value, 0, 2*len(keys))
	for i := range keys {
		v.group = append(v.group, keys[i], values[i])
	}
	return v
}

// Boolean returns v as a bool, assuming the kind is Boolean.
func (v Value) Boolean() bool { return v.num != 0 }

// Int32 returns v as an int32, assuming the kind is Int32.
func (v Value) Int32() int32 { return int32(v.num) }

// Int64 returns v as an int64, assuming the kind is Int64.
func (v Value) Int64() int64 { return int64(v.num) }

// Int96 returns v as a 12 byte little-endian integer, assuming the kind is
// Int96.
func (v Value) Int96() [12]byte {
	var b [12]byte
	copy(b[:], v.bytes)
	return b
}

// Float returns v as a float32, assuming the kind is Float.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.num)) }

// Double returns v as a float64, assuming the kind is Double.
func (v Value) Double() float64 { return math.Float64frombits(v.num) }

// ByteArray returns the raw bytes of a ByteArray or FixedLenByteArray
// value. The returned slice is shared, do not modify.
func (v Value) ByteArray() []byte { return v.bytes }

// UUID converts a FIXED_LEN_BYTE_ARRAY(16) value to its UUID form.
func (v Value) UUID() (uuid.UUID, error) {
	if v.Kind() != FixedLenByteArray {
		return uuid.UUID{}, fmt.Errorf("cannot convert %s value to UUID: %w", v.Kind(), ErrTypeMismatch)
	}
	return uuid.FromBytes(v.bytes)
}

// Len returns the number of elements of a list, fields of a struct, or
// entries of a map, and zero for every other kind.
func (v Value) Len() int {
	if v.Kind() == Map {
		return len(v.group) / 2
	}
	return len(v.group)
}

// Index returns the i-th element of a list or the i-th field value of a
// struct.
func (v Value) Index(i int) Value { return v.group[i] }

// FieldNames returns the field names of a struct value, aligned with
// Index. The returned slice is shared, do not modify.
func (v Value) FieldNames() []string { return v.names }

// FieldByName returns the named field of a struct value, or the null value
// if the struct has no such field.
func (v Value) FieldByName(name string) Value {
	for i, n := range v.names {
		if n == name {
			return v.group[i]
		}
	}
	return Value{}
}

// MapKey returns the key of the i-th entry of a map value.
func (v Value) MapKey(i int) Value { return v.group[2*i] }

// MapValue returns the value of the i-th entry of a map value.
func (v Value) MapValue(i int) Value { return v.group[2*i+1] }

// Equal compares two values structurally.
func Equal(v1, v2 Value) bool {
	if v1.Kind() != v2.Kind() {
		return false
	}
	switch v1.Kind() {
	case Null:
		return true
	case Boolean, Int32, Int64, Float, Double:
		return v1.num == v2.num
	case Int96, ByteArray, FixedLenByteArray:
		return string(v1.bytes) == string(v2.bytes)
	case Struct:
		if len(v1.names) != len(v2.names) {
			return false
		}
		for i := range v1.names {
			if v1.names[i] != v2.names[i] {
				return false
			}
		}
	}
	if len(v1.group) != len(v2.group) {
		return false
	}
	for i := range v1.group {
		if !Equal(v1.group[i], v2.group[i]) {
			return false
		}
	}
	return true
}

// String returns a printable form of the value, rendering byte arrays as
// text. It is meant for tests and diagnostics, not as a wire format.
func (v Value) String() string {
	switch v.Kind() {
	case Null:
		return "<nil>"
	case Boolean:
		return strconv.FormatBool(v.Boolean())
	case Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case Int96:
		lo := binary.LittleEndian.Uint64(v.bytes[:8])
		hi := binary.LittleEndian.Uint32(v.bytes[8:])
		return fmt.Sprintf("INT96(%d,%d)", hi, lo)
	case Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case ByteArray:
		return string(v.bytes)
	case FixedLenByteArray:
		if len(v.bytes) == 16 {
			if u, err := uuid.FromBytes(v.bytes); err == nil {
				return u.String()
			}
		}
		return fmt.Sprintf("%X", v.bytes)
	case List:
		return v.groupString("[", "]", 1)
	case Map:
		return v.groupString("{", "}", 2)
	case Struct:
		b := new(strings.Builder)
		b.WriteString("{")
		for i, name := range v.names {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(name)
			b.WriteString(":")
			b.WriteString(v.group[i].String())
		}
		b.WriteString("}")
		return b.String()
	default:
		return "<?>"
	}
}

func (v Value) groupString(open, clos string, stride int) string {
	b := new(strings.Builder)
	b.WriteString(open)
	for i := 0; i < len(v.group); i += stride {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(v.group[i].String())
		if stride == 2 {
			b.WriteString(":")
			b.WriteString(v.group[i+1].String())
		}
	}
	b.WriteString(clos)
	return b.String()
}

// GoString makes %#v dumps readable in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("parquet.Value{%s:%s}", v.Kind(), v)
}
