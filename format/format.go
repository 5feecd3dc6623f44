// Package format exposes the data structures of the parquet file footer and
// page headers, decoded from their thrift representation.
//
// The field ids and optionality annotations mirror parquet.thrift from the
// parquet-format repository; struct tags drive the compact protocol codec in
// github.com/segmentio/encoding/thrift.
package format

import "fmt"

// Type is the physical type of values stored in a leaf column.
type Type int32

const (
	Boolean           Type = 0
	Int32             Type = 1
	Int64             Type = 2
	Int96             Type = 3
	Float             Type = 4
	Double            Type = 5
	ByteArray         Type = 6
	FixedLenByteArray Type = 7
)

func (t Type) String() string {
	switch t {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Int96:
		return "INT96"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return fmt.Sprintf("Type(%d)", int32(t))
	}
}

// ConvertedType is the deprecated logical annotation carried by older files;
// readers must still honor it because most writers emit both forms.
type ConvertedType int32

const (
	UTF8            ConvertedType = 0
	Map             ConvertedType = 1
	MapKeyValue     ConvertedType = 2
	List            ConvertedType = 3
	Enum            ConvertedType = 4
	Decimal         ConvertedType = 5
	Date            ConvertedType = 6
	TimeMillis      ConvertedType = 7
	TimeMicros      ConvertedType = 8
	TimestampMillis ConvertedType = 9
	TimestampMicros ConvertedType = 10
	Uint8           ConvertedType = 11
	Uint16          ConvertedType = 12
	Uint32          ConvertedType = 13
	Uint64          ConvertedType = 14
	Int8            ConvertedType = 15
	Int16           ConvertedType = 16
	IntType32       ConvertedType = 17
	IntType64       ConvertedType = 18
	Json            ConvertedType = 19
	Bson            ConvertedType = 20
	Interval        ConvertedType = 21
)

func (c ConvertedType) String() string {
	switch c {
	case UTF8:
		return "UTF8"
	case Map:
		return "MAP"
	case MapKeyValue:
		return "MAP_KEY_VALUE"
	case List:
		return "LIST"
	case Enum:
		return "ENUM"
	case Decimal:
		return "DECIMAL"
	case Date:
		return "DATE"
	case TimeMillis:
		return "TIME_MILLIS"
	case TimeMicros:
		return "TIME_MICROS"
	case TimestampMillis:
		return "TIMESTAMP_MILLIS"
	case TimestampMicros:
		return "TIMESTAMP_MICROS"
	case Interval:
		return "INTERVAL"
	default:
		return fmt.Sprintf("ConvertedType(%d)", int32(c))
	}
}

// FieldRepetitionType describes how many times a field may occur in a record
// relative to its parent.
type FieldRepetitionType int32

const (
	Required FieldRepetitionType = 0
	Optional FieldRepetitionType = 1
	Repeated FieldRepetitionType = 2
)

func (t FieldRepetitionType) String() string {
	switch t {
	case Required:
		return "REQUIRED"
	case Optional:
		return "OPTIONAL"
	case Repeated:
		return "REPEATED"
	default:
		return fmt.Sprintf("FieldRepetitionType(%d)", int32(t))
	}
}

// Encoding identifies the encoding of values, definition levels, or
// repetition levels within a page.
type Encoding int32

const (
	Plain                Encoding = 0
	PlainDictionary      Encoding = 2
	RLE                  Encoding = 3
	BitPacked            Encoding = 4
	DeltaBinaryPacked    Encoding = 5
	DeltaLengthByteArray Encoding = 6
	DeltaByteArray       Encoding = 7
	RLEDictionary        Encoding = 8
	ByteStreamSplit      Encoding = 9
)

func (e Encoding) String() string {
	switch e {
	case Plain:
		return "PLAIN"
	case PlainDictionary:
		return "PLAIN_DICTIONARY"
	case RLE:
		return "RLE"
	case BitPacked:
		return "BIT_PACKED"
	case DeltaBinaryPacked:
		return "DELTA_BINARY_PACKED"
	case DeltaLengthByteArray:
		return "DELTA_LENGTH_BYTE_ARRAY"
	case DeltaByteArray:
		return "DELTA_BYTE_ARRAY"
	case RLEDictionary:
		return "RLE_DICTIONARY"
	case ByteStreamSplit:
		return "BYTE_STREAM_SPLIT"
	default:
		return fmt.Sprintf("Encoding(%d)", int32(e))
	}
}

// CompressionCodec identifies the compression applied to page payloads.
type CompressionCodec int32

const (
	Uncompressed CompressionCodec = 0
	Snappy       CompressionCodec = 1
	Gzip         CompressionCodec = 2
	LZO          CompressionCodec = 3
	Brotli       CompressionCodec = 4
	Lz4          CompressionCodec = 5
	Zstd         CompressionCodec = 6
	Lz4Raw       CompressionCodec = 7
)

func (c CompressionCodec) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case Snappy:
		return "SNAPPY"
	case Gzip:
		return "GZIP"
	case LZO:
		return "LZO"
	case Brotli:
		return "BROTLI"
	case Lz4:
		return "LZ4"
	case Zstd:
		return "ZSTD"
	case Lz4Raw:
		return "LZ4_RAW"
	default:
		return fmt.Sprintf("CompressionCodec(%d)", int32(c))
	}
}

// PageType identifies the kind of a page within a column chunk.
type PageType int32

const (
	DataPage       PageType = 0
	IndexPage      PageType = 1
	DictionaryPage PageType = 2
	DataPageV2     PageType = 3
)

func (t PageType) String() string {
	switch t {
	case DataPage:
		return "DATA_PAGE"
	case IndexPage:
		return "INDEX_PAGE"
	case DictionaryPage:
		return "DICTIONARY_PAGE"
	case DataPageV2:
		return "DATA_PAGE_V2"
	default:
		return fmt.Sprintf("PageType(%d)", int32(t))
	}
}

// Logical type annotations, the modern replacement for ConvertedType.
// LogicalType is a thrift union; exactly one of the fields is non-nil.
type StringType struct{}

func (*StringType) String() string { return "STRING" }

type UUIDType struct{}

func (*UUIDType) String() string { return "UUID" }

type MapType struct{}

func (*MapType) String() string { return "MAP" }

type ListType struct{}

func (*ListType) String() string { return "LIST" }

type EnumType struct{}

func (*EnumType) String() string { return "ENUM" }

type DateType struct{}

func (*DateType) String() string { return "DATE" }

type NullType struct{}

func (*NullType) String() string { return "NULL" }

type DecimalType struct {
	Scale     int32 `thrift:"1,required"`
	Precision int32 `thrift:"2,required"`
}

func (t *DecimalType) String() string {
	return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
}

type MilliSeconds struct{}

type MicroSeconds struct{}

type NanoSeconds struct{}

type TimeUnit struct {
	Millis *MilliSeconds `thrift:"1,optional"`
	Micros *MicroSeconds `thrift:"2,optional"`
	Nanos  *NanoSeconds  `thrift:"3,optional"`
}

func (u *TimeUnit) String() string {
	switch {
	case u.Millis != nil:
		return "MILLIS"
	case u.Micros != nil:
		return "MICROS"
	case u.Nanos != nil:
		return "NANOS"
	default:
		return "?"
	}
}

type TimestampType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

func (t *TimestampType) String() string {
	return fmt.Sprintf("TIMESTAMP(%s,%t)", &t.Unit, t.IsAdjustedToUTC)
}

type TimeType struct {
	IsAdjustedToUTC bool     `thrift:"1,required"`
	Unit            TimeUnit `thrift:"2,required"`
}

func (t *TimeType) String() string {
	return fmt.Sprintf("TIME(%s,%t)", &t.Unit, t.IsAdjustedToUTC)
}

type IntType struct {
	BitWidth int8 `thrift:"1,required"`
	IsSigned bool `thrift:"2,required"`
}

func (t *IntType) String() string {
	return fmt.Sprintf("INT(%d,%t)", t.BitWidth, t.IsSigned)
}

type JsonType struct{}

func (*JsonType) String() string { return "JSON" }

type BsonType struct{}

func (*BsonType) String() string { return "BSON" }

type LogicalType struct {
	UTF8    *StringType  `thrift:"1,optional"`
	Map     *MapType     `thrift:"2,optional"`
	List    *ListType    `thrift:"3,optional"`
	Enum    *EnumType    `thrift:"4,optional"`
	Decimal *DecimalType `thrift:"5,optional"`
	Date    *DateType    `thrift:"6,optional"`
	Time    *TimeType    `thrift:"7,optional"`
	// 9 is reserved; INTERVAL still travels through ConvertedType.
	Timestamp *TimestampType `thrift:"8,optional"`
	Integer   *IntType       `thrift:"10,optional"`
	Unknown   *NullType      `thrift:"11,optional"`
	Json      *JsonType      `thrift:"12,optional"`
	Bson      *BsonType      `thrift:"13,optional"`
	UUID      *UUIDType      `thrift:"14,optional"`
}

func (t *LogicalType) String() string {
	switch {
	case t.UTF8 != nil:
		return t.UTF8.String()
	case t.Map != nil:
		return t.Map.String()
	case t.List != nil:
		return t.List.String()
	case t.Enum != nil:
		return t.Enum.String()
	case t.Decimal != nil:
		return t.Decimal.String()
	case t.Date != nil:
		return t.Date.String()
	case t.Time != nil:
		return t.Time.String()
	case t.Timestamp != nil:
		return t.Timestamp.String()
	case t.Integer != nil:
		return t.Integer.String()
	case t.Unknown != nil:
		return t.Unknown.String()
	case t.Json != nil:
		return t.Json.String()
	case t.Bson != nil:
		return t.Bson.String()
	case t.UUID != nil:
		return t.UUID.String()
	default:
		return ""
	}
}

// SchemaElement is one node of the flattened schema tree stored in the file
// footer; the tree shape is recovered from NumChildren in depth-first order.
type SchemaElement struct {
	Type           *Type                `thrift:"1,optional"`
	TypeLength     *int32               `thrift:"2,optional"`
	RepetitionType *FieldRepetitionType `thrift:"3,optional"`
	Name           string               `thrift:"4,required"`
	NumChildren    int32                `thrift:"5,optional"`
	ConvertedType  *ConvertedType       `thrift:"6,optional"`
	Scale          *int32               `thrift:"7,optional"`
	Precision      *int32               `thrift:"8,optional"`
	FieldID        *int32               `thrift:"9,optional"`
	LogicalType    *LogicalType         `thrift:"10,optional"`
}

// Statistics of a column chunk or page. All fields are optional; absence of
// statistics is not an error.
type Statistics struct {
	Max           []byte `thrift:"1,optional"`
	Min           []byte `thrift:"2,optional"`
	NullCount     *int64 `thrift:"3,optional"`
	DistinctCount *int64 `thrift:"4,optional"`
	MaxValue      []byte `thrift:"5,optional"`
	MinValue      []byte `thrift:"6,optional"`
}

type KeyValue struct {
	Key   string `thrift:"1,required"`
	Value string `thrift:"2,optional"`
}

type PageEncodingStats struct {
	PageType PageType `thrift:"1,required"`
	Encoding Encoding `thrift:"2,required"`
	Count    int32    `thrift:"3,required"`
}

type ColumnMetaData struct {
	Type                  Type                `thrift:"1,required"`
	Encoding              []Encoding          `thrift:"2,required"`
	PathInSchema          []string            `thrift:"3,required"`
	Codec                 CompressionCodec    `thrift:"4,required"`
	NumValues             int64               `thrift:"5,required"`
	TotalUncompressedSize int64               `thrift:"6,required"`
	TotalCompressedSize   int64               `thrift:"7,required"`
	KeyValueMetadata      []KeyValue          `thrift:"8,optional"`
	DataPageOffset        int64               `thrift:"9,required"`
	IndexPageOffset       *int64              `thrift:"10,optional"`
	DictionaryPageOffset  *int64              `thrift:"11,optional"`
	Statistics            *Statistics         `thrift:"12,optional"`
	EncodingStats         []PageEncodingStats `thrift:"13,optional"`
}

type ColumnChunk struct {
	FilePath   string          `thrift:"1,optional"`
	FileOffset int64           `thrift:"2,required"`
	MetaData   *ColumnMetaData `thrift:"3,optional"`
}

type SortingColumn struct {
	ColumnIdx  int32 `thrift:"1,required"`
	Descending bool  `thrift:"2,required"`
	NullsFirst bool  `thrift:"3,required"`
}

type RowGroup struct {
	Columns        []ColumnChunk   `thrift:"1,required"`
	TotalByteSize  int64           `thrift:"2,required"`
	NumRows        int64           `thrift:"3,required"`
	SortingColumns []SortingColumn `thrift:"4,optional"`
	FileOffset     *int64          `thrift:"5,optional"`
}

type FileMetaData struct {
	Version          int32           `thrift:"1,required"`
	Schema           []SchemaElement `thrift:"2,required"`
	NumRows          int64           `thrift:"3,required"`
	RowGroups        []RowGroup      `thrift:"4,required"`
	KeyValueMetadata []KeyValue      `thrift:"5,optional"`
	CreatedBy        string          `thrift:"6,optional"`
}

type DataPageHeader struct {
	NumValues               int32       `thrift:"1,required"`
	Encoding                Encoding    `thrift:"2,required"`
	DefinitionLevelEncoding Encoding    `thrift:"3,required"`
	RepetitionLevelEncoding Encoding    `thrift:"4,required"`
	Statistics              *Statistics `thrift:"5,optional"`
}

type DictionaryPageHeader struct {
	NumValues int32    `thrift:"1,required"`
	Encoding  Encoding `thrift:"2,required"`
	IsSorted  *bool    `thrift:"3,optional"`
}

type DataPageHeaderV2 struct {
	NumValues                  int32       `thrift:"1,required"`
	NumNulls                   int32       `thrift:"2,required"`
	NumRows                    int32       `thrift:"3,required"`
	Encoding                   Encoding    `thrift:"4,required"`
	DefinitionLevelsByteLength int32       `thrift:"5,required"`
	RepetitionLevelsByteLength int32       `thrift:"6,required"`
	IsCompressed               *bool       `thrift:"7,optional"`
	Statistics                 *Statistics `thrift:"8,optional"`
}

type PageHeader struct {
	Type                 PageType              `thrift:"1,required"`
	UncompressedPageSize int32                 `thrift:"2,required"`
	CompressedPageSize   int32                 `thrift:"3,required"`
	CRC                  *int32                `thrift:"4,optional"`
	DataPageHeader       *DataPageHeader       `thrift:"5,optional"`
	DictionaryPageHeader *DictionaryPageHeader `thrift:"7,optional"`
	DataPageHeaderV2     *DataPageHeaderV2     `thrift:"8,optional"`
}
