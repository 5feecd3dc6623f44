package parquet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/segmentio/encoding/thrift"

	"github.com/hollowdb/parquet/encoding/plain"
	"github.com/hollowdb/parquet/encoding/rle"
	"github.com/hollowdb/parquet/format"
)

// fileBuilder assembles a parquet file byte by byte so reader tests do not
// depend on the writer.
type fileBuilder struct {
	buf    bytes.Buffer
	schema *Schema
	chunks []format.ColumnChunk
	rows   int64
}

func newFileBuilder(t *testing.T, schema *Schema) *fileBuilder {
	t.Helper()
	b := &fileBuilder{schema: schema}
	b.buf.WriteString("PAR1")
	return b
}

type pageSpec struct {
	header  format.PageHeader
	payload []byte
}

// addChunk appends the pages of one column chunk and records its metadata.
// numValues counts every value slot of the chunk, nulls included.
func (b *fileBuilder) addChunk(t *testing.T, path []string, typ format.Type, codec format.CompressionCodec, numValues int64, pages ...pageSpec) {
	t.Helper()

	offset := int64(b.buf.Len())
	var dictOffset *int64
	if pages[0].header.Type == format.DictionaryPage {
		o := offset
		dictOffset = &o
	}

	for i := range pages {
		header, err := thrift.Marshal(new(thrift.CompactProtocol), &pages[i].header)
		if err != nil {
			t.Fatal(err)
		}
		b.buf.Write(header)
		b.buf.Write(pages[i].payload)
	}

	dataOffset := offset
	b.chunks = append(b.chunks, format.ColumnChunk{
		FileOffset: offset,
		MetaData: &format.ColumnMetaData{
			Type:                 typ,
			Encoding:             []format.Encoding{format.Plain},
			PathInSchema:         path,
			Codec:                codec,
			NumValues:            numValues,
			TotalCompressedSize:  int64(b.buf.Len()) - offset,
			DataPageOffset:       dataOffset,
			DictionaryPageOffset: dictOffset,
		},
	})
}

func (b *fileBuilder) bytes(t *testing.T, numRows int64) []byte {
	t.Helper()

	footer, err := thrift.Marshal(new(thrift.CompactProtocol), &format.FileMetaData{
		Version: 1,
		Schema:  b.schema.schemaElements(),
		NumRows: numRows,
		RowGroups: []format.RowGroup{{
			Columns: b.chunks,
			NumRows: numRows,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	b.buf.Write(footer)
	length := [4]byte{}
	binary.LittleEndian.PutUint32(length[:], uint32(len(footer)))
	b.buf.Write(length[:])
	b.buf.WriteString("PAR1")
	return b.buf.Bytes()
}

func openFileBytes(t *testing.T, data []byte) *File {
	t.Helper()
	f, err := OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func dataPageV1(numValues int, enc format.Encoding, payload []byte) pageSpec {
	return pageSpec{
		header: format.PageHeader{
			Type:                 format.DataPage,
			UncompressedPageSize: int32(len(payload)),
			CompressedPageSize:   int32(len(payload)),
			DataPageHeader: &format.DataPageHeader{
				NumValues:               int32(numValues),
				Encoding:                enc,
				DefinitionLevelEncoding: format.RLE,
				RepetitionLevelEncoding: format.RLE,
			},
		},
		payload: payload,
	}
}

func TestReadColumnRequiredInt32(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("id", format.Int32, false))
	if err != nil {
		t.Fatal(err)
	}

	payload := plain.AppendInt32(nil, []int32{1, 2, 3, -4})
	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"id"}, format.Int32, format.Uncompressed, 4,
		dataPageV1(4, format.Plain, payload))

	f := openFileBytes(t, b.bytes(t, 4))
	column, err := f.RowGroups()[0].ReadColumn("id")
	if err != nil {
		t.Fatal(err)
	}

	if column.NumValues() != 4 || column.NumNulls() != 0 {
		t.Fatalf("NumValues=%d NumNulls=%d", column.NumValues(), column.NumNulls())
	}
	if column.DefinitionLevels() != nil || column.RepetitionLevels() != nil {
		t.Error("flat required column has level streams")
	}
	want := []int32{1, 2, 3, -4}
	for i, v := range column.Values() {
		if v.Int32() != want[i] {
			t.Errorf("values[%d] = %v, want %d", i, v, want[i])
		}
	}
}

func TestReadColumnOptionalByteArray(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("name", format.ByteArray, true))
	if err != nil {
		t.Fatal(err)
	}

	defLevels, err := rle.EncodeWithLength(nil, []int32{1, 0, 1, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	payload := plain.AppendByteArray(defLevels, [][]byte{
		[]byte("alpha"), []byte("beta"), []byte(""),
	})

	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"name"}, format.ByteArray, format.Uncompressed, 5,
		dataPageV1(5, format.Plain, payload))

	f := openFileBytes(t, b.bytes(t, 5))
	column, err := f.RowGroups()[0].ReadColumn("name")
	if err != nil {
		t.Fatal(err)
	}

	if column.NumValues() != 5 || column.NumNulls() != 2 {
		t.Fatalf("NumValues=%d NumNulls=%d", column.NumValues(), column.NumNulls())
	}
	wantDef := []int32{1, 0, 1, 1, 0}
	for i, d := range column.DefinitionLevels() {
		if d != wantDef[i] {
			t.Errorf("defLevels[%d] = %d, want %d", i, d, wantDef[i])
		}
	}
	wantValues := []string{"alpha", "beta", ""}
	for i, v := range column.Values() {
		if string(v.ByteArray()) != wantValues[i] {
			t.Errorf("values[%d] = %q, want %q", i, v, wantValues[i])
		}
	}
}

func TestReadColumnDictionary(t *testing.T) {
	schema, err := NewSchema("test",
		ListFieldOf("tags", DataFieldOf("tag", format.ByteArray, false)))
	if err != nil {
		t.Fatal(err)
	}
	leafPath := []string{"tags", "list", "tag"}

	dict := plain.AppendByteArray(nil, [][]byte{
		[]byte("red"), []byte("green"), []byte("blue"),
	})
	dictPage := pageSpec{
		header: format.PageHeader{
			Type:                 format.DictionaryPage,
			UncompressedPageSize: int32(len(dict)),
			CompressedPageSize:   int32(len(dict)),
			DictionaryPageHeader: &format.DictionaryPageHeader{
				NumValues: 3,
				Encoding:  format.Plain,
			},
		},
		payload: dict,
	}

	// Rows: ["red","blue"], null, ["green"].
	repLevels := []int32{0, 1, 0, 0}
	defLevels := []int32{2, 2, 0, 2}
	payload, err := rle.EncodeWithLength(nil, repLevels, 1)
	if err != nil {
		t.Fatal(err)
	}
	payload, err = rle.EncodeWithLength(payload, defLevels, 2)
	if err != nil {
		t.Fatal(err)
	}
	indexStream, err := rle.Encode(nil, []int32{0, 2, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	payload = append(payload, 2)
	payload = append(payload, indexStream...)

	b := newFileBuilder(t, schema)
	b.addChunk(t, leafPath, format.ByteArray, format.Uncompressed, 4,
		dictPage, dataPageV1(4, format.RLEDictionary, payload))

	f := openFileBytes(t, b.bytes(t, 3))
	column, err := f.RowGroups()[0].ReadColumn(leafPath...)
	if err != nil {
		t.Fatal(err)
	}

	if column.NumValues() != 4 || column.NumNulls() != 1 {
		t.Fatalf("NumValues=%d NumNulls=%d", column.NumValues(), column.NumNulls())
	}
	wantValues := []string{"red", "blue", "green"}
	for i, v := range column.Values() {
		if string(v.ByteArray()) != wantValues[i] {
			t.Errorf("values[%d] = %q, want %q", i, v, wantValues[i])
		}
	}
	for i, r := range column.RepetitionLevels() {
		if r != repLevels[i] {
			t.Errorf("repLevels[%d] = %d, want %d", i, r, repLevels[i])
		}
	}
	for i, d := range column.DefinitionLevels() {
		if d != defLevels[i] {
			t.Errorf("defLevels[%d] = %d, want %d", i, d, defLevels[i])
		}
	}
}

func TestReadColumnDataPageV2Snappy(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("score", format.Double, true))
	if err != nil {
		t.Fatal(err)
	}

	defLevels, err := rle.Encode(nil, []int32{1, 1, 0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	values := plain.AppendDouble(nil, []float64{0.5, -1.25, 3})
	compressed, err := Snappy.Encode(nil, values)
	if err != nil {
		t.Fatal(err)
	}

	page := pageSpec{
		header: format.PageHeader{
			Type:                 format.DataPageV2,
			UncompressedPageSize: int32(len(defLevels) + len(values)),
			CompressedPageSize:   int32(len(defLevels) + len(compressed)),
			DataPageHeaderV2: &format.DataPageHeaderV2{
				NumValues:                  4,
				NumNulls:                   1,
				NumRows:                    4,
				Encoding:                   format.Plain,
				DefinitionLevelsByteLength: int32(len(defLevels)),
				RepetitionLevelsByteLength: 0,
			},
		},
		payload: append(append([]byte(nil), defLevels...), compressed...),
	}

	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"score"}, format.Double, format.Snappy, 4, page)

	f := openFileBytes(t, b.bytes(t, 4))
	column, err := f.RowGroups()[0].ReadColumn("score")
	if err != nil {
		t.Fatal(err)
	}

	if column.NumValues() != 4 || column.NumNulls() != 1 {
		t.Fatalf("NumValues=%d NumNulls=%d", column.NumValues(), column.NumNulls())
	}
	want := []float64{0.5, -1.25, 3}
	for i, v := range column.Values() {
		if v.Double() != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReadColumnEmptyPageSkipped(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("id", format.Int64, false))
	if err != nil {
		t.Fatal(err)
	}

	payload := plain.AppendInt64(nil, []int64{7, 8})
	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"id"}, format.Int64, format.Uncompressed, 2,
		dataPageV1(0, format.Plain, nil),
		dataPageV1(2, format.Plain, payload))

	f := openFileBytes(t, b.bytes(t, 2))
	column, err := f.RowGroups()[0].ReadColumn("id")
	if err != nil {
		t.Fatal(err)
	}
	if column.NumValues() != 2 {
		t.Fatalf("NumValues=%d", column.NumValues())
	}
	if column.Values()[0].Int64() != 7 || column.Values()[1].Int64() != 8 {
		t.Errorf("values = %v", column.Values())
	}
}

func TestReadColumnUnsupportedEncoding(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("id", format.Int32, false))
	if err != nil {
		t.Fatal(err)
	}

	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"id"}, format.Int32, format.Uncompressed, 1,
		dataPageV1(1, format.DeltaBinaryPacked, []byte{0}))

	f := openFileBytes(t, b.bytes(t, 1))
	_, err = f.RowGroups()[0].ReadColumn("id")
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("error = %v, want ErrNotSupported", err)
	}
}

func TestReadColumnMissingDictionary(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("id", format.Int32, false))
	if err != nil {
		t.Fatal(err)
	}

	indexStream, err := rle.Encode(nil, []int32{0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	payload := append([]byte{1}, indexStream...)

	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"id"}, format.Int32, format.Uncompressed, 1,
		dataPageV1(1, format.RLEDictionary, payload))

	f := openFileBytes(t, b.bytes(t, 1))
	_, err = f.RowGroups()[0].ReadColumn("id")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}
}

func TestReadColumnTypeMismatch(t *testing.T) {
	schema, err := NewSchema("test", DataFieldOf("id", format.Int32, false))
	if err != nil {
		t.Fatal(err)
	}

	payload := plain.AppendInt64(nil, []int64{1})
	b := newFileBuilder(t, schema)
	b.addChunk(t, []string{"id"}, format.Int64, format.Uncompressed, 1,
		dataPageV1(1, format.Plain, payload))

	f := openFileBytes(t, b.bytes(t, 1))
	if _, err := f.RowGroups()[0].ReadColumn("id"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("error = %v, want ErrTypeMismatch", err)
	}
}
