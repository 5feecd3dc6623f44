package parquet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/segmentio/encoding/thrift"

	"github.com/hollowdb/parquet/encoding/plain"
	"github.com/hollowdb/parquet/encoding/rle"
	"github.com/hollowdb/parquet/format"
)

// countingWriter tracks the absolute offset of the bytes written through it,
// which the footer metadata records as page offsets.
type countingWriter struct {
	writer io.Writer
	offset int64
}

func (w *countingWriter) Write(b []byte) (int, error) {
	n, err := w.writer.Write(b)
	w.offset += int64(n)
	return n, err
}

// columnChunkWriter encodes the pages of one column chunk; it is not safe
// for concurrent use.
type columnChunkWriter struct {
	config   *WriterConfig
	column   *shreddedColumn
	protocol thrift.CompactProtocol

	dict        []Value
	dictIndexes []int32

	encoding      format.Encoding
	numNulls      int64
	totalSize     int64
	totalCompSize int64
}

// writeTo writes the dictionary and data pages of the column to w and
// returns the chunk metadata to record in the footer.
func (ccw *columnChunkWriter) writeTo(w *countingWriter) (*format.ColumnMetaData, error) {
	leaf := ccw.column.field
	numSlots := len(ccw.column.def)

	ccw.encoding = format.Plain
	if leaf.Type() != format.Boolean {
		ccw.buildDictionary()
	}

	var dictOffset *int64
	if ccw.dict != nil {
		offset := w.offset
		dictOffset = &offset
		if err := ccw.writeDictionaryPage(w); err != nil {
			return nil, err
		}
	}

	dataOffset := w.offset
	for start := 0; start < numSlots; {
		end := ccw.pageEnd(start)
		if err := ccw.writeDataPage(w, start, end); err != nil {
			return nil, err
		}
		start = end
	}
	if numSlots == 0 {
		// A chunk with no values still carries one empty page so readers
		// find a valid offset.
		if err := ccw.writeDataPage(w, 0, 0); err != nil {
			return nil, err
		}
	}

	encodings := []format.Encoding{format.RLE, ccw.encoding}
	stats := ccw.statistics(ccw.column.values)
	if stats != nil {
		nulls := ccw.numNullSlots()
		stats.NullCount = &nulls
	}

	return &format.ColumnMetaData{
		Type:                  leaf.Type(),
		Encoding:              encodings,
		PathInSchema:          leaf.Path(),
		Codec:                 ccw.codecFormat(),
		NumValues:             int64(numSlots),
		TotalUncompressedSize: ccw.totalSize,
		TotalCompressedSize:   ccw.totalCompSize,
		DataPageOffset:        dataOffset,
		DictionaryPageOffset:  dictOffset,
		Statistics:            stats,
	}, nil
}

func (ccw *columnChunkWriter) codecFormat() format.CompressionCodec {
	if ccw.config.Compression == nil {
		return format.Uncompressed
	}
	return ccw.config.Compression.CompressionCodec()
}

func (ccw *columnChunkWriter) numNullSlots() int64 {
	return int64(len(ccw.column.def) - len(ccw.column.values))
}

// buildDictionary switches the chunk to dictionary encoding when the number
// of distinct values does not exceed the configured threshold.
func (ccw *columnChunkWriter) buildDictionary() {
	values := ccw.column.values
	if len(values) == 0 {
		return
	}

	distinct := make(map[string]int32)
	dict := make([]Value, 0, 64)
	indexes := make([]int32, len(values))

	for i, v := range values {
		k := dictKey(v)
		j, ok := distinct[k]
		if !ok {
			if len(dict) >= ccw.config.DictionaryIndexThreshold {
				return
			}
			j = int32(len(dict))
			distinct[k] = j
			dict = append(dict, v)
		}
		indexes[i] = j
	}

	ccw.dict = dict
	ccw.dictIndexes = indexes
	ccw.encoding = format.RLEDictionary
}

func dictKey(v Value) string {
	if v.bytes != nil {
		return string(v.bytes)
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v.num)
	return string(b[:])
}

// pageEnd returns the slot index at which the page starting at start is cut,
// targeting the configured page size and keeping v2 pages aligned on row
// boundaries.
func (ccw *columnChunkWriter) pageEnd(start int) int {
	def := ccw.column.def
	rep := ccw.column.rep
	maxDef := int32(ccw.column.field.MaxDefinitionLevel())

	size := 0
	valueIndex := ccw.valueIndexAt(start)
	end := start
	for end < len(def) {
		if size >= ccw.config.PageSizeBytes && (rep == nil || rep[end] == 0) {
			return end
		}
		if maxDef == 0 || def[end] == maxDef {
			size += ccw.valueSize(valueIndex)
			valueIndex++
		} else {
			size++
		}
		end++
	}
	return end
}

func (ccw *columnChunkWriter) valueSize(valueIndex int) int {
	if ccw.dict != nil {
		return 1
	}
	v := ccw.column.values[valueIndex]
	switch Kind(ccw.column.field.Type()) {
	case Boolean:
		return 1
	case Int32, Float:
		return 4
	case Int64, Double:
		return 8
	case Int96:
		return plain.Int96Size
	case ByteArray:
		return plain.ByteArrayLengthSize + len(v.bytes)
	default:
		return len(v.bytes)
	}
}

// valueIndexAt returns the index into the present value stream of the first
// present value at or after slot.
func (ccw *columnChunkWriter) valueIndexAt(slot int) int {
	maxDef := int32(ccw.column.field.MaxDefinitionLevel())
	if maxDef == 0 {
		return slot
	}
	n := 0
	for _, d := range ccw.column.def[:slot] {
		if d == maxDef {
			n++
		}
	}
	return n
}

func (ccw *columnChunkWriter) writeDictionaryPage(w *countingWriter) error {
	payload, err := appendPlainValueBytes(nil, ccw.dict, ccw.column.field)
	if err != nil {
		return err
	}
	header := format.PageHeader{
		Type:                 format.DictionaryPage,
		UncompressedPageSize: int32(len(payload)),
		DictionaryPageHeader: &format.DictionaryPageHeader{
			NumValues: int32(len(ccw.dict)),
			Encoding:  format.Plain,
		},
	}
	return ccw.writePage(w, &header, payload, true)
}

func (ccw *columnChunkWriter) writeDataPage(w *countingWriter, start, end int) error {
	leaf := ccw.column.field
	maxRep := int8(leaf.MaxRepetitionLevel())
	maxDef := int8(leaf.MaxDefinitionLevel())
	numValues := end - start

	valueStart := ccw.valueIndexAt(start)
	valueEnd := ccw.valueIndexAt(end)
	numNulls := numValues - (valueEnd - valueStart)

	valueBytes, err := ccw.encodeValues(valueStart, valueEnd)
	if err != nil {
		return err
	}

	stats := ccw.statistics(ccw.column.values[valueStart:valueEnd])
	if stats != nil {
		nulls := int64(numNulls)
		stats.NullCount = &nulls
	}

	if ccw.config.DataPageVersion == 2 {
		return ccw.writeDataPageV2(w, start, end, valueBytes, numNulls, stats)
	}

	var payload []byte
	if maxRep > 0 {
		payload, err = rle.EncodeWithLength(payload, ccw.column.rep[start:end], levelBitWidth(maxRep))
		if err != nil {
			return err
		}
	}
	if maxDef > 0 {
		payload, err = rle.EncodeWithLength(payload, ccw.column.def[start:end], levelBitWidth(maxDef))
		if err != nil {
			return err
		}
	}
	payload = append(payload, valueBytes...)

	header := format.PageHeader{
		Type:                 format.DataPage,
		UncompressedPageSize: int32(len(payload)),
		DataPageHeader: &format.DataPageHeader{
			NumValues:               int32(numValues),
			Encoding:                ccw.encoding,
			DefinitionLevelEncoding: format.RLE,
			RepetitionLevelEncoding: format.RLE,
			Statistics:              stats,
		},
	}
	return ccw.writePage(w, &header, payload, true)
}

func (ccw *columnChunkWriter) writeDataPageV2(w *countingWriter, start, end int, valueBytes []byte, numNulls int, stats *format.Statistics) error {
	leaf := ccw.column.field
	numValues := end - start

	var repBytes, defBytes []byte
	var err error
	if maxRep := leaf.MaxRepetitionLevel(); maxRep > 0 {
		repBytes, err = rle.Encode(nil, ccw.column.rep[start:end], levelBitWidth(maxRep))
		if err != nil {
			return err
		}
	}
	if maxDef := leaf.MaxDefinitionLevel(); maxDef > 0 {
		defBytes, err = rle.Encode(nil, ccw.column.def[start:end], levelBitWidth(maxDef))
		if err != nil {
			return err
		}
	}

	numRows := 0
	if ccw.column.rep == nil {
		numRows = numValues
	} else {
		for _, r := range ccw.column.rep[start:end] {
			if r == 0 {
				numRows++
			}
		}
	}

	compressedValues := valueBytes
	compressed := false
	if codec := ccw.config.Compression; codec != nil && codec.CompressionCodec() != format.Uncompressed {
		compressedValues, err = codec.Encode(nil, valueBytes)
		if err != nil {
			return fmt.Errorf("compressing page with %s: %w", codec, err)
		}
		compressed = true
	}

	levelLen := len(repBytes) + len(defBytes)
	header := format.PageHeader{
		Type:                 format.DataPageV2,
		UncompressedPageSize: int32(levelLen + len(valueBytes)),
		CompressedPageSize:   int32(levelLen + len(compressedValues)),
		DataPageHeaderV2: &format.DataPageHeaderV2{
			NumValues:                  int32(numValues),
			NumNulls:                   int32(numNulls),
			NumRows:                    int32(numRows),
			Encoding:                   ccw.encoding,
			DefinitionLevelsByteLength: int32(len(defBytes)),
			RepetitionLevelsByteLength: int32(len(repBytes)),
			IsCompressed:               &compressed,
			Statistics:                 stats,
		},
	}

	headerBytes, err := thrift.Marshal(&ccw.protocol, &header)
	if err != nil {
		return fmt.Errorf("encoding page header: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}
	if _, err := w.Write(repBytes); err != nil {
		return err
	}
	if _, err := w.Write(defBytes); err != nil {
		return err
	}
	if _, err := w.Write(compressedValues); err != nil {
		return err
	}

	ccw.totalSize += int64(len(headerBytes)) + int64(header.UncompressedPageSize)
	ccw.totalCompSize += int64(len(headerBytes)) + int64(header.CompressedPageSize)
	return nil
}

// writePage compresses the payload when the chunk is compressed and the page
// type allows it, then writes the thrift header and the payload.
func (ccw *columnChunkWriter) writePage(w *countingWriter, header *format.PageHeader, payload []byte, compressible bool) error {
	compressed := payload
	if codec := ccw.config.Compression; compressible && codec != nil && codec.CompressionCodec() != format.Uncompressed {
		var err error
		compressed, err = codec.Encode(nil, payload)
		if err != nil {
			return fmt.Errorf("compressing page with %s: %w", codec, err)
		}
	}
	header.CompressedPageSize = int32(len(compressed))

	headerBytes, err := thrift.Marshal(&ccw.protocol, header)
	if err != nil {
		return fmt.Errorf("encoding page header: %w", err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}

	ccw.totalSize += int64(len(headerBytes)) + int64(header.UncompressedPageSize)
	ccw.totalCompSize += int64(len(headerBytes)) + int64(header.CompressedPageSize)
	return nil
}

// encodeValues produces the value section of a data page, either the PLAIN
// bytes of the present values or a dictionary index stream.
func (ccw *columnChunkWriter) encodeValues(valueStart, valueEnd int) ([]byte, error) {
	if valueStart == valueEnd {
		return nil, nil
	}
	if ccw.dict != nil {
		width := bits.Len(uint(len(ccw.dict) - 1))
		if width == 0 {
			width = 1
		}
		stream, err := rle.Encode(nil, ccw.dictIndexes[valueStart:valueEnd], width)
		if err != nil {
			return nil, err
		}
		return append([]byte{byte(width)}, stream...), nil
	}
	return appendPlainValueBytes(nil, ccw.column.values[valueStart:valueEnd], ccw.column.field)
}

// appendPlainValueBytes appends the PLAIN encoding of values to dst.
func appendPlainValueBytes(dst []byte, values []Value, leaf *DataField) ([]byte, error) {
	switch leaf.Type() {
	case format.Boolean:
		b := make([]bool, len(values))
		for i, v := range values {
			b[i] = v.Boolean()
		}
		return plain.AppendBoolean(dst, b), nil
	case format.Int32:
		b := make([]int32, len(values))
		for i, v := range values {
			b[i] = v.Int32()
		}
		return plain.AppendInt32(dst, b), nil
	case format.Int64:
		b := make([]int64, len(values))
		for i, v := range values {
			b[i] = v.Int64()
		}
		return plain.AppendInt64(dst, b), nil
	case format.Int96:
		b := make([][12]byte, len(values))
		for i, v := range values {
			b[i] = v.Int96()
		}
		return plain.AppendInt96(dst, b), nil
	case format.Float:
		b := make([]float32, len(values))
		for i, v := range values {
			b[i] = v.Float()
		}
		return plain.AppendFloat(dst, b), nil
	case format.Double:
		b := make([]float64, len(values))
		for i, v := range values {
			b[i] = v.Double()
		}
		return plain.AppendDouble(dst, b), nil
	case format.ByteArray:
		b := make([][]byte, len(values))
		for i, v := range values {
			b[i] = v.ByteArray()
		}
		return plain.AppendByteArray(dst, b), nil
	case format.FixedLenByteArray:
		b := make([][]byte, len(values))
		for i, v := range values {
			b[i] = v.ByteArray()
		}
		return plain.AppendFixedLenByteArray(dst, b), nil
	default:
		return dst, fmt.Errorf("unsupported physical type %s of column %q: %w",
			leaf.Type(), strings.Join(leaf.Path(), "."), ErrNotSupported)
	}
}

// statistics computes min/max statistics over the given present values, or
// nil for types with no defined ordering.
func (ccw *columnChunkWriter) statistics(values []Value) *format.Statistics {
	if len(values) == 0 || ccw.column.field.Type() == format.Int96 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if lessValue(v, min) {
			min = v
		}
		if lessValue(max, v) {
			max = v
		}
	}

	minBytes := statBytes(min)
	maxBytes := statBytes(max)
	return &format.Statistics{
		MinValue: minBytes,
		MaxValue: maxBytes,
	}
}

// lessValue orders two values of the same physical type, bytes compared
// lexicographically.
func lessValue(v1, v2 Value) bool {
	switch v1.Kind() {
	case Boolean:
		return !v1.Boolean() && v2.Boolean()
	case Int32:
		return v1.Int32() < v2.Int32()
	case Int64:
		return v1.Int64() < v2.Int64()
	case Float:
		return v1.Float() < v2.Float()
	case Double:
		return v1.Double() < v2.Double()
	default:
		return bytes.Compare(v1.bytes, v2.bytes) < 0
	}
}

// statBytes renders a value the way footer statistics store it, the PLAIN
// encoding without any length prefix.
func statBytes(v Value) []byte {
	switch v.Kind() {
	case Boolean:
		if v.Boolean() {
			return []byte{1}
		}
		return []byte{0}
	case Int32, Float:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.num))
		return b
	case Int64, Double:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v.num)
		return b
	default:
		return append([]byte(nil), v.bytes...)
	}
}
