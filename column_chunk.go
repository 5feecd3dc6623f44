package parquet

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/segmentio/encoding/thrift"

	"github.com/hollowdb/parquet/compress"
	"github.com/hollowdb/parquet/encoding/plain"
	"github.com/hollowdb/parquet/encoding/rle"
	"github.com/hollowdb/parquet/format"
	"github.com/hollowdb/parquet/internal/debug"
)

// DataColumn holds the decoded content of one column chunk: the present
// values in file order, and the definition and repetition level streams
// covering every value slot including nulls.
//
// Values contains one entry per slot where the definition level reached the
// column's maximum; DefinitionLevels and RepetitionLevels contain one entry
// per slot. For columns at repetition and definition level zero the level
// slices are nil and Values covers every slot.
type DataColumn struct {
	field            *DataField
	values           []Value
	definitionLevels []int32
	repetitionLevels []int32
}

// Field returns the leaf column the data was read from.
func (c *DataColumn) Field() *DataField { return c.field }

// Values returns the present values of the column in file order.
func (c *DataColumn) Values() []Value { return c.values }

// DefinitionLevels returns the definition level stream, or nil when the
// column cannot hold nulls.
func (c *DataColumn) DefinitionLevels() []int32 { return c.definitionLevels }

// RepetitionLevels returns the repetition level stream, or nil when the
// column is not nested in a repeated field.
func (c *DataColumn) RepetitionLevels() []int32 { return c.repetitionLevels }

// NumValues returns the total number of value slots of the column, counting
// nulls.
func (c *DataColumn) NumValues() int {
	if c.definitionLevels != nil {
		return len(c.definitionLevels)
	}
	return len(c.values)
}

// NumNulls returns the number of value slots holding no value.
func (c *DataColumn) NumNulls() int { return c.NumValues() - len(c.values) }

// columnChunkReader decodes the pages of one column chunk; it is not safe
// for concurrent use.
type columnChunkReader struct {
	file      *File
	leaf      *DataField
	meta      *format.ColumnMetaData
	protocol  thrift.CompactProtocol
	codec     compress.Codec
	dict      []Value
	column    DataColumn
	numValues int64
}

func (cr *columnChunkReader) readColumn() (*DataColumn, error) {
	cr.column.field = cr.leaf

	if cr.meta.Codec != format.Uncompressed {
		codec, err := lookupCompressionCodec(cr.meta.Codec)
		if err != nil {
			return nil, err
		}
		cr.codec = codec
	}

	offset := cr.meta.DataPageOffset
	if d := cr.meta.DictionaryPageOffset; d != nil && *d > 0 && *d < offset {
		offset = *d
	}

	debug.Format("parquet: reading column chunk %q at offset %d, %d values",
		strings.Join(cr.meta.PathInSchema, "."), offset, cr.meta.NumValues)

	section := io.NewSectionReader(cr.file, offset, cr.meta.TotalCompressedSize)
	rbuf := bufio.NewReader(section)
	decoder := thrift.NewDecoder(cr.protocol.NewReader(rbuf))

	for cr.numValues < cr.meta.NumValues {
		header := new(format.PageHeader)
		if err := decoder.Decode(header); err != nil {
			return nil, fmt.Errorf("decoding page header: %w", err)
		}
		if header.CompressedPageSize < 0 {
			return nil, fmt.Errorf("page declares a negative compressed size %d: %w",
				header.CompressedPageSize, ErrMalformed)
		}

		data := bufferPool.get(int(header.CompressedPageSize))
		_, err := io.ReadFull(rbuf, data)
		if err != nil {
			bufferPool.put(data)
			return nil, fmt.Errorf("reading page of %d bytes: %w", header.CompressedPageSize, err)
		}

		err = cr.readPage(header, data)
		bufferPool.put(data)
		if err != nil {
			return nil, err
		}
	}

	return &cr.column, nil
}

func (cr *columnChunkReader) readPage(header *format.PageHeader, data []byte) error {
	switch header.Type {
	case format.DictionaryPage:
		return cr.readDictionaryPage(header, data)
	case format.DataPage:
		return cr.readDataPageV1(header, data)
	case format.DataPageV2:
		return cr.readDataPageV2(header, data)
	default:
		// Index pages and future page types carry no column values.
		return nil
	}
}

// decompress expands a page payload when the chunk is compressed. It returns
// the readable bytes and the pooled buffer to release once they have been
// consumed, which is nil when the payload was already uncompressed.
func (cr *columnChunkReader) decompress(data []byte, uncompressedSize int32) ([]byte, []byte, error) {
	if cr.codec == nil {
		return data, nil, nil
	}
	page, err := cr.codec.Decode(bufferPool.get(int(uncompressedSize)), data)
	if err != nil {
		bufferPool.put(page)
		return nil, nil, fmt.Errorf("decompressing page with %s: %w", cr.meta.Codec, err)
	}
	return page, page, nil
}

func (cr *columnChunkReader) readDictionaryPage(header *format.PageHeader, data []byte) error {
	h := header.DictionaryPageHeader
	if h == nil {
		return fmt.Errorf("dictionary page carries no dictionary header: %w", ErrMalformed)
	}
	if h.Encoding != format.Plain && h.Encoding != format.PlainDictionary {
		return errUnsupportedEncoding(h.Encoding)
	}

	page, pooled, err := cr.decompress(data, header.UncompressedPageSize)
	if err != nil {
		return err
	}
	defer bufferPool.put(pooled)

	cr.dict, err = appendPlainValues(make([]Value, 0, h.NumValues), page, cr.leaf, int(h.NumValues))
	if err != nil {
		return fmt.Errorf("decoding dictionary page of %d values: %w", h.NumValues, err)
	}
	return nil
}

func (cr *columnChunkReader) readDataPageV1(header *format.PageHeader, data []byte) error {
	h := header.DataPageHeader
	if h == nil {
		return fmt.Errorf("data page carries no data header: %w", ErrMalformed)
	}
	numValues := int(h.NumValues)
	if numValues == 0 {
		return nil
	}

	page, pooled, err := cr.decompress(data, header.UncompressedPageSize)
	if err != nil {
		return err
	}
	defer bufferPool.put(pooled)

	var repLevels, defLevels []int32

	if maxRep := cr.leaf.MaxRepetitionLevel(); maxRep > 0 {
		if h.RepetitionLevelEncoding != format.RLE {
			return errUnsupportedEncoding(h.RepetitionLevelEncoding)
		}
		var n int
		repLevels, n, err = rle.DecodeWithLength(make([]int32, 0, numValues), page, levelBitWidth(maxRep), numValues)
		if err != nil {
			return fmt.Errorf("decoding repetition levels: %w", err)
		}
		page = page[n:]
	}

	if maxDef := cr.leaf.MaxDefinitionLevel(); maxDef > 0 {
		if h.DefinitionLevelEncoding != format.RLE {
			return errUnsupportedEncoding(h.DefinitionLevelEncoding)
		}
		var n int
		defLevels, n, err = rle.DecodeWithLength(make([]int32, 0, numValues), page, levelBitWidth(maxDef), numValues)
		if err != nil {
			return fmt.Errorf("decoding definition levels: %w", err)
		}
		page = page[n:]
	}

	return cr.appendPage(h.Encoding, page, numValues, repLevels, defLevels, -1)
}

func (cr *columnChunkReader) readDataPageV2(header *format.PageHeader, data []byte) error {
	h := header.DataPageHeaderV2
	if h == nil {
		return fmt.Errorf("data page v2 carries no data header: %w", ErrMalformed)
	}
	numValues := int(h.NumValues)
	if numValues == 0 {
		return nil
	}

	repLen := int(h.RepetitionLevelsByteLength)
	defLen := int(h.DefinitionLevelsByteLength)
	if repLen < 0 || defLen < 0 || repLen+defLen > len(data) {
		return fmt.Errorf("data page v2 level lengths %d+%d overflow the page of %d bytes: %w",
			repLen, defLen, len(data), ErrMalformed)
	}

	var repLevels, defLevels []int32
	var err error

	// Level streams of v2 pages are stored before the payload, uncompressed
	// and without a length prefix.
	if maxRep := cr.leaf.MaxRepetitionLevel(); maxRep > 0 {
		repLevels, err = rle.Decode(make([]int32, 0, numValues), data[:repLen], levelBitWidth(maxRep), numValues)
		if err != nil {
			return fmt.Errorf("decoding repetition levels: %w", err)
		}
	}
	if maxDef := cr.leaf.MaxDefinitionLevel(); maxDef > 0 {
		defLevels, err = rle.Decode(make([]int32, 0, numValues), data[repLen:repLen+defLen], levelBitWidth(maxDef), numValues)
		if err != nil {
			return fmt.Errorf("decoding definition levels: %w", err)
		}
	}

	page := data[repLen+defLen:]
	var pooled []byte
	if h.IsCompressed == nil || *h.IsCompressed {
		page, pooled, err = cr.decompress(page, header.UncompressedPageSize-int32(repLen+defLen))
		if err != nil {
			return err
		}
	}
	defer bufferPool.put(pooled)

	return cr.appendPage(h.Encoding, page, numValues, repLevels, defLevels, int(h.NumNulls))
}

// appendPage decodes the value section of a data page and appends values and
// levels to the column buffers. numNulls is the null count declared by a v2
// header, or -1 when the page must derive it from the definition levels.
func (cr *columnChunkReader) appendPage(enc format.Encoding, page []byte, numValues int, repLevels, defLevels []int32, numNulls int) error {
	maxDef := int32(cr.leaf.MaxDefinitionLevel())

	if cr.leaf.MaxRepetitionLevel() > 0 && len(repLevels) != numValues {
		return fmt.Errorf("page declares %d values but the repetition levels hold %d: %w",
			numValues, len(repLevels), ErrMalformed)
	}
	if maxDef > 0 && len(defLevels) != numValues {
		return fmt.Errorf("page declares %d values but the definition levels hold %d: %w",
			numValues, len(defLevels), ErrMalformed)
	}

	presentCount := numValues
	if maxDef > 0 {
		if numNulls >= 0 {
			presentCount = numValues - numNulls
		} else {
			presentCount = 0
			for _, d := range defLevels {
				if d == maxDef {
					presentCount++
				}
			}
		}
	}

	var err error
	switch enc {
	case format.Plain:
		cr.column.values, err = appendPlainValues(cr.column.values, page, cr.leaf, presentCount)
	case format.PlainDictionary, format.RLEDictionary:
		err = cr.appendDictionaryValues(page, presentCount)
	default:
		err = errUnsupportedEncoding(enc)
	}
	if err != nil {
		return fmt.Errorf("decoding page of %d values: %w", numValues, err)
	}

	cr.column.repetitionLevels = append(cr.column.repetitionLevels, repLevels...)
	cr.column.definitionLevels = append(cr.column.definitionLevels, defLevels...)
	cr.numValues += int64(numValues)
	return nil
}

// appendDictionaryValues decodes a stream of dictionary indices, a bit width
// byte followed by a hybrid run stream, and materializes the indexed values.
func (cr *columnChunkReader) appendDictionaryValues(page []byte, count int) error {
	if count == 0 {
		return nil
	}
	if cr.dict == nil {
		return fmt.Errorf("dictionary encoded page in a chunk with no dictionary page: %w", ErrMalformed)
	}
	if len(page) == 0 {
		return fmt.Errorf("dictionary indices stream is empty: %w", ErrMalformed)
	}

	indices, err := rle.Decode(make([]int32, 0, count), page[1:], int(page[0]), count)
	if err != nil {
		return fmt.Errorf("decoding dictionary indices: %w", err)
	}
	if len(indices) != count {
		return fmt.Errorf("dictionary indices stream holds %d of %d entries: %w",
			len(indices), count, ErrMalformed)
	}

	for _, i := range indices {
		if i < 0 || int(i) >= len(cr.dict) {
			return fmt.Errorf("dictionary index %d out of range of %d entries: %w",
				i, len(cr.dict), ErrMalformed)
		}
		cr.column.values = append(cr.column.values, cr.dict[i])
	}
	return nil
}

// appendPlainValues decodes count PLAIN values of the leaf's physical type
// from data and appends them to dst. Decoded byte slices never alias data, so
// the page buffer can be pooled after the call.
func appendPlainValues(dst []Value, data []byte, leaf *DataField, count int) ([]Value, error) {
	switch leaf.Type() {
	case format.Boolean:
		values, _, err := plain.DecodeBoolean(make([]bool, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, BooleanValue(v))
		}
	case format.Int32:
		values, _, err := plain.DecodeInt32(make([]int32, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, Int32Value(v))
		}
	case format.Int64:
		values, _, err := plain.DecodeInt64(make([]int64, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, Int64Value(v))
		}
	case format.Int96:
		values, _, err := plain.DecodeInt96(make([][12]byte, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, Int96Value(v))
		}
	case format.Float:
		values, _, err := plain.DecodeFloat(make([]float32, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, FloatValue(v))
		}
	case format.Double:
		values, _, err := plain.DecodeDouble(make([]float64, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, DoubleValue(v))
		}
	case format.ByteArray:
		values, _, err := plain.DecodeByteArray(make([][]byte, 0, count), data, count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, ByteArrayValue(v))
		}
	case format.FixedLenByteArray:
		values, _, err := plain.DecodeFixedLenByteArray(make([][]byte, 0, count), data, int(leaf.TypeLength()), count)
		if err != nil {
			return dst, err
		}
		for _, v := range values {
			dst = append(dst, FixedLenByteArrayValue(v))
		}
	default:
		return dst, fmt.Errorf("unsupported physical type %s: %w", leaf.Type(), ErrNotSupported)
	}
	return dst, nil
}

// levelBitWidth returns the number of bits needed to store levels up to
// maxLevel.
func levelBitWidth(maxLevel int8) int {
	return bits.Len8(uint8(maxLevel))
}
