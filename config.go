package parquet

import (
	"fmt"
	"strings"

	"github.com/hollowdb/parquet/compress"
)

const (
	DefaultPageSizeBytes            = 1024 * 1024
	DefaultDictionaryIndexThreshold = DefaultPageSizeBytes / 2
	DefaultDataPageVersion          = 1
)

// The ReaderConfig type carries configuration options for parquet readers.
//
// ReaderConfig implements the ReaderOption interface so it can be used
// directly as argument to functions accepting reader options, for example:
//
//	file, err := parquet.OpenFile(input, size, &parquet.ReaderConfig{
//		TreatByteArrayAsUTF8: false,
//	})
type ReaderConfig struct {
	// TreatByteArrayAsUTF8 is recorded in the configuration of the opened
	// file. The column readers do not consult it: BYTE_ARRAY values are
	// returned as ByteArray values whatever its setting.
	TreatByteArrayAsUTF8 bool
}

// DefaultReaderConfig returns the default reader configuration.
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		TreatByteArrayAsUTF8: true,
	}
}

// Apply applies the given list of options to c.
func (c *ReaderConfig) Apply(options ...ReaderOption) {
	for _, opt := range options {
		opt.ConfigureReader(c)
	}
}

// Configure applies configuration options from c to config. Boolean options
// overwrite, everything else coalesces with the zero value meaning "keep".
func (c *ReaderConfig) Configure(config *ReaderConfig) {
	*config = ReaderConfig{
		TreatByteArrayAsUTF8: c.TreatByteArrayAsUTF8,
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *ReaderConfig) Validate() error {
	return nil
}

// The WriterConfig type carries configuration options for parquet writers.
//
// WriterConfig implements the WriterOption interface so it can be used
// directly as argument to the WriteFile function when needed, for example:
//
//	err := parquet.WriteFile(output, schema, rows, &parquet.WriterConfig{
//		CreatedBy: "my test program",
//	})
type WriterConfig struct {
	CreatedBy                string
	Compression              compress.Codec
	DataPageVersion          int
	PageSizeBytes            int
	DictionaryIndexThreshold int
}

// DefaultWriterConfig returns the default writer configuration.
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		DataPageVersion:          DefaultDataPageVersion,
		PageSizeBytes:            DefaultPageSizeBytes,
		DictionaryIndexThreshold: DefaultDictionaryIndexThreshold,
	}
}

// Apply applies the given list of options to c.
func (c *WriterConfig) Apply(options ...WriterOption) {
	for _, opt := range options {
		opt.ConfigureWriter(c)
	}
}

// Configure applies configuration options from c to config.
func (c *WriterConfig) Configure(config *WriterConfig) {
	*config = WriterConfig{
		CreatedBy:                coalesceString(c.CreatedBy, config.CreatedBy),
		Compression:              coalesceCompression(c.Compression, config.Compression),
		DataPageVersion:          coalesceInt(c.DataPageVersion, config.DataPageVersion),
		PageSizeBytes:            coalesceInt(c.PageSizeBytes, config.PageSizeBytes),
		DictionaryIndexThreshold: coalesceInt(c.DictionaryIndexThreshold, config.DictionaryIndexThreshold),
	}
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *WriterConfig) Validate() error {
	const baseName = "parquet.(*WriterConfig)."
	return errorInvalidConfiguration(
		validatePositiveInt(baseName+"PageSizeBytes", c.PageSizeBytes),
		validateOneOfInt(baseName+"DataPageVersion", c.DataPageVersion, 1, 2),
	)
}

// ReaderOption is an interface implemented by types that carry configuration
// options for parquet readers.
type ReaderOption interface {
	ConfigureReader(*ReaderConfig)
}

// WriterOption is an interface implemented by types that carry configuration
// options for parquet writers.
type WriterOption interface {
	ConfigureWriter(*WriterConfig)
}

func (c *ReaderConfig) ConfigureReader(config *ReaderConfig) { c.Configure(config) }
func (c *WriterConfig) ConfigureWriter(config *WriterConfig) { c.Configure(config) }

// TreatByteArrayAsUTF8 sets the ReaderConfig field of the same name. The
// setting is stored only; reads return BYTE_ARRAY values as ByteArray
// values either way.
//
// Defaults to true.
func TreatByteArrayAsUTF8(enabled bool) ReaderOption {
	return readerOption(func(config *ReaderConfig) { config.TreatByteArrayAsUTF8 = enabled })
}

// CreatedBy creates a configuration option which sets the name of the
// application that created a parquet file.
//
// By default, this information is omitted.
func CreatedBy(createdBy string) WriterOption {
	return writerOption(func(config *WriterConfig) { config.CreatedBy = createdBy })
}

// Compression creates a configuration option which sets the compression
// codec applied to data page payloads.
//
// By default, pages are not compressed.
func Compression(codec compress.Codec) WriterOption {
	return writerOption(func(config *WriterConfig) { config.Compression = codec })
}

// DataPageVersion creates a configuration option which selects the version
// of the data page format written, 1 or 2.
//
// Defaults to 1.
func DataPageVersion(version int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.DataPageVersion = version })
}

// PageSizeBytes creates a configuration option which sets the target
// uncompressed size at which data pages are cut.
//
// Defaults to 1 MiB.
func PageSizeBytes(size int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.PageSizeBytes = size })
}

// DictionaryIndexThreshold creates a configuration option which caps the
// number of distinct values a column may hold while still being written
// with dictionary encoding. Columns crossing the threshold fall back to
// plain encoding.
//
// Defaults to half the default page size.
func DictionaryIndexThreshold(threshold int) WriterOption {
	return writerOption(func(config *WriterConfig) { config.DictionaryIndexThreshold = threshold })
}

type readerOption func(*ReaderConfig)

func (opt readerOption) ConfigureReader(config *ReaderConfig) { opt(config) }

type writerOption func(*WriterConfig)

func (opt writerOption) ConfigureWriter(config *WriterConfig) { opt(config) }

func coalesceInt(i1, i2 int) int {
	if i1 != 0 {
		return i1
	}
	return i2
}

func coalesceString(s1, s2 string) string {
	if s1 != "" {
		return s1
	}
	return s2
}

func coalesceCompression(c1, c2 compress.Codec) compress.Codec {
	if c1 != nil {
		return c1
	}
	return c2
}

func validatePositiveInt(optionName string, optionValue int) error {
	if optionValue > 0 {
		return nil
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func validateOneOfInt(optionName string, optionValue int, supportedValues ...int) error {
	for _, value := range supportedValues {
		if value == optionValue {
			return nil
		}
	}
	return errorInvalidOptionValue(optionName, optionValue)
}

func errorInvalidOptionValue(optionName string, optionValue interface{}) error {
	return fmt.Errorf("invalid option value: %s: %v", optionName, optionValue)
}

func errorInvalidConfiguration(reasons ...error) error {
	var err *invalidConfiguration

	for _, reason := range reasons {
		if reason != nil {
			if err == nil {
				err = new(invalidConfiguration)
			}
			err.reasons = append(err.reasons, reason)
		}
	}

	if err != nil {
		return err
	}

	return nil
}

type invalidConfiguration struct {
	reasons []error
}

func (err *invalidConfiguration) Error() string {
	errorMessage := new(strings.Builder)
	for _, reason := range err.reasons {
		errorMessage.WriteString(reason.Error())
		errorMessage.WriteString("\n")
	}
	errorString := errorMessage.String()
	if errorString != "" {
		errorString = errorString[:len(errorString)-1]
	}
	return errorString
}
