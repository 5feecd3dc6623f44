// Package encoding provides the generic APIs implemented by the parquet
// value encoding sub-packages.
package encoding

import (
	"errors"
	"fmt"

	"github.com/hollowdb/parquet/format"
)

// ErrNotSupported is returned when a page carries an encoding that the
// library recognizes but does not implement.
var ErrNotSupported = errors.New("not supported")

// The Encoding interface is implemented by the encoding sub-packages.
//
// Encoding instances carry no mutable state and are safe to use concurrently
// from multiple goroutines.
type Encoding interface {
	// Returns a human-readable name for the encoding.
	String() string

	// Returns the code of the encoding in the parquet format.
	Encoding() format.Encoding
}

// NotSupported stands for an encoding that is recognized but not
// implemented; it only names the encoding and carries no codec.
type NotSupported struct {
	Code format.Encoding
}

func (e NotSupported) String() string { return e.Code.String() }

func (e NotSupported) Encoding() format.Encoding { return e.Code }

// Error decorates err with the name of the encoding it originated from.
func Error(e Encoding, err error) error {
	return fmt.Errorf("%s: %w", e, err)
}

// Errorf constructs an error prefixed with the name of the encoding.
func Errorf(e Encoding, msg string, args ...interface{}) error {
	return Error(e, fmt.Errorf(msg, args...))
}
