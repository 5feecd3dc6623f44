// Package debug writes optional diagnostics to stderr. Output is off unless
// the PARQUET_DEBUG environment variable is set or a program calls Toggle.
package debug

import (
	"log"
	"os"
	"sync/atomic"
)

var enabled atomic.Bool

func init() {
	if os.Getenv("PARQUET_DEBUG") != "" {
		enabled.Store(true)
	}
}

// Toggle turns diagnostic output on or off.
func Toggle(on bool) { enabled.Store(on) }

// Enabled reports whether diagnostic output is currently on.
func Enabled() bool { return enabled.Load() }

// Format writes one formatted log line to stderr when diagnostics are on.
func Format(format string, args ...interface{}) {
	if enabled.Load() {
		log.Printf(format, args...)
	}
}
