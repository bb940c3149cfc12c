// Package monitoring holds the process-wide diagnostic logging hook shared
// by the transport, store and link layers.
package monitoring

import "log"

// Logf is the package-level diagnostic logger, defaulting to log.Printf.
// Tests mute or capture it via SetLogger; production code may redirect it
// into a structured sink.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger swaps the package logger. A nil argument installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
