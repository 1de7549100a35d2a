// Package monitoring is the diagnostic channel for pointview. Load failures,
// conversion warnings and framing decisions are all reported through Logf.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be swapped with SetLogger so tests can capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that tags every line with "[component] ".
// The returned func resolves Logf at call time, so a later SetLogger still
// takes effect.
func Prefixed(component string) func(format string, v ...interface{}) {
	tag := "[" + component + "] "
	return func(format string, v ...interface{}) {
		Logf(tag+format, v...)
	}
}
