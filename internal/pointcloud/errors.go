package pointcloud

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure is returned when the source could not be fetched:
	// a transport error, a non-2xx status, a missing local file or an
	// oversized body.
	ErrNetworkFailure = errors.New("pointcloud: fetch failed")

	// ErrEmptyDataset is returned when no row survived filtering.
	ErrEmptyDataset = errors.New("pointcloud: no valid data points found")
)

// ConversionError describes a single field that could not be read as a
// finite number. It is reported, never returned from Load: the field is
// replaced with 0 and parsing continues.
type ConversionError struct {
	Line   int // 1-based
	Column int // 1-based
	Field  string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid number conversion at line %d column %d: %q: %v", e.Line, e.Column, e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// errNotFinite marks fields that parse but are NaN or infinite.
var errNotFinite = errors.New("value is not finite")
