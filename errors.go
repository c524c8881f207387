package ueberdb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilDriver is returned by New when no Driver is supplied.
var ErrNilDriver = errors.New("ueberdb: driver must not be nil")

// ErrInvalidSettings is returned by New when Settings contains a
// negative Cache or WriteInterval.
var ErrInvalidSettings = errors.New("ueberdb: cache and writeInterval must be non-negative")

// ErrClosed is returned by Close when the DB has already been closed.
// Other operations do not check for a closed DB.
var ErrClosed = errors.New("ueberdb: database is closed")

// DecodeError reports a failure to JSON-decode a value read from the
// driver. The issuing Get sees this error; the entry is not cached
// (spec.md §4.2). A write whose value cannot be encoded for the driver
// also reports its failure to the Set/Remove callback as a DecodeError.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ueberdb: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PathNotFoundError reports that a subtree path did not resolve: a step
// before the last is missing or not an object, or, for GetSub, the final
// key is absent (spec.md §4.4).
type PathNotFoundError struct {
	Key  string
	Path []string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("ueberdb: subvalue not found: %q (path %s)", e.Key, strings.Join(e.Path, "/"))
}

// errNotAString reports a write with Settings.JSON disabled where the
// value being written isn't already the raw string the driver expects.
func errNotAString(v interface{}) error {
	return fmt.Errorf("ueberdb: value of type %T is not a string and JSON encoding is disabled", v)
}
