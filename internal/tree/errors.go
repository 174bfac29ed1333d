package tree

import (
	"errors"
	"fmt"
)

// Errors returned by tree operations.
var (
	// ErrPathNotFound indicates a path segment does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrDuplicateName indicates a collection already has an entry with that name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNameNotFound indicates a collection has no entry with that name.
	ErrNameNotFound = errors.New("name not found")

	// ErrMalformedPath indicates an encoded path that cannot be decoded.
	ErrMalformedPath = errors.New("malformed path")

	// ErrInvalidName indicates a field name that cannot be encoded in a path.
	ErrInvalidName = errors.New("invalid field name")

	// ErrNotMapping indicates an operation that needs a mapping reached a leaf.
	ErrNotMapping = errors.New("not a mapping")

	// ErrUnsupportedValue indicates a JSON value outside the document model
	// (arrays and null).
	ErrUnsupportedValue = errors.New("unsupported value")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op string, p Path, err error) error {
	return &PathError{Op: op, Path: p.String(), Err: err}
}
