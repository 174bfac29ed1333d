package tree

import (
	"fmt"
	"strings"
)

// Delimiter separates segments of an encoded path. Field names must not
// contain it; documents with such names are rejected when decoded.
const Delimiter = "."

// Path locates a node from the root as a sequence of field names. The empty
// path denotes the root itself.
type Path []string

// ParsePath decodes a delimiter-joined path. The empty string and empty
// segments are malformed.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("decode %q: %w", s, ErrMalformedPath)
	}
	parts := strings.Split(s, Delimiter)
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("decode %q: %w", s, ErrMalformedPath)
		}
	}
	return Path(parts), nil
}

// MustParsePath is ParsePath for literals; it panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String encodes the path.
func (p Path) String() string {
	return strings.Join(p, Delimiter)
}

// Child returns a new path one level below p. p is not modified.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Equal reports whether two paths have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// ValidateName reports whether name can be used as a field name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidName)
	}
	if strings.Contains(name, Delimiter) {
		return fmt.Errorf("%q contains %q: %w", name, Delimiter, ErrInvalidName)
	}
	return nil
}
