package tree

import (
	"math"
	"strconv"
)

// Node is one value of a configuration document: either a Scalar leaf or a
// *Mapping of named children. The set of implementations is closed.
type Node interface {
	node()
}

// ScalarKind tells which primitive a Scalar holds.
type ScalarKind uint8

const (
	KindString ScalarKind = iota
	KindNumber
	KindBool
)

// String returns the kind name.
func (k ScalarKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Scalar is a leaf value. The zero value is the empty string.
type Scalar struct {
	kind ScalarKind
	s    string
	n    float64
	b    bool
}

func (Scalar) node() {}

// Str returns a string scalar.
func Str(s string) Scalar { return Scalar{kind: KindString, s: s} }

// Num returns a number scalar.
func Num(n float64) Scalar { return Scalar{kind: KindNumber, n: n} }

// Bool returns a boolean scalar.
func Bool(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// Kind reports the primitive held by s.
func (s Scalar) Kind() ScalarKind { return s.kind }

// AsString returns the string value if s is a string.
func (s Scalar) AsString() (string, bool) { return s.s, s.kind == KindString }

// AsNumber returns the numeric value if s is a number.
func (s Scalar) AsNumber() (float64, bool) { return s.n, s.kind == KindNumber }

// AsBool returns the boolean value if s is a boolean.
func (s Scalar) AsBool() (bool, bool) { return s.b, s.kind == KindBool }

// Text is the form a scalar takes in a text input. Numbers use the shortest
// representation that parses back to the same float64.
func (s Scalar) Text() string {
	switch s.kind {
	case KindNumber:
		return formatNumber(s.n)
	case KindBool:
		return strconv.FormatBool(s.b)
	default:
		return s.s
	}
}

// Equal reports whether two scalars hold the same kind and value.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindNumber:
		return s.n == o.n
	case KindBool:
		return s.b == o.b
	default:
		return s.s == o.s
	}
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Entry is one named child of a Mapping.
type Entry struct {
	Name string
	Node Node
}

// Mapping is a nested object. Keys keep the order in which they were first
// inserted; overwriting a key keeps its position.
type Mapping struct {
	keys   []string
	values map[string]Node
}

func (*Mapping) node() {}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

// Len returns the number of children.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the child names in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Lookup returns the child called name.
func (m *Mapping) Lookup(name string) (Node, bool) {
	n, ok := m.values[name]
	return n, ok
}

// Put sets the child called name, appending it if new.
func (m *Mapping) Put(name string, n Node) {
	if m.values == nil {
		m.values = make(map[string]Node)
	}
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = n
}

// Delete removes the child called name and reports whether it existed.
func (m *Mapping) Delete(name string) bool {
	if _, ok := m.values[name]; !ok {
		return false
	}
	delete(m.values, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Entries returns the children in insertion order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{Name: k, Node: m.values[k]})
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	dst := &Mapping{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]Node, len(m.values)),
	}
	copy(dst.keys, m.keys)
	for k, v := range m.values {
		dst.values[k] = CloneNode(v)
	}
	return dst
}

// CloneNode returns a deep copy of n. Scalars are values and copy trivially.
func CloneNode(n Node) Node {
	switch v := n.(type) {
	case *Mapping:
		return v.Clone()
	default:
		return n
	}
}

// Equal reports whether a and b describe the same document. Mapping key order
// is ignored.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av.Equal(bv)
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for k, an := range av.values {
			bn, ok := bv.values[k]
			if !ok || !Equal(an, bn) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
