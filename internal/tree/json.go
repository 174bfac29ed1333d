package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotObject indicates a document whose top level is not a JSON object.
	ErrNotObject = errors.New("document is not a JSON object")

	// ErrMalformedJSON indicates input that is not valid JSON.
	ErrMalformedJSON = errors.New("invalid JSON")
)

// Decode parses a JSON object into a tree, keeping key order. Field names
// that are empty or contain the path delimiter, arrays and nulls are rejected.
func Decode(data []byte) (*Tree, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}
	root, err := decodeObject(nil, doc)
	if err != nil {
		return nil, err
	}
	return FromMapping(root), nil
}

func decodeObject(prefix Path, obj gjson.Result) (*Mapping, error) {
	m := NewMapping()
	var err error
	obj.ForEach(func(key, value gjson.Result) bool {
		p := prefix.Child(key.Str)
		if verr := ValidateName(key.Str); verr != nil {
			err = &PathError{Op: "decode", Path: p.String(), Err: verr}
			return false
		}
		var n Node
		n, err = decodeValue(p, value)
		if err != nil {
			return false
		}
		m.Put(key.Str, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeValue(p Path, v gjson.Result) (Node, error) {
	switch v.Type {
	case gjson.String:
		return Str(v.Str), nil
	case gjson.Number:
		if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
			return nil, pathErr("decode", p, fmt.Errorf("number %s: %w", v.Raw, ErrUnsupportedValue))
		}
		return Num(v.Num), nil
	case gjson.True:
		return Bool(true), nil
	case gjson.False:
		return Bool(false), nil
	case gjson.JSON:
		if v.IsObject() {
			return decodeObject(p, v)
		}
		return nil, pathErr("decode", p, fmt.Errorf("array: %w", ErrUnsupportedValue))
	default:
		return nil, pathErr("decode", p, fmt.Errorf("null: %w", ErrUnsupportedValue))
	}
}

// Encode serialises t as compact JSON with keys in insertion order.
func Encode(t *Tree) ([]byte, error) {
	return t.root.MarshalJSON()
}

// EncodeIndent serialises t like Encode, indented by two spaces.
func EncodeIndent(t *Tree) ([]byte, error) {
	raw, err := Encode(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with keys in insertion order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Mapping) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch v := m.values[k].(type) {
		case *Mapping:
			if err := v.writeJSON(buf); err != nil {
				return err
			}
		case Scalar:
			raw, err := v.MarshalJSON()
			if err != nil {
				return err
			}
			buf.Write(raw)
		}
	}
	buf.WriteByte('}')
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindNumber:
		if math.IsInf(s.n, 0) || math.IsNaN(s.n) {
			return nil, fmt.Errorf("number %v: %w", s.n, ErrUnsupportedValue)
		}
		return []byte(formatNumber(s.n)), nil
	case KindBool:
		return json.Marshal(s.b)
	default:
		return json.Marshal(s.s)
	}
}
