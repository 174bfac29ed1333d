package form

import (
	"strings"

	"configdesk/internal/tree"
)

// Kind is how a leaf is presented.
type Kind string

const (
	KindBoolean   Kind = "boolean"
	KindText      Kind = "text"
	KindSensitive Kind = "sensitive"
	KindMultiline Kind = "multiline"
)

// Class is the outcome of classifying one leaf. A multiline leaf can also be
// sensitive; it keeps KindMultiline and is masked.
type Class struct {
	Kind      Kind
	Sensitive bool
}

// DefaultSensitiveNames is the denylist used when none is configured.
var DefaultSensitiveNames = []string{"password", "secret", "token", "key", "chat_id"}

// Classifier picks the presentation of a leaf from its value and name.
type Classifier struct {
	sensitive []string
}

// NewClassifier returns a classifier matching names against denylist
// case-insensitively. An empty denylist selects DefaultSensitiveNames.
func NewClassifier(denylist ...string) *Classifier {
	if len(denylist) == 0 {
		denylist = DefaultSensitiveNames
	}
	c := &Classifier{sensitive: make([]string, 0, len(denylist))}
	for _, s := range denylist {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			c.sensitive = append(c.sensitive, s)
		}
	}
	return c
}

// IsSensitive reports whether a field name matches the denylist.
func (c *Classifier) IsSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range c.sensitive {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Classify returns the class of the node at p. Mappings are not leaves and
// report false.
func (c *Classifier) Classify(p tree.Path, n tree.Node) (Class, bool) {
	switch v := n.(type) {
	case *tree.Mapping:
		return Class{}, false
	case tree.Scalar:
		if v.Kind() == tree.KindBool {
			return Class{Kind: KindBoolean}, true
		}
		sensitive := c.IsSensitive(p.Name())
		if s, ok := v.AsString(); ok && strings.ContainsAny(s, "\r\n") {
			return Class{Kind: KindMultiline, Sensitive: sensitive}, true
		}
		if sensitive {
			return Class{Kind: KindSensitive, Sensitive: true}, true
		}
		return Class{Kind: KindText}, true
	default:
		return Class{}, false
	}
}
