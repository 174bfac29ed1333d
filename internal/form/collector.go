package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"configdesk/internal/tree"
)

// Policy selects how text widgets are coerced back into scalars.
type Policy int

const (
	// CoerceByContent turns any text reading as a boolean or number into one.
	CoerceByContent Policy = iota
	// CoerceByOrigin only coerces text whose leaf was a number or boolean
	// when rendered; strings stay strings.
	CoerceByOrigin
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "content":
		return CoerceByContent, nil
	case "origin":
		return CoerceByOrigin, nil
	default:
		return CoerceByContent, fmt.Errorf("unknown coercion policy %q", s)
	}
}

func (p Policy) String() string {
	if p == CoerceByOrigin {
		return "origin"
	}
	return "content"
}

// Collector rebuilds a configuration tree from live widget state.
type Collector struct {
	Policy Policy
}

// Collect walks every group and widget of f once and returns the document
// they describe. Empty groups come back as empty mappings.
func (c Collector) Collect(f *Form) (*tree.Tree, error) {
	t := tree.New()
	if err := c.group(t, f, f.Root); err != nil {
		return nil, err
	}
	return t, nil
}

func (c Collector) group(t *tree.Tree, f *Form, g *Group) error {
	if len(g.Path) > 0 {
		t.EnsureMapping(g.Path)
	}
	for _, it := range g.Items {
		switch {
		case it.Widget != nil:
			enc, ok := f.PathOf(it.Widget.ID)
			if !ok {
				return fmt.Errorf("collect: widget %s has no path", it.Widget.ID)
			}
			p, err := tree.ParsePath(enc)
			if err != nil {
				return fmt.Errorf("collect: widget %s: %w", it.Widget.ID, err)
			}
			if err := t.Set(p, Coerce(it.Widget, c.Policy)); err != nil {
				return fmt.Errorf("collect: %w", err)
			}
		case it.Group != nil:
			if err := c.group(t, f, it.Group); err != nil {
				return err
			}
		case it.Tabs != nil:
			t.EnsureMapping(it.Tabs.Path)
			for _, tab := range it.Tabs.Tabs {
				if err := c.group(t, f, tab); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Coerce converts the state of w into a scalar. Checkboxes give booleans.
// Text reading exactly "true" or "false" gives a boolean, text parsing as a
// finite number gives a number, anything else is kept verbatim. Masked
// widgets resolve to their true value.
func Coerce(w *Widget, policy Policy) tree.Scalar {
	if w.Kind == KindBoolean {
		return tree.Bool(w.checked)
	}
	s := w.Content()
	if policy == CoerceByOrigin && w.origin == tree.KindString {
		return tree.Str(s)
	}
	switch s {
	case "true":
		return tree.Bool(true)
	case "false":
		return tree.Bool(false)
	}
	if v, ok := parseNumber(s); ok {
		return tree.Num(v)
	}
	return tree.Str(s)
}

func parseNumber(s string) (float64, bool) {
	if s == "" || strings.TrimSpace(s) != s {
		return 0, false
	}
	// decimal notation only; ParseFloat also takes hex mantissas
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
