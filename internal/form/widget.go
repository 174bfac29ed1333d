package form

import (
	"strings"

	"configdesk/internal/tree"
)

// Placeholder is shown in place of a masked value.
const Placeholder = "••••••••"

// Widget is one rendered input. Its visible content is what the user edits;
// for masked widgets the true value is kept apart from the visible content.
type Widget struct {
	ID        string
	Label     string
	Kind      Kind
	Sensitive bool

	value   string
	checked bool
	secret  string
	masked  bool
	origin  tree.ScalarKind
}

// Checked returns the state of a boolean widget.
func (w *Widget) Checked() bool { return w.checked }

// SetChecked updates a boolean widget.
func (w *Widget) SetChecked(b bool) { w.checked = b }

// Masked reports whether the widget currently hides its value.
func (w *Widget) Masked() bool { return w.masked }

// Origin is the scalar kind the leaf had when rendered.
func (w *Widget) Origin() tree.ScalarKind { return w.origin }

// Displayed returns the visible content of a text-like widget.
func (w *Widget) Displayed() string {
	if w.masked {
		return Placeholder
	}
	return w.value
}

// SetValue applies content typed into the widget. While masked, an empty
// value or the placeholder means the user left the field alone; a placeholder
// left in front of typed text is dropped and the rest replaces the hidden
// value.
func (w *Widget) SetValue(s string) {
	if w.masked {
		s = strings.TrimPrefix(s, Placeholder)
		if s == "" {
			return
		}
		w.secret = s
		w.value = s
		return
	}
	w.value = s
	if w.Sensitive {
		w.secret = s
	}
}

// ToggleVisibility swaps between the placeholder and the true value. It
// never changes the true value.
func (w *Widget) ToggleVisibility() {
	if !w.Sensitive {
		return
	}
	if w.masked {
		w.value = w.secret
		w.masked = false
		return
	}
	w.secret = w.value
	w.masked = true
}

// Content is the authoritative string content of a text-like widget.
func (w *Widget) Content() string {
	if w.masked {
		return w.secret
	}
	return w.value
}

// Group is a rendered mapping: its leaves, nested groups and, for the
// collection field, a tab set.
type Group struct {
	Name  string
	Path  tree.Path
	Items []Item
}

// Item is exactly one of Widget, Group or Tabs.
type Item struct {
	Widget *Widget
	Group  *Group
	Tabs   *TabSet
}

// TabSet renders the collection field; every entry is its own tab.
type TabSet struct {
	Name string
	Path tree.Path
	Tabs []*Group
}

// Form is the widget tree of one projection, plus the side table that maps
// each widget id to its encoded path.
type Form struct {
	Root *Group

	widgets []*Widget
	byID    map[string]*Widget
	paths   map[string]string
}

func newForm() *Form {
	return &Form{
		Root:  &Group{},
		byID:  make(map[string]*Widget),
		paths: make(map[string]string),
	}
}

func (f *Form) register(w *Widget, p tree.Path) {
	f.widgets = append(f.widgets, w)
	f.byID[w.ID] = w
	f.paths[w.ID] = p.String()
}

// Widgets returns all widgets in render order.
func (f *Form) Widgets() []*Widget {
	out := make([]*Widget, len(f.widgets))
	copy(out, f.widgets)
	return out
}

// Widget returns the widget with the given id.
func (f *Form) Widget(id string) (*Widget, bool) {
	w, ok := f.byID[id]
	return w, ok
}

// PathOf returns the encoded path of a widget.
func (f *Form) PathOf(id string) (string, bool) {
	p, ok := f.paths[id]
	return p, ok
}

// WidgetAt returns the widget rendered for the leaf at p.
func (f *Form) WidgetAt(p tree.Path) (*Widget, bool) {
	enc := p.String()
	for _, w := range f.widgets {
		if f.paths[w.ID] == enc {
			return w, true
		}
	}
	return nil, false
}

// Len returns the number of widgets.
func (f *Form) Len() int { return len(f.widgets) }

// Signals returns the client-side state of every widget keyed by widget id.
// Masked widgets are empty; the page shows the placeholder instead.
func (f *Form) Signals() map[string]any {
	out := make(map[string]any, len(f.widgets))
	for _, w := range f.widgets {
		if w.Kind == KindBoolean {
			out[w.ID] = w.checked
			continue
		}
		if w.masked {
			out[w.ID] = ""
			continue
		}
		out[w.ID] = w.value
	}
	return out
}

// Apply copies client-side widget state into the form. Unknown ids and
// values of the wrong shape are ignored. It returns the number of widgets
// updated.
func (f *Form) Apply(signals map[string]any) int {
	n := 0
	for id, raw := range signals {
		w, ok := f.byID[id]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case bool:
			if w.Kind != KindBoolean {
				continue
			}
			w.SetChecked(v)
		case string:
			if w.Kind == KindBoolean {
				continue
			}
			w.SetValue(v)
		case float64:
			if w.Kind == KindBoolean {
				continue
			}
			w.SetValue(tree.Num(v).Text())
		default:
			continue
		}
		n++
	}
	return n
}
