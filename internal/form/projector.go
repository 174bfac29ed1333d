package form

import (
	"github.com/rs/xid"

	"configdesk/internal/tree"
)

// DefaultCollection is the root field rendered as a tab set.
const DefaultCollection = "coins"

// Projector turns a configuration tree into a Form.
type Projector struct {
	Classifier *Classifier
	// Collection is the path of the collection field. Entries below it are
	// rendered one tab each.
	Collection tree.Path
}

// NewProjector returns a projector for the collection field at collection.
func NewProjector(c *Classifier, collection tree.Path) *Projector {
	if c == nil {
		c = NewClassifier()
	}
	if len(collection) == 0 {
		collection = tree.Path{DefaultCollection}
	}
	return &Projector{Classifier: c, Collection: collection}
}

// Project renders t. The tree is only read.
func (p *Projector) Project(t *tree.Tree) *Form {
	f := newForm()
	p.group(f, f.Root, nil, t.Root())
	return f
}

func (p *Projector) group(f *Form, g *Group, at tree.Path, m *tree.Mapping) {
	for _, e := range m.Entries() {
		child := at.Child(e.Name)
		switch n := e.Node.(type) {
		case *tree.Mapping:
			if child.Equal(p.Collection) {
				g.Items = append(g.Items, Item{Tabs: p.tabs(f, child, n)})
				continue
			}
			sub := &Group{Name: e.Name, Path: child}
			p.group(f, sub, child, n)
			g.Items = append(g.Items, Item{Group: sub})
		case tree.Scalar:
			g.Items = append(g.Items, Item{Widget: p.widget(f, child, n)})
		}
	}
}

func (p *Projector) tabs(f *Form, at tree.Path, m *tree.Mapping) *TabSet {
	ts := &TabSet{Name: at.Name(), Path: at}
	for _, e := range m.Entries() {
		child := at.Child(e.Name)
		tab := &Group{Name: e.Name, Path: child}
		switch n := e.Node.(type) {
		case *tree.Mapping:
			p.group(f, tab, child, n)
		case tree.Scalar:
			// a malformed entry still round-trips as a single widget
			tab.Items = append(tab.Items, Item{Widget: p.widget(f, child, n)})
		}
		ts.Tabs = append(ts.Tabs, tab)
	}
	return ts
}

func (p *Projector) widget(f *Form, at tree.Path, s tree.Scalar) *Widget {
	class, _ := p.Classifier.Classify(at, s)
	w := &Widget{
		ID:        "w" + xid.New().String(),
		Label:     at.Name(),
		Kind:      class.Kind,
		Sensitive: class.Sensitive,
		origin:    s.Kind(),
	}
	if class.Kind == KindBoolean {
		w.checked, _ = s.AsBool()
	} else {
		w.value = s.Text()
	}
	if w.Sensitive {
		w.secret = w.value
		w.masked = true
	}
	f.register(w, at)
	return w
}
