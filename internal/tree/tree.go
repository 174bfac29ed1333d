// Package tree holds configuration documents as a tree of named mappings and
// scalar leaves, addressed by dot-delimited paths.
//
// Nodes enter a tree only as fresh values or deep copies, never by aliasing,
// so a tree can not contain itself.
package tree

// Tree is a configuration document rooted at a Mapping.
type Tree struct {
	root *Mapping
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: NewMapping()}
}

// FromMapping wraps m as a tree. The tree takes ownership of m.
func FromMapping(m *Mapping) *Tree {
	if m == nil {
		m = NewMapping()
	}
	return &Tree{root: m}
}

// Root returns the root mapping.
func (t *Tree) Root() *Mapping { return t.root }

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.Clone()}
}

// Equal reports whether t and o hold the same document.
func (t *Tree) Equal(o *Tree) bool {
	return Equal(t.root, o.root)
}

// Get returns the node at p. The empty path returns the root.
func (t *Tree) Get(p Path) (Node, error) {
	var cur Node = t.root
	for i, name := range p {
		m, ok := cur.(*Mapping)
		if !ok {
			return nil, pathErr("get", p[:i+1], ErrPathNotFound)
		}
		next, ok := m.Lookup(name)
		if !ok {
			return nil, pathErr("get", p[:i+1], ErrPathNotFound)
		}
		cur = next
	}
	return cur, nil
}

// Set stores n at p, creating intermediate mappings. A scalar found on the
// way is replaced by a mapping.
func (t *Tree) Set(p Path, n Node) error {
	if len(p) == 0 {
		return pathErr("set", p, ErrMalformedPath)
	}
	parent := t.ensure(p.Parent())
	parent.Put(p.Name(), n)
	return nil
}

// EnsureMapping makes sure a mapping exists at p and returns it.
func (t *Tree) EnsureMapping(p Path) *Mapping {
	return t.ensure(p)
}

func (t *Tree) ensure(p Path) *Mapping {
	cur := t.root
	for _, name := range p {
		next, ok := cur.Lookup(name)
		m, isMap := next.(*Mapping)
		if !ok || !isMap {
			m = NewMapping()
			cur.Put(name, m)
		}
		cur = m
	}
	return cur
}

// Children lists the entries of the mapping at p in insertion order.
func (t *Tree) Children(p Path) ([]Entry, error) {
	n, err := t.Get(p)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*Mapping)
	if !ok {
		return nil, pathErr("children", p, ErrNotMapping)
	}
	return m.Entries(), nil
}

// InsertIntoCollection adds a deep copy of template as entry name under the
// mapping at collection. The collection mapping is created when missing.
func (t *Tree) InsertIntoCollection(collection Path, name string, template Node) error {
	if err := ValidateName(name); err != nil {
		return pathErr("insert", collection.Child(name), err)
	}
	coll, err := t.collection("insert", collection)
	if err != nil {
		return err
	}
	if _, exists := coll.Lookup(name); exists {
		return pathErr("insert", collection.Child(name), ErrDuplicateName)
	}
	coll.Put(name, CloneNode(template))
	return nil
}

// RemoveFromCollection deletes entry name from the mapping at collection.
func (t *Tree) RemoveFromCollection(collection Path, name string) error {
	n, err := t.Get(collection)
	if err != nil {
		return pathErr("remove", collection.Child(name), ErrNameNotFound)
	}
	coll, ok := n.(*Mapping)
	if !ok || !coll.Delete(name) {
		return pathErr("remove", collection.Child(name), ErrNameNotFound)
	}
	return nil
}

func (t *Tree) collection(op string, p Path) (*Mapping, error) {
	n, err := t.Get(p)
	if err != nil {
		return t.ensure(p), nil
	}
	m, ok := n.(*Mapping)
	if !ok {
		return nil, pathErr(op, p, ErrNotMapping)
	}
	return m, nil
}

// WalkFunc is called for every node below the root. Returning an error stops
// the walk.
type WalkFunc func(p Path, n Node) error

// Walk visits every node depth-first in insertion order, parents before
// their children.
func (t *Tree) Walk(fn WalkFunc) error {
	return walk(nil, t.root, fn)
}

func walk(prefix Path, m *Mapping, fn WalkFunc) error {
	for _, e := range m.Entries() {
		p := prefix.Child(e.Name)
		if err := fn(p, e.Node); err != nil {
			return err
		}
		if child, ok := e.Node.(*Mapping); ok {
			if err := walk(p, child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
