// Package editor holds the per-session editing state: the loaded tree, its
// rendered form and the collection edits that restructure it.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"configdesk/internal/tree"
)

var (
	ErrEmptyName      = errors.New("entry name is empty")
	ErrNotConfirmed   = errors.New("removal not confirmed")
	ErrUnknownWidget  = errors.New("unknown widget")
	ErrNothingToRetry = errors.New("no failed save to retry")
	ErrNotLoaded      = errors.New("document not loaded")
)

// CollectionEditor adds and removes named entries of the collection field.
type CollectionEditor struct {
	Path     tree.Path
	Template *tree.Mapping
}

// Names lists the entries of the collection in order. A missing collection
// has no entries.
func (e *CollectionEditor) Names(t *tree.Tree) []string {
	entries, err := t.Children(e.Path)
	if err != nil {
		return nil
	}
	names := make([]string, len(entries))
	for i, en := range entries {
		names[i] = en.Name
	}
	return names
}

// Add inserts a copy of the template as entry name.
func (e *CollectionEditor) Add(t *tree.Tree, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := t.InsertIntoCollection(e.Path, name, e.Template); err != nil {
		return fmt.Errorf("add %q: %w", name, err)
	}
	return nil
}

// RequestRemoval checks that entry name exists. It is the first of the two
// steps of a removal.
func (e *CollectionEditor) RequestRemoval(t *tree.Tree, name string) error {
	if _, err := t.Get(e.Path.Child(name)); err != nil {
		return fmt.Errorf("remove %q: %w", name, tree.ErrNameNotFound)
	}
	return nil
}

// Remove deletes entry name once the removal has been confirmed.
func (e *CollectionEditor) Remove(t *tree.Tree, name string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := t.RemoveFromCollection(e.Path, name); err != nil {
		return fmt.Errorf("remove %q: %w", name, err)
	}
	return nil
}
