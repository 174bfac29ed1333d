// Package store keeps the configuration document and applies full
// replacements to it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"configdesk/internal/messages"
	"configdesk/internal/tree"
)

// ErrEmpty is returned by Load when no document has been stored yet.
var ErrEmpty = errors.New("no document stored")

// Store holds one document as raw JSON.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Replace(ctx context.Context, doc []byte) error
}

// Notifier receives an event after each replacement.
type Notifier interface {
	PublishEvent(ctx context.Context, evt messages.Event) error
}

// Service validates documents and keeps them in a Store.
type Service struct {
	store      Store
	notifier   Notifier
	collection tree.Path
	logger     *slog.Logger
}

// NewService returns a service over s. notifier may be nil.
func NewService(s Store, notifier Notifier, collection tree.Path, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, notifier: notifier, collection: collection, logger: logger}
}

// Get returns the stored document. An empty store yields an empty document.
func (s *Service) Get(ctx context.Context) (*tree.Tree, error) {
	raw, err := s.store.Load(ctx)
	if errors.Is(err, ErrEmpty) {
		return tree.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	t, err := tree.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("stored document: %w", err)
	}
	return t, nil
}

// Replace validates data and stores it in place of the current document.
// source names the caller in the published event.
func (s *Service) Replace(ctx context.Context, data []byte, source, correlationID string) (*tree.Tree, error) {
	t, err := tree.Decode(data)
	if err != nil {
		return nil, err
	}
	canonical, err := tree.Encode(t)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, canonical); err != nil {
		return nil, fmt.Errorf("replace document: %w", err)
	}
	s.logger.Info("document replaced", "source", source, "bytes", len(canonical))

	if s.notifier != nil {
		evt := messages.NewConfigReplacedEvent(source, len(canonical), s.entries(t)).
			WithCorrelation(correlationID)
		if err := s.notifier.PublishEvent(ctx, evt); err != nil {
			s.logger.Warn("publish replaced event", "err", err)
		}
	}
	return t, nil
}

// Seed stores the document in path when the store is empty. It reports
// whether a document was imported.
func (s *Service) Seed(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := s.store.Load(ctx); !errors.Is(err, ErrEmpty) {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read seed: %w", err)
	}
	if _, err := s.Replace(ctx, data, "seed", ""); err != nil {
		return false, fmt.Errorf("seed %s: %w", path, err)
	}
	return true, nil
}

func (s *Service) entries(t *tree.Tree) []string {
	children, err := t.Children(s.collection)
	if err != nil {
		return nil
	}
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	return names
}
