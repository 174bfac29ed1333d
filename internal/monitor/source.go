package monitor

import (
	"context"
	"log/slog"
	"sync"

	"configdesk/internal/tree"
)

// Source follows the database section of the configuration document and
// keeps a pool for the current settings.
type Source struct {
	logger *slog.Logger
	open   func(context.Context, Config) (*DB, error)

	mu   sync.RWMutex
	db   *DB
	repo Reader
}

// NewSource returns an unconfigured source.
func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{logger: logger, open: NewDB}
}

// Reconfigure applies the database section of t. The pool is replaced only
// when the settings change; a document without the section closes it.
func (s *Source) Reconfigure(ctx context.Context, t *tree.Tree) error {
	cfg, ok, err := ConfigFromTree(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.closeLocked()
		return nil
	}
	if s.db != nil && s.db.cfg == cfg {
		return nil
	}
	db, err := s.open(ctx, cfg)
	if err != nil {
		return err
	}
	s.closeLocked()
	s.db = db
	s.repo = NewRepository(db)
	s.logger.Info("monitor database connected", "host", cfg.Host, "database", cfg.Database)
	return nil
}

// Close releases the pool.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Source) closeLocked() {
	if s.db != nil {
		s.db.Close()
	}
	s.db, s.repo = nil, nil
}

func (s *Source) reader() (Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.repo == nil {
		return nil, ErrNotConfigured
	}
	return s.repo, nil
}

func (s *Source) Prices(ctx context.Context, coin string) ([]PricePoint, error) {
	r, err := s.reader()
	if err != nil {
		return nil, err
	}
	return r.Prices(ctx, coin)
}

func (s *Source) Signals(ctx context.Context, coin string) ([]Signal, error) {
	r, err := s.reader()
	if err != nil {
		return nil, err
	}
	return r.Signals(ctx, coin)
}

func (s *Source) State(ctx context.Context, coin string) (State, error) {
	r, err := s.reader()
	if err != nil {
		return State{}, err
	}
	return r.State(ctx, coin)
}
