package editor

import (
	"sync"
	"time"
)

// Registry keeps one Session per browser session id.
type Registry struct {
	backend Persistence
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns a registry creating sessions with opts.
func NewRegistry(backend Persistence, opts Options) *Registry {
	return &Registry{
		backend:  backend,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating an unloaded one when missing.
// created is true for a new session.
func (r *Registry) Get(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, false
	}
	s = NewSession(id, r.backend, r.opts)
	r.sessions[id] = s
	return s, true
}

// Lookup returns an existing session.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Drop forgets session id. In-flight operations on it still complete.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were dropped. Sessions with an attached stream are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
