package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"configdesk/internal/form"
	"configdesk/internal/tree"
)

// Persistence loads and saves whole documents.
type Persistence interface {
	Load(ctx context.Context) (*tree.Tree, error)
	Save(ctx context.Context, t *tree.Tree) error
}

// NoticeKind tells the UI how to present a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Options configures new sessions.
type Options struct {
	Projector *form.Projector
	Collector form.Collector
	Editor    *CollectionEditor
	Logger    *slog.Logger
}

// Session is one user's editing state. The mutex serialises every mutation
// of the tree and form; it is never held across a call to the backend.
type Session struct {
	ID string

	backend   Persistence
	projector *form.Projector
	collector form.Collector
	editor    *CollectionEditor
	logger    *slog.Logger

	mu       sync.Mutex
	tree     *tree.Tree
	form     *form.Form
	loadErr  error
	failed   *tree.Tree
	removing string
	notice   *Notice
	lastUsed time.Time
	streams  int
}

// NewSession returns an unloaded session.
func NewSession(id string, backend Persistence, opts Options) *Session {
	if opts.Projector == nil {
		opts.Projector = form.NewProjector(nil, nil)
	}
	if opts.Editor == nil {
		opts.Editor = &CollectionEditor{Path: opts.Projector.Collection, Template: DefaultTemplate()}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		ID:        id,
		backend:   backend,
		projector: opts.Projector,
		collector: opts.Collector,
		editor:    opts.Editor,
		logger:    opts.Logger.With("session", id),
		lastUsed:  time.Now(),
	}
}

// Load fetches the document and renders it. A failed first load leaves the
// session without a form; a failed reload keeps the current form and
// reports the error as a notice.
func (s *Session) Load(ctx context.Context) error {
	t, err := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err != nil {
		s.loadErr = err
		if s.tree != nil {
			s.setNotice(NoticeError, "Reload failed: "+err.Error())
		}
		s.logger.Error("load failed", "error", err, "stale_form", s.tree != nil)
		return err
	}
	s.loadErr = nil
	s.failed = nil
	s.removing = ""
	s.tree = t
	s.form = s.projector.Project(t)
	s.logger.Info("document loaded", "widgets", s.form.Len())
	return nil
}

// Loaded reports whether a document is loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree != nil
}

// ApplySignals copies client-side widget state into the form.
func (s *Session) ApplySignals(signals map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.form == nil {
		return 0
	}
	return s.form.Apply(signals)
}

// Toggle flips the visibility of a sensitive widget.
func (s *Session) Toggle(widgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.form == nil {
		return ErrNotLoaded
	}
	w, ok := s.form.Widget(widgetID)
	if !ok || !w.Sensitive {
		return fmt.Errorf("toggle %s: %w", widgetID, ErrUnknownWidget)
	}
	w.ToggleVisibility()
	return nil
}

// Save collects the form and submits it. On success the tree is replaced by
// the submitted document; on failure the form keeps its edits and the
// document is kept for Retry.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	doc, err := s.collector.Collect(s.form)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.submit(ctx, doc)
}

// Retry submits the last document whose save failed, without collecting or
// mutating anything.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	doc := s.failed
	s.mu.Unlock()
	if doc == nil {
		return ErrNothingToRetry
	}
	return s.submit(ctx, doc)
}

// AddEntry folds the form into the tree, adds entry name, re-renders and
// saves once.
func (s *Session) AddEntry(ctx context.Context, name string) error {
	s.mu.Lock()
	t, err := s.fold()
	if err == nil {
		err = s.editor.Add(t, name)
	}
	if err != nil {
		s.setNotice(NoticeError, err.Error())
		s.mu.Unlock()
		return err
	}
	s.replace(t)
	doc := t.Clone()
	s.mu.Unlock()

	return s.submit(ctx, doc)
}

// RequestRemoval marks entry name for removal. Nothing changes until
// ConfirmRemoval.
func (s *Session) RequestRemoval(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.tree == nil {
		return ErrNotLoaded
	}
	if err := s.editor.RequestRemoval(s.tree, name); err != nil {
		s.setNotice(NoticeError, err.Error())
		return err
	}
	s.removing = name
	return nil
}

// CancelRemoval drops a pending removal.
func (s *Session) CancelRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removing = ""
}

// ConfirmRemoval removes entry name when it is the pending removal, then
// re-renders and saves once.
func (s *Session) ConfirmRemoval(ctx context.Context, name string) error {
	s.mu.Lock()
	confirmed := s.removing != "" && s.removing == name
	s.removing = ""
	t, err := s.fold()
	if err == nil {
		err = s.editor.Remove(t, name, confirmed)
	}
	if err != nil {
		s.setNotice(NoticeError, err.Error())
		s.mu.Unlock()
		return err
	}
	s.replace(t)
	doc := t.Clone()
	s.mu.Unlock()

	return s.submit(ctx, doc)
}

// View is a read-only snapshot handed to renderers while the session is
// locked.
type View struct {
	Form         *form.Form
	Entries      []string
	LoadErr      error
	Notice       *Notice
	Removing     string
	CanRetry     bool
	CollectionAt tree.Path
}

// Render calls fn with the current view. fn must not retain the form.
func (s *Session) Render(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Form:         s.form,
		LoadErr:      s.loadErr,
		Notice:       s.notice,
		Removing:     s.removing,
		CanRetry:     s.failed != nil,
		CollectionAt: s.editor.Path,
	}
	if s.tree != nil {
		v.Entries = s.editor.Names(s.tree)
	}
	fn(v)
}

// TakeNotice returns the pending notice and clears it.
func (s *Session) TakeNotice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = nil
	return n
}

// Tree returns a copy of the current tree.
func (s *Session) Tree() (*tree.Tree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil, false
	}
	return s.tree.Clone(), true
}

// Attach marks the session as watched by an open stream until the returned
// func is called. Attached sessions are never idle.
func (s *Session) Attach() (detach func()) {
	s.mu.Lock()
	s.streams++
	s.touch()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.streams--
			s.touch()
			s.mu.Unlock()
		})
	}
}

// idleSince reports whether the session has no stream and was last used
// before cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams == 0 && s.lastUsed.Before(cutoff)
}

func (s *Session) submit(ctx context.Context, doc *tree.Tree) error {
	err := s.backend.Save(ctx, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err != nil {
		s.failed = doc
		s.setNotice(NoticeError, "Save failed: "+err.Error())
		s.logger.Error("save failed", "error", err)
		return err
	}
	s.failed = nil
	s.tree = doc.Clone()
	s.setNotice(NoticeSuccess, "Saved")
	s.logger.Info("document saved")
	return nil
}

// fold returns the tree described by the live form. Must hold mu.
func (s *Session) fold() (*tree.Tree, error) {
	s.touch()
	if s.form == nil {
		return nil, ErrNotLoaded
	}
	return s.collector.Collect(s.form)
}

// replace installs t and re-renders. Must hold mu.
func (s *Session) replace(t *tree.Tree) {
	s.tree = t
	s.form = s.projector.Project(t)
}

func (s *Session) setNotice(kind NoticeKind, text string) {
	s.notice = &Notice{Kind: kind, Text: text}
}

func (s *Session) touch() { s.lastUsed = time.Now() }
