package platform

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"configdesk/internal/editor"
	"configdesk/internal/messages"
	"configdesk/internal/remote"
	"configdesk/ui/components"
	"configdesk/util"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// EditorHandlers serve the form editor. Every request acts on the session
// named by the cookie; POST handlers answer with SSE patches.
type EditorHandlers struct {
	sessions  *editor.Registry
	js        jetstream.JetStream
	publisher *messages.Publisher
	logger    *slog.Logger
}

// NewEditorHandlers returns the editor handlers. js and publisher may be nil,
// which disables change notifications.
func NewEditorHandlers(reg *editor.Registry, js jetstream.JetStream, publisher *messages.Publisher, logger *slog.Logger) *EditorHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditorHandlers{sessions: reg, js: js, publisher: publisher, logger: logger}
}

// Routes mounts the editor endpoints on r.
func (h *EditorHandlers) Routes(r chi.Router) {
	r.Get("/editor", h.Stream)
	r.Post("/editor/reload", h.action(h.reload))
	r.Post("/editor/save", h.action(h.save))
	r.Post("/editor/retry", h.action(h.retry))
	r.Post("/editor/toggle/{widget}", h.action(h.toggle))
	r.Post("/editor/entries", h.action(h.addEntry))
	r.Post("/editor/entries/{name}/remove", h.action(h.requestRemoval))
	r.Post("/editor/entries/{name}/remove/confirm", h.action(h.confirmRemoval))
	r.Post("/editor/entries/{name}/remove/cancel", h.action(h.cancelRemoval))
}

// Sweep drops idle sessions.
func (h *EditorHandlers) Sweep(maxIdle time.Duration) {
	if n := h.sessions.Sweep(maxIdle); n > 0 {
		h.logger.Info("dropped idle editor sessions", "count", n)
	}
	h.updateGauge()
}

// Stream renders the form and then keeps the connection open to report
// documents replaced by someone else.
func (h *EditorHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(r)
	s := h.session(sid)
	detach := s.Attach()
	defer detach()
	if !s.Loaded() {
		_ = s.Load(remote.WithCorrelation(r.Context(), sid))
	}

	ctx := r.Context()
	sse := datastar.NewSSE(w, r)
	h.render(ctx, sse, s, nil, nil)

	if h.js == nil {
		<-ctx.Done()
		return
	}
	cons, err := h.js.CreateConsumer(ctx, "EVENT", jetstream.ConsumerConfig{
		AckPolicy:         jetstream.AckNonePolicy,
		FilterSubjects:    []string{messages.ConfigEventsPattern},
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		h.logger.Warn("editor stream: create consumer", "sid", sid, "err", err)
		<-ctx.Done()
		return
	}
	defer func() {
		_ = h.js.DeleteConsumer(context.Background(), "EVENT", cons.CachedInfo().Name)
	}()

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		h.onEvent(sse, sid, msg.Subject(), msg.Data())
	})
	if err != nil {
		h.logger.Warn("editor stream: consume", "sid", sid, "err", err)
		<-ctx.Done()
		return
	}
	defer cc.Stop()

	<-ctx.Done()
}

func (h *EditorHandlers) onEvent(sse *datastar.ServerSentEventGenerator, sid, subject string, data []byte) {
	if !util.SubjectMatches(messages.ConfigReplacedSubject, subject) {
		return
	}
	evt, err := messages.DecodeEvent(subject, data)
	if err != nil {
		h.logger.Warn("editor stream: bad event", "subj", subject, "err", err)
		return
	}
	replaced, ok := evt.(*messages.ConfigReplacedEvent)
	if !ok || replaced.CorrelationID == sid {
		return
	}
	if err := sse.MergeFragmentTempl(components.ChangedElsewhere(replaced.Source)); err != nil {
		h.logger.Debug("editor stream: send", "sid", sid, "err", err)
	}
}

// editorAction mutates s. It returns extra signals to push with the
// re-rendered form.
type editorAction func(r *http.Request, s *editor.Session, signals map[string]any) (map[string]any, error)

func (h *EditorHandlers) action(fn editorAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals := map[string]any{}
		if err := datastar.ReadSignals(r, &signals); err != nil {
			http.Error(w, "invalid signals", http.StatusBadRequest)
			return
		}

		sid := SessionID(r)
		s := h.session(sid)
		s.ApplySignals(signals)

		extra, err := fn(r.WithContext(remote.WithCorrelation(r.Context(), sid)), s, signals)
		if errors.Is(err, editor.ErrUnknownWidget) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			h.logger.Debug("editor action", "sid", sid, "path", r.URL.Path, "err", err)
		}

		sse := datastar.NewSSE(w, r)
		h.render(r.Context(), sse, s, extra, err)
	}
}

func (h *EditorHandlers) reload(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	return nil, s.Load(r.Context())
}

func (h *EditorHandlers) save(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	return nil, s.Save(r.Context())
}

func (h *EditorHandlers) retry(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	return nil, s.Retry(r.Context())
}

func (h *EditorHandlers) toggle(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	return nil, s.Toggle(chi.URLParam(r, "widget"))
}

func (h *EditorHandlers) addEntry(r *http.Request, s *editor.Session, signals map[string]any) (map[string]any, error) {
	name, _ := signals["newEntry"].(string)
	name = strings.TrimSpace(name)
	if err := s.AddEntry(r.Context(), name); err != nil {
		return nil, err
	}
	h.publish(r.Context(), messages.NewEntryAddedEvent(name, s.ID))

	extra := map[string]any{"newEntry": ""}
	s.Render(func(v editor.View) {
		if i := slices.Index(v.Entries, name); i >= 0 {
			extra["tab"] = i
		}
	})
	return extra, nil
}

func (h *EditorHandlers) requestRemoval(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	return nil, s.RequestRemoval(entryName(r))
}

func (h *EditorHandlers) confirmRemoval(r *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	name := entryName(r)
	if err := s.ConfirmRemoval(r.Context(), name); err != nil {
		return nil, err
	}
	h.publish(r.Context(), messages.NewEntryRemovedEvent(name, s.ID))
	return map[string]any{"tab": 0}, nil
}

func (h *EditorHandlers) cancelRemoval(_ *http.Request, s *editor.Session, _ map[string]any) (map[string]any, error) {
	s.CancelRemoval()
	return nil, nil
}

// sessionExpired is shown when an action reaches a session with no document,
// usually one swept while the page stayed open.
const sessionExpired = "Your editing session has expired. Reload the page to continue."

// render pushes the editor, the confirmation dialog, the pending notice and
// the widget signals. A failed action without its own notice is reported
// as one.
func (h *EditorHandlers) render(ctx context.Context, sse *datastar.ServerSentEventGenerator, s *editor.Session, extra map[string]any, actionErr error) {
	notice := s.TakeNotice()
	switch {
	case notice != nil || actionErr == nil:
	case errors.Is(actionErr, editor.ErrNotLoaded):
		notice = &editor.Notice{Kind: editor.NoticeError, Text: sessionExpired}
	default:
		notice = &editor.Notice{Kind: editor.NoticeError, Text: actionErr.Error()}
	}

	var page, confirm bytes.Buffer
	var signals map[string]any
	var err error
	s.Render(func(v editor.View) {
		if err = components.Editor(v).Render(ctx, &page); err != nil {
			return
		}
		if err = components.Confirm(v.Removing).Render(ctx, &confirm); err != nil {
			return
		}
		if v.Form != nil {
			signals = v.Form.Signals()
		}
	})
	if err != nil {
		h.logger.Error("render editor", "sid", s.ID, "err", err)
		return
	}

	for _, frag := range []string{page.String(), confirm.String()} {
		if err := sse.MergeFragments(frag); err != nil {
			h.logger.Debug("editor: send", "sid", s.ID, "err", err)
			return
		}
	}
	if err := sse.MergeFragmentTempl(components.Notice(notice)); err != nil {
		return
	}
	if signals == nil {
		signals = map[string]any{}
	}
	for k, v := range extra {
		signals[k] = v
	}
	if len(signals) > 0 {
		_ = sse.MarshalAndMergeSignals(signals)
	}
}

func (h *EditorHandlers) session(sid string) *editor.Session {
	s, created := h.sessions.Get(sid)
	if created {
		h.updateGauge()
	}
	return s
}

func (h *EditorHandlers) updateGauge() {
	if EditorSessions != nil {
		EditorSessions.Set(float64(h.sessions.Len()))
	}
}

func (h *EditorHandlers) publish(ctx context.Context, evt messages.Event) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishEvent(ctx, evt); err != nil {
		h.logger.Warn("publish editor event", "subj", evt.Subject(), "err", err)
	}
}

// entryName returns the {name} parameter, unescaped when the router matched
// on the raw path.
func entryName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if u, err := url.PathUnescape(name); err == nil {
		return u
	}
	return name
}
