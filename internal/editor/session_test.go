package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"configdesk/internal/form"
	"configdesk/internal/tree"
)

type fakeBackend struct {
	doc     string
	loadErr error
	saveErr error
	saves   []*tree.Tree
}

func (f *fakeBackend) Load(context.Context) (*tree.Tree, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return tree.Decode([]byte(f.doc))
}

func (f *fakeBackend) Save(_ context.Context, t *tree.Tree) error {
	f.saves = append(f.saves, t.Clone())
	return f.saveErr
}

func newTestSession(t *testing.T, b *fakeBackend, tpl string) *Session {
	t.Helper()
	opts := Options{}
	if tpl != "" {
		m, err := tree.Decode([]byte(tpl))
		if err != nil {
			t.Fatalf("template: %v", err)
		}
		opts.Editor = &CollectionEditor{Path: tree.Path{"coins"}, Template: m.Root()}
	}
	s := NewSession("test", b, opts)
	if err := s.Load(context.Background()); err != nil && b.loadErr == nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func encode(t *testing.T, tr *tree.Tree) string {
	t.Helper()
	out, err := tree.Encode(tr)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return string(out)
}

func TestSession_AddEntry_ScenarioB(t *testing.T) {
	b := &fakeBackend{doc: `{"coins":{"BTC":{"enabled":true,"buy_percentage":-3}}}`}
	s := newTestSession(t, b, `{"enabled":true,"buy_percentage":-3}`)

	if err := s.AddEntry(context.Background(), "ETH"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if len(b.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(b.saves))
	}
	want := `{"coins":{"BTC":{"enabled":true,"buy_percentage":-3},"ETH":{"enabled":true,"buy_percentage":-3}}}`
	if got := encode(t, b.saves[0]); got != want {
		t.Errorf("saved %s, want %s", got, want)
	}

	var entries []string
	s.Render(func(v View) {
		entries = v.Entries
		if _, ok := v.Form.WidgetAt(tree.MustParsePath("coins.ETH.enabled")); !ok {
			t.Error("form not re-rendered with ETH")
		}
	})
	if strings.Join(entries, ",") != "BTC,ETH" {
		t.Errorf("entries = %v, want BTC,ETH", entries)
	}
}

func TestSession_AddEntry_KeepsUnsavedEdits(t *testing.T) {
	b := &fakeBackend{doc: `{"trade_percentage":10,"coins":{}}`}
	s := newTestSession(t, b, "")

	s.Render(func(v View) {
		w, _ := v.Form.WidgetAt(tree.Path{"trade_percentage"})
		v.Form.Apply(map[string]any{w.ID: "25"})
	})
	if err := s.AddEntry(context.Background(), "SOL"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	n, err := b.saves[0].Get(tree.Path{"trade_percentage"})
	if err != nil || !tree.Equal(n, tree.Num(25)) {
		t.Errorf("trade_percentage = %v, want 25", n)
	}
	if _, err := b.saves[0].Get(tree.MustParsePath("coins.SOL.precision.amount")); err != nil {
		t.Errorf("default template not applied: %v", err)
	}
}

func TestSession_AddEntry_Rejects(t *testing.T) {
	b := &fakeBackend{doc: `{"coins":{"BTC":{}}}`}
	s := newTestSession(t, b, "")

	if err := s.AddEntry(context.Background(), "  "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name err = %v, want ErrEmptyName", err)
	}
	if err := s.AddEntry(context.Background(), "BTC"); !errors.Is(err, tree.ErrDuplicateName) {
		t.Errorf("duplicate err = %v, want ErrDuplicateName", err)
	}
	if len(b.saves) != 0 {
		t.Errorf("rejected add saved %d times", len(b.saves))
	}
	if n := s.TakeNotice(); n == nil || n.Kind != NoticeError {
		t.Errorf("notice = %+v, want error", n)
	}
}

func TestSession_Removal(t *testing.T) {
	b := &fakeBackend{doc: `{"coins":{"BTC":{},"ETH":{}}}`}
	s := newTestSession(t, b, "")
	ctx := context.Background()

	if err := s.ConfirmRemoval(ctx, "BTC"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unrequested removal err = %v, want ErrNotConfirmed", err)
	}
	if err := s.RequestRemoval("X"); !errors.Is(err, tree.ErrNameNotFound) {
		t.Errorf("RequestRemoval(X) err = %v, want ErrNameNotFound", err)
	}
	if err := s.RequestRemoval("BTC"); err != nil {
		t.Fatalf("RequestRemoval: %v", err)
	}
	if err := s.ConfirmRemoval(ctx, "ETH"); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("confirming another entry err = %v, want ErrNotConfirmed", err)
	}
	if len(b.saves) != 0 {
		t.Fatalf("unconfirmed removal saved")
	}

	_ = s.RequestRemoval("BTC")
	if err := s.ConfirmRemoval(ctx, "BTC"); err != nil {
		t.Fatalf("ConfirmRemoval: %v", err)
	}
	if len(b.saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(b.saves))
	}
	if got := encode(t, b.saves[0]); got != `{"coins":{"ETH":{}}}` {
		t.Errorf("saved %s", got)
	}
}

func TestSession_SaveFailureKeepsEditsAndRetries(t *testing.T) {
	b := &fakeBackend{doc: `{"name":"bot","api_key":"abc123"}`, saveErr: errors.New("503")}
	s := newTestSession(t, b, "")
	ctx := context.Background()

	s.Render(func(v View) {
		w, _ := v.Form.WidgetAt(tree.Path{"name"})
		v.Form.Apply(map[string]any{w.ID: "bot2"})
	})
	if err := s.Save(ctx); err == nil {
		t.Fatal("Save should fail")
	}
	s.Render(func(v View) {
		w, _ := v.Form.WidgetAt(tree.Path{"name"})
		if w.Content() != "bot2" {
			t.Errorf("edit lost after failed save: %q", w.Content())
		}
		if !v.CanRetry {
			t.Error("CanRetry = false after failed save")
		}
	})
	cur, _ := s.Tree()
	if n, _ := cur.Get(tree.Path{"name"}); !tree.Equal(n, tree.Str("bot")) {
		t.Errorf("tree advanced after failed save: %v", n)
	}

	b.saveErr = nil
	if err := s.Retry(ctx); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if len(b.saves) != 2 {
		t.Fatalf("saves = %d, want 2", len(b.saves))
	}
	if !b.saves[0].Equal(b.saves[1]) {
		t.Error("retry submitted a different document")
	}
	if got := encode(t, b.saves[1]); got != `{"name":"bot2","api_key":"abc123"}` {
		t.Errorf("saved %s", got)
	}
	if err := s.Retry(ctx); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("second Retry err = %v, want ErrNothingToRetry", err)
	}
	if n := s.TakeNotice(); n == nil || n.Kind != NoticeSuccess {
		t.Errorf("notice = %+v, want success", n)
	}
}

func TestSession_LoadError(t *testing.T) {
	b := &fakeBackend{loadErr: errors.New("connection refused")}
	s := newTestSession(t, b, "")

	if s.Loaded() {
		t.Error("Loaded = true after failed load")
	}
	s.Render(func(v View) {
		if v.Form != nil || v.LoadErr == nil {
			t.Errorf("view = %+v, want load error and no form", v)
		}
	})
	if err := s.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Save err = %v, want ErrNotLoaded", err)
	}
}

func TestSession_ReloadFailureKeepsForm(t *testing.T) {
	b := &fakeBackend{doc: `{"name":"bot","coins":{"BTC":{}}}`}
	s := newTestSession(t, b, "")
	before, _ := s.Tree()

	b.loadErr = errors.New("connection refused")
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load succeeded with a failing backend")
	}
	if !s.Loaded() {
		t.Fatal("failed reload discarded the document")
	}
	after, _ := s.Tree()
	if encode(t, after) != encode(t, before) {
		t.Errorf("tree = %s, want %s", encode(t, after), encode(t, before))
	}
	s.Render(func(v View) {
		if v.Form == nil {
			t.Error("failed reload discarded the form")
		}
	})
	n := s.TakeNotice()
	if n == nil || n.Kind != NoticeError || !strings.Contains(n.Text, "connection refused") {
		t.Errorf("notice = %+v, want reload error", n)
	}

	b.loadErr = nil
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load after recovery: %v", err)
	}
	s.Render(func(v View) {
		if v.LoadErr != nil {
			t.Errorf("LoadErr = %v after successful reload", v.LoadErr)
		}
	})
}

func TestSession_Toggle(t *testing.T) {
	b := &fakeBackend{doc: `{"name":"bot","password":"pw"}`}
	s := newTestSession(t, b, "")

	var nameID, pwID string
	s.Render(func(v View) {
		w, _ := v.Form.WidgetAt(tree.Path{"name"})
		nameID = w.ID
		w, _ = v.Form.WidgetAt(tree.Path{"password"})
		pwID = w.ID
	})
	if err := s.Toggle(nameID); !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("Toggle(plain) err = %v, want ErrUnknownWidget", err)
	}
	if err := s.Toggle(pwID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	s.Render(func(v View) {
		w, _ := v.Form.Widget(pwID)
		if w.Masked() || w.Displayed() != "pw" {
			t.Errorf("after toggle displayed %q", w.Displayed())
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&fakeBackend{doc: `{}`}, Options{Projector: form.NewProjector(nil, nil)})
	a, created := r.Get("a")
	if !created {
		t.Error("first Get should create")
	}
	again, created := r.Get("a")
	if created || again != a {
		t.Error("second Get should return the same session")
	}
	if r.Sweep(time.Hour) != 0 || r.Len() != 1 {
		t.Error("fresh session swept")
	}
	if r.Sweep(-time.Second) != 1 || r.Len() != 0 {
		t.Error("idle session not swept")
	}
}

func TestRegistry_SweepKeepsAttachedSessions(t *testing.T) {
	r := NewRegistry(&fakeBackend{doc: `{}`}, Options{Projector: form.NewProjector(nil, nil)})
	watched, _ := r.Get("watched")
	r.Get("idle")

	detach := watched.Attach()
	if n := r.Sweep(-time.Second); n != 1 {
		t.Errorf("Sweep dropped %d sessions, want 1", n)
	}
	if _, ok := r.Lookup("watched"); !ok {
		t.Fatal("session with an open stream was swept")
	}

	detach()
	detach()
	if n := r.Sweep(-time.Second); n != 1 {
		t.Errorf("Sweep after detach dropped %d sessions, want 1", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestMergeTemplate(t *testing.T) {
	m, err := MergeTemplate([]byte(`{"rsi_period":21,"trend_window":null,"stop_loss":-5,"precision":{"amount":8}}`))
	if err != nil {
		t.Fatalf("MergeTemplate: %v", err)
	}
	tr := tree.FromMapping(m)
	if n, _ := tr.Get(tree.Path{"rsi_period"}); !tree.Equal(n, tree.Num(21)) {
		t.Errorf("rsi_period = %v", n)
	}
	if _, err := tr.Get(tree.Path{"trend_window"}); err == nil {
		t.Error("null in patch should delete trend_window")
	}
	keys := m.Keys()
	if keys[0] != "enabled" || keys[len(keys)-1] != "stop_loss" {
		t.Errorf("keys = %v, want template order then additions", keys)
	}
	if n, _ := tr.Get(tree.MustParsePath("precision.price")); !tree.Equal(n, tree.Num(2)) {
		t.Errorf("precision.price = %v, want 2", n)
	}
}
