package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"configdesk/internal/remote"
	"configdesk/internal/tree"
)

type fakeDocs struct {
	doc         string
	getErr      error
	replaced    []string
	source      string
	correlation string
}

func (f *fakeDocs) Get(context.Context) (*tree.Tree, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return tree.Decode([]byte(f.doc))
}

func (f *fakeDocs) Replace(_ context.Context, data []byte, source, correlationID string) (*tree.Tree, error) {
	t, err := tree.Decode(data)
	if err != nil {
		return nil, err
	}
	f.replaced = append(f.replaced, string(data))
	f.source, f.correlation = source, correlationID
	return t, nil
}

func TestGetConfig(t *testing.T) {
	docs := &fakeDocs{doc: `{"z":1,"a":{"b":true}}`}
	rec := httptest.NewRecorder()
	GetConfig(docs)(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Index(body, `"z"`) > strings.Index(body, `"a"`) {
		t.Errorf("key order lost: %s", body)
	}

	docs.getErr = errors.New("disk on fire")
	rec = httptest.NewRecorder()
	GetConfig(docs)(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPostConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"document", `{"name":"bot","coins":{}}`, http.StatusOK},
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"array", `{"coins":[1,2]}`, http.StatusBadRequest},
		{"dotted name", `{"a.b":1}`, http.StatusBadRequest},
		{"not an object", `42`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &fakeDocs{}
			req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			PostConfig(docs)(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && len(docs.replaced) != 1 {
				t.Errorf("replaced %d times", len(docs.replaced))
			}
		})
	}
}

func TestPostConfig_Headers(t *testing.T) {
	docs := &fakeDocs{}
	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{}`))
	req.Header.Set(remote.HeaderSource, "editor")
	req.Header.Set(remote.HeaderCorrelation, "sid-7")
	PostConfig(docs)(httptest.NewRecorder(), req)
	if docs.source != "editor" || docs.correlation != "sid-7" {
		t.Errorf("source, correlation = %q, %q", docs.source, docs.correlation)
	}

	docs = &fakeDocs{}
	PostConfig(docs)(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{}`)))
	if docs.source != "http" {
		t.Errorf("default source = %q", docs.source)
	}
}

func TestRouter_ConfigRoundTrip(t *testing.T) {
	docs := &fakeDocs{doc: `{"name":"bot"}`}
	srv := httptest.NewServer(NewRouter(Services{Documents: docs}))
	defer srv.Close()

	c := remote.NewClient(srv.URL, 0)
	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Save(context.Background(), got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(docs.replaced) != 1 || docs.replaced[0] != `{"name":"bot"}` {
		t.Errorf("replaced = %v", docs.replaced)
	}

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}
