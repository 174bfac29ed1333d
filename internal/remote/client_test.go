package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"configdesk/internal/tree"
)

func TestClient_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != DefaultPath {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"name":"bot","coins":{"BTC":{"enabled":true}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	tr, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := tr.Get(tree.MustParsePath("coins.BTC.enabled"))
	if err != nil || !tree.Equal(n, tree.Bool(true)) {
		t.Errorf("coins.BTC.enabled = %v, %v", n, err)
	}
}

func TestClient_LoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `{}`, nil},
		{"not json", http.StatusOK, `<html>`, nil},
		{"dotted name", http.StatusOK, `{"a.b":1}`, tree.ErrInvalidName},
		{"array", http.StatusOK, `{"a":[1]}`, tree.ErrUnsupportedValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Load(context.Background())
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("err = %v, want *LoadError", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := NewClient("http://127.0.0.1:1", time.Second).Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) || le.Status != 0 {
		t.Errorf("transport failure err = %v, want *LoadError without status", err)
	}
}

func TestClient_Save(t *testing.T) {
	var got, source, correlation string
	calls := 0
	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("request = %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		source = r.Header.Get(HeaderSource)
		correlation = r.Header.Get(HeaderCorrelation)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	tr, _ := tree.Decode([]byte(`{"z":1,"a":{"b":"x"}}`))
	c := NewClient(srv.URL, time.Second)

	err := c.Save(context.Background(), tr)
	var se *SaveError
	if !errors.As(err, &se) || se.Status != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want *SaveError with 503", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, Save must not retry", calls)
	}

	status = http.StatusOK
	c.Source = "editor"
	if err := c.Save(WithCorrelation(context.Background(), "sid-1"), tr); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if source != "editor" || correlation != "sid-1" {
		t.Errorf("headers = %q, %q", source, correlation)
	}
	if got != `{"z":1,"a":{"b":"x"}}` {
		t.Errorf("body = %s", got)
	}
}
