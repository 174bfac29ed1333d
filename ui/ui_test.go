package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	if err := Index().Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`@get('/editor')`, `id="notice"`, `id="editor"`, DatastarScript} {
		if !strings.Contains(out, want) {
			t.Errorf("index misses %q", want)
		}
	}
}

func TestEmbeddedAssets(t *testing.T) {
	if len(FaviconSVG) == 0 {
		t.Error("favicon not embedded")
	}
	if _, err := DocsFS.ReadFile("docs/help.md"); err != nil {
		t.Errorf("help: %v", err)
	}
	if _, err := StaticFS.ReadFile("static/editor.css"); err != nil {
		t.Errorf("css: %v", err)
	}
}
