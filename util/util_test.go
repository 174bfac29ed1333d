package util

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func TestSubjectMatches(t *testing.T) {
	tests := []struct {
		pattern, subj string
		want          bool
	}{
		{"event.config.>", "event.config.replaced", true},
		{"event.config.>", "event.config.entry.added", true},
		{"event.config.>", "event.config", false},
		{"event.*.replaced", "event.config.replaced", true},
		{"event.*", "event.config.replaced", false},
		{"command.config.replace", "command.config.replace", true},
		{"command.config.replace", "command.config", false},
	}
	for _, tt := range tests {
		if got := SubjectMatches(tt.pattern, tt.subj); got != tt.want {
			t.Errorf("SubjectMatches(%q, %q) = %v, want %v", tt.pattern, tt.subj, got, tt.want)
		}
	}
}

func TestMarkdownHTML(t *testing.T) {
	fsys := fstest.MapFS{"docs/a.md": {Data: []byte("# Title\n\nSome *text*.\n")}}
	var buf bytes.Buffer
	if err := MarkdownHTML(fsys, "docs/a.md").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "<h1") || !strings.Contains(buf.String(), "<em>text</em>") {
		t.Errorf("html = %s", buf.String())
	}

	if err := MarkdownHTML(fsys, "docs/missing.md").Render(context.Background(), &buf); err == nil {
		t.Error("missing file rendered without error")
	}
}
