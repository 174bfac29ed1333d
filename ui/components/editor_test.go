package components

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"configdesk/internal/editor"
	"configdesk/internal/form"
	"configdesk/internal/tree"
)

func render(t *testing.T, v editor.View) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Editor(v).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestEditor_RendersWidgets(t *testing.T) {
	doc, err := tree.Decode([]byte(`{"enabled":true,"api_key":"abc123","notes":"a\nb","coins":{"BTC":{"rsi_period":14},"it's":{}}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	f := form.NewProjector(nil, nil).Project(doc)
	out := render(t, editor.View{Form: f, CanRetry: true})

	if strings.Contains(out, "abc123") {
		t.Error("masked value rendered into the page")
	}
	for _, want := range []string{
		`type="checkbox"`,
		`type="password"`,
		`<textarea`,
		`placeholder="` + form.Placeholder + `" value=""`,
		`data-show="$tab == 1"`,
		`/editor/entries/it%27s/remove`,
		`/editor/retry`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q", want)
		}
	}
	for _, w := range f.Widgets() {
		if !strings.Contains(out, `data-bind="`+w.ID+`"`) {
			t.Errorf("widget %s not bound", w.Label)
		}
	}
}

func TestEditor_LoadError(t *testing.T) {
	out := render(t, editor.View{LoadErr: errors.New("status 500 <oops>")})
	if !strings.Contains(out, "blocking-error") || !strings.Contains(out, "&lt;oops&gt;") {
		t.Errorf("load error = %s", out)
	}
	if strings.Contains(out, "/editor/save") {
		t.Error("save offered without a document")
	}
}

func TestNoticeAndConfirm(t *testing.T) {
	var buf bytes.Buffer
	_ = Notice(&editor.Notice{Kind: editor.NoticeError, Text: "Save failed"}).Render(context.Background(), &buf)
	if !strings.Contains(buf.String(), `class="error"`) {
		t.Errorf("notice = %s", buf.String())
	}
	buf.Reset()
	_ = Confirm("ETH").Render(context.Background(), &buf)
	if !strings.Contains(buf.String(), "/editor/entries/ETH/remove/confirm") {
		t.Errorf("confirm = %s", buf.String())
	}
	buf.Reset()
	_ = Confirm("").Render(context.Background(), &buf)
	if buf.String() != `<div id="confirm"></div>` {
		t.Errorf("empty confirm = %s", buf.String())
	}
}
