package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// rendered pages, keyed by path; docs are embedded so they never change
var cache sync.Map

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle("github")),
	),
)

// MarkdownHTML renders the Markdown file at path in fsys. The result is
// cached for the life of the process.
func MarkdownHTML(fsys fs.FS, path string) templ.Component {
	if v, ok := cache.Load(path); ok {
		return templ.Raw(v.(string))
	}

	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return failed(err)
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return failed(fmt.Errorf("render %s: %w", path, err))
	}

	html := buf.String()
	cache.Store(path, html)
	return templ.Raw(html)
}

func failed(err error) templ.Component {
	return templ.ComponentFunc(func(context.Context, io.Writer) error { return err })
}
