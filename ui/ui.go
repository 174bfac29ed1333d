// Package ui holds the page shell and the embedded assets of the editor.
package ui

import (
	"context"
	"embed"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

//go:embed static
var StaticFS embed.FS

//go:embed docs
var DocsFS embed.FS

//go:embed static/favicon.svg
var FaviconSVG []byte

// DatastarScript is the client bundle the Go SDK speaks to.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-beta.11/bundles/datastar.js"

// Page wraps body in the document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="icon" href="/favicon.svg" type="image/svg+xml">
<link rel="stylesheet" href="/static/editor.css">
<script type="module" src="%s"></script>
</head>
<body>
<header><strong>configdesk</strong><nav><a href="/">Editor</a> · <a href="/help">Help</a></nav></header>
<main>`, templ.EscapeString(title), DatastarScript); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

// Index is the editor page. The form arrives over the /editor stream.
func Index() templ.Component {
	return Page("Configuration", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div data-signals="{newEntry: '', tab: 0}" data-on-load="@get('/editor')">
<div id="notice"></div>
<div id="confirm"></div>
<div id="editor"><p>Loading configuration…</p></div>
</div>`)
		return err
	}))
}
