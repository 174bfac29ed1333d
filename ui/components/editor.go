package components

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"configdesk/internal/editor"
	"configdesk/internal/form"
)

var esc = templ.EscapeString

// Editor renders the whole editor area: the form, or the blocking load
// error when there is no document.
func Editor(v editor.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if v.Form == nil {
			return LoadError(v.LoadErr).Render(ctx, w)
		}
		if _, err := io.WriteString(w, `<div id="editor">`); err != nil {
			return err
		}
		if err := group(ctx, w, v.Form.Root, v); err != nil {
			return err
		}
		if err := actions(w, v); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// LoadError replaces the form when the document could not be loaded.
func LoadError(err error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		msg := "no document"
		if err != nil {
			msg = err.Error()
		}
		_, werr := fmt.Fprintf(w, `<div id="editor" class="blocking-error">
<p><strong>The configuration could not be loaded.</strong></p>
<pre>%s</pre>
<button data-on-click="@post('/editor/reload')">Try again</button>
</div>`, esc(msg))
		return werr
	})
}

// Notice renders a transient message; nil clears it.
func Notice(n *editor.Notice) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if n == nil {
			_, err := io.WriteString(w, `<div id="notice"></div>`)
			return err
		}
		_, err := fmt.Fprintf(w, `<div id="notice"><div class="%s" role="status">%s</div></div>`, esc(string(n.Kind)), esc(n.Text))
		return err
	})
}

// Confirm asks before an entry is removed; an empty name clears the dialog.
func Confirm(name string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if name == "" {
			_, err := io.WriteString(w, `<div id="confirm"></div>`)
			return err
		}
		base := "/editor/entries/" + url.PathEscape(name) + "/remove"
		_, err := fmt.Fprintf(w, `<div id="confirm" class="dialog"><div>
<p>Remove <strong>%s</strong>? This saves the configuration immediately.</p>
<button data-on-click="@post('%s')">Remove</button>
<button data-on-click="@post('%s')">Cancel</button>
</div></div>`, esc(name), esc(base+"/confirm"), esc(base+"/cancel"))
		return err
	})
}

// ChangedElsewhere tells the user the document was replaced by someone else.
func ChangedElsewhere(source string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="notice"><div class="error" role="status">The configuration was replaced (%s). <button data-on-click="@post('/editor/reload')">Reload</button></div></div>`, esc(source))
		return err
	})
}

func group(ctx context.Context, w io.Writer, g *form.Group, v editor.View) error {
	for _, it := range g.Items {
		var err error
		switch {
		case it.Widget != nil:
			err = field(w, it.Widget)
		case it.Group != nil:
			if _, err = fmt.Fprintf(w, `<fieldset><legend>%s</legend>`, esc(it.Group.Name)); err != nil {
				return err
			}
			if err = group(ctx, w, it.Group, v); err != nil {
				return err
			}
			_, err = io.WriteString(w, `</fieldset>`)
		case it.Tabs != nil:
			err = tabs(ctx, w, it.Tabs, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func tabs(ctx context.Context, w io.Writer, ts *form.TabSet, v editor.View) error {
	if _, err := fmt.Fprintf(w, `<fieldset class="collection"><legend>%s</legend><div class="tabs" role="tablist">`, esc(ts.Name)); err != nil {
		return err
	}
	for i, tab := range ts.Tabs {
		n := strconv.Itoa(i)
		if _, err := fmt.Fprintf(w, `<button role="tab" data-on-click="$tab = %s" data-attr-aria-selected="$tab == %s">%s</button>`, n, n, esc(tab.Name)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, `</div>`); err != nil {
		return err
	}
	for i, tab := range ts.Tabs {
		remove := "/editor/entries/" + url.PathEscape(tab.Name) + "/remove"
		if _, err := fmt.Fprintf(w, `<div role="tabpanel" data-show="$tab == %d">`, i); err != nil {
			return err
		}
		if err := group(ctx, w, tab, v); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<button class="remove" data-on-click="@post('%s')">Remove %s</button></div>`, esc(remove), esc(tab.Name)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, `<div class="add"><input type="text" placeholder="New %s name" data-bind="newEntry"><button data-on-click="@post('/editor/entries')">Add</button></div></fieldset>`, esc(ts.Name))
	return err
}

func field(w io.Writer, wd *form.Widget) error {
	id := esc(wd.ID)
	if _, err := fmt.Fprintf(w, `<div class="field" id="field-%s"><label for="%s">%s</label>`, id, id, esc(wd.Label)); err != nil {
		return err
	}

	// a masked widget is rendered empty with the placeholder as hint
	value, hint := wd.Displayed(), ""
	if wd.Masked() {
		value, hint = "", form.Placeholder
	}

	var err error
	switch wd.Kind {
	case form.KindBoolean:
		_, err = fmt.Fprintf(w, `<input type="checkbox" id="%s" data-bind="%s">`, id, id)
	case form.KindMultiline:
		_, err = fmt.Fprintf(w, `<textarea id="%s" data-bind="%s" rows="6" placeholder="%s">%s</textarea>`, id, id, hint, esc(value))
	case form.KindSensitive:
		kind := "text"
		if wd.Masked() {
			kind = "password"
		}
		_, err = fmt.Fprintf(w, `<input type="%s" id="%s" data-bind="%s" autocomplete="off" placeholder="%s" value="%s">`, kind, id, id, hint, esc(value))
	default:
		_, err = fmt.Fprintf(w, `<input type="text" id="%s" data-bind="%s" value="%s">`, id, id, esc(wd.Displayed()))
	}
	if err != nil {
		return err
	}

	if wd.Sensitive {
		label := "Show"
		if !wd.Masked() {
			label = "Hide"
		}
		_, err = fmt.Fprintf(w, `<button type="button" data-on-click="@post('/editor/toggle/%s')">%s</button>`, id, label)
	} else {
		_, err = io.WriteString(w, `<span></span>`)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, `</div>`)
	return err
}

func actions(w io.Writer, v editor.View) error {
	if _, err := io.WriteString(w, `<div class="actions"><button data-on-click="@post('/editor/save')">Save</button>`); err != nil {
		return err
	}
	if v.CanRetry {
		if _, err := io.WriteString(w, `<button data-on-click="@post('/editor/retry')">Retry</button>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `<button data-on-click="@post('/editor/reload')">Discard changes</button></div>`)
	return err
}
