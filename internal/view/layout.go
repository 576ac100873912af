package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
)

// PageTitle handles the conditional logic for the page title.
func PageTitle(title string) string {
	if title != "" {
		return title + " - KPI Board"
	}
	return "KPI Board"
}

// Base wraps page content in the HTML document shell with flash notifications.
func Base(title string, flashes FlashData, content g.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(PageTitle(title))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</title><link rel="stylesheet" href="/static/app.css">`+
			`<script src="https://unpkg.com/htmx.org@2.0.4" defer></script>`+
			`<script src="/static/app.js" defer></script></head><body>`); err != nil {
			return err
		}
		if err := Notifications(flashes).Render(w); err != nil {
			return err
		}
		if err := content.Render(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
