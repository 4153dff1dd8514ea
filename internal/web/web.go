// Package web embeds the HTML templates rendered by the handlers.
package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	// stars renders a 1..5 rating as filled and empty stars
	"stars": func(n int) string {
		out := make([]rune, 0, 5)
		for i := 1; i <= 5; i++ {
			if i <= n {
				out = append(out, '★')
			} else {
				out = append(out, '☆')
			}
		}
		return string(out)
	},
	// orDash prints a pointer's value or "n/a" when nil
	"orDash": func(v any) string {
		switch p := v.(type) {
		case *float64:
			if p != nil {
				return fmt.Sprintf("%.2f", *p)
			}
		case *int64:
			if p != nil {
				return fmt.Sprintf("%d", *p)
			}
		}
		return "n/a"
	},
}

// Templates parses every page template. Pages are addressed by file name, e.g. "login.html".
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
