// Package web holds the server-rendered views. Templates are embedded so
// the binary ships self-contained.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
	}).ParseFS(templateFS, "templates/*.html"),
)

// Render executes the named template into w.
func Render(w io.Writer, name string, data any) error {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
