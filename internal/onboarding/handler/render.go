package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// renderPage executes the layout into a buffer first so a template error
// never leaves a half-written page.
func renderPage(w http.ResponseWriter, status int, page pageView) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout", page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
