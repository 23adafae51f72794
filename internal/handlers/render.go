package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded HTML templates. Templates are parsed once
// at startup; a parse failure is a programming error and panics there.
type Renderer struct {
	tpl    *template.Template
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{
		tpl:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger: logger,
	}
}

// Render writes a page with the given status. Template execution errors are
// logged but not surfaced; headers are already gone by then.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.tpl.ExecuteTemplate(w, page, data); err != nil {
		rd.logger.Error("template execution failed", slog.String("page", page), slog.Any("error", err))
	}
}

// ServerError renders the generic 500 page. Storage and other internal
// failures end up here; the message never carries internal detail.
func (rd *Renderer) ServerError(w http.ResponseWriter) {
	rd.Render(w, http.StatusInternalServerError, "error.html", nil)
}
