package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/garnizeh/portfolio/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// layout files shared by every page
var layouts = []string{"templates/base.html", "templates/partials.html"}

type views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006, 3:04 PM") },
	// link marks validated past work links as safe; html/template would
	// otherwise blank out ftp and ftps
	"link": func(s string) template.URL {
		if !webLink(s) {
			return "#"
		}
		return template.URL(s)
	},
	// bind hands a partial the CSRF field along with its data
	"bind": func(csrfField template.HTML, data any) map[string]any {
		return map[string]any{"CSRF": csrfField, "Data": data}
	},
}

func loadViews() (*views, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	v := &views{pages: map[string]*template.Template{}}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		if name == "base" || name == "partials" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, append(layouts, f)...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// page is the data every template receives. Data carries the page specific
// values.
type page struct {
	Title     string
	Owner     string
	User      *models.User
	CSRFField template.HTML
	Flashes   []string
	Data      any
}

// IsSuperuser reports whether the viewer may manage content.
func (p page) IsSuperuser() bool {
	return isSuperuser(p.User)
}

// render executes the named page into a buffer first so a template error
// never leaves a half written response.
func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := s.views.pages[name]
	if !ok {
		logger.ErrorContext(r.Context(), "unknown template", slog.String("template", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p := page{
		Title:     title,
		Owner:     s.cfg.SiteOwner,
		User:      currentUser(r),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
	if name == "home" {
		p.Flashes = s.popFlashes(w, r)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		logger.ErrorContext(r.Context(), "render template", slog.String("template", name), slog.Any("err", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Site) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error", "Not Found", errorPage{Status: http.StatusNotFound, Message: "The page you requested could not be found."})
}

func (s *Site) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	s.render(w, r, http.StatusInternalServerError, "error", "Server Error", errorPage{Status: http.StatusInternalServerError, Message: "Something went wrong on our side."})
}

type errorPage struct {
	Status  int
	Message string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode json", slog.Any("err", err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
