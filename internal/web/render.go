package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/ops"
	"github.com/hpungsan/objdb/internal/schema"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ListPageData is the template data for the snapshot list page.
type ListPageData struct {
	PageData
	Items      []snapshot.Summary
	Pagination ops.Pagination
	NamePrefix string
	Deleted    bool
}

// DetailPageData is the template data for the snapshot detail page.
type DetailPageData struct {
	PageData
	Snapshot   *ops.FetchOutput
	Categories *ops.CategoriesOutput
	Objects    []ops.ObjectSummary
	Pagination ops.Pagination
	Query      string
	Category   *int
}

// ObjectPageData is the template data for the object page.
type ObjectPageData struct {
	PageData
	SnapshotID   string
	SnapshotName string
	Object       schema.Entry
	CategoryName *string
	Model        *string
	Notes        template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode  int
	Message     string
	Suggestions []string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *slog.Logger
}

// NewRenderer parses the page templates from fsys.
func NewRenderer(fsys fs.FS, version string, logger *slog.Logger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatTime":  formatTime,
		"formatBytes": formatBytes,
		"flag":        func(v int) bool { return v != 0 },
		"isCategory":  func(c *int, id int) bool { return c != nil && *c == id },
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"object": "object.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}, nil
}

func (r *Renderer) page(title string) PageData {
	return PageData{Title: title, Version: r.version}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template. For htmx requests only the
// "content" block is rendered.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if isHTMX(req) {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	oErr, ok := errors.As(err)
	if !ok {
		oErr = errors.NewInternal(err)
	}
	if oErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "err", err)
	}

	status := oErr.Status
	message := oErr.Message

	if isHTMX(req) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		errObj := map[string]any{
			"code":    string(oErr.Code),
			"message": message,
			"status":  status,
		}
		if oErr.Code != errors.ErrInternal && oErr.Details != nil {
			errObj["details"] = oErr.Details
		}
		renderJSON(w, status, map[string]any{"error": errObj})
		return
	}

	var suggestions []string
	if s, ok := oErr.Details["suggestions"].([]string); ok {
		suggestions = s
	}
	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:    r.page(fmt.Sprintf("Error %d", status)),
		StatusCode:  status,
		Message:     message,
		Suggestions: suggestions,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts entry notes to HTML. goldmark's default
// configuration drops raw HTML from the source.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func isHTMX(req *http.Request) bool {
	return req != nil && req.Header.Get("HX-Request") == "true"
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatBytes formats a byte count with a binary unit.
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
