package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/ops"
)

// Handlers contains HTTP route handlers for the snapshot browser.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	logger   *slog.Logger
}

// HandleList handles GET /snapshots.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		NamePrefix:     r.URL.Query().Get("name_prefix"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData:   h.renderer.page("Snapshots"),
		Items:      result.Items,
		Pagination: result.Pagination,
		NamePrefix: input.NamePrefix,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleDetail handles GET /snapshots/{id}: summary, categories and a
// filtered page of objects.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	includeDocument := false
	snap, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:              id,
		IncludeDocument: &includeDocument,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	category, err := parseOptionalInt(r, "category")
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	cats, err := ops.Categories(r.Context(), h.db, ops.CategoriesInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	objects, err := ops.Objects(r.Context(), h.db, ops.ObjectsInput{
		ID:       id,
		Category: category,
		Query:    r.URL.Query().Get("q"),
		Limit:    parseIntParam(r, "limit", ops.DefaultObjectsLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"snapshot":   snap.Summary,
			"categories": cats.Items,
			"undefined":  cats.Undefined,
			"objects":    objects.Items,
			"pagination": objects.Pagination,
		})
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:   h.renderer.page(displayName(snap.Name, snap.ID)),
		Snapshot:   snap,
		Categories: cats,
		Objects:    objects.Items,
		Pagination: objects.Pagination,
		Query:      r.URL.Query().Get("q"),
		Category:   category,
	})
}

// HandleObject handles GET /snapshots/{id}/objects/{object}.
func (h *Handlers) HandleObject(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Lookup(r.Context(), h.db, ops.LookupInput{
		ID:       r.PathValue("id"),
		ObjectID: r.PathValue("object"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "object", ObjectPageData{
		PageData:     h.renderer.page(result.Object.ID),
		SnapshotID:   r.PathValue("id"),
		SnapshotName: result.Snapshot,
		Object:       result.Object,
		CategoryName: result.CategoryName,
		Model:        result.Model,
		Notes:        renderMarkdown(result.Object.Notes),
	})
}

// HandleDocument handles GET /snapshots/{id}/document. The stored document
// is sent as-is, so its timestamp is not refreshed.
func (h *Handlers) HandleDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	base := snap.ID
	if snap.NameNorm != nil {
		if s := ops.SanitizeForFilename(*snap.NameNorm); s != "" {
			base = s
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+ops.DocumentExt))
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Document)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snap.Document))
}

// HandleDelete handles DELETE /snapshots/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.logger.Info("snapshot deleted", "id", result.ID)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/snapshots")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/snapshots", http.StatusSeeOther)
}

// HandlePurge handles POST /snapshots/purge.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`confirm parameter must be "true"`))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/snapshots?include_deleted=true", http.StatusSeeOther)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseOptionalInt returns nil for an absent parameter and INVALID_REQUEST
// for one that isn't an integer.
func parseOptionalInt(r *http.Request, name string) (*int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.NewInvalidRequest(name + " must be an integer")
	}
	return &v, nil
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// displayName returns the snapshot name if present, or a truncated ID.
func displayName(name *string, id string) string {
	if name != nil && *name != "" {
		return *name
	}
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
