package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// AddressRequest addresses one snapshot.
type AddressRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ImportRequest represents the arguments for snapshot_import.
type ImportRequest struct {
	Path string  `json:"path"`
	Name *string `json:"name,omitempty"`
	Mode string  `json:"mode,omitempty"`
}

// StoreRequest represents the arguments for snapshot_store.
type StoreRequest struct {
	Document string  `json:"document"`
	Name     *string `json:"name,omitempty"`
	Mode     string  `json:"mode,omitempty"`
}

// ExportRequest represents the arguments for snapshot_export.
type ExportRequest struct {
	AddressRequest
	Path             string `json:"path,omitempty"`
	RefreshTimestamp *bool  `json:"refresh_timestamp,omitempty"`
}

// ListRequest represents the arguments for snapshot_list.
type ListRequest struct {
	NamePrefix     string `json:"name_prefix,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// FetchRequest represents the arguments for snapshot_fetch.
type FetchRequest struct {
	AddressRequest
	IncludeDeleted  bool  `json:"include_deleted,omitempty"`
	IncludeDocument *bool `json:"include_document,omitempty"`
}

// LatestRequest represents the arguments for snapshot_latest.
type LatestRequest struct {
	IncludeDocument bool `json:"include_document,omitempty"`
	IncludeDeleted  bool `json:"include_deleted,omitempty"`
}

// PurgeRequest represents the arguments for snapshot_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// EditRequest represents the arguments for snapshot_edit.
type EditRequest struct {
	AddressRequest
	Changes []ops.Change `json:"changes"`
	SaveAs  *string      `json:"save_as,omitempty"`
}

// DiffRequest represents the arguments for snapshot_diff.
type DiffRequest struct {
	FromID   string `json:"from_id,omitempty"`
	FromName string `json:"from_name,omitempty"`
	ToID     string `json:"to_id,omitempty"`
	ToName   string `json:"to_name,omitempty"`
}

// ObjectListRequest represents the arguments for object_list.
type ObjectListRequest struct {
	AddressRequest
	Category *int   `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ObjectLookupRequest represents the arguments for object_lookup.
type ObjectLookupRequest struct {
	AddressRequest
	ObjectID string `json:"object_id"`
}

// Handler implementations

// run decodes the request into R and passes it to fn.
func run[R any, O any](req mcp.CallToolRequest, fn func(R) (O, error)) (*mcp.CallToolResult, error) {
	input, err := decode[R](req)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := fn(input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the snapshot_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in ImportRequest) (*ops.ImportOutput, error) {
		return ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
			Path: in.Path,
			Name: in.Name,
			Mode: ops.ImportMode(in.Mode),
		})
	})
}

// HandleStore handles the snapshot_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in StoreRequest) (*ops.ImportOutput, error) {
		return ops.Store(ctx, h.db, h.cfg, ops.StoreInput{
			Document: in.Document,
			Name:     in.Name,
			Mode:     ops.ImportMode(in.Mode),
		})
	})
}

// HandleExport handles the snapshot_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in ExportRequest) (*ops.ExportOutput, error) {
		return ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
			ID:               in.ID,
			Name:             in.Name,
			Path:             in.Path,
			RefreshTimestamp: in.RefreshTimestamp,
		})
	})
}

// HandleList handles the snapshot_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in ListRequest) (*ops.ListOutput, error) {
		return ops.List(ctx, h.db, ops.ListInput{
			NamePrefix:     in.NamePrefix,
			Limit:          in.Limit,
			Offset:         in.Offset,
			IncludeDeleted: in.IncludeDeleted,
		})
	})
}

// HandleFetch handles the snapshot_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in FetchRequest) (*ops.FetchOutput, error) {
		return ops.Fetch(ctx, h.db, ops.FetchInput{
			ID:              in.ID,
			Name:            in.Name,
			IncludeDeleted:  in.IncludeDeleted,
			IncludeDocument: in.IncludeDocument,
		})
	})
}

// HandleLatest handles the snapshot_latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in LatestRequest) (*ops.LatestOutput, error) {
		return ops.Latest(ctx, h.db, ops.LatestInput{
			IncludeDocument: in.IncludeDocument,
			IncludeDeleted:  in.IncludeDeleted,
		})
	})
}

// HandleDelete handles the snapshot_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in AddressRequest) (*ops.DeleteOutput, error) {
		return ops.Delete(ctx, h.db, ops.DeleteInput{ID: in.ID, Name: in.Name})
	})
}

// HandlePurge handles the snapshot_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in PurgeRequest) (*ops.PurgeOutput, error) {
		return ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: in.OlderThanDays})
	})
}

// HandleEdit handles the snapshot_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in EditRequest) (*ops.EditOutput, error) {
		return ops.Edit(ctx, h.db, h.cfg, ops.EditInput{
			ID:      in.ID,
			Name:    in.Name,
			Changes: in.Changes,
			SaveAs:  in.SaveAs,
		})
	})
}

// HandleDiff handles the snapshot_diff tool call.
func (h *Handlers) HandleDiff(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in DiffRequest) (*ops.DiffOutput, error) {
		return ops.Diff(ctx, h.db, ops.DiffInput{
			FromID:   in.FromID,
			FromName: in.FromName,
			ToID:     in.ToID,
			ToName:   in.ToName,
		})
	})
}

// HandleObjectList handles the object_list tool call.
func (h *Handlers) HandleObjectList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in ObjectListRequest) (*ops.ObjectsOutput, error) {
		return ops.Objects(ctx, h.db, ops.ObjectsInput{
			ID:       in.ID,
			Name:     in.Name,
			Category: in.Category,
			Query:    in.Query,
			Limit:    in.Limit,
			Offset:   in.Offset,
		})
	})
}

// HandleObjectLookup handles the object_lookup tool call.
func (h *Handlers) HandleObjectLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in ObjectLookupRequest) (*ops.LookupOutput, error) {
		return ops.Lookup(ctx, h.db, ops.LookupInput{
			ID:       in.ID,
			Name:     in.Name,
			ObjectID: in.ObjectID,
		})
	})
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(req, func(in AddressRequest) (*ops.CategoriesOutput, error) {
		return ops.Categories(ctx, h.db, ops.CategoriesInput{ID: in.ID, Name: in.Name})
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if objErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    objErr.Code,
			"message": objErr.Message,
			"status":  objErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if objErr.Code != errors.ErrInternal && objErr.Details != nil {
			errorObj["details"] = objErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
