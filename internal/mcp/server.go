package mcp

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/objdb/internal/config"
)

// KnownTypes lists the tool types that can be disabled as a group.
var KnownTypes = []string{"snapshot", "object", "category"}

// tool pairs a definition with the Handlers method serving it.
type tool struct {
	def    mcp.Tool
	handle func(*Handlers, context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// tools is the full tool set in registration order.
var tools = []tool{
	{importToolDef, (*Handlers).HandleImport},
	{storeToolDef, (*Handlers).HandleStore},
	{exportToolDef, (*Handlers).HandleExport},
	{listToolDef, (*Handlers).HandleList},
	{fetchToolDef, (*Handlers).HandleFetch},
	{latestToolDef, (*Handlers).HandleLatest},
	{deleteToolDef, (*Handlers).HandleDelete},
	{purgeToolDef, (*Handlers).HandlePurge},
	{editToolDef, (*Handlers).HandleEdit},
	{diffToolDef, (*Handlers).HandleDiff},
	{objectListToolDef, (*Handlers).HandleObjectList},
	{objectLookupToolDef, (*Handlers).HandleObjectLookup},
	{categoryListToolDef, (*Handlers).HandleCategoryList},
}

// AllToolNames returns every tool name in registration order.
func AllToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.def.Name
	}
	return names
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	return unknownNames(names, AllToolNames())
}

// ValidateDisabledTypes returns the names that match no tool type.
func ValidateDisabledTypes(names []string) []string {
	return unknownNames(names, KnownTypes)
}

func unknownNames(names, known []string) []string {
	unknown := make([]string, 0)
	for _, n := range names {
		if !slices.Contains(known, n) {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

// GetTypeForTool returns the type prefix of a tool name
// ("object_lookup" is of type "object").
func GetTypeForTool(toolName string) string {
	typ, _, ok := strings.Cut(toolName, "_")
	if !ok || typ == "" {
		return ""
	}
	return typ
}

// ExpandTypesToTools returns the names of all tools of the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	var names []string
	for _, name := range AllToolNames() {
		if slices.Contains(types, GetTypeForTool(name)) {
			names = append(names, name)
		}
	}
	return names
}

// NewServer creates the MCP server. Tools named in cfg.DisabledTools or
// belonging to a type in cfg.DisabledTypes are not registered.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer("objdb", version, server.WithToolCapabilities(true))
	h := NewHandlers(db, cfg)

	disabled := append(ExpandTypesToTools(cfg.DisabledTypes), cfg.DisabledTools...)
	for _, t := range tools {
		if slices.Contains(disabled, t.def.Name) {
			continue
		}
		handle := t.handle
		s.AddTool(t.def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handle(h, ctx, req)
		})
	}
	return s
}

// Run serves the tools over stdio until stdin closes.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(db, cfg, version))
}
