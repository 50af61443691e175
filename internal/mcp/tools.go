package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Shared argument descriptions.
const (
	descID   = "Snapshot id (ULID). Use either id or name, not both."
	descName = "Snapshot name (case-insensitive). Use either id or name, not both."
)

var importToolDef = mcp.NewTool("snapshot_import",
	mcp.WithDescription("Import an object database XML file as a new snapshot. "+
		"The file must be directly inside ~/.objdb/exports or a configured allowed path. "+
		"The document is decoded completely before anything is stored."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .xml file")),
	mcp.WithString("name", mcp.Description("Snapshot name (default: file name without extension)")),
	mcp.WithString("mode",
		mcp.Description("Collision behavior: error (default), replace (reuse the named snapshot), newer (skip unless the document timestamp is newer than the latest snapshot)"),
		mcp.Enum("error", "replace", "newer")),
)

var storeToolDef = mcp.NewTool("snapshot_store",
	mcp.WithDescription("Store an inline object database XML document as a snapshot."),
	mcp.WithString("document", mcp.Required(), mcp.Description("The XML document text")),
	mcp.WithString("name", mcp.Description("Snapshot name (optional)")),
	mcp.WithString("mode",
		mcp.Description("Collision behavior: error (default), replace, newer"),
		mcp.Enum("error", "replace", "newer")),
)

var exportToolDef = mcp.NewTool("snapshot_export",
	mcp.WithDescription("Write a snapshot's object database to an XML file (atomic replace)."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithString("path", mcp.Description("Destination .xml path (default: ~/.objdb/exports/<name>-<time>.xml)")),
	mcp.WithBoolean("refresh_timestamp", mcp.Description("Set the document timestamp to now (default: true)")),
)

var listToolDef = mcp.NewTool("snapshot_list",
	mcp.WithDescription("List snapshot summaries, newest first."),
	mcp.WithString("name_prefix", mcp.Description("Only snapshots whose name starts with this")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted snapshots")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var fetchToolDef = mcp.NewTool("snapshot_fetch",
	mcp.WithDescription("Fetch one snapshot with its XML document."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithBoolean("include_deleted", mcp.Description("Allow soft-deleted snapshots")),
	mcp.WithBoolean("include_document", mcp.Description("Include the XML document (default: true)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var latestToolDef = mcp.NewTool("snapshot_latest",
	mcp.WithDescription("Get the most recently stored snapshot, or null when there is none."),
	mcp.WithBoolean("include_document", mcp.Description("Include the XML document (default: false)")),
	mcp.WithBoolean("include_deleted", mcp.Description("Consider soft-deleted snapshots")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("snapshot_delete",
	mcp.WithDescription("Soft-delete a snapshot. It can still be fetched with include_deleted until purged."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithDestructiveHintAnnotation(true),
)

var purgeToolDef = mcp.NewTool("snapshot_purge",
	mcp.WithDescription("Permanently remove soft-deleted snapshots."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge snapshots deleted at least this many days ago")),
	mcp.WithDestructiveHintAnnotation(true),
)

var editToolDef = mcp.NewTool("snapshot_edit",
	mcp.WithDescription("Apply changes to a snapshot and store the result as a new snapshot with a refreshed timestamp. "+
		"Ops: set_object {object}, remove_object {object_id}, set_model {object_id, model}, "+
		"set_category {category_id, category_name}, remove_category {category_id}, "+
		"copy_object {object_id or object_ids}, paste_object {new_ids}, undo, undo_all. "+
		"If any change fails nothing is stored."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithArray("changes", mcp.Required(),
		mcp.Description("Changes applied in order"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"op": map[string]any{
					"type": "string",
					"enum": []string{"set_object", "remove_object", "set_model", "set_category", "remove_category", "copy_object", "paste_object", "undo", "undo_all"},
				},
				"object":        map[string]any{"type": "object", "description": "Full object for set_object"},
				"object_id":     map[string]any{"type": "string"},
				"object_ids":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"new_ids":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"model":         map[string]any{"type": "string"},
				"category_id":   map[string]any{"type": "integer"},
				"category_name": map[string]any{"type": "string"},
			},
			"required": []string{"op"},
		})),
	mcp.WithString("save_as", mcp.Description("Name for the new snapshot (unnamed if omitted)")),
)

var diffToolDef = mcp.NewTool("snapshot_diff",
	mcp.WithDescription("Compare the object databases of two snapshots by object and category id."),
	mcp.WithString("from_id", mcp.Description("Base snapshot id")),
	mcp.WithString("from_name", mcp.Description("Base snapshot name")),
	mcp.WithString("to_id", mcp.Description("Compared snapshot id")),
	mcp.WithString("to_name", mcp.Description("Compared snapshot name")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var objectListToolDef = mcp.NewTool("object_list",
	mcp.WithDescription("List the objects of a snapshot in document order."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithNumber("category", mcp.Description("Only objects in this category id")),
	mcp.WithString("query", mcp.Description("Case-insensitive substring of object id or name")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var objectLookupToolDef = mcp.NewTool("object_lookup",
	mcp.WithDescription("Get one object with its fields, category name and model. "+
		"Unknown ids return NOT_FOUND with suggestions."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id, e.g. Kuribo")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List a snapshot's categories with object counts."),
	mcp.WithString("id", mcp.Description(descID)),
	mcp.WithString("name", mcp.Description(descName)),
	mcp.WithReadOnlyHintAnnotation(true),
)
