package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/objdb/internal/schema"
)

// ObjectsInput contains parameters for the Objects operation.
type ObjectsInput struct {
	ID       string
	Name     string
	Category *int   // optional filter
	Query    string // case-insensitive substring of id or name
	Limit    int    // default: 100, max: 500
	Offset   int
}

// ObjectSummary is an entry without notes and fields.
type ObjectSummary struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Category     int    `json:"category" yaml:"category"`
	CategoryName string `json:"category_name,omitempty" yaml:"category_name,omitempty"`
	Known        int    `json:"known" yaml:"known"`
	Complete     int    `json:"complete" yaml:"complete"`
	FieldCount   int    `json:"field_count" yaml:"field_count"`
}

// ObjectsOutput contains the result of the Objects operation.
type ObjectsOutput struct {
	Snapshot   string          `json:"snapshot" yaml:"snapshot"`
	Items      []ObjectSummary `json:"items" yaml:"items"`
	Pagination Pagination      `json:"pagination" yaml:"pagination"`
}

// Objects lists a snapshot's entries in document order.
func Objects(ctx context.Context, database *sql.DB, input ObjectsInput) (*ObjectsOutput, error) {
	s, reg, err := openRegistry(ctx, database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	limit, offset := paginate(input.Limit, input.Offset, DefaultObjectsLimit, MaxObjectsLimit)
	query := strings.ToLower(strings.TrimSpace(input.Query))

	var matched []schema.Entry
	for _, e := range reg.Entries() {
		if input.Category != nil && e.Category != *input.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.ID), query) &&
			!strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)

	items := make([]ObjectSummary, 0, end-start)
	for _, e := range matched[start:end] {
		items = append(items, summarizeEntry(reg, e))
	}

	return &ObjectsOutput{
		Snapshot: s.ID,
		Items:    items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
	}, nil
}

func summarizeEntry(reg *schema.Registry, e schema.Entry) ObjectSummary {
	catName, _ := reg.Category(e.Category)
	return ObjectSummary{
		ID:           e.ID,
		Name:         e.Name,
		Type:         e.Type,
		Model:        e.Model,
		Category:     e.Category,
		CategoryName: catName,
		Known:        e.Known,
		Complete:     e.Complete,
		FieldCount:   len(e.Fields),
	}
}
