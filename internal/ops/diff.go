package ops

import (
	"context"
	"database/sql"
	"slices"

	"github.com/hpungsan/objdb/internal/schema"
)

// DiffInput addresses the two snapshots to compare.
type DiffInput struct {
	FromID   string
	FromName string
	ToID     string
	ToName   string
}

// ObjectChange lists the attributes of an entry that differ.
type ObjectChange struct {
	ID     string   `json:"id" yaml:"id"`
	Fields []string `json:"fields" yaml:"fields"`
}

// CategoryChange describes a category added, removed or renamed.
// From is nil for additions and To is nil for removals.
type CategoryChange struct {
	ID   int     `json:"id" yaml:"id"`
	From *string `json:"from" yaml:"from"`
	To   *string `json:"to" yaml:"to"`
}

// DiffOutput contains the result of the Diff operation.
type DiffOutput struct {
	From       string           `json:"from" yaml:"from"`
	To         string           `json:"to" yaml:"to"`
	Added      []string         `json:"added" yaml:"added"`
	Removed    []string         `json:"removed" yaml:"removed"`
	Changed    []ObjectChange   `json:"changed" yaml:"changed"`
	Categories []CategoryChange `json:"categories" yaml:"categories"`
	Identical  bool             `json:"identical" yaml:"identical"`
}

// Diff compares the registries of two snapshots by object and category id.
// Order changes alone are not reported.
func Diff(ctx context.Context, database *sql.DB, input DiffInput) (*DiffOutput, error) {
	from, fromReg, err := openRegistry(ctx, database, input.FromID, input.FromName)
	if err != nil {
		return nil, err
	}
	to, toReg, err := openRegistry(ctx, database, input.ToID, input.ToName)
	if err != nil {
		return nil, err
	}

	out := &DiffOutput{
		From:       from.ID,
		To:         to.ID,
		Added:      []string{},
		Removed:    []string{},
		Changed:    []ObjectChange{},
		Categories: []CategoryChange{},
	}

	for _, e := range fromReg.Entries() {
		next, ok := toReg.Entry(e.ID)
		if !ok {
			out.Removed = append(out.Removed, e.ID)
			continue
		}
		if fields := changedFields(e, next); len(fields) > 0 {
			out.Changed = append(out.Changed, ObjectChange{ID: e.ID, Fields: fields})
		}
	}
	for _, id := range toReg.EntryIDs() {
		if _, ok := fromReg.Entry(id); !ok {
			out.Added = append(out.Added, id)
		}
	}

	for _, c := range fromReg.Categories() {
		name := c.Name
		next, ok := toReg.Category(c.ID)
		switch {
		case !ok:
			out.Categories = append(out.Categories, CategoryChange{ID: c.ID, From: &name})
		case next != name:
			out.Categories = append(out.Categories, CategoryChange{ID: c.ID, From: &name, To: &next})
		}
	}
	for _, c := range toReg.Categories() {
		if _, ok := fromReg.Category(c.ID); !ok {
			name := c.Name
			out.Categories = append(out.Categories, CategoryChange{ID: c.ID, To: &name})
		}
	}

	out.Identical = len(out.Added) == 0 && len(out.Removed) == 0 &&
		len(out.Changed) == 0 && len(out.Categories) == 0
	return out, nil
}

// changedFields names the entry attributes that differ, in document order.
func changedFields(a, b schema.Entry) []string {
	var fields []string
	check := func(name string, differs bool) {
		if differs {
			fields = append(fields, name)
		}
	}
	check("name", a.Name != b.Name)
	check("type", a.Type != b.Type)
	check("model", a.Model != b.Model)
	check("flags", a.Known != b.Known || a.Complete != b.Complete)
	check("category", a.Category != b.Category)
	check("notes", a.Notes != b.Notes)
	check("files", a.Files != b.Files)
	check("fields", !slices.Equal(a.Fields, b.Fields))
	return fields
}
