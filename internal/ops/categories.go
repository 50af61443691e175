package ops

import (
	"context"
	"database/sql"
)

// CategoriesInput contains parameters for the Categories operation.
type CategoriesInput struct {
	ID   string
	Name string
}

// CategoryCount is a category with the number of entries that refer to it.
type CategoryCount struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Entries int    `json:"entries" yaml:"entries"`
}

// CategoriesOutput contains the result of the Categories operation.
type CategoriesOutput struct {
	Snapshot string          `json:"snapshot" yaml:"snapshot"`
	Items    []CategoryCount `json:"items" yaml:"items"`
	// Undefined counts entries whose category id has no definition
	Undefined int `json:"undefined" yaml:"undefined"`
}

// Categories lists a snapshot's categories in document order.
func Categories(ctx context.Context, database *sql.DB, input CategoriesInput) (*CategoriesOutput, error) {
	s, reg, err := openRegistry(ctx, database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	counts := map[int]int{}
	for _, e := range reg.Entries() {
		counts[e.Category]++
	}

	items := make([]CategoryCount, 0, reg.CategoryCount())
	defined := 0
	for _, c := range reg.Categories() {
		items = append(items, CategoryCount{ID: c.ID, Name: c.Name, Entries: counts[c.ID]})
		defined += counts[c.ID]
	}

	return &CategoriesOutput{
		Snapshot:  s.ID,
		Items:     items,
		Undefined: reg.EntryCount() - defined,
	}, nil
}
