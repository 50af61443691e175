package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// LatestInput contains parameters for the Latest operation.
type LatestInput struct {
	IncludeDocument bool // default: false (summary only)
	IncludeDeleted  bool
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item *LatestItem `json:"item" yaml:"item"` // nil if the store is empty
}

// LatestItem contains the latest snapshot with an optional document.
type LatestItem struct {
	snapshot.Summary `yaml:",inline"`
	Document         string `json:"document,omitempty" yaml:"document,omitempty"`
}

// Latest retrieves the most recently stored snapshot.
func Latest(ctx context.Context, database *sql.DB, input LatestInput) (*LatestOutput, error) {
	s, err := db.GetLatest(ctx, database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &LatestOutput{Item: nil}, nil
	}

	item := &LatestItem{Summary: s.ToSummary()}
	if input.IncludeDocument {
		item.Document = string(s.Document)
	}
	return &LatestOutput{Item: item}, nil
}
