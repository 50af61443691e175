package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	NamePrefix     string // optional, matched against the normalized name
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []snapshot.Summary `json:"items" yaml:"items"`
	Pagination Pagination         `json:"pagination" yaml:"pagination"`
	Sort       string             `json:"sort" yaml:"sort"`
}

// List retrieves snapshot summaries, newest first, with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit, offset := paginate(input.Limit, input.Offset, DefaultListLimit, MaxListLimit)

	summaries, total, err := db.List(ctx, database, db.ListOptions{
		Limit:          limit,
		Offset:         offset,
		IncludeDeleted: input.IncludeDeleted,
		NamePrefix:     input.NamePrefix,
	})
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
