package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/objdb/internal/db"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID   string
	Name string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted" yaml:"deleted"`
	ID      string `json:"id" yaml:"id"`
}

// Delete soft-deletes a snapshot.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	// Resolve the id first; names only match active snapshots.
	s, err := getSnapshot(ctx, database, addr, false)
	if err != nil {
		return nil, err
	}

	if err := db.SoftDelete(ctx, database, s.ID); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      s.ID,
	}, nil
}
