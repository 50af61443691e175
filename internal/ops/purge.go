package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	OlderThanDays *int // optional, only purge if deleted_at <= (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged" yaml:"purged"`
	Message string `json:"message" yaml:"message"`
}

// Purge permanently deletes soft-deleted snapshots.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	days := 0
	if input.OlderThanDays != nil {
		if *input.OlderThanDays < 0 {
			return nil, errors.NewInvalidRequest("older_than_days must not be negative")
		}
		days = *input.OlderThanDays
	}

	count, err := db.PurgeDeleted(ctx, database, days)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, olderThanDays *int) string {
	if count == 0 {
		return "No deleted snapshots to purge"
	}

	word := "snapshot"
	if count > 1 {
		word = "snapshots"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, word)
	if olderThanDays != nil && *olderThanDays > 0 {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
