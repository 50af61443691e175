package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	Document string     // required
	Name     *string    // optional
	Mode     ImportMode // default: error
}

// Store saves an inline document as a snapshot. It follows the same rules
// as Import, minus the file handling.
func Store(ctx context.Context, database *sql.DB, cfg *config.Config, input StoreInput) (*ImportOutput, error) {
	mode, err := parseImportMode(input.Mode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Document) == "" {
		return nil, errors.NewInvalidRequest("document is required")
	}
	if maxBytes := maxDocumentBytes(cfg); int64(len(input.Document)) > maxBytes {
		return nil, errors.NewDocumentTooLarge(maxBytes, int64(len(input.Document)))
	}

	return storeDocument(ctx, database, []byte(input.Document), input.Name, nil, mode)
}
