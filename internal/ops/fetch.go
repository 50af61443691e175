package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/objdb/internal/snapshot"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID              string
	Name            string
	IncludeDeleted  bool
	IncludeDocument *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	snapshot.Summary `yaml:",inline"`
	Document         string `json:"document,omitempty" yaml:"document,omitempty"`
}

// Fetch retrieves a snapshot by ID or name.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	s, err := getSnapshot(ctx, database, addr, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{Summary: s.ToSummary()}

	includeDocument := true
	if input.IncludeDocument != nil {
		includeDocument = *input.IncludeDocument
	}
	if includeDocument {
		output.Document = string(s.Document)
	}

	return output, nil
}
