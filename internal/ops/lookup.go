package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/schema"
)

// LookupInput contains parameters for the Lookup operation.
type LookupInput struct {
	ID       string
	Name     string
	ObjectID string // required
}

// LookupOutput contains the result of the Lookup operation.
type LookupOutput struct {
	Snapshot     string       `json:"snapshot" yaml:"snapshot"`
	Object       schema.Entry `json:"object" yaml:"object"`
	CategoryName *string      `json:"category_name" yaml:"category_name"` // nil if undefined
	Model        *string      `json:"model" yaml:"model"`                 // nil if the object has no model
}

// Lookup returns one entry of a snapshot. An unknown object id is a
// NOT_FOUND error whose details carry close matches under "suggestions".
func Lookup(ctx context.Context, database *sql.DB, input LookupInput) (*LookupOutput, error) {
	if strings.TrimSpace(input.ObjectID) == "" {
		return nil, errors.NewInvalidRequest("object_id is required")
	}

	s, reg, err := openRegistry(ctx, database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	e, ok := reg.Entry(input.ObjectID)
	if !ok {
		notFound := errors.NewNotFound(input.ObjectID)
		notFound.Details["suggestions"] = reg.Suggest(input.ObjectID, schema.MaxSuggestions)
		return nil, notFound
	}

	output := &LookupOutput{Snapshot: s.ID, Object: e}
	if name, ok := reg.Category(e.Category); ok {
		output.CategoryName = &name
	}
	if model, ok := reg.ModelFor(e.ID); ok {
		output.Model = &model
	}
	return output, nil
}
