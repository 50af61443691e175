package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/schema"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// Pagination limits
const (
	DefaultListLimit    = 20
	MaxListLimit        = 100
	DefaultObjectsLimit = 100
	MaxObjectsLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit" yaml:"limit"`
	Offset  int  `json:"offset" yaml:"offset"`
	HasMore bool `json:"has_more" yaml:"has_more"`
	Total   int  `json:"total" yaml:"total"`
}

func paginate(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	return min(limit, maxLimit), max(offset, 0)
}

// Address represents a validated snapshot address.
type Address struct {
	ByID bool
	ID   string
	Name string // normalized
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Rules:
// - Must specify exactly one addressing mode: id OR name
// - If both are provided → ErrAmbiguousAddressing
// - If neither is provided → ErrInvalidRequest
func ValidateAddress(id, name string) (*Address, error) {
	id = strings.TrimSpace(id)
	hasName := strings.TrimSpace(name) != ""

	if id != "" && hasName {
		return nil, errors.NewAmbiguousAddressing()
	}
	if id == "" && !hasName {
		return nil, errors.NewInvalidRequest("must specify either id or name")
	}

	if id != "" {
		return &Address{ByID: true, ID: id}, nil
	}
	return &Address{Name: snapshot.Normalize(name)}, nil
}

// String returns the id or the normalized name.
func (a *Address) String() string {
	if a.ByID {
		return a.ID
	}
	return a.Name
}

// getSnapshot loads the snapshot an address points at.
func getSnapshot(ctx context.Context, database *sql.DB, addr *Address, includeDeleted bool) (*snapshot.Snapshot, error) {
	if addr.ByID {
		return db.GetByID(ctx, database, addr.ID, includeDeleted)
	}
	return db.GetByName(ctx, database, addr.Name, includeDeleted)
}

// openRegistry resolves an active snapshot and decodes its document.
func openRegistry(ctx context.Context, database *sql.DB, id, name string) (*snapshot.Snapshot, *schema.Registry, error) {
	addr, err := ValidateAddress(id, name)
	if err != nil {
		return nil, nil, err
	}
	s, err := getSnapshot(ctx, database, addr, false)
	if err != nil {
		return nil, nil, err
	}
	reg, err := schema.Decode(s.Document)
	if err != nil {
		// Documents are validated before they are stored.
		return nil, nil, errors.NewInternal(fmt.Errorf("stored snapshot %s does not decode: %w", s.ID, err))
	}
	return s, reg, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a fresh snapshot id. Ids made within the same millisecond
// still sort in creation order.
func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// checkCancelled returns CANCELLED if ctx is done.
func checkCancelled(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return errors.NewCancelled(op)
	default:
		return nil
	}
}
