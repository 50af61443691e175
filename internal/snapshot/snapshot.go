package snapshot

import "github.com/hpungsan/objdb/internal/schema"

// Snapshot is one stored revision of an object database document.
type Snapshot struct {
	// ID is a ULID that uniquely identifies this snapshot
	ID string

	// NameRaw is the name as provided by the user (nullable)
	NameRaw *string

	// NameNorm is the normalized name (nullable); unique among active snapshots
	NameNorm *string

	// Document is the encoded registry, stored as given
	Document []byte

	// DocTimestamp is the document's own timestamp attribute (Unix seconds)
	DocTimestamp int64

	// CategoryCount, EntryCount and ModelCount describe the decoded registry
	CategoryCount int
	EntryCount    int
	ModelCount    int

	// DocBytes is len(Document)
	DocBytes int

	// SourcePath is the file the document was imported from (nullable)
	SourcePath *string

	// ParentID is the snapshot an edit started from (nullable)
	ParentID *string

	// CreatedAt is the Unix timestamp when the snapshot was stored
	CreatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// New builds a snapshot for doc, taking the statistics from reg, which must
// be the decoding of doc. ID and CreatedAt are left for the caller.
func New(name *string, doc []byte, reg *schema.Registry) *Snapshot {
	s := &Snapshot{
		Document:      doc,
		DocTimestamp:  reg.Timestamp,
		CategoryCount: reg.CategoryCount(),
		EntryCount:    reg.EntryCount(),
		ModelCount:    len(reg.IDToModel()),
		DocBytes:      len(doc),
	}
	s.SetName(name)
	return s
}

// SetName sets both name forms. A nil or blank name clears them.
func (s *Snapshot) SetName(name *string) {
	s.NameRaw, s.NameNorm = NormalizeOptional(name)
}

// DisplayName returns the raw name, or the id for unnamed snapshots.
func (s *Snapshot) DisplayName() string {
	if s.NameRaw != nil {
		return *s.NameRaw
	}
	return s.ID
}
