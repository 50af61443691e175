package snapshot

// Summary is a snapshot's metadata without the document.
// Used for browse operations (list, latest) to reduce data transfer.
type Summary struct {
	ID            string  `json:"id" yaml:"id"`
	Name          *string `json:"name,omitempty" yaml:"name,omitempty"`
	NameNorm      *string `json:"name_norm,omitempty" yaml:"name_norm,omitempty"`
	DocTimestamp  int64   `json:"doc_timestamp" yaml:"doc_timestamp"`
	CategoryCount int     `json:"category_count" yaml:"category_count"`
	EntryCount    int     `json:"entry_count" yaml:"entry_count"`
	ModelCount    int     `json:"model_count" yaml:"model_count"`
	DocBytes      int     `json:"doc_bytes" yaml:"doc_bytes"`
	SourcePath    *string `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	ParentID      *string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CreatedAt     int64   `json:"created_at" yaml:"created_at"`
	DeletedAt     *int64  `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// ToSummary strips the document.
func (s *Snapshot) ToSummary() Summary {
	return Summary{
		ID:            s.ID,
		Name:          s.NameRaw,
		NameNorm:      s.NameNorm,
		DocTimestamp:  s.DocTimestamp,
		CategoryCount: s.CategoryCount,
		EntryCount:    s.EntryCount,
		ModelCount:    s.ModelCount,
		DocBytes:      s.DocBytes,
		SourcePath:    s.SourcePath,
		ParentID:      s.ParentID,
		CreatedAt:     s.CreatedAt,
		DeletedAt:     s.DeletedAt,
	}
}
