package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/schema"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on name collision
	ImportModeReplace ImportMode = "replace" // reuse the named snapshot's id
	ImportModeNewer   ImportMode = "newer"   // skip unless newer than the latest snapshot
)

func parseImportMode(m ImportMode) (ImportMode, error) {
	switch m {
	case "":
		return ImportModeError, nil
	case ImportModeError, ImportModeReplace, ImportModeNewer:
		return m, nil
	}
	return "", errors.NewInvalidRequest("mode must be one of: error, replace, newer")
}

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Name *string    // default: file name without extension
	Mode ImportMode // default: error
}

// ImportOutput contains the result of Import and Store.
type ImportOutput struct {
	Imported bool                 `json:"imported" yaml:"imported"`
	Replaced bool                 `json:"replaced" yaml:"replaced"`
	Skipped  bool                 `json:"skipped" yaml:"skipped"`
	Reason   string               `json:"reason,omitempty" yaml:"reason,omitempty"`
	Snapshot *snapshot.Summary    `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Lint     *snapshot.LintResult `json:"lint,omitempty" yaml:"lint,omitempty"`
}

// Import reads a document file and stores it as a snapshot.
// The whole document must decode before anything is written.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	mode, err := parseImportMode(input.Mode)
	if err != nil {
		return nil, err
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	doc, err := readDocument(input.Path, maxDocumentBytes(cfg))
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == nil {
		base := strings.TrimSuffix(filepath.Base(input.Path), filepath.Ext(input.Path))
		name = &base
	}

	absPath, err := filepath.Abs(input.Path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	return storeDocument(ctx, database, doc, name, &absPath, mode)
}

// readDocument reads at most maxBytes from path without following a symlink.
func readDocument(path string, maxBytes int64) ([]byte, error) {
	file, err := openNoFollow(path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if info.Size() > maxBytes {
		return nil, errors.NewDocumentTooLarge(maxBytes, info.Size())
	}

	// The file can grow between Stat and read.
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if int64(len(data)) > maxBytes {
		return nil, errors.NewDocumentTooLarge(maxBytes, int64(len(data)))
	}
	return data, nil
}

func maxDocumentBytes(cfg *config.Config) int64 {
	if cfg == nil || cfg.DocumentMaxBytes <= 0 {
		return config.DefaultConfig().DocumentMaxBytes
	}
	return cfg.DocumentMaxBytes
}

// storeDocument decodes doc and saves it according to mode.
func storeDocument(ctx context.Context, database *sql.DB, doc []byte, name, sourcePath *string, mode ImportMode) (*ImportOutput, error) {
	reg, err := schema.Decode(doc)
	if err != nil {
		return nil, err
	}

	s := snapshot.New(name, doc, reg)
	s.SourcePath = sourcePath
	lint := snapshot.Lint(reg)

	if mode == ImportModeNewer {
		latest, err := db.GetLatest(ctx, database, false)
		if err != nil {
			return nil, err
		}
		if latest != nil && reg.Timestamp <= latest.DocTimestamp {
			summary := latest.ToSummary()
			return &ImportOutput{
				Skipped:  true,
				Reason:   fmt.Sprintf("document timestamp %d is not newer than %d", reg.Timestamp, latest.DocTimestamp),
				Snapshot: &summary,
				Lint:     lint,
			}, nil
		}
	}

	replaced := false
	if s.NameNorm != nil {
		existing, err := db.GetByName(ctx, database, *s.NameNorm, false)
		switch {
		case errors.Is(err, errors.ErrNotFound):
		case err != nil:
			return nil, err
		case mode == ImportModeError:
			return nil, errors.NewNameAlreadyExists(*s.NameRaw)
		default:
			s.ID = existing.ID
			replaced = true
		}
	}

	if replaced {
		// The name stays as first stored.
		s.NameRaw, s.NameNorm = nil, nil
		if err := db.ReplaceDocument(ctx, database, s); err != nil {
			return nil, err
		}
		s, err = db.GetByID(ctx, database, s.ID, false)
		if err != nil {
			return nil, err
		}
	} else {
		s.ID = newID()
		s.CreatedAt = time.Now().Unix()
		if err := db.Insert(ctx, database, s); err != nil {
			if err == db.ErrUniqueConstraint {
				return nil, errors.NewNameAlreadyExists(*s.NameRaw)
			}
			return nil, err
		}
	}

	slog.DebugContext(ctx, "stored snapshot",
		"id", s.ID, "entries", s.EntryCount, "bytes", s.DocBytes, "replaced", replaced)

	summary := s.ToSummary()
	return &ImportOutput{
		Imported: true,
		Replaced: replaced,
		Snapshot: &summary,
		Lint:     lint,
	}, nil
}
