package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/schema"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID               string
	Name             string
	Path             string // optional, default: ~/.objdb/exports/<name>-<timestamp>.xml
	RefreshTimestamp *bool  // default: true
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path         string `json:"path" yaml:"path"`
	ID           string `json:"id" yaml:"id"`
	Bytes        int    `json:"bytes" yaml:"bytes"`
	DocTimestamp int64  `json:"doc_timestamp" yaml:"doc_timestamp"`
	ExportedAt   int64  `json:"exported_at" yaml:"exported_at"`
}

// Export writes a snapshot's registry to a document file.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	s, reg, err := openRegistry(ctx, database, input.ID, input.Name)
	if err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(s, now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too since they embed the snapshot name.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	refresh := true
	if input.RefreshTimestamp != nil {
		refresh = *input.RefreshTimestamp
	}
	doc, err := schema.Encode(reg, refresh)
	if err != nil {
		return nil, err
	}

	if err := checkCancelled(ctx, "export"); err != nil {
		return nil, err
	}

	if err := writeFileAtomic(exportPath, doc); err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:         exportPath,
		ID:           s.ID,
		Bytes:        len(doc),
		DocTimestamp: reg.Timestamp,
		ExportedAt:   now.Unix(),
	}, nil
}

// writeFileAtomic writes data to a temp file next to path, then renames it
// into place so an existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows os.Rename fails if the destination exists. The existing file
	// is kept rather than risking a delete+rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// defaultExportPath generates the default export path.
// Format: ~/.objdb/exports/<name>-<timestamp>.xml, with the id for unnamed snapshots.
func defaultExportPath(s *snapshot.Snapshot, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}

	name := s.ID
	if s.NameNorm != nil {
		name = *s.NameNorm
	}
	filename := fmt.Sprintf("%s-%s%s", SanitizeForFilename(name), now.Format("2006-01-02T150405"), DocumentExt)
	return filepath.Join(dir, filename), nil
}
