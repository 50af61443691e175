package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/objdb/internal/config"
	"github.com/hpungsan/objdb/internal/db"
	"github.com/hpungsan/objdb/internal/errors"
)

// DocumentExt is the required extension of import and export files.
const DocumentExt = ".xml"

// BaseDirName is the data directory under the user's home.
const BaseDirName = ".objdb"

// PathCheckMode tells ValidatePath whether the file is about to be read or written.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// ValidatePath checks an import or export path before any file is opened.
//
// The path must not contain "..", must end in DocumentExt, and must name a
// file sitting directly in ~/.objdb/exports or in one of cfg.AllowedPaths.
// Nested directories are refused so that no intermediate component can be
// swapped for a symlink between this check and the open. The file itself
// must never be a symlink, even with cfg.AllowUnsafePaths, which only lifts
// the directory rule. In read mode the file must exist.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !strings.EqualFold(filepath.Ext(cleaned), DocumentExt) {
		return errors.NewInvalidRequest("path must have " + DocumentExt + " extension")
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkParentDir(filepath.Dir(abs), cfg); err != nil {
			return err
		}
	}

	info, err := os.Lstat(abs)
	switch {
	case err != nil && os.IsNotExist(err):
		if mode == PathCheckRead {
			return errors.NewFileNotFound(path)
		}
	case err == nil && isSymlink(info):
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// checkParentDir requires dir to be one of the allowed directories and not
// itself a symlink.
func checkParentDir(dir string, cfg *config.Config) error {
	allowed, err := allowedDirs(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(allowed, filepath.Clean(dir)) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
	}
	if info, err := os.Lstat(dir); err == nil && isSymlink(info) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// allowedDirs returns the default exports directory followed by every
// absolute entry of cfg.AllowedPaths. Entries that are symlinks are resolved
// so that files are matched against the real directory.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exports, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	dirs := []string{exports}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	for i, d := range dirs {
		info, err := os.Lstat(d)
		if err != nil || !isSymlink(info) {
			continue
		}
		resolved, err := filepath.EvalSymlinks(d)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
		}
		dirs[i] = resolved
	}
	return dirs, nil
}

// DefaultExportsDir returns ~/.objdb/exports.
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, BaseDirName, db.ExportsDirName), nil
}

func isSymlink(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

func isPathSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}

// containsTraversal reports whether any component of path is "..".
// Forward slashes count as separators on every platform.
func containsTraversal(path string) bool {
	return slices.Contains(strings.FieldsFunc(path, isPathSeparator), "..")
}

// SanitizeForFilename turns a snapshot name into a safe file name stem:
// separators and ".." become dashes, control characters are dropped, dash
// runs collapse and edge dashes are trimmed. An empty result becomes "unnamed".
func SanitizeForFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case r < 32 || r == 127:
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "..", "-")

	parts := slices.DeleteFunc(strings.Split(s, "-"), func(p string) bool { return p == "" })
	if len(parts) == 0 {
		return "unnamed"
	}
	return strings.Join(parts, "-")
}
