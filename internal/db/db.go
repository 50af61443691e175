package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/objdb/internal/config"
)

// DBFileName is the database file inside the base directory.
const DBFileName = "objdb.db"

// ExportsDirName is the default export directory inside the base directory.
const ExportsDirName = "exports"

// migrations[i] upgrades the schema from user_version i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
	  id             TEXT PRIMARY KEY,
	  name_raw       TEXT,
	  name_norm      TEXT,
	  document       BLOB NOT NULL,
	  doc_timestamp  INTEGER NOT NULL,
	  category_count INTEGER NOT NULL,
	  entry_count    INTEGER NOT NULL,
	  model_count    INTEGER NOT NULL,
	  doc_bytes      INTEGER NOT NULL,
	  source_path    TEXT,
	  created_at     INTEGER NOT NULL,
	  deleted_at     INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created
	ON snapshots(created_at DESC)
	WHERE deleted_at IS NULL;

	CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_name_norm
	ON snapshots(name_norm)
	WHERE name_norm IS NOT NULL AND deleted_at IS NULL;

	CREATE INDEX IF NOT EXISTS idx_snapshots_doc_timestamp
	ON snapshots(doc_timestamp DESC)
	WHERE deleted_at IS NULL;`,

	// Edits record the snapshot they started from.
	`ALTER TABLE snapshots ADD COLUMN parent_id TEXT;`,
}

// CurrentSchemaVersion is the user_version after all migrations ran.
var CurrentSchemaVersion = len(migrations)

// Init opens (creating if needed) baseDir/objdb.db in WAL mode and brings
// its schema up to date. baseDir and its exports directory are created with
// mode 0700.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, ExportsDirName)} {
		if err := mkdirPrivate(dir); err != nil {
			return nil, err
		}
	}

	dbPath := filepath.Join(baseDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// The file exists once migrations ran. Best-effort.
	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

func mkdirPrivate(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	// MkdirAll leaves existing directories alone and honours umask.
	_ = os.Chmod(dir, 0700)
	return nil
}

// ConfigurePool applies the pool limits set in cfg. Zero values keep the
// database/sql defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate runs every migration past the stored user_version, each in its
// own transaction together with the version bump.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to set user_version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
	}
	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in the user_version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion stores the schema version in the user_version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
