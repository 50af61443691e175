package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/objdb/internal/errors"
	"github.com/hpungsan/objdb/internal/snapshot"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.ObjError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const summaryColumns = `id, name_raw, name_norm, doc_timestamp, category_count,
			entry_count, model_count, doc_bytes, source_path, parent_id, created_at, deleted_at`

const fullColumns = summaryColumns + `, document`

// Insert stores a new snapshot in the database.
func Insert(ctx context.Context, db *sql.DB, s *snapshot.Snapshot) error {
	query := `
		INSERT INTO snapshots (
			id, name_raw, name_norm, document, doc_timestamp,
			category_count, entry_count, model_count, doc_bytes,
			source_path, parent_id, created_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := db.ExecContext(ctx, query,
		s.ID, toNullString(s.NameRaw), toNullString(s.NameNorm), s.Document, s.DocTimestamp,
		s.CategoryCount, s.EntryCount, s.ModelCount, s.DocBytes,
		toNullString(s.SourcePath), toNullString(s.ParentID), s.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a snapshot, document included, by its ULID.
// If includeDeleted is false, soft-deleted snapshots are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*snapshot.Snapshot, error) {
	query := `SELECT ` + fullColumns + ` FROM snapshots WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	s, err := scanSnapshot(db.QueryRowContext(ctx, query, id), true)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// GetByName retrieves a snapshot by normalized name.
// If includeDeleted is false, soft-deleted snapshots are excluded.
func GetByName(ctx context.Context, db *sql.DB, nameNorm string, includeDeleted bool) (*snapshot.Snapshot, error) {
	query := `SELECT ` + fullColumns + ` FROM snapshots WHERE name_norm = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	} else {
		// Prefer the active snapshot; otherwise the most recently created deleted one.
		query += " ORDER BY (deleted_at IS NULL) DESC, created_at DESC, id DESC LIMIT 1"
	}

	s, err := scanSnapshot(db.QueryRowContext(ctx, query, nameNorm), true)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// GetLatest returns the most recently stored snapshot, or nil if there is none.
func GetLatest(ctx context.Context, db *sql.DB, includeDeleted bool) (*snapshot.Snapshot, error) {
	query := `SELECT ` + fullColumns + ` FROM snapshots`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT 1"

	s, err := scanSnapshot(db.QueryRowContext(ctx, query), true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListOptions filters and pages List.
type ListOptions struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
	// NamePrefix matches the start of the normalized name
	NamePrefix string
}

// List returns snapshot summaries, newest first, and the total count
// matching the filters.
func List(ctx context.Context, db *sql.DB, opts ListOptions) ([]snapshot.Summary, int, error) {
	var where []string
	var args []any
	if !opts.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if prefix := snapshot.Normalize(opts.NamePrefix); prefix != "" {
		where = append(where, "name_norm LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(prefix)+"%")
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + summaryColumns + ` FROM snapshots` + whereSQL +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	items := []snapshot.Summary{}
	for rows.Next() {
		s, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, s.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return items, total, nil
}

// CheckNameExists checks if an active snapshot with the given name exists.
func CheckNameExists(ctx context.Context, db *sql.DB, nameNorm string) (bool, error) {
	query := `
		SELECT 1 FROM snapshots
		WHERE name_norm = ? AND deleted_at IS NULL
		LIMIT 1
	`

	var exists int
	err := db.QueryRowContext(ctx, query, nameNorm).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}

	return true, nil
}

// ReplaceDocument overwrites the document, its statistics, source path and parent of
// an active snapshot, and sets created_at to now so the snapshot becomes the
// latest. Does NOT change: id, name.
func ReplaceDocument(ctx context.Context, db *sql.DB, s *snapshot.Snapshot) error {
	now := time.Now().Unix()

	query := `
		UPDATE snapshots
		SET document = ?, doc_timestamp = ?, category_count = ?, entry_count = ?,
			model_count = ?, doc_bytes = ?, source_path = ?, parent_id = ?, created_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query,
		s.Document, s.DocTimestamp, s.CategoryCount, s.EntryCount,
		s.ModelCount, s.DocBytes, toNullString(s.SourcePath), toNullString(s.ParentID), now,
		s.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(s.ID)
	}

	s.CreatedAt = now
	return nil
}

// SoftDelete marks a snapshot as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// PurgeDeleted permanently removes soft-deleted snapshots.
// olderThanDays > 0 limits the purge to snapshots deleted at least that many days ago.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays int) (int, error) {
	query := `DELETE FROM snapshots WHERE deleted_at IS NOT NULL`
	var args []any
	if olderThanDays > 0 {
		cutoff := time.Now().Add(-time.Duration(olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at <= ?"
		args = append(args, cutoff)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnapshot reads the summary columns, plus the document when withDoc is set.
func scanSnapshot(row rowScanner, withDoc bool) (*snapshot.Snapshot, error) {
	var (
		s          snapshot.Snapshot
		nameRaw    sql.NullString
		nameNorm   sql.NullString
		sourcePath sql.NullString
		parentID   sql.NullString
		deletedAt  sql.NullInt64
	)

	dest := []any{
		&s.ID, &nameRaw, &nameNorm, &s.DocTimestamp, &s.CategoryCount,
		&s.EntryCount, &s.ModelCount, &s.DocBytes, &sourcePath, &parentID, &s.CreatedAt, &deletedAt,
	}
	if withDoc {
		dest = append(dest, &s.Document)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.NameRaw = fromNullString(nameRaw)
	s.NameNorm = fromNullString(nameNorm)
	s.SourcePath = fromNullString(sourcePath)
	s.ParentID = fromNullString(parentID)
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}

	return &s, nil
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
