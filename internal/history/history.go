package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS edits (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	operation    TEXT NOT NULL,
	target       TEXT,
	schema_path  TEXT NOT NULL,
	before_text  TEXT NOT NULL,
	after_text   TEXT NOT NULL,
	warnings     TEXT,
	applied_at   DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS edits_schema_path ON edits (schema_path, seq)`

const selectColumns = `id, operation, target, schema_path, before_text, after_text, warnings, applied_at`

// ErrEmpty is returned by Last when no edit has been journaled for a file.
var ErrEmpty = errors.New("history: no journaled edits")

// Entry is one applied edit: the document text before and after it.
type Entry struct {
	ID         string
	Operation  string
	Target     string
	SchemaPath string
	Before     string
	After      string
	Warnings   []string
	AppliedAt  time.Time
}

// Summary returns a one-line description of the edit.
func (e Entry) Summary() string {
	if e.Target == "" {
		return e.Operation
	}
	return e.Operation + " " + e.Target
}

// History is a SQLite-backed journal of applied schema edits.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path and ensures the
// schema exists.
func Open(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: create table: %w", err)
		}
	}

	return &History{db: db}, nil
}

// Add journals an edit and returns it with ID and AppliedAt filled in.
func (h *History) Add(entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Now()
	}
	entry.AppliedAt = entry.AppliedAt.UTC()

	_, err := h.db.Exec(
		`INSERT INTO edits (id, operation, target, schema_path, before_text, after_text, warnings, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Operation,
		entry.Target,
		entry.SchemaPath,
		entry.Before,
		entry.After,
		strings.Join(entry.Warnings, "\n"),
		entry.AppliedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("history add: %w", err)
	}
	return entry, nil
}

// Recent returns the most recent entries for schemaPath, newest first,
// limited to limit rows. An empty schemaPath matches every file.
func (h *History) Recent(schemaPath string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT `+selectColumns+`
		 FROM edits
		 WHERE ? = '' OR schema_path = ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		schemaPath, schemaPath, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Search returns entries whose operation or target matches the given
// pattern using SQL LIKE, most recent first.
func (h *History) Search(pattern string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT `+selectColumns+`
		 FROM edits
		 WHERE operation LIKE ? OR target LIKE ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Last returns the newest entry for schemaPath, or ErrEmpty.
func (h *History) Last(schemaPath string) (Entry, error) {
	entries, err := h.Recent(schemaPath, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return entries[0], nil
}

// Delete removes one entry by id.
func (h *History) Delete(id string) error {
	if _, err := h.db.Exec(`DELETE FROM edits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("history delete: %w", err)
	}
	return nil
}

// Prune keeps only the newest keep entries for schemaPath. keep <= 0 keeps
// everything.
func (h *History) Prune(schemaPath string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := h.db.Exec(
		`DELETE FROM edits
		 WHERE schema_path = ? AND seq NOT IN (
			SELECT seq FROM edits WHERE schema_path = ? ORDER BY seq DESC LIMIT ?
		 )`,
		schemaPath, schemaPath, keep,
	)
	if err != nil {
		return fmt.Errorf("history prune: %w", err)
	}
	return nil
}

// Clear deletes the entries of one schema file, or every entry when
// schemaPath is empty. It returns the number of entries removed.
func (h *History) Clear(schemaPath string) (int64, error) {
	res, err := h.db.Exec(`DELETE FROM edits WHERE ? = '' OR schema_path = ?`, schemaPath, schemaPath)
	if err != nil {
		return 0, fmt.Errorf("history clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history clear: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// scanEntries reads all rows from the result set into a slice of Entry.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			target   sql.NullString
			warnings sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.Operation,
			&target,
			&e.SchemaPath,
			&e.Before,
			&e.After,
			&warnings,
			&e.AppliedAt,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Target = target.String
		if warnings.String != "" {
			e.Warnings = strings.Split(warnings.String, "\n")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
