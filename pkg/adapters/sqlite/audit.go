// Package sqlite implements ports.AuditSink on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	conversation TEXT NOT NULL DEFAULT '',
	thinker      TEXT NOT NULL DEFAULT '',
	kind         TEXT NOT NULL,
	content      TEXT NOT NULL,
	ts           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_run ON audit_entries(run_id, seq);
`

// AuditSink is an append-only audit table. Rows are never updated or deleted.
type AuditSink struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*AuditSink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create audit db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &AuditSink{db: db}, nil
}

// Append inserts one row.
func (s *AuditSink) Append(ctx context.Context, e domain.AuditEntry) error {
	if e.RunID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries(id, run_id, conversation, thinker, kind, content, ts) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Conversation, e.Thinker, string(e.Kind), e.Content, e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Entries returns the run's rows in insertion order.
func (s *AuditSink) Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, conversation, thinker, kind, content, ts FROM audit_entries WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e    domain.AuditEntry
			kind string
			ts   string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Conversation, &e.Thinker, &kind, &e.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Kind = domain.AuditKind(kind)
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrRunNotFound
	}
	return out, nil
}

// Runs lists run IDs ordered by their first entry.
func (s *AuditSink) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM audit_entries GROUP BY run_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *AuditSink) Close() error {
	return s.db.Close()
}
