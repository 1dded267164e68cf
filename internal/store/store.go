// Package store persists a read-only audit trail of completed regions to
// sqlite, grounded on the teacher's WAL-mode, migration-on-open pattern.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RegionRecord is one completed WithRegion call, as surfaced by the
// introspection server.
type RegionRecord struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	TaskCount    int
	CopyInCount  int
	CopyOutCount int
	Traversal    string
	Static       bool
	Aliasing     bool
	Error        string // empty on success
}

// Store wraps a sqlite-backed history of regions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("taskdag: open store: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("taskdag: enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS regions (
	id             TEXT PRIMARY KEY,
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL,
	task_count     INTEGER NOT NULL,
	copy_in_count  INTEGER NOT NULL,
	copy_out_count INTEGER NOT NULL,
	traversal      TEXT NOT NULL,
	static         INTEGER NOT NULL,
	aliasing       INTEGER NOT NULL,
	error          TEXT NOT NULL DEFAULT ''
)`)
	if err != nil {
		return fmt.Errorf("taskdag: migrate store: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordRegion inserts a completed region's summary. If the id already
// exists, it updates finished_at, the three counts and error, and keeps
// the stored started_at, traversal, static and aliasing.
func (s *Store) RecordRegion(ctx context.Context, r RegionRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO regions (id, started_at, finished_at, task_count, copy_in_count, copy_out_count, traversal, static, aliasing, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	finished_at=excluded.finished_at,
	task_count=excluded.task_count,
	copy_in_count=excluded.copy_in_count,
	copy_out_count=excluded.copy_out_count,
	error=excluded.error`,
		r.ID, r.StartedAt.Unix(), r.FinishedAt.Unix(), r.TaskCount, r.CopyInCount, r.CopyOutCount,
		r.Traversal, boolToInt(r.Static), boolToInt(r.Aliasing), r.Error,
	)
	if err != nil {
		return fmt.Errorf("taskdag: record region %s: %w", r.ID, err)
	}
	return nil
}

// ListRegions returns every recorded region, most recently started first.
func (s *Store) ListRegions(ctx context.Context) ([]RegionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, task_count, copy_in_count, copy_out_count, traversal, static, aliasing, error
FROM regions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("taskdag: list regions: %w", err)
	}
	defer rows.Close()

	var out []RegionRecord
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRegion looks up one region by id.
func (s *Store) GetRegion(ctx context.Context, id string) (RegionRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, task_count, copy_in_count, copy_out_count, traversal, static, aliasing, error
FROM regions WHERE id = ?`, id)

	r, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return RegionRecord{}, false, nil
	}
	if err != nil {
		return RegionRecord{}, false, fmt.Errorf("taskdag: get region %s: %w", id, err)
	}
	return r, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegion(row scanner) (RegionRecord, error) {
	var r RegionRecord
	var started, finished int64
	var static, aliasing int
	err := row.Scan(&r.ID, &started, &finished, &r.TaskCount, &r.CopyInCount, &r.CopyOutCount,
		&r.Traversal, &static, &aliasing, &r.Error)
	if err != nil {
		return RegionRecord{}, err
	}
	r.StartedAt = time.Unix(started, 0).UTC()
	r.FinishedAt = time.Unix(finished, 0).UTC()
	r.Static = static != 0
	r.Aliasing = aliasing != 0
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
