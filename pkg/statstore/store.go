// Package statstore keeps statistics snapshots of traffic runs in SQLite.
package statstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xena-tools/xenamanager-go/pkg/stats"
)

// ErrRunNotFound indicates an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded traffic run.
type Run struct {
	ID        string
	Owner     string
	Label     string
	StartedAt time.Time
}

// Sample is one counter value of one port at one point in time.
type Sample struct {
	RunID   string
	TakenAt time.Time
	Port    string
	Stat    string
	Value   int64
}

// Store provides SQLite persistence for runs and their samples.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		label TEXT,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		taken_at INTEGER NOT NULL,
		port TEXT NOT NULL,
		stat TEXT NOT NULL,
		value INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run_id ON samples(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun creates a new run.
func (s *Store) BeginRun(ctx context.Context, owner, label string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		Owner:     owner,
		Label:     label,
		StartedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, owner, label, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Owner, run.Label, run.StartedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// Record stores one snapshot of flat statistics for a run.
func (s *Store) Record(ctx context.Context, runID string, takenAt time.Time, flat stats.FlatStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, taken_at, port, stat, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	at := takenAt.UnixNano()
	for _, port := range flat.Rows() {
		row := flat[port]
		cols := make([]string, 0, len(row))
		for stat := range row {
			cols = append(cols, stat)
		}
		sort.Strings(cols)
		for _, stat := range cols {
			if _, err := stmt.ExecContext(ctx, runID, at, port, stat, row[stat]); err != nil {
				return fmt.Errorf("failed to record sample: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Samples returns the samples of a run in recording order.
func (s *Store) Samples(ctx context.Context, runID string) ([]Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, taken_at, port, stat, value
		FROM samples
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sm Sample
		var at int64
		if err := rows.Scan(&sm.RunID, &at, &sm.Port, &sm.Stat, &sm.Value); err != nil {
			return nil, err
		}
		sm.TakenAt = time.Unix(0, at)
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// Runs returns all runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, label, started_at
		FROM runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var label sql.NullString
		var at int64
		if err := rows.Scan(&run.ID, &run.Owner, &label, &at); err != nil {
			return nil, err
		}
		run.Label = label.String
		run.StartedAt = time.Unix(0, at)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
