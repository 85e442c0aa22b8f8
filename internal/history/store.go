// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an audit log of batch runs in SQLite: one row per
// run and one per processed target. The fetch path never reads it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/sheet2pdf/internal/acquire"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

var _ acquire.Recorder = (*Store)(nil)

// timeLayout sorts lexically, unlike RFC3339Nano which trims zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultLimit bounds RecentRuns when the caller passes no limit.
const DefaultLimit = 20

// Run is one batch run.
type Run struct {
	ID         string
	Mode       types.FetchMode
	OutputDir  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Downloaded int
	Skipped    int
	Failed     int
}

// Item is one processed target of a run.
type Item struct {
	RunID     string
	Row       int
	Index     string
	Title     string
	URL       string
	Filename  string
	Status    types.FetchStatus
	Attempts  int
	Bytes     int64
	Error     string
	CreatedAt time.Time
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer; the batch is sequential anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			downloaded INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			row_number INTEGER NOT NULL,
			row_index TEXT,
			title TEXT,
			url TEXT NOT NULL,
			filename TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_run_id ON items(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_url ON items(url)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, runID string, mode types.FetchMode, outputDir string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, output_dir, started_at) VALUES (?, ?, ?, ?)`,
		runID, string(mode), outputDir, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}

// RecordItem records one processed target.
func (s *Store) RecordItem(ctx context.Context, runID string, target types.FetchTarget, outcome types.FetchOutcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (run_id, row_number, row_index, title, url, filename, status, attempts, bytes, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, target.Row.Number, target.Row.Index, target.Row.Title, target.URL, target.Filename,
		string(outcome.Status), outcome.Attempts, outcome.Bytes, outcome.Reason(), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("recording item %s: %w", target.Filename, err)
	}
	return nil
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, downloaded, skipped, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, downloaded = ?, skipped = ?, failed = ? WHERE id = ?`,
		s.timestamp(), downloaded, skipped, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, output_dir, started_at, finished_at, downloaded, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			mode     string
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &mode, &r.OutputDir, &started, &finished, &r.Downloaded, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Mode = types.FetchMode(mode)
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			if t, err := time.Parse(timeLayout, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Items returns the items of a run in processing order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, row_number, row_index, title, url, filename, status, attempts, bytes, error, created_at
		 FROM items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it      Item
			status  string
			index   sql.NullString
			title   sql.NullString
			errText sql.NullString
			created string
		)
		if err := rows.Scan(&it.RunID, &it.Row, &index, &title, &it.URL, &it.Filename, &status,
			&it.Attempts, &it.Bytes, &errText, &created); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.Index = index.String
		it.Title = title.String
		it.Error = errText.String
		it.Status = types.FetchStatus(status)
		it.CreatedAt, _ = time.Parse(timeLayout, created)
		items = append(items, it)
	}
	return items, rows.Err()
}
