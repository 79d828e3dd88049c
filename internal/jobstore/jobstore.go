// Package jobstore persists terminal analysis-job records to SQLite.
// Running jobs live in memory only; this is the durable history the host
// application lists and audits.
package jobstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one terminal job as persisted. Diagnostics keeps a count
// only; full diagnostics travel with the in-memory result.
type Record struct {
	ID          string
	ProjectID   string
	State       string
	Progress    int
	TotalFiles  int
	Diagnostics int
	FatalError  string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Store is the SQLite data access layer for job history.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open job database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping job database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the jobs table. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate jobs: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
  id            TEXT PRIMARY KEY,
  project_id    TEXT NOT NULL,
  state         TEXT NOT NULL,
  progress      INTEGER NOT NULL,
  total_files   INTEGER NOT NULL,
  diagnostics   INTEGER NOT NULL,
  fatal_error   TEXT,
  started_at    TIMESTAMP,
  completed_at  TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_project ON jobs(project_id, started_at);
`

// Insert writes a terminal job record. Records are immutable history;
// inserting the same id twice is an error.
func (s *Store) Insert(rec *Record) error {
	_, err := s.db.Exec(
		`INSERT INTO jobs (id, project_id, state, progress, total_files, diagnostics, fatal_error, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.State, rec.Progress, rec.TotalFiles,
		rec.Diagnostics, rec.FatalError, rec.StartedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", rec.ID, err)
	}
	return nil
}

const recordCols = `id, project_id, state, progress, total_files, diagnostics, fatal_error, started_at, completed_at`

// Get returns one job record, or nil if the id is unknown.
func (s *Store) Get(id string) (*Record, error) {
	row := s.db.QueryRow("SELECT "+recordCols+" FROM jobs WHERE id = ?", id)
	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.ProjectID, &rec.State, &rec.Progress,
		&rec.TotalFiles, &rec.Diagnostics, &rec.FatalError,
		&rec.StartedAt, &rec.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return rec, nil
}

// List returns the most recent terminal jobs, newest first.
func (s *Store) List(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		"SELECT "+recordCols+" FROM jobs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.State, &rec.Progress,
			&rec.TotalFiles, &rec.Diagnostics, &rec.FatalError,
			&rec.StartedAt, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
