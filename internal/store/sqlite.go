package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/philackm/devlog/internal/domain"
)

//go:embed schema.sql
var schema string

// Store keeps an audit log of build runs. It is never consulted to decide
// what to rebuild.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a finished run with its per-entry results
func (s *Store) RecordRun(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, incremental, started_at, finished_at, built, unchanged, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.Incremental, run.StartedAt, run.FinishedAt,
		run.Built, run.Unchanged, run.Failed, run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range run.Results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entry_results (run_id, position, path, file_name, status, error, hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Path, r.FileName, string(r.Status), r.Error, r.Hash,
		)
		if err != nil {
			return fmt.Errorf("insert entry result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first, without their results
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, incremental, started_at, finished_at, built, unchanged, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID with its results in build order
func (s *Store) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, root, incremental, started_at, finished_at, built, unchanged, failed, skipped
		 FROM runs WHERE id = ?`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, file_name, status, error, hash FROM entry_results
		 WHERE run_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get entry results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.EntryResult
		var status string
		if err := rows.Scan(&r.Path, &r.FileName, &status, &r.Error, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan entry result: %w", err)
		}
		r.Status = domain.RunStatus(status)
		run.Results = append(run.Results, r)
	}
	return run, rows.Err()
}

// EntryHistory lists the results recorded for one entry path, newest first
func (s *Store) EntryHistory(ctx context.Context, path string, limit int) ([]domain.EntryResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT er.path, er.file_name, er.status, er.error, er.hash
		 FROM entry_results er JOIN runs r ON r.id = er.run_id
		 WHERE er.path = ? ORDER BY r.started_at DESC LIMIT ?`,
		path, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("entry history: %w", err)
	}
	defer rows.Close()

	var results []domain.EntryResult
	for rows.Next() {
		var r domain.EntryResult
		var status string
		if err := rows.Scan(&r.Path, &r.FileName, &status, &r.Error, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan entry result: %w", err)
		}
		r.Status = domain.RunStatus(status)
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.Root, &run.Incremental, &run.StartedAt, &finished,
		&run.Built, &run.Unchanged, &run.Failed, &run.Skipped)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
