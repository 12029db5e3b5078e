package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"subweave/internal/services"
)

// ResultStatus classifies how one file fared inside a run.
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultFailed    ResultStatus = "failed"
)

// FileResult is one row of a run report.
type FileResult struct {
	ID           int64
	RunID        string
	Primary      string
	Secondary    string
	Output       string
	Status       ResultStatus
	MergePath    string
	SyncLevel    string
	TimeOffset   float64
	Confidence   float64
	EventCount   int
	ErrorMessage string
	CreatedAt    time.Time
}

// RunSummary aggregates a run's results.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Completed  int
	Failed     int
}

// Store persists batch run reports in SQLite. The database is protected by
// an advisory file lock so two batches never write concurrently.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open connects to (or creates) the results database at path, acquires the
// writer lock, and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "open", "create database directory", err)
	}

	lock := flock.New(path + ".lock")
	held, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "open", "acquire database lock", err)
	}
	if !held {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "open",
			fmt.Sprintf("results database %s is in use by another batch", path), nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrConfiguration, "batch", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrConfiguration, "batch", "open",
				fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: path, lock: lock}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS batch_runs (
    run_id      TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    total       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS batch_results (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL REFERENCES batch_runs(run_id) ON DELETE CASCADE,
    primary_path  TEXT NOT NULL,
    secondary_path TEXT NOT NULL,
    output_path   TEXT,
    status        TEXT NOT NULL,
    merge_path    TEXT,
    sync_level    TEXT,
    time_offset   REAL NOT NULL DEFAULT 0,
    confidence    REAL NOT NULL DEFAULT 0,
    event_count   INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_batch_results_run ON batch_results(run_id);
`

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return services.Wrap(services.ErrConfiguration, "batch", "open", "apply schema", err)
	}
	return nil
}

// Close releases the database connection and the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// BeginRun records the start of a run with its planned file count.
func (s *Store) BeginRun(ctx context.Context, runID string, total int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batch_runs (run_id, started_at, total) VALUES (?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339Nano),
		total,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stamps a run as finished.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE batch_runs SET finished_at = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Record appends one file result to a run.
func (s *Store) Record(ctx context.Context, result FileResult) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batch_results (
            run_id, primary_path, secondary_path, output_path, status,
            merge_path, sync_level, time_offset, confidence, event_count,
            error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Primary,
		result.Secondary,
		nullableString(result.Output),
		string(result.Status),
		nullableString(result.MergePath),
		nullableString(result.SyncLevel),
		result.TimeOffset,
		result.Confidence,
		result.EventCount,
		nullableString(result.ErrorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

const resultColumns = `id, run_id, primary_path, secondary_path, output_path, status,
    merge_path, sync_level, time_offset, confidence, event_count, error_message, created_at`

// Results returns a run's file results in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]FileResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resultColumns+` FROM batch_results WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []FileResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Summary aggregates one run's outcome counts.
func (s *Store) Summary(ctx context.Context, runID string) (RunSummary, error) {
	var (
		startedRaw  string
		finishedRaw sql.NullString
		total       int
	)
	row := s.db.QueryRowContext(ctx, `SELECT started_at, finished_at, total FROM batch_runs WHERE run_id = ?`, runID)
	if err := row.Scan(&startedRaw, &finishedRaw, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunSummary{}, services.Wrap(services.ErrNotFound, "batch", "summary",
				fmt.Sprintf("run %s not found", runID), nil)
		}
		return RunSummary{}, fmt.Errorf("query run: %w", err)
	}

	summary := RunSummary{RunID: runID, Total: total}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		summary.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			summary.FinishedAt = &finished
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM batch_results WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("count results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return RunSummary{}, err
		}
		switch ResultStatus(status) {
		case ResultCompleted:
			summary.Completed = count
		case ResultFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}

func scanResult(scanner interface{ Scan(dest ...any) error }) (FileResult, error) {
	var (
		result     FileResult
		status     string
		output     sql.NullString
		mergePath  sql.NullString
		syncLevel  sql.NullString
		errMessage sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&result.ID,
		&result.RunID,
		&result.Primary,
		&result.Secondary,
		&output,
		&status,
		&mergePath,
		&syncLevel,
		&result.TimeOffset,
		&result.Confidence,
		&result.EventCount,
		&errMessage,
		&createdRaw,
	); err != nil {
		return FileResult{}, err
	}
	result.Status = ResultStatus(status)
	result.Output = output.String
	result.MergePath = mergePath.String
	result.SyncLevel = syncLevel.String
	result.ErrorMessage = errMessage.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		result.CreatedAt = created
	}
	return result, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
