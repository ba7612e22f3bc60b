package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"flashy/internal/config"
	"flashy/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the history database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const timeLayout = time.RFC3339Nano

// Record is one persisted flash attempt.
type Record struct {
	ID        int64
	JobID     string
	Serial    string
	State     state.JobState
	BundleDir string
	Storage   string
	ExitCode  *int
	Error     string
	Started   time.Time
	Finished  time.Time
	LogTail   []string
}

// Stats summarizes the stored history.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
}

// Store manages flash history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "history.db"))
}

// OpenPath opens a history database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'flashy history clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record persists one finished job.
func (s *Store) Record(ctx context.Context, summary state.JobSummary, logTail []string) error {
	var exitCode any
	if summary.ExitCode != nil {
		exitCode = *summary.ExitCode
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flash_jobs (job_id, serial, state, bundle_dir, storage, exit_code, error, started_at, finished_at, log_tail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID,
		summary.Serial,
		string(summary.State),
		summary.BundleDir,
		summary.Storage,
		exitCode,
		summary.Error,
		formatTime(summary.Started),
		formatTime(summary.Finished),
		strings.Join(logTail, "\n"),
	)
	if err != nil {
		return fmt.Errorf("record flash job: %w", err)
	}
	return nil
}

// List returns records newest first, bounded by limit when positive.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, job_id, serial, state, bundle_dir, storage, exit_code, error, started_at, finished_at, log_tail
		FROM flash_jobs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flash jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flash jobs: %w", err)
	}
	return records, nil
}

// BySerial returns records for one device, newest first.
func (s *Store) BySerial(ctx context.Context, serial string, limit int) ([]Record, error) {
	query := `
		SELECT id, job_id, serial, state, bundle_dir, storage, exit_code, error, started_at, finished_at, log_tail
		FROM flash_jobs WHERE serial = ? ORDER BY id DESC`
	args := []any{serial}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flash jobs for %s: %w", serial, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flash jobs: %w", err)
	}
	return records, nil
}

// Clear removes all history records.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM flash_jobs"); err != nil {
		return fmt.Errorf("clear flash history: %w", err)
	}
	return nil
}

// Stats returns aggregate counts per terminal state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT state, COUNT(1) FROM flash_jobs GROUP BY state")
	if err != nil {
		return Stats{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var st string
		var count int
		if err := rows.Scan(&st, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats row: %w", err)
		}
		stats.Total += count
		switch state.JobState(st) {
		case state.JobSucceeded:
			stats.Succeeded = count
		case state.JobFailed:
			stats.Failed = count
		case state.JobCancelled:
			stats.Cancelled = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec       Record
		st        string
		exitCode  sql.NullInt64
		startedAt sql.NullString
		finished  sql.NullString
		logTail   string
	)
	if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Serial, &st, &rec.BundleDir, &rec.Storage,
		&exitCode, &rec.Error, &startedAt, &finished, &logTail); err != nil {
		return Record{}, fmt.Errorf("scan flash job: %w", err)
	}
	rec.State = state.JobState(st)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		rec.ExitCode = &code
	}
	rec.Started = parseTime(startedAt.String)
	rec.Finished = parseTime(finished.String)
	if logTail != "" {
		rec.LogTail = strings.Split(logTail, "\n")
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
