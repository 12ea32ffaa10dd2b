package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"bookreel/internal/config"
)

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then clear or delete the job database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrLocked indicates another process holds the job store.
var ErrLocked = errors.New("job store is locked by another process")

// Store persists resolved job records in SQLite. An advisory file lock keeps
// two processes from sharing one store.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the job database under the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire job store lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, lock: lock, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database and releases the advisory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Insert records one resolved job.
func (s *Store) Insert(ctx context.Context, record Record) (int64, error) {
	if strings.TrimSpace(record.JobID) == "" {
		return 0, errors.New("insert job record: job id required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	scenes, err := json.Marshal(record.Scenes)
	if err != nil {
		return 0, fmt.Errorf("encode scene summaries: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (
			job_id, title, author, language, mode, status, cache_hit,
			video_locator, subtitle_locator, overall_score, total_cost,
			total_retries, scenes_json, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.JobID, record.Title, record.Author, record.Language,
		record.Mode, string(record.Status), boolToInt(record.CacheHit),
		record.VideoLocator, record.SubtitleLocator, record.OverallScore,
		record.TotalCost, record.TotalRetries, string(scenes),
		record.ErrorMessage, record.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert job record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// GetByJobID returns the record for one job id.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM jobs WHERE job_id = ?", jobID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Clear deletes every record and returns the count removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs")
	if err != nil {
		return 0, fmt.Errorf("clear job records: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, job_id, title, author, language, mode, status,
	cache_hit, video_locator, subtitle_locator, overall_score, total_cost,
	total_retries, scenes_json, error_message, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record    Record
		status    string
		cacheHit  int
		scenes    string
		createdAt string
	)
	err := row.Scan(&record.ID, &record.JobID, &record.Title, &record.Author,
		&record.Language, &record.Mode, &status, &cacheHit,
		&record.VideoLocator, &record.SubtitleLocator, &record.OverallScore,
		&record.TotalCost, &record.TotalRetries, &scenes,
		&record.ErrorMessage, &createdAt)
	if err != nil {
		return Record{}, err
	}
	record.Status = Status(status)
	record.CacheHit = cacheHit != 0
	if scenes != "" {
		if err := json.Unmarshal([]byte(scenes), &record.Scenes); err != nil {
			return Record{}, fmt.Errorf("decode scene summaries: %w", err)
		}
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	record.CreatedAt = parsed
	return record, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
