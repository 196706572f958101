package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned when a requested record doesn't exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by strict inserts when the same job was already recorded
var ErrDuplicate = errors.New("duplicate record")

// ErrBadCriteria is returned for empty or unknown criteria keys
var ErrBadCriteria = errors.New("bad criteria")

// ErrInvalidRecord is returned when a record misses a required field
var ErrInvalidRecord = errors.New("invalid record")

// Criteria is an exact-match filter, column name -> value
type Criteria map[string]any

// SQLiteStore implements persistence using SQLite
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and initializes its schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sqlx.Open("sqlite", dbPath+sep+"_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Printf("[DEBUG] sqlite store ready at %s", dbPath)
	return s, nil
}

// initialize creates the database schema
func (s *SQLiteStore) initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ardora (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course INTEGER NOT NULL,
			name TEXT NOT NULL,
			ardora_id TEXT NOT NULL,
			intro TEXT NOT NULL DEFAULT '',
			introformat INTEGER NOT NULL DEFAULT 0,
			tobemigrated INTEGER NOT NULL DEFAULT 0,
			legacyfiles INTEGER NOT NULL DEFAULT 0,
			legacyfileslast INTEGER,
			display INTEGER NOT NULL DEFAULT 0,
			displayoptions TEXT NOT NULL DEFAULT '',
			filterfiles INTEGER NOT NULL DEFAULT 0,
			revision INTEGER NOT NULL DEFAULT 1,
			grademax REAL NOT NULL DEFAULT 100,
			timemodified INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ardora_course_ardora_id ON ardora(course, ardora_id)`,
		`CREATE TABLE IF NOT EXISTS ardora_jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			courseid INTEGER NOT NULL DEFAULT 0,
			userid INTEGER NOT NULL,
			datajob TEXT NOT NULL,
			datajob_ts INTEGER NOT NULL DEFAULT 0,
			father TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			paq_name TEXT NOT NULL DEFAULT '',
			ardora_id TEXT NOT NULL,
			activity TEXT NOT NULL DEFAULT '',
			hstart TEXT NOT NULL DEFAULT '',
			hend TEXT NOT NULL DEFAULT '',
			attemps INTEGER NOT NULL DEFAULT 0,
			points REAL NOT NULL DEFAULT 0,
			state INTEGER NOT NULL DEFAULT 0,
			typegrade TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ardora_jobs_lookup ON ardora_jobs(ardora_id, father, paq_name, activity)`,
		`CREATE INDEX IF NOT EXISTS idx_ardora_jobs_datajob_ts ON ardora_jobs(ardora_id, datajob_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_ardora_jobs_user ON ardora_jobs(userid, ardora_id, datajob)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// whereClause builds " WHERE a = ? AND b = ?" from criteria, keys sorted for stable SQL.
// Only keys present in allowed are accepted.
func whereClause(c Criteria, allowed map[string]bool) (string, []any, error) {
	if len(c) == 0 {
		return "", nil, fmt.Errorf("%w: empty", ErrBadCriteria)
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		if !allowed[k] {
			return "", nil, fmt.Errorf("%w: unknown key %q", ErrBadCriteria, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, k+" = ?")
		args = append(args, c[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// inTx runs fn in a transaction, rolled back on error
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nowUnix() int64 { return time.Now().Unix() }
