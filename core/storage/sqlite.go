package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS builds (
  id TEXT PRIMARY KEY,
  runtime TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT '',
  fingerprint TEXT NOT NULL,
  module_count INTEGER NOT NULL DEFAULT 0,
  bundle BLOB NOT NULL,
  created_at TIMESTAMP NOT NULL
)`

var indexSQL = []string{
	"CREATE INDEX IF NOT EXISTS idx_builds_fingerprint ON builds(fingerprint)",
	"CREATE INDEX IF NOT EXISTS idx_builds_runtime ON builds(runtime)",
	"CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at)",
}

const buildColumns = "id, runtime, source, fingerprint, module_count, bundle, created_at"

// SQLiteStore implements Store with SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens a SQLite build store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return NewSQLiteStoreFromDB(db), nil
}

// NewSQLiteStoreFromDB creates a build store from an existing connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// WithClock sets the time source used for CreatedAt.
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

// Migrate creates the builds table and its indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create table builds: %w", err)
	}
	for _, stmt := range indexSQL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Save inserts a build, generating its ID and timestamp when unset.
func (s *SQLiteStore) Save(ctx context.Context, b *Build) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	if b.Bundle == nil {
		b.Bundle = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds ("+buildColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Runtime, b.Source, b.Fingerprint, b.ModuleCount, b.Bundle, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Get retrieves a build by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+buildColumns+" FROM builds WHERE id = ?", id)
	return scanBuild(row)
}

// FindByFingerprint returns the most recent build with a fingerprint.
func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fingerprint string) (Build, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+buildColumns+" FROM builds WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1",
		fingerprint,
	)
	return scanBuild(row)
}

// List retrieves builds, newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Build, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	where := ""
	var args []any
	if opts.Runtime != "" {
		where = " WHERE runtime = ?"
		args = append(args, opts.Runtime)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM builds"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count builds: %w", err)
	}

	query := "SELECT " + buildColumns + " FROM builds" + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, 0, err
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list builds: %w", err)
	}
	return builds, total, nil
}

// Delete removes a build.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM builds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete build: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete build: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (Build, error) {
	var b Build
	err := row.Scan(&b.ID, &b.Runtime, &b.Source, &b.Fingerprint, &b.ModuleCount, &b.Bundle, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound
	}
	if err != nil {
		return Build{}, fmt.Errorf("scan build: %w", err)
	}
	return b, nil
}

var _ Store = (*SQLiteStore)(nil)
