// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Opens the database, creates the schema and applies idempotent migrations

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != MemoryPath {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS clients (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			phone      TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

		-- Personal profile, one row per preference key
		CREATE TABLE IF NOT EXISTS preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS activity_log (
			activity_id TEXT PRIMARY KEY,
			action      TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			ts          TEXT NOT NULL,
			detail_json TEXT,

			CHECK (action IN (
				'client_created',
				'client_updated',
				'client_deleted',
				'profile_saved'
			))
		);

		CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity_log(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_activity_target ON activity_log(target_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('clients') WHERE name = 'created_at'`,
			apply:  `ALTER TABLE clients ADD COLUMN created_at TEXT NOT NULL DEFAULT ''`,
			column: "created_at",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('clients') WHERE name = 'updated_at'`,
			apply:  `ALTER TABLE clients ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`,
			column: "updated_at",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to clients: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "clients")
	}

	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTime stores timestamps as RFC3339 UTC text with nanoseconds.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tolerates the empty default that migrated rows carry.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
