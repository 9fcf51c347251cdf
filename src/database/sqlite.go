package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/khabaroff/lms-admin/src/logging"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// MemoryPath opens a private in-memory store
const MemoryPath = ":memory:"

// SQLite is the embedded single-file store
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (and creates if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	var dsn string
	if path == MemoryPath || path == "" {
		dsn = MemoryPath
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite doesn't support concurrent writers; an in-memory database also
	// lives only as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	// Foreign keys are off by default in SQLite
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	logger := logging.NewLogger("database")
	logger.Info().Str("driver", "sqlite").Str("path", path).Msg("Database schema initialized")

	return &SQLite{db: db}, nil
}

// NewSQLiteFromDB wraps an existing handle without touching the schema
func NewSQLiteFromDB(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

// DB returns the underlying handle
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Health pings the database
func (s *SQLite) Health(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.db.PingContext(ctx)
}

// Driver names the backing store
func (s *SQLite) Driver() string {
	return "sqlite"
}
