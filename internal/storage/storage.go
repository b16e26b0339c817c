package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"tapline/internal/config"
)

// ErrUnavailable marks local persistence failures. Operations wrapping it are
// fatal to the affected call but must never crash the capture path.
var ErrUnavailable = errors.New("local storage unavailable")

// DB wraps the SQLite connection shared by the roster and queue stores.
type DB struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the offline database and applies
// migrations.
func Open(cfg *config.Config) (*DB, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, dbPath, err)
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

	handle := &DB{db: db, path: dbPath}
	if err := handle.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return handle, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file location.
func (d *DB) Path() string { return d.path }

// Handle exposes the raw connection to the store packages.
func (d *DB) Handle() *sql.DB { return d.db }

// Unavailable wraps a driver error with the storage sentinel while keeping
// the operation context readable.
func Unavailable(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, operation, err)
}
