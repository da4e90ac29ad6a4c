// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/taskboard/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// openMaxElapsed bounds how long New keeps retrying a locked database.
const openMaxElapsed = 10 * time.Second

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = openMaxElapsed
	ctx := context.Background()

	err = backoff.RetryNotify(func() error {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return classifyOpenError(fmt.Errorf("failed to enable foreign keys: %w", err))
		}
		if err := runMigrations(ctx, db); err != nil {
			return classifyOpenError(fmt.Errorf("failed to run migrations: %w", err))
		}
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		slog.Warn("Database busy, retrying", "path", dbPath, "error", err, "wait", wait)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// classifyOpenError marks everything except lock contention as permanent.
func classifyOpenError(err error) error {
	if isBusy(err) {
		return err
	}
	return backoff.Permanent(err)
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
