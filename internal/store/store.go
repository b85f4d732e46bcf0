// Package store provides the local SQLite store for the task reminder app.
//
// The database runs embedded with WAL mode so sync passes can read while the
// UI-facing call sites write. Every entity table carries a sync marker
// (sync_status for tasks, a synced flag elsewhere) so the sync engine can
// find dirty records without scanning payloads.
//
// Instants are stored as epoch milliseconds in INTEGER columns; NULL means
// absent. All writes are durable immediately regardless of sync outcome.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with entity-level operations.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The parent directory is created if needed. The caller MUST call Close()
// when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.conn.Exec(p); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	return s, nil
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the entity tables and indexes. Idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'PERSONAL',
		priority TEXT NOT NULL DEFAULT 'MEDIUM',
		recurrence TEXT NOT NULL DEFAULT 'ONCE',
		reminder_at INTEGER,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		is_completed INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER,
		is_accepted INTEGER NOT NULL DEFAULT 0,
		is_rejected INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,

		-- Sync metadata
		sync_status TEXT NOT NULL DEFAULT 'PENDING_UPLOAD',
		last_sync_attempt INTEGER,
		server_updated_at INTEGER,
		sync_error TEXT NOT NULL DEFAULT '',
		local_modified_at INTEGER NOT NULL,
		deleted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS task_progress (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER,
		ended_at INTEGER,
		duration_completed INTEGER NOT NULL DEFAULT 0,
		occurred_on INTEGER NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS user_streaks (
		user_id TEXT PRIMARY KEY,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_completed_date INTEGER,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		earned_at INTEGER NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);

	-- Indexes for per-user reads and dirty-record scans
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_sync ON tasks(sync_status);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(user_id, is_completed);
	CREATE INDEX IF NOT EXISTS idx_tasks_reminder ON tasks(reminder_at);
	CREATE INDEX IF NOT EXISTS idx_progress_user ON task_progress(user_id, synced);
	CREATE INDEX IF NOT EXISTS idx_progress_task ON task_progress(task_id);
	CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements(user_id, type);
	CREATE INDEX IF NOT EXISTS idx_achievements_sync ON achievements(user_id, synced);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// timeToMillis converts an optional instant to a nullable epoch-millis value.
func timeToMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// millisToTime converts a nullable epoch-millis value back to an instant.
func millisToTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64)
	return &t
}
