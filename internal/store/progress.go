package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aryan2621/tasker/internal/model"
)

const progressColumns = `id, task_id, user_id, completed, started_at, ended_at,
	duration_completed, occurred_on, synced`

// InsertProgress records one run of a task's timer.
func (s *Store) InsertProgress(ctx context.Context, p *model.TaskProgress) error {
	query := `
	INSERT INTO task_progress (` + progressColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query, progressArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to insert progress %s: %w", p.ID, err)
	}
	return nil
}

// InsertProgressIfAbsent inserts a pulled remote record unless a local copy
// with the same id already exists. Returns true when a row was written.
// Progress records are append-only, so merge never overwrites.
func (s *Store) InsertProgressIfAbsent(ctx context.Context, p *model.TaskProgress) (bool, error) {
	query := `
	INSERT OR IGNORE INTO task_progress (` + progressColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.conn.ExecContext(ctx, query, progressArgs(p)...)
	if err != nil {
		return false, fmt.Errorf("failed to merge progress %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read merge result for progress %s: %w", p.ID, err)
	}
	return n > 0, nil
}

// UnsyncedProgress returns progress records not yet pushed for a user.
func (s *Store) UnsyncedProgress(ctx context.Context, userID string) ([]*model.TaskProgress, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+progressColumns+` FROM task_progress
		WHERE user_id = ? AND synced = 0
		ORDER BY occurred_on ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced progress: %w", err)
	}
	defer rows.Close()

	return scanProgressRows(rows)
}

// CountUnsyncedProgress returns how many progress records still need pushing.
func (s *Store) CountUnsyncedProgress(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_progress WHERE user_id = ? AND synced = 0`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced progress: %w", err)
	}
	return count, nil
}

// MarkProgressSynced flips the synced flag for a confirmed upload. No-op if
// the record is already synced.
func (s *Store) MarkProgressSynced(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE task_progress SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark progress %s synced: %w", id, err)
	}
	return nil
}

// ProgressForTask lists the runs recorded against one task, oldest first.
func (s *Store) ProgressForTask(ctx context.Context, taskID string) ([]*model.TaskProgress, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+progressColumns+` FROM task_progress
		WHERE task_id = ?
		ORDER BY occurred_on ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress for task %s: %w", taskID, err)
	}
	defer rows.Close()

	return scanProgressRows(rows)
}

func progressArgs(p *model.TaskProgress) []interface{} {
	return []interface{}{
		p.ID,
		p.TaskID,
		p.UserID,
		p.Completed,
		timeToMillis(p.StartedAt),
		timeToMillis(p.EndedAt),
		p.DurationCompleted,
		p.OccurredOn.UnixMilli(),
		p.Synced,
	}
}

func scanProgressRows(rows *sql.Rows) ([]*model.TaskProgress, error) {
	var out []*model.TaskProgress
	for rows.Next() {
		var p model.TaskProgress
		var startedAt, endedAt sql.NullInt64
		var occurredOn int64

		err := rows.Scan(
			&p.ID,
			&p.TaskID,
			&p.UserID,
			&p.Completed,
			&startedAt,
			&endedAt,
			&p.DurationCompleted,
			&occurredOn,
			&p.Synced,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}

		p.StartedAt = millisToTime(startedAt)
		p.EndedAt = millisToTime(endedAt)
		p.OccurredOn = time.UnixMilli(occurredOn)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress: %w", err)
	}
	return out, nil
}
