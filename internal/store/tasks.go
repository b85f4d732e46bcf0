package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aryan2621/tasker/internal/model"
)

const taskColumns = `id, user_id, title, description, category, priority, recurrence,
	reminder_at, duration_minutes, is_completed, completed_at, is_accepted, is_rejected,
	created_at, updated_at, sync_status, last_sync_attempt, server_updated_at,
	sync_error, local_modified_at, deleted`

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query, taskArgs(t)...)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
	}
	return nil
}

// UpsertTask inserts or overwrites a task. Used by the merge path when a
// remote copy wins last-writer-wins.
func (s *Store) UpsertTask(ctx context.Context, t *model.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		title = excluded.title,
		description = excluded.description,
		category = excluded.category,
		priority = excluded.priority,
		recurrence = excluded.recurrence,
		reminder_at = excluded.reminder_at,
		duration_minutes = excluded.duration_minutes,
		is_completed = excluded.is_completed,
		completed_at = excluded.completed_at,
		is_accepted = excluded.is_accepted,
		is_rejected = excluded.is_rejected,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		sync_status = excluded.sync_status,
		last_sync_attempt = excluded.last_sync_attempt,
		server_updated_at = excluded.server_updated_at,
		sync_error = excluded.sync_error,
		local_modified_at = excluded.local_modified_at,
		deleted = excluded.deleted
	`
	_, err := s.conn.ExecContext(ctx, query, taskArgs(t)...)
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTask overwrites an existing task by id.
func (s *Store) UpdateTask(ctx context.Context, t *model.Task) error {
	return s.UpsertTask(ctx, t)
}

// DeleteTask removes a task row. Idempotent.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// GetTask retrieves a single task by id. Returns (nil, nil) when absent.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return t, nil
}

// TaskFilter configures ListTasks.
type TaskFilter struct {
	// UserID scopes results to one owner (empty = all users)
	UserID string
	// Completed filters by completion flag when non-nil
	Completed *bool
	// DirtyOnly restricts to records whose sync status is not SYNCED
	DirtyOnly bool
	// DueAfter/DueBefore bound the reminder instant
	DueAfter  *time.Time
	DueBefore *time.Time
	// IncludeDeleted keeps soft-deleted rows in the result
	IncludeDeleted bool
	// Limit restricts the number of results (0 = no limit)
	Limit int
}

// ListTasks retrieves tasks matching the filter, newest update first.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]*model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Completed != nil {
		conditions = append(conditions, "is_completed = ?")
		args = append(args, *filter.Completed)
	}
	if filter.DirtyOnly {
		conditions = append(conditions, "sync_status != ?")
		args = append(args, string(model.StatusSynced))
	}
	if filter.DueAfter != nil {
		conditions = append(conditions, "reminder_at >= ?")
		args = append(args, filter.DueAfter.UnixMilli())
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "reminder_at <= ?")
		args = append(args, filter.DueBefore.UnixMilli())
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = 0")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// PendingSyncTasks returns the dirty tasks for a user, oldest change first so
// uploads replay in modification order.
func (s *Store) PendingSyncTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND sync_status != ?
		ORDER BY local_modified_at ASC`,
		userID, string(model.StatusSynced))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CountPendingSyncTasks returns how many tasks still need uploading.
func (s *Store) CountPendingSyncTasks(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND sync_status != ?`,
		userID, string(model.StatusSynced)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return count, nil
}

// MarkTaskSynced atomically records a confirmed upload. Marking an
// already-synced task again is a no-op at the row level.
func (s *Store) MarkTaskSynced(ctx context.Context, id string, serverUpdatedAt, attemptedAt time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE tasks
		SET sync_status = ?, server_updated_at = ?, last_sync_attempt = ?, sync_error = ''
		WHERE id = ?`,
		string(model.StatusSynced), serverUpdatedAt.UnixMilli(), attemptedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task %s synced: %w", id, err)
	}
	return nil
}

// RecordTaskSyncError stamps a failed upload attempt. The record stays dirty
// and is retried on the next pass.
func (s *Store) RecordTaskSyncError(ctx context.Context, id, message string, attemptedAt time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE tasks
		SET sync_status = ?, last_sync_attempt = ?, sync_error = ?
		WHERE id = ?`,
		string(model.StatusError), attemptedAt.UnixMilli(), message, id)
	if err != nil {
		return fmt.Errorf("failed to record sync error for task %s: %w", id, err)
	}
	return nil
}

// CountCompletedTasks returns the user's total completed-task count.
func (s *Store) CountCompletedTasks(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND is_completed = 1 AND deleted = 0`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return count, nil
}

// CountCompletedByCategory groups the user's completed tasks by category.
func (s *Store) CountCompletedByCategory(ctx context.Context, userID string) (map[model.Category]int, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM tasks
		WHERE user_id = ? AND is_completed = 1 AND deleted = 0
		GROUP BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[model.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}
	return counts, nil
}

func taskArgs(t *model.Task) []interface{} {
	return []interface{}{
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		string(t.Category),
		string(t.Priority),
		string(t.Recurrence),
		timeToMillis(t.ReminderAt),
		t.DurationMinutes,
		t.IsCompleted,
		timeToMillis(t.CompletedAt),
		t.IsAccepted,
		t.IsRejected,
		t.CreatedAt.UnixMilli(),
		t.UpdatedAt.UnixMilli(),
		string(t.SyncStatus),
		timeToMillis(t.LastSyncAttempt),
		timeToMillis(t.ServerUpdatedAt),
		t.SyncError,
		t.LocalModifiedAt.UnixMilli(),
		t.Deleted,
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*model.Task, error) {
	var t model.Task
	var category, priority, recurrence, syncStatus string
	var reminderAt, completedAt, lastSyncAttempt, serverUpdatedAt sql.NullInt64
	var createdAt, updatedAt, localModifiedAt int64

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&category,
		&priority,
		&recurrence,
		&reminderAt,
		&t.DurationMinutes,
		&t.IsCompleted,
		&completedAt,
		&t.IsAccepted,
		&t.IsRejected,
		&createdAt,
		&updatedAt,
		&syncStatus,
		&lastSyncAttempt,
		&serverUpdatedAt,
		&t.SyncError,
		&localModifiedAt,
		&t.Deleted,
	)
	if err != nil {
		return nil, err
	}

	t.Category = model.Category(category)
	t.Priority = model.Priority(priority)
	t.Recurrence = model.Recurrence(recurrence)
	t.SyncStatus = model.SyncStatus(syncStatus)
	t.ReminderAt = millisToTime(reminderAt)
	t.CompletedAt = millisToTime(completedAt)
	t.LastSyncAttempt = millisToTime(lastSyncAttempt)
	t.ServerUpdatedAt = millisToTime(serverUpdatedAt)
	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updatedAt)
	t.LocalModifiedAt = time.UnixMilli(localModifiedAt)

	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}
