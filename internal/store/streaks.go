package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aryan2621/tasker/internal/model"
)

// GetStreak retrieves the singleton streak record for a user.
// Returns (nil, nil) when the user has no streak yet.
func (s *Store) GetStreak(ctx context.Context, userID string) (*model.UserStreak, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT user_id, current_streak, longest_streak, last_completed_date, synced
		FROM user_streaks WHERE user_id = ?`, userID)

	var streak model.UserStreak
	var lastCompleted sql.NullInt64

	err := row.Scan(
		&streak.UserID,
		&streak.CurrentStreak,
		&streak.LongestStreak,
		&lastCompleted,
		&streak.Synced,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak for %s: %w", userID, err)
	}

	streak.LastCompletedDate = millisToTime(lastCompleted)
	return &streak, nil
}

// UpsertStreak writes the user's streak record, creating it on first use.
func (s *Store) UpsertStreak(ctx context.Context, streak *model.UserStreak) error {
	if err := streak.Validate(); err != nil {
		return fmt.Errorf("invalid streak: %w", err)
	}

	query := `
	INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_completed_date, synced)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		current_streak = excluded.current_streak,
		longest_streak = excluded.longest_streak,
		last_completed_date = excluded.last_completed_date,
		synced = excluded.synced
	`
	var lastCompleted sql.NullInt64
	if streak.LastCompletedDate != nil {
		lastCompleted = sql.NullInt64{Int64: streak.LastCompletedDate.UnixMilli(), Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, query,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		lastCompleted,
		streak.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert streak for %s: %w", streak.UserID, err)
	}
	return nil
}

// UnsyncedStreaks returns streak records not yet pushed. At most one exists
// per user, but the slice shape matches the other dirty-record queries.
func (s *Store) UnsyncedStreaks(ctx context.Context, userID string) ([]*model.UserStreak, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT user_id, current_streak, longest_streak, last_completed_date, synced
		FROM user_streaks WHERE user_id = ? AND synced = 0`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced streaks: %w", err)
	}
	defer rows.Close()

	var out []*model.UserStreak
	for rows.Next() {
		var streak model.UserStreak
		var lastCompleted sql.NullInt64
		if err := rows.Scan(
			&streak.UserID,
			&streak.CurrentStreak,
			&streak.LongestStreak,
			&lastCompleted,
			&streak.Synced,
		); err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		streak.LastCompletedDate = millisToTime(lastCompleted)
		out = append(out, &streak)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating streaks: %w", err)
	}
	return out, nil
}

// CountUnsyncedStreaks returns 0 or 1 for a single user.
func (s *Store) CountUnsyncedStreaks(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_streaks WHERE user_id = ? AND synced = 0`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced streaks: %w", err)
	}
	return count, nil
}

// MarkStreakSynced flips the synced flag after a confirmed push.
func (s *Store) MarkStreakSynced(ctx context.Context, userID string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE user_streaks SET synced = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark streak for %s synced: %w", userID, err)
	}
	return nil
}
