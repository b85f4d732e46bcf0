package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aryan2621/tasker/internal/model"
)

const achievementColumns = `id, user_id, type, title, description, earned_at, synced`

// InsertAchievement records a newly earned award.
func (s *Store) InsertAchievement(ctx context.Context, a *model.Achievement) error {
	query := `
	INSERT INTO achievements (` + achievementColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query, achievementArgs(a)...)
	if err != nil {
		return fmt.Errorf("failed to insert achievement %s: %w", a.ID, err)
	}
	return nil
}

// InsertAchievementIfAbsent inserts a pulled remote award unless a local copy
// with the same id exists. Achievements are append-only, so merge never
// overwrites. Returns true when a row was written.
func (s *Store) InsertAchievementIfAbsent(ctx context.Context, a *model.Achievement) (bool, error) {
	query := `
	INSERT OR IGNORE INTO achievements (` + achievementColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.conn.ExecContext(ctx, query, achievementArgs(a)...)
	if err != nil {
		return false, fmt.Errorf("failed to merge achievement %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read merge result for achievement %s: %w", a.ID, err)
	}
	return n > 0, nil
}

// AchievementsForUser lists all awards for a user, newest first.
func (s *Store) AchievementsForUser(ctx context.Context, userID string) ([]*model.Achievement, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+achievementColumns+` FROM achievements
		WHERE user_id = ?
		ORDER BY earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	return scanAchievements(rows)
}

// AchievementsByType lists a user's awards of one type. The awarding rules
// scan the descriptions of these for their milestone substring before
// inserting a duplicate.
func (s *Store) AchievementsByType(ctx context.Context, userID string, typ model.AchievementType) ([]*model.Achievement, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+achievementColumns+` FROM achievements
		WHERE user_id = ? AND type = ?
		ORDER BY earned_at ASC`, userID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements by type: %w", err)
	}
	defer rows.Close()

	return scanAchievements(rows)
}

// UnsyncedAchievements returns awards not yet pushed for a user.
func (s *Store) UnsyncedAchievements(ctx context.Context, userID string) ([]*model.Achievement, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+achievementColumns+` FROM achievements
		WHERE user_id = ? AND synced = 0
		ORDER BY earned_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced achievements: %w", err)
	}
	defer rows.Close()

	return scanAchievements(rows)
}

// CountUnsyncedAchievements returns how many awards still need pushing.
func (s *Store) CountUnsyncedAchievements(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM achievements WHERE user_id = ? AND synced = 0`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced achievements: %w", err)
	}
	return count, nil
}

// MarkAchievementSynced flips the synced flag after a confirmed push.
func (s *Store) MarkAchievementSynced(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE achievements SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark achievement %s synced: %w", id, err)
	}
	return nil
}

func achievementArgs(a *model.Achievement) []interface{} {
	return []interface{}{
		a.ID,
		a.UserID,
		string(a.Type),
		a.Title,
		a.Description,
		a.EarnedAt.UnixMilli(),
		a.Synced,
	}
}

func scanAchievements(rows *sql.Rows) ([]*model.Achievement, error) {
	var out []*model.Achievement
	for rows.Next() {
		var a model.Achievement
		var typ string
		var earnedAt int64

		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&typ,
			&a.Title,
			&a.Description,
			&earnedAt,
			&a.Synced,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		a.Type = model.AchievementType(typ)
		a.EarnedAt = time.UnixMilli(earnedAt)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return out, nil
}
