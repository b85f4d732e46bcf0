// Package model defines the entities shared by the local store, the remote
// document codec, and the sync engine: tasks, per-run progress records, the
// per-user streak, and earned achievements.
//
// Instants are carried as time.Time in memory; the store and the remote codec
// convert them to epoch milliseconds at their boundaries.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is a user-created reminder with schedule, priority, and category.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    Category
	Priority    Priority
	Recurrence  Recurrence

	// ReminderAt is when the user wants to be notified; nil means unscheduled.
	ReminderAt      *time.Time
	DurationMinutes int

	IsCompleted bool
	CompletedAt *time.Time
	IsAccepted  bool
	IsRejected  bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// Sync metadata. UpdatedAt drives last-writer-wins merging;
	// LocalModifiedAt tracks the last on-device mutation regardless of
	// whether it has reached the remote yet.
	SyncStatus      SyncStatus
	LastSyncAttempt *time.Time
	ServerUpdatedAt *time.Time
	SyncError       string
	LocalModifiedAt time.Time
	Deleted         bool
}

// NewTask creates a task owned by userID with defaults and a fresh id.
func NewTask(userID, title string, now time.Time) *Task {
	return &Task{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           title,
		Category:        CategoryPersonal,
		Priority:        PriorityMedium,
		Recurrence:      RecurrenceOnce,
		CreatedAt:       now,
		UpdatedAt:       now,
		SyncStatus:      StatusPendingUpload,
		LocalModifiedAt: now,
	}
}

// Touch records a local mutation: UpdatedAt must advance monotonically so
// last-writer-wins merging sees every edit, and the record goes back to
// pending upload.
func (t *Task) Touch(now time.Time) {
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Millisecond)
	}
	t.UpdatedAt = now
	t.LocalModifiedAt = now
	t.SyncStatus = StatusPendingUpload
}

// MarkCompleted flips the completion flag and stamps CompletedAt.
func (t *Task) MarkCompleted(now time.Time) {
	t.IsCompleted = true
	t.CompletedAt = &now
	t.Touch(now)
}

// Validate checks structural invariants before persisting or pushing.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("task user id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if t.IsCompleted != (t.CompletedAt != nil) {
		return fmt.Errorf("task %s: completedAt must be set exactly when isCompleted is true", t.ID)
	}
	return nil
}

// TaskProgress records one run (completed or abandoned) of a task's timer.
type TaskProgress struct {
	ID        string
	TaskID    string
	UserID    string
	Completed bool
	StartedAt *time.Time
	EndedAt   *time.Time

	// DurationCompleted is minutes of active timer, derived from start/end
	// minus paused time. Zero means absent (wire convention).
	DurationCompleted int

	// OccurredOn is the occurrence date, at date-only granularity.
	OccurredOn time.Time
	Synced     bool
}

// NewProgress creates a progress record for one run of taskID.
func NewProgress(userID, taskID string, completed bool, occurredOn time.Time) *TaskProgress {
	return &TaskProgress{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		UserID:     userID,
		Completed:  completed,
		OccurredOn: Midnight(occurredOn),
	}
}

// UserStreak is the singleton per-user streak record.
type UserStreak struct {
	UserID        string
	CurrentStreak int
	LongestStreak int

	// LastCompletedDate has date-only granularity; comparisons normalize
	// to midnight to survive DST boundaries.
	LastCompletedDate *time.Time
	Synced            bool
}

// Validate checks the streak ordering invariant.
func (s *UserStreak) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("streak user id is required")
	}
	if s.LongestStreak < s.CurrentStreak {
		return fmt.Errorf("streak for %s: longest (%d) below current (%d)",
			s.UserID, s.LongestStreak, s.CurrentStreak)
	}
	return nil
}

// Achievement is a milestone award. Description doubles as the
// de-duplication key: awarding rules check it for an embedded milestone
// number or category name before inserting.
type Achievement struct {
	ID          string
	UserID      string
	Type        AchievementType
	Title       string
	Description string
	EarnedAt    time.Time
	Synced      bool
}

// NewAchievement creates an award for userID.
func NewAchievement(userID string, typ AchievementType, title, description string, earnedAt time.Time) *Achievement {
	return &Achievement{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Description: description,
		EarnedAt:    earnedAt,
	}
}

// Midnight truncates t to the start of its calendar day in local time.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole-day difference between two instants.
// Both sides are normalized to midnight before dividing, so a raw
// millisecond delta taken mid-day can never drift the count.
func DaysBetween(earlier, later time.Time) int {
	a := Midnight(earlier)
	b := Midnight(later)
	return int(b.Sub(a).Milliseconds() / 86400000)
}
