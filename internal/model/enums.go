package model

import "fmt"

// Category classifies what area of life a task belongs to.
type Category string

const (
	CategoryWork     Category = "WORK"
	CategoryStudy    Category = "STUDY"
	CategoryHealth   Category = "HEALTH"
	CategoryPersonal Category = "PERSONAL"
	CategoryCustom   Category = "CUSTOM"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryWork, CategoryStudy, CategoryHealth, CategoryPersonal, CategoryCustom,
}

// ParseCategory converts a wire string into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Priority orders tasks for reminder urgency.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority converts a wire string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Recurrence controls how often a task's reminder repeats.
type Recurrence string

const (
	RecurrenceOnce    Recurrence = "ONCE"
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// ParseRecurrence converts a wire string into a Recurrence.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return Recurrence(s), nil
	}
	return "", fmt.Errorf("unknown recurrence %q", s)
}

// SyncStatus tracks where a task sits in the upload/download cycle.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "SYNCED"
	StatusPendingUpload SyncStatus = "PENDING_UPLOAD"
	StatusPendingDelete SyncStatus = "PENDING_DELETE"

	// StatusConflict is part of the wire vocabulary but no merge path
	// currently sets it: conflicting edits resolve by last-writer-wins
	// on the update timestamp instead.
	StatusConflict SyncStatus = "CONFLICT"

	StatusError SyncStatus = "ERROR"
)

// Dirty reports whether a record with this status still needs uploading.
func (s SyncStatus) Dirty() bool {
	return s != StatusSynced
}

// AchievementType names the rule that awarded an achievement.
type AchievementType string

const (
	AchievementStreakMilestone AchievementType = "STREAK_MILESTONE"
	AchievementTaskCount       AchievementType = "TASK_COUNT"
	AchievementCategoryMaster  AchievementType = "CATEGORY_MASTER"
	AchievementPerfectWeek     AchievementType = "PERFECT_WEEK"
	AchievementEarlyBird       AchievementType = "EARLY_BIRD"
	AchievementConsistency     AchievementType = "CONSISTENCY"
)
