package remote

import (
	"fmt"
	"time"

	"github.com/aryan2621/tasker/internal/model"
)

// Doc is a flat remote document.
type Doc map[string]interface{}

// TaskToDoc maps a task to its wire document. Sync bookkeeping columns stay
// local; updatedAt travels because it drives last-writer-wins merging on
// every device.
func TaskToDoc(t *model.Task) Doc {
	return Doc{
		"id":              t.ID,
		"userId":          t.UserID,
		"title":           t.Title,
		"description":     t.Description,
		"category":        string(t.Category),
		"priority":        string(t.Priority),
		"recurrence":      string(t.Recurrence),
		"reminderAt":      millisOrZero(t.ReminderAt),
		"durationMinutes": int64(t.DurationMinutes),
		"isCompleted":     t.IsCompleted,
		"completedAt":     millisOrZero(t.CompletedAt),
		"isAccepted":      t.IsAccepted,
		"isRejected":      t.IsRejected,
		"createdAt":       t.CreatedAt.UnixMilli(),
		"updatedAt":       t.UpdatedAt.UnixMilli(),
		"deleted":         t.Deleted,
	}
}

// TaskFromDoc rebuilds a task from its wire document. The record arrives
// marked SYNCED: it reflects server state until the next local edit.
func TaskFromDoc(d Doc) (*model.Task, error) {
	id := docString(d, "id")
	userID := docString(d, "userId")
	if id == "" || userID == "" {
		return nil, fmt.Errorf("task document missing id or userId")
	}

	category, err := model.ParseCategory(docString(d, "category"))
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	priority, err := model.ParsePriority(docString(d, "priority"))
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	recurrence, err := model.ParseRecurrence(docString(d, "recurrence"))
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}

	updatedAt := docMillis(d, "updatedAt")
	t := &model.Task{
		ID:              id,
		UserID:          userID,
		Title:           docString(d, "title"),
		Description:     docString(d, "description"),
		Category:        category,
		Priority:        priority,
		Recurrence:      recurrence,
		ReminderAt:      docOptionalMillis(d, "reminderAt"),
		DurationMinutes: int(docInt(d, "durationMinutes")),
		IsCompleted:     docBool(d, "isCompleted"),
		CompletedAt:     docOptionalMillis(d, "completedAt"),
		IsAccepted:      docBool(d, "isAccepted"),
		IsRejected:      docBool(d, "isRejected"),
		CreatedAt:       updatedAt, // overwritten below when present
		UpdatedAt:       updatedAt,
		SyncStatus:      model.StatusSynced,
		ServerUpdatedAt: &updatedAt,
		LocalModifiedAt: updatedAt,
		Deleted:         docBool(d, "deleted"),
	}
	if created := docOptionalMillis(d, "createdAt"); created != nil {
		t.CreatedAt = *created
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("malformed task document: %w", err)
	}
	return t, nil
}

// ProgressToDoc maps a progress record to its wire document.
func ProgressToDoc(p *model.TaskProgress) Doc {
	return Doc{
		"id":                p.ID,
		"taskId":            p.TaskID,
		"userId":            p.UserID,
		"completed":         p.Completed,
		"startedAt":         millisOrZero(p.StartedAt),
		"endedAt":           millisOrZero(p.EndedAt),
		"durationCompleted": int64(p.DurationCompleted),
		"occurredOn":        p.OccurredOn.UnixMilli(),
	}
}

// ProgressFromDoc rebuilds a progress record; it arrives already synced.
func ProgressFromDoc(d Doc) (*model.TaskProgress, error) {
	id := docString(d, "id")
	if id == "" {
		return nil, fmt.Errorf("progress document missing id")
	}
	return &model.TaskProgress{
		ID:                id,
		TaskID:            docString(d, "taskId"),
		UserID:            docString(d, "userId"),
		Completed:         docBool(d, "completed"),
		StartedAt:         docOptionalMillis(d, "startedAt"),
		EndedAt:           docOptionalMillis(d, "endedAt"),
		DurationCompleted: int(docInt(d, "durationCompleted")),
		OccurredOn:        docMillis(d, "occurredOn"),
		Synced:            true,
	}, nil
}

// StreakToDoc maps the singleton streak record to its wire document.
func StreakToDoc(s *model.UserStreak) Doc {
	return Doc{
		"userId":            s.UserID,
		"currentStreak":     int64(s.CurrentStreak),
		"longestStreak":     int64(s.LongestStreak),
		"lastCompletedDate": millisOrZero(s.LastCompletedDate),
	}
}

// StreakFromDoc rebuilds a streak record; it arrives already synced.
func StreakFromDoc(d Doc) (*model.UserStreak, error) {
	userID := docString(d, "userId")
	if userID == "" {
		return nil, fmt.Errorf("streak document missing userId")
	}
	s := &model.UserStreak{
		UserID:            userID,
		CurrentStreak:     int(docInt(d, "currentStreak")),
		LongestStreak:     int(docInt(d, "longestStreak")),
		LastCompletedDate: docOptionalMillis(d, "lastCompletedDate"),
		Synced:            true,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("malformed streak document: %w", err)
	}
	return s, nil
}

// AchievementToDoc maps an award to its wire document.
func AchievementToDoc(a *model.Achievement) Doc {
	return Doc{
		"id":          a.ID,
		"userId":      a.UserID,
		"type":        string(a.Type),
		"title":       a.Title,
		"description": a.Description,
		"earnedAt":    a.EarnedAt.UnixMilli(),
	}
}

// AchievementFromDoc rebuilds an award; it arrives already synced.
func AchievementFromDoc(d Doc) (*model.Achievement, error) {
	id := docString(d, "id")
	if id == "" {
		return nil, fmt.Errorf("achievement document missing id")
	}
	return &model.Achievement{
		ID:          id,
		UserID:      docString(d, "userId"),
		Type:        model.AchievementType(docString(d, "type")),
		Title:       docString(d, "title"),
		Description: docString(d, "description"),
		EarnedAt:    docMillis(d, "earnedAt"),
		Synced:      true,
	}, nil
}

// millisOrZero serializes an optional instant; absent becomes 0. A genuine
// epoch-0 instant is therefore indistinguishable from absent on the wire.
// The convention predates this implementation and is preserved for
// compatibility.
func millisOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func docString(d Doc, key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func docBool(d Doc, key string) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return false
}

// docInt reads a numeric field, tolerating the float64 that encoding/json
// produces for untyped documents.
func docInt(d Doc, key string) int64 {
	switch v := d[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func docMillis(d Doc, key string) time.Time {
	return time.UnixMilli(docInt(d, key))
}

// docOptionalMillis reads an optional instant field, treating 0 as absent.
func docOptionalMillis(d Doc, key string) *time.Time {
	n := docInt(d, key)
	if n == 0 {
		return nil
	}
	t := time.UnixMilli(n)
	return &t
}
