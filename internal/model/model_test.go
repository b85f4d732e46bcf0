package model

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name    string
		earlier time.Time
		later   time.Time
		want    int
	}{
		{
			name:    "same day different hours",
			earlier: time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC),
			later:   time.Date(2024, 1, 5, 0, 1, 0, 0, time.UTC),
			want:    0,
		},
		{
			name:    "consecutive days late then early",
			earlier: time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC),
			later:   time.Date(2024, 1, 6, 0, 30, 0, 0, time.UTC),
			want:    1,
		},
		{
			name:    "consecutive days less than 24h apart",
			earlier: time.Date(2024, 1, 5, 22, 0, 0, 0, time.UTC),
			later:   time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC),
			want:    1,
		},
		{
			name:    "two day gap",
			earlier: time.Date(2024, 1, 5, 1, 0, 0, 0, time.UTC),
			later:   time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC),
			want:    2,
		},
		{
			name:    "month boundary",
			earlier: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			later:   time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.earlier, tt.later); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTouchMonotonic(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	task := NewTask("user-1", "write tests", now)

	// A wall clock that stands still (or runs backwards) must still
	// advance UpdatedAt, or last-writer-wins would drop the edit.
	task.Touch(now)
	if !task.UpdatedAt.After(now) {
		t.Errorf("UpdatedAt = %v, want after %v", task.UpdatedAt, now)
	}

	earlier := now.Add(-time.Hour)
	before := task.UpdatedAt
	task.Touch(earlier)
	if !task.UpdatedAt.After(before) {
		t.Errorf("UpdatedAt = %v, want after %v", task.UpdatedAt, before)
	}

	if task.SyncStatus != StatusPendingUpload {
		t.Errorf("SyncStatus = %v, want %v", task.SyncStatus, StatusPendingUpload)
	}
}

func TestTaskValidate(t *testing.T) {
	now := time.Now()

	valid := NewTask("user-1", "ok", now)
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid task: %v", err)
	}

	completed := NewTask("user-1", "done", now)
	completed.MarkCompleted(now)
	if err := completed.Validate(); err != nil {
		t.Errorf("Validate() on completed task: %v", err)
	}

	inconsistent := NewTask("user-1", "bad", now)
	inconsistent.IsCompleted = true
	if err := inconsistent.Validate(); err == nil {
		t.Error("Validate() accepted isCompleted without completedAt")
	}

	noTitle := NewTask("user-1", "", now)
	if err := noTitle.Validate(); err == nil {
		t.Error("Validate() accepted empty title")
	}
}

func TestStreakValidate(t *testing.T) {
	s := &UserStreak{UserID: "user-1", CurrentStreak: 5, LongestStreak: 3}
	if err := s.Validate(); err == nil {
		t.Error("Validate() accepted longest below current")
	}

	s.LongestStreak = 5
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() on valid streak: %v", err)
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseCategory("WORK"); err != nil {
		t.Errorf("ParseCategory(WORK): %v", err)
	}
	if _, err := ParseCategory("GARDENING"); err == nil {
		t.Error("ParseCategory accepted unknown value")
	}
	if _, err := ParsePriority("HIGH"); err != nil {
		t.Errorf("ParsePriority(HIGH): %v", err)
	}
	if _, err := ParseRecurrence("WEEKLY"); err != nil {
		t.Errorf("ParseRecurrence(WEEKLY): %v", err)
	}
}

func TestSyncStatusDirty(t *testing.T) {
	if StatusSynced.Dirty() {
		t.Error("SYNCED should not be dirty")
	}
	for _, s := range []SyncStatus{StatusPendingUpload, StatusError, StatusConflict} {
		if !s.Dirty() {
			t.Errorf("%s should be dirty", s)
		}
	}
}
