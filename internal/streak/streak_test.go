package streak

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/aryan2621/tasker/internal/model"
	"github.com/aryan2621/tasker/internal/store"
)

func testLogger(t *testing.T) *log.Logger {
	t.Helper()
	return log.New(io.Discard, "", 0)
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "tasker.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return st
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	jan5 := day(2024, time.January, 5)

	tests := []struct {
		name        string
		start       model.UserStreak
		today       time.Time
		wantCurrent int
		wantLongest int
		wantDate    time.Time
	}{
		{
			name:        "first completion ever",
			start:       model.UserStreak{UserID: "u"},
			today:       at(2024, time.January, 5, 14),
			wantCurrent: 1,
			wantLongest: 1,
			wantDate:    jan5,
		},
		{
			name: "same day is idempotent",
			start: model.UserStreak{
				UserID: "u", CurrentStreak: 3, LongestStreak: 5, LastCompletedDate: &jan5,
			},
			today:       at(2024, time.January, 5, 23),
			wantCurrent: 3,
			wantLongest: 5,
			wantDate:    jan5,
		},
		{
			name: "next day extends",
			start: model.UserStreak{
				UserID: "u", CurrentStreak: 3, LongestStreak: 5, LastCompletedDate: &jan5,
			},
			today:       at(2024, time.January, 6, 9),
			wantCurrent: 4,
			wantLongest: 5,
			wantDate:    day(2024, time.January, 6),
		},
		{
			name: "extension past longest raises longest",
			start: model.UserStreak{
				UserID: "u", CurrentStreak: 5, LongestStreak: 5, LastCompletedDate: &jan5,
			},
			today:       at(2024, time.January, 6, 9),
			wantCurrent: 6,
			wantLongest: 6,
			wantDate:    day(2024, time.January, 6),
		},
		{
			name: "gap resets but keeps longest",
			start: model.UserStreak{
				UserID: "u", CurrentStreak: 7, LongestStreak: 9, LastCompletedDate: &jan5,
			},
			today:       at(2024, time.January, 9, 9),
			wantCurrent: 1,
			wantLongest: 9,
			wantDate:    day(2024, time.January, 9),
		},
		{
			name: "late night then early morning still counts as next day",
			start: model.UserStreak{
				UserID: "u", CurrentStreak: 2, LongestStreak: 2,
				LastCompletedDate: func() *time.Time { d := at(2024, time.January, 5, 23); return &d }(),
			},
			today:       at(2024, time.January, 6, 0),
			wantCurrent: 3,
			wantLongest: 3,
			wantDate:    day(2024, time.January, 6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.start, tt.today)
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
			if got.LastCompletedDate == nil || !got.LastCompletedDate.Equal(tt.wantDate) {
				t.Errorf("LastCompletedDate = %v, want %v", got.LastCompletedDate, tt.wantDate)
			}
		})
	}
}

func TestRecordCompletionPersists(t *testing.T) {
	st := setupStore(t)
	svc := NewService(st, nil, testLogger(t))

	clock := at(2024, time.January, 5, 14)
	svc.SetClock(func() time.Time { return clock })
	ctx := context.Background()

	s, err := svc.RecordCompletion(ctx, "user-1")
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if s.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", s.CurrentStreak)
	}

	// Second completion the same day changes nothing.
	s, err = svc.RecordCompletion(ctx, "user-1")
	if err != nil {
		t.Fatalf("RecordCompletion (same day): %v", err)
	}
	if s.CurrentStreak != 1 {
		t.Errorf("CurrentStreak after same-day repeat = %d, want 1", s.CurrentStreak)
	}

	// Next day extends and the result is persisted.
	clock = at(2024, time.January, 6, 8)
	if _, err := svc.RecordCompletion(ctx, "user-1"); err != nil {
		t.Fatalf("RecordCompletion (next day): %v", err)
	}

	stored, err := st.GetStreak(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if stored.CurrentStreak != 2 || stored.LongestStreak != 2 {
		t.Errorf("stored streak = %+v, want current 2 longest 2", stored)
	}
	if stored.Synced {
		t.Error("streak marked synced without a remote push")
	}
}

func TestRecordCompletionAwardsMilestone(t *testing.T) {
	st := setupStore(t)
	svc := NewService(st, nil, testLogger(t))
	ctx := context.Background()

	jan5 := day(2024, time.January, 5)
	seed := &model.UserStreak{
		UserID:            "user-1",
		CurrentStreak:     6,
		LongestStreak:     10,
		LastCompletedDate: &jan5,
	}
	if err := st.UpsertStreak(ctx, seed); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	svc.SetClock(func() time.Time { return at(2024, time.January, 6, 9) })

	s, err := svc.RecordCompletion(ctx, "user-1")
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if s.CurrentStreak != 7 || s.LongestStreak != 10 {
		t.Errorf("streak = current %d longest %d, want 7/10", s.CurrentStreak, s.LongestStreak)
	}

	// The evaluation must see the extended streak, not the stale one.
	awards, err := st.AchievementsByType(ctx, "user-1", model.AchievementStreakMilestone)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("got %d streak awards, want 1", len(awards))
	}
	if awards[0].Title != "7 Day Streak!" {
		t.Errorf("Title = %q, want \"7 Day Streak!\"", awards[0].Title)
	}
}

func TestStreakMilestoneAward(t *testing.T) {
	st := setupStore(t)
	svc := NewService(st, nil, testLogger(t))

	clock := at(2024, time.January, 5, 10)
	svc.SetClock(func() time.Time { return clock })
	ctx := context.Background()

	if err := svc.EvaluateAchievements(ctx, "user-1", 3); err != nil {
		t.Fatalf("EvaluateAchievements: %v", err)
	}

	awards, err := st.AchievementsByType(ctx, "user-1", model.AchievementStreakMilestone)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("got %d streak awards, want 1", len(awards))
	}
	if awards[0].Title != "3 Day Streak!" {
		t.Errorf("Title = %q", awards[0].Title)
	}

	// Same milestone again must not double-award.
	if err := svc.EvaluateAchievements(ctx, "user-1", 3); err != nil {
		t.Fatalf("EvaluateAchievements (repeat): %v", err)
	}
	awards, err = st.AchievementsByType(ctx, "user-1", model.AchievementStreakMilestone)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Errorf("got %d streak awards after repeat, want 1", len(awards))
	}

	// Off-milestone values award nothing.
	if err := svc.EvaluateAchievements(ctx, "user-1", 4); err != nil {
		t.Fatalf("EvaluateAchievements (off milestone): %v", err)
	}
	awards, err = st.AchievementsByType(ctx, "user-1", model.AchievementStreakMilestone)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Errorf("got %d streak awards for non-milestone, want 1", len(awards))
	}
}

func TestTaskCountMilestoneAward(t *testing.T) {
	st := setupStore(t)
	svc := NewService(st, nil, testLogger(t))

	clock := at(2024, time.January, 5, 10)
	svc.SetClock(func() time.Time { return clock })
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		task := model.NewTask("user-1", "chore", clock)
		task.MarkCompleted(clock)
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	if err := svc.EvaluateAchievements(ctx, "user-1", 2); err != nil {
		t.Fatalf("EvaluateAchievements: %v", err)
	}

	awards, err := st.AchievementsByType(ctx, "user-1", model.AchievementTaskCount)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("got %d task-count awards, want 1", len(awards))
	}
	if awards[0].Title != "Task Master: 10" {
		t.Errorf("Title = %q", awards[0].Title)
	}
}

func TestCategoryMasterAward(t *testing.T) {
	st := setupStore(t)
	svc := NewService(st, nil, testLogger(t))

	clock := at(2024, time.January, 5, 10)
	svc.SetClock(func() time.Time { return clock })
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		task := model.NewTask("user-1", "workout", clock)
		task.Category = model.CategoryHealth
		task.MarkCompleted(clock)
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	if err := svc.EvaluateAchievements(ctx, "user-1", 2); err != nil {
		t.Fatalf("EvaluateAchievements: %v", err)
	}

	awards, err := st.AchievementsByType(ctx, "user-1", model.AchievementCategoryMaster)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("got %d category awards, want 1", len(awards))
	}
	if awards[0].Title != "Health Expert" {
		t.Errorf("Title = %q", awards[0].Title)
	}

	if err := svc.EvaluateAchievements(ctx, "user-1", 2); err != nil {
		t.Fatalf("EvaluateAchievements (repeat): %v", err)
	}
	awards, err = st.AchievementsByType(ctx, "user-1", model.AchievementCategoryMaster)
	if err != nil {
		t.Fatalf("AchievementsByType: %v", err)
	}
	if len(awards) != 1 {
		t.Errorf("got %d category awards after repeat, want 1", len(awards))
	}
}
