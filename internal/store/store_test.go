package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aryan2621/tasker/internal/model"
)

// setupStore opens a real SQLite database in a temp directory.
func setupStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "tasker.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return st
}

func TestTaskCRUD(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	task := model.NewTask("user-1", "water the plants", now)
	task.Description = "before noon"
	task.Category = model.CategoryHealth
	reminder := now.Add(2 * time.Hour)
	task.ReminderAt = &reminder

	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask returned nil for existing task")
	}
	if got.Title != task.Title || got.Category != model.CategoryHealth {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	if got.ReminderAt == nil || !got.ReminderAt.Equal(reminder) {
		t.Errorf("ReminderAt = %v, want %v", got.ReminderAt, reminder)
	}
	if got.SyncStatus != model.StatusPendingUpload {
		t.Errorf("SyncStatus = %v, want %v", got.SyncStatus, model.StatusPendingUpload)
	}

	got.Title = "water all the plants"
	got.Touch(now.Add(time.Minute))
	if err := st.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	again, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask after update: %v", err)
	}
	if again.Title != "water all the plants" {
		t.Errorf("Title = %q after update", again.Title)
	}

	if err := st.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	gone, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask after delete: %v", err)
	}
	if gone != nil {
		t.Error("task still present after delete")
	}

	// Deleting again must not error.
	if err := st.DeleteTask(ctx, task.ID); err != nil {
		t.Errorf("DeleteTask (idempotent): %v", err)
	}
}

func TestGetTaskAbsent(t *testing.T) {
	st := setupStore(t)

	got, err := st.GetTask(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got != nil {
		t.Errorf("GetTask = %+v, want nil", got)
	}
}

func TestPendingSyncTasks(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	dirty := model.NewTask("user-1", "dirty", now)
	clean := model.NewTask("user-1", "clean", now)
	other := model.NewTask("user-2", "other user", now)

	for _, task := range []*model.Task{dirty, clean, other} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	server := now.Add(time.Second)
	if err := st.MarkTaskSynced(ctx, clean.ID, server, server); err != nil {
		t.Fatalf("MarkTaskSynced: %v", err)
	}

	pending, err := st.PendingSyncTasks(ctx, "user-1")
	if err != nil {
		t.Fatalf("PendingSyncTasks: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != dirty.ID {
		t.Errorf("PendingSyncTasks = %d tasks, want just %s", len(pending), dirty.ID)
	}

	count, err := st.CountPendingSyncTasks(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountPendingSyncTasks: %v", err)
	}
	if count != 1 {
		t.Errorf("CountPendingSyncTasks = %d, want 1", count)
	}

	synced, err := st.GetTask(ctx, clean.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if synced.SyncStatus != model.StatusSynced {
		t.Errorf("SyncStatus = %v, want SYNCED", synced.SyncStatus)
	}
	if synced.ServerUpdatedAt == nil || !synced.ServerUpdatedAt.Equal(server) {
		t.Errorf("ServerUpdatedAt = %v, want %v", synced.ServerUpdatedAt, server)
	}
}

func TestRecordTaskSyncError(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	task := model.NewTask("user-1", "rejected", now)
	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := st.RecordTaskSyncError(ctx, task.ID, "server said no", now.Add(time.Second)); err != nil {
		t.Fatalf("RecordTaskSyncError: %v", err)
	}

	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.SyncStatus != model.StatusError {
		t.Errorf("SyncStatus = %v, want ERROR", got.SyncStatus)
	}
	if got.SyncError != "server said no" {
		t.Errorf("SyncError = %q", got.SyncError)
	}

	// Errored records stay in the pending set for the next pass.
	count, err := st.CountPendingSyncTasks(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountPendingSyncTasks: %v", err)
	}
	if count != 1 {
		t.Errorf("CountPendingSyncTasks = %d, want 1", count)
	}
}

func TestListTasksFilter(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	open := model.NewTask("user-1", "open", now)
	done := model.NewTask("user-1", "done", now)
	done.MarkCompleted(now.Add(time.Minute))

	for _, task := range []*model.Task{open, done} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	isDone := true
	completed, err := st.ListTasks(ctx, TaskFilter{UserID: "user-1", Completed: &isDone})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Errorf("completed filter returned %d tasks", len(completed))
	}

	notDone := false
	opens, err := st.ListTasks(ctx, TaskFilter{UserID: "user-1", Completed: &notDone})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(opens) != 1 || opens[0].ID != open.ID {
		t.Errorf("open filter returned %d tasks", len(opens))
	}
}

func TestCompletedCounts(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		task := model.NewTask("user-1", "work item", now)
		task.Category = model.CategoryWork
		task.MarkCompleted(now)
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	openTask := model.NewTask("user-1", "not done", now)
	openTask.Category = model.CategoryWork
	if err := st.CreateTask(ctx, openTask); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	total, err := st.CountCompletedTasks(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountCompletedTasks: %v", err)
	}
	if total != 3 {
		t.Errorf("CountCompletedTasks = %d, want 3", total)
	}

	byCategory, err := st.CountCompletedByCategory(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountCompletedByCategory: %v", err)
	}
	if byCategory[model.CategoryWork] != 3 {
		t.Errorf("CountCompletedByCategory[WORK] = %d, want 3", byCategory[model.CategoryWork])
	}
}

func TestProgressIfAbsent(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	p := model.NewProgress("user-1", "task-1", true, now)
	inserted, err := st.InsertProgressIfAbsent(ctx, p)
	if err != nil {
		t.Fatalf("InsertProgressIfAbsent: %v", err)
	}
	if !inserted {
		t.Error("first insert reported not inserted")
	}

	again, err := st.InsertProgressIfAbsent(ctx, p)
	if err != nil {
		t.Fatalf("InsertProgressIfAbsent (repeat): %v", err)
	}
	if again {
		t.Error("duplicate insert reported inserted")
	}
}

func TestStreakRoundTrip(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	got, err := st.GetStreak(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if got != nil {
		t.Fatalf("GetStreak = %+v, want nil before first upsert", got)
	}

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	s := &model.UserStreak{UserID: "user-1", CurrentStreak: 2, LongestStreak: 4, LastCompletedDate: &day}
	if err := st.UpsertStreak(ctx, s); err != nil {
		t.Fatalf("UpsertStreak: %v", err)
	}

	got, err = st.GetStreak(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetStreak: %v", err)
	}
	if got.CurrentStreak != 2 || got.LongestStreak != 4 {
		t.Errorf("GetStreak = %+v", got)
	}
	if got.LastCompletedDate == nil || !got.LastCompletedDate.Equal(day) {
		t.Errorf("LastCompletedDate = %v, want %v", got.LastCompletedDate, day)
	}

	count, err := st.CountUnsyncedStreaks(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountUnsyncedStreaks: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUnsyncedStreaks = %d, want 1", count)
	}

	if err := st.MarkStreakSynced(ctx, "user-1"); err != nil {
		t.Fatalf("MarkStreakSynced: %v", err)
	}
	count, err = st.CountUnsyncedStreaks(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountUnsyncedStreaks: %v", err)
	}
	if count != 0 {
		t.Errorf("CountUnsyncedStreaks after mark = %d, want 0", count)
	}
}

func TestUpsertStreakRejectsInvalid(t *testing.T) {
	st := setupStore(t)

	bad := &model.UserStreak{UserID: "user-1", CurrentStreak: 3, LongestStreak: 1}
	if err := st.UpsertStreak(context.Background(), bad); err == nil {
		t.Error("UpsertStreak accepted longest below current")
	}
}
