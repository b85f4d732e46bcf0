// Package repo bridges entity kinds between the local store and the remote
// endpoint, applying one merge policy everywhere: push dirty records, mark
// the confirmed subset synced, pull the remote set, and merge by
// last-writer-wins on the update timestamp (append-only kinds degenerate to
// insert-if-absent).
//
// Sync routines never propagate errors: they log and return false so a bad
// pass can only fail itself, never crash the engine.
package repo

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aryan2621/tasker/internal/identity"
	"github.com/aryan2621/tasker/internal/model"
	"github.com/aryan2621/tasker/internal/remote"
	"github.com/aryan2621/tasker/internal/store"
	"github.com/aryan2621/tasker/internal/streak"
)

// TaskRepository owns the Task kind.
type TaskRepository struct {
	store    *store.Store
	client   remote.Client
	identity identity.Source
	streaks  *streak.Service
	logger   *log.Logger
	now      func() time.Time
}

// NewTaskRepository wires the task repository. The streak service is
// mandatory: completion bookkeeping must never be skipped.
func NewTaskRepository(st *store.Store, client remote.Client, src identity.Source, streaks *streak.Service, logger *log.Logger) *TaskRepository {
	if logger == nil {
		logger = log.New(os.Stderr, "[tasks] ", log.LstdFlags)
	}
	return &TaskRepository{
		store:    st,
		client:   client,
		identity: src,
		streaks:  streaks,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (r *TaskRepository) SetClock(now func() time.Time) { r.now = now }

// Create persists a new task locally as pending upload.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	if err := r.store.CreateTask(ctx, t); err != nil {
		return err
	}
	return nil
}

// Update persists a local edit. When the edit transitions the task from
// incomplete to complete it also records a progress row and triggers streak
// derivation before returning — whichever code path performed the update.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	prev, err := r.store.GetTask(ctx, t.ID)
	if err != nil {
		return err
	}

	now := r.now()
	t.Touch(now)
	if t.IsCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if !t.IsCompleted {
		t.CompletedAt = nil
	}

	if err := r.store.UpdateTask(ctx, t); err != nil {
		return err
	}

	if prev != nil && !prev.IsCompleted && t.IsCompleted {
		r.recordCompletion(ctx, t, now)
	}
	return nil
}

// Complete marks a task done. Completing an already-completed task is a
// no-op and does not touch the streak.
func (r *TaskRepository) Complete(ctx context.Context, taskID string) (*model.Task, error) {
	t, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	if t.IsCompleted {
		return t, nil
	}

	t.IsCompleted = true
	if err := r.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordRun stores one timer run against a task without completing it.
// durationMinutes of zero means the duration is unknown.
func (r *TaskRepository) RecordRun(ctx context.Context, taskID string, startedAt, endedAt time.Time, completed bool, durationMinutes int) error {
	t, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("task %s not found", taskID)
	}

	p := model.NewProgress(t.UserID, t.ID, completed, endedAt)
	p.StartedAt = &startedAt
	p.EndedAt = &endedAt
	p.DurationCompleted = durationMinutes
	return r.store.InsertProgress(ctx, p)
}

// recordCompletion persists the progress row for a completion and runs
// streak derivation. Derivation failures are logged, not propagated: the
// completion itself is already durable.
func (r *TaskRepository) recordCompletion(ctx context.Context, t *model.Task, now time.Time) {
	p := model.NewProgress(t.UserID, t.ID, true, now)
	p.StartedAt = t.ReminderAt
	p.EndedAt = &now
	if err := r.store.InsertProgress(ctx, p); err != nil {
		r.logger.Printf("WARNING: failed to record progress for task %s: %v", t.ID, err)
	}

	if _, err := r.streaks.RecordCompletion(ctx, t.UserID); err != nil {
		r.logger.Printf("WARNING: streak update for %s failed: %v", t.UserID, err)
	}
}

// Delete removes the task locally unconditionally, then best-effort requests
// remote deletion. A failed remote delete is logged and not retried here;
// the remote copy lingers until reconciled out of band.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	t, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if err := r.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}

	if t != nil && r.client.SignedIn() {
		if err := r.client.DeleteTask(ctx, t.UserID, taskID); err != nil {
			r.logger.Printf("WARNING: remote delete of task %s failed: %v", taskID, err)
		}
	}
	return nil
}

// List returns the current user's tasks using a two-tier read strategy:
// a scoped query when the cached user id is known, otherwise an unscoped
// read filtered in memory against the identity stream so the scope reacts
// if identity resolves after the read began.
func (r *TaskRepository) List(ctx context.Context, filter store.TaskFilter) ([]*model.Task, error) {
	if userID := r.identity.CurrentUserID(); userID != "" {
		filter.UserID = userID
		return r.store.ListTasks(ctx, filter)
	}

	all, err := r.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}

	userID := latestFromStream(r.identity.Stream())
	if userID == "" {
		return all, nil
	}
	var scoped []*model.Task
	for _, t := range all {
		if t.UserID == userID {
			scoped = append(scoped, t)
		}
	}
	return scoped, nil
}

// SyncData runs the task sync pass. Returns true only when every step
// finished without an unhandled error; errors are swallowed here, never
// propagated to the engine.
func (r *TaskRepository) SyncData(ctx context.Context) bool {
	if !r.client.SignedIn() {
		return false
	}
	userID := r.identity.CurrentUserID()

	dirty, err := r.store.PendingSyncTasks(ctx, userID)
	if err != nil {
		r.logger.Printf("task sync: reading dirty set failed: %v", err)
		return false
	}

	attempt := r.now()
	pushed, err := r.client.PushTasks(ctx, dirty)
	if err != nil {
		r.logger.Printf("task sync: push failed: %v", err)
		return false
	}

	confirmed := make(map[string]bool, len(pushed))
	for _, id := range pushed {
		confirmed[id] = true
	}
	for _, t := range dirty {
		if confirmed[t.ID] {
			if err := r.store.MarkTaskSynced(ctx, t.ID, t.UpdatedAt, attempt); err != nil {
				r.logger.Printf("task sync: marking %s synced failed: %v", t.ID, err)
				return false
			}
		} else {
			// Stays dirty; picked up again on the next pass.
			if err := r.store.RecordTaskSyncError(ctx, t.ID, "push rejected by remote", attempt); err != nil {
				r.logger.Printf("task sync: recording error on %s failed: %v", t.ID, err)
			}
		}
	}

	remoteTasks, err := r.client.PullTasks(ctx, userID)
	if err != nil {
		r.logger.Printf("task sync: pull failed: %v", err)
		return false
	}

	for _, rt := range remoteTasks {
		local, err := r.store.GetTask(ctx, rt.ID)
		if err != nil {
			r.logger.Printf("task sync: lookup of %s failed: %v", rt.ID, err)
			return false
		}
		// Last-writer-wins: the remote copy only replaces a local one
		// whose updatedAt is strictly earlier. Equal timestamps favor
		// the local copy to avoid redundant writes.
		if local != nil && !rt.UpdatedAt.After(local.UpdatedAt) {
			continue
		}
		if err := r.store.UpsertTask(ctx, rt); err != nil {
			r.logger.Printf("task sync: merge of %s failed: %v", rt.ID, err)
			return false
		}
	}

	return true
}

// DirtyCount reports how many tasks still need uploading.
func (r *TaskRepository) DirtyCount(ctx context.Context) (int, error) {
	return r.store.CountPendingSyncTasks(ctx, r.identity.CurrentUserID())
}

// latestFromStream drains whatever the identity stream has buffered and
// returns the freshest value, without blocking on future updates.
func latestFromStream(ch <-chan string) string {
	var latest string
	for {
		select {
		case v := <-ch:
			latest = v
		default:
			return latest
		}
	}
}
