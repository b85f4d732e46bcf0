package repo

import (
	"context"
	"log"
	"os"

	"github.com/aryan2621/tasker/internal/identity"
	"github.com/aryan2621/tasker/internal/remote"
	"github.com/aryan2621/tasker/internal/store"
)

// ProgressRepository owns the TaskProgress kind. Progress records are
// append-only: merge inserts missing records and never overwrites.
type ProgressRepository struct {
	store    *store.Store
	client   remote.Client
	identity identity.Source
	logger   *log.Logger
}

// NewProgressRepository wires the progress repository.
func NewProgressRepository(st *store.Store, client remote.Client, src identity.Source, logger *log.Logger) *ProgressRepository {
	if logger == nil {
		logger = log.New(os.Stderr, "[progress] ", log.LstdFlags)
	}
	return &ProgressRepository{store: st, client: client, identity: src, logger: logger}
}

// SyncData runs the progress sync pass.
func (r *ProgressRepository) SyncData(ctx context.Context) bool {
	if !r.client.SignedIn() {
		return false
	}
	userID := r.identity.CurrentUserID()

	dirty, err := r.store.UnsyncedProgress(ctx, userID)
	if err != nil {
		r.logger.Printf("progress sync: reading dirty set failed: %v", err)
		return false
	}

	pushed, err := r.client.PushProgress(ctx, dirty)
	if err != nil {
		r.logger.Printf("progress sync: push failed: %v", err)
		return false
	}
	for _, id := range pushed {
		if err := r.store.MarkProgressSynced(ctx, id); err != nil {
			r.logger.Printf("progress sync: marking %s synced failed: %v", id, err)
			return false
		}
	}

	records, err := r.client.PullProgress(ctx, userID)
	if err != nil {
		r.logger.Printf("progress sync: pull failed: %v", err)
		return false
	}
	for _, p := range records {
		if _, err := r.store.InsertProgressIfAbsent(ctx, p); err != nil {
			r.logger.Printf("progress sync: merge of %s failed: %v", p.ID, err)
			return false
		}
	}

	return true
}

// DirtyCount reports how many progress records still need uploading.
func (r *ProgressRepository) DirtyCount(ctx context.Context) (int, error) {
	return r.store.CountUnsyncedProgress(ctx, r.identity.CurrentUserID())
}
