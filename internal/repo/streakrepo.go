package repo

import (
	"context"
	"log"
	"os"

	"github.com/aryan2621/tasker/internal/identity"
	"github.com/aryan2621/tasker/internal/model"
	"github.com/aryan2621/tasker/internal/remote"
	"github.com/aryan2621/tasker/internal/store"
)

// StreakRepository owns the singleton UserStreak kind.
//
// The streak record has no update timestamp of its own, so last-writer-wins
// runs on its nearest equivalent: lastCompletedDate. The remote copy wins
// only when its date is strictly later, and on that path longestStreak takes
// the maximum of both sides. When the local copy wins, the remote record is
// discarded whole.
type StreakRepository struct {
	store    *store.Store
	client   remote.Client
	identity identity.Source
	logger   *log.Logger
}

// NewStreakRepository wires the streak repository.
func NewStreakRepository(st *store.Store, client remote.Client, src identity.Source, logger *log.Logger) *StreakRepository {
	if logger == nil {
		logger = log.New(os.Stderr, "[streaks] ", log.LstdFlags)
	}
	return &StreakRepository{store: st, client: client, identity: src, logger: logger}
}

// Current returns the user's streak, or nil when none exists yet.
func (r *StreakRepository) Current(ctx context.Context) (*model.UserStreak, error) {
	return r.store.GetStreak(ctx, r.identity.CurrentUserID())
}

// SyncData runs the streak sync pass.
func (r *StreakRepository) SyncData(ctx context.Context) bool {
	if !r.client.SignedIn() {
		return false
	}
	userID := r.identity.CurrentUserID()

	dirty, err := r.store.UnsyncedStreaks(ctx, userID)
	if err != nil {
		r.logger.Printf("streak sync: reading dirty set failed: %v", err)
		return false
	}
	for _, s := range dirty {
		if err := r.client.PushStreak(ctx, s); err != nil {
			// Stays dirty; retried on the next pass.
			r.logger.Printf("streak sync: push for %s failed: %v", s.UserID, err)
			continue
		}
		if err := r.store.MarkStreakSynced(ctx, s.UserID); err != nil {
			r.logger.Printf("streak sync: marking %s synced failed: %v", s.UserID, err)
			return false
		}
	}

	remoteStreak, err := r.client.PullStreak(ctx, userID)
	if err != nil {
		r.logger.Printf("streak sync: pull failed: %v", err)
		return false
	}
	if remoteStreak == nil {
		return true
	}

	local, err := r.store.GetStreak(ctx, userID)
	if err != nil {
		r.logger.Printf("streak sync: local lookup failed: %v", err)
		return false
	}

	merged := mergeStreak(local, remoteStreak)
	if merged == nil {
		return true
	}
	if err := r.store.UpsertStreak(ctx, merged); err != nil {
		r.logger.Printf("streak sync: merge failed: %v", err)
		return false
	}
	return true
}

// mergeStreak decides what to write after a pull. Returns nil when the
// local copy already wins and no write is needed.
func mergeStreak(local, remote *model.UserStreak) *model.UserStreak {
	if local == nil {
		return remote
	}

	remoteLater := remote.LastCompletedDate != nil &&
		(local.LastCompletedDate == nil || remote.LastCompletedDate.After(*local.LastCompletedDate))
	if !remoteLater {
		return nil
	}

	merged := *remote
	if local.LongestStreak > merged.LongestStreak {
		merged.LongestStreak = local.LongestStreak
	}
	return &merged
}

// DirtyCount reports whether the streak record still needs uploading.
func (r *StreakRepository) DirtyCount(ctx context.Context) (int, error) {
	return r.store.CountUnsyncedStreaks(ctx, r.identity.CurrentUserID())
}
