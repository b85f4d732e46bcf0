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

// AchievementRepository owns the Achievement kind. Awards are append-only:
// merge inserts missing records and never overwrites.
type AchievementRepository struct {
	store    *store.Store
	client   remote.Client
	identity identity.Source
	logger   *log.Logger
}

// NewAchievementRepository wires the achievement repository.
func NewAchievementRepository(st *store.Store, client remote.Client, src identity.Source, logger *log.Logger) *AchievementRepository {
	if logger == nil {
		logger = log.New(os.Stderr, "[achievements] ", log.LstdFlags)
	}
	return &AchievementRepository{store: st, client: client, identity: src, logger: logger}
}

// List returns the current user's awards, two-tier scoped like task reads.
func (r *AchievementRepository) List(ctx context.Context) ([]*model.Achievement, error) {
	userID := r.identity.CurrentUserID()
	if userID != "" {
		return r.store.AchievementsForUser(ctx, userID)
	}

	userID = latestFromStream(r.identity.Stream())
	if userID == "" {
		return nil, nil
	}
	return r.store.AchievementsForUser(ctx, userID)
}

// SyncData runs the achievement sync pass.
func (r *AchievementRepository) SyncData(ctx context.Context) bool {
	if !r.client.SignedIn() {
		return false
	}
	userID := r.identity.CurrentUserID()

	dirty, err := r.store.UnsyncedAchievements(ctx, userID)
	if err != nil {
		r.logger.Printf("achievement sync: reading dirty set failed: %v", err)
		return false
	}

	pushed, err := r.client.PushAchievements(ctx, dirty)
	if err != nil {
		r.logger.Printf("achievement sync: push failed: %v", err)
		return false
	}
	for _, id := range pushed {
		if err := r.store.MarkAchievementSynced(ctx, id); err != nil {
			r.logger.Printf("achievement sync: marking %s synced failed: %v", id, err)
			return false
		}
	}

	records, err := r.client.PullAchievements(ctx, userID)
	if err != nil {
		r.logger.Printf("achievement sync: pull failed: %v", err)
		return false
	}
	for _, a := range records {
		if _, err := r.store.InsertAchievementIfAbsent(ctx, a); err != nil {
			r.logger.Printf("achievement sync: merge of %s failed: %v", a.ID, err)
			return false
		}
	}

	return true
}

// DirtyCount reports how many awards still need uploading.
func (r *AchievementRepository) DirtyCount(ctx context.Context) (int, error) {
	return r.store.CountUnsyncedAchievements(ctx, r.identity.CurrentUserID())
}
