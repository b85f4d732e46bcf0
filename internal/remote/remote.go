// Package remote defines the contract with the backend document store and
// provides an HTTP implementation of it.
//
// Each entity kind lives in its own collection; documents are addressed by
// "{userId}_{localId}", except the singleton streak record which is keyed by
// the bare user id. Documents are flat key/value maps: enums serialize to
// their symbolic names, instants to epoch milliseconds, and absent optional
// numerics as 0 (reinterpreted as absent on read).
package remote

import (
	"context"

	"github.com/aryan2621/tasker/internal/model"
)

// Client bridges the four entity collections of the remote store.
//
// Push methods attempt each record independently and return the ids of the
// subset that was actually written. A record rejected by the backend is
// simply missing from that subset; Push never returns an error for
// individual record failures, only for conditions that prevent the whole
// call (no signed-in user, request construction failure).
//
// Pull methods return every document for the given user.
type Client interface {
	// SignedIn reports whether the endpoint has an authenticated user.
	// Sync routines return false immediately when it is not.
	SignedIn() bool

	PushTasks(ctx context.Context, tasks []*model.Task) ([]string, error)
	PullTasks(ctx context.Context, userID string) ([]*model.Task, error)

	// DeleteTask is best-effort: callers swallow the error and do not
	// retry through this path.
	DeleteTask(ctx context.Context, userID, taskID string) error

	PushProgress(ctx context.Context, records []*model.TaskProgress) ([]string, error)
	PullProgress(ctx context.Context, userID string) ([]*model.TaskProgress, error)

	PushAchievements(ctx context.Context, records []*model.Achievement) ([]string, error)
	PullAchievements(ctx context.Context, userID string) ([]*model.Achievement, error)

	// PushStreak writes the singleton streak document for its user.
	PushStreak(ctx context.Context, streak *model.UserStreak) error

	// PullStreak returns (nil, nil) when the user has no remote streak.
	PullStreak(ctx context.Context, userID string) (*model.UserStreak, error)
}

// DocID builds the document address for a per-record entity.
func DocID(userID, localID string) string {
	return userID + "_" + localID
}
