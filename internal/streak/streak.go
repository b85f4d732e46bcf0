// Package streak derives streak state and achievement awards from task
// completions.
//
// Advance is a pure function so the calendar rules are testable without a
// store; Service wires it to persistence and the remote endpoint.
package streak

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aryan2621/tasker/internal/model"
	"github.com/aryan2621/tasker/internal/remote"
	"github.com/aryan2621/tasker/internal/store"
)

// Advance computes the streak state after a completion on day `today`.
//
// Day distance is measured on midnight-normalized dates:
//   - no prior completion: streak starts at 1
//   - same day: unchanged, so repeated completions are idempotent
//   - exactly one day later: streak extends, longest tracks the maximum
//   - more than one day later: streak resets to 1, longest is untouched
func Advance(s model.UserStreak, today time.Time) model.UserStreak {
	day := model.Midnight(today)

	if s.LastCompletedDate == nil {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.LastCompletedDate = &day
		return s
	}

	switch diff := model.DaysBetween(*s.LastCompletedDate, today); {
	case diff == 0:
		// Already counted something today.
	case diff == 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastCompletedDate = &day
	default:
		s.CurrentStreak = 1
		s.LastCompletedDate = &day
	}
	return s
}

// Service persists streak updates and evaluates achievement rules.
type Service struct {
	store  *store.Store
	client remote.Client
	logger *log.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates the derivation service. If logger is nil, a default
// logger writing to stderr is used.
func NewService(st *store.Store, client remote.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[streak] ", log.LstdFlags)
	}
	return &Service{
		store:  st,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RecordCompletion updates the user's streak for a completion happening now,
// persists it locally as unsynced, best-effort pushes it to the remote
// endpoint, and then evaluates achievement rules against the new state.
//
// The local write is the source of truth: a failed remote push only delays
// propagation and never blocks the update.
func (s *Service) RecordCompletion(ctx context.Context, userID string) (*model.UserStreak, error) {
	today := s.now()

	current, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &model.UserStreak{UserID: userID}
	}

	next := Advance(*current, today)
	next.Synced = false

	if err := s.store.UpsertStreak(ctx, &next); err != nil {
		return nil, err
	}

	if s.client != nil && s.client.SignedIn() {
		if err := s.client.PushStreak(ctx, &next); err != nil {
			s.logger.Printf("WARNING: streak push for %s failed, will retry on next sync: %v", userID, err)
		} else {
			next.Synced = true
			if err := s.store.MarkStreakSynced(ctx, userID); err != nil {
				s.logger.Printf("WARNING: failed to mark streak synced: %v", err)
			}
		}
	}

	if err := s.EvaluateAchievements(ctx, userID, next.CurrentStreak); err != nil {
		s.logger.Printf("WARNING: achievement evaluation for %s failed: %v", userID, err)
	}

	return &next, nil
}
