// Package scheduler provides the background sync trigger: a periodic pass
// on a cron schedule plus exponential-backoff one-shot retries after a
// failed pass. Constraints (network required, backoff policy) live here as
// configuration; the engine itself never retries.
package scheduler

import (
	"context"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aryan2621/tasker/internal/connectivity"
)

// Engine is the slice of the sync engine the trigger drives.
type Engine interface {
	SyncAll(ctx context.Context) bool
}

// Config holds trigger settings.
type Config struct {
	// Interval between periodic passes
	Interval time.Duration
	// Flex randomly delays each periodic pass by up to this much so many
	// devices don't hit the backend on the same tick
	Flex time.Duration
	// InitialBackoff seeds the retry delay after a failed pass
	InitialBackoff time.Duration
	// MaxBackoff caps the retry delay
	MaxBackoff time.Duration
	// Logger for trigger activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval:       30 * time.Minute,
		Flex:           5 * time.Minute,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     15 * time.Minute,
		Logger:         log.New(os.Stderr, "[scheduler] ", log.LstdFlags),
	}
}

// Trigger schedules sync passes.
type Trigger struct {
	engine Engine
	conn   connectivity.Observer
	config *Config
	cron   *cron.Cron
	entry  cron.EntryID

	mu         sync.Mutex
	retryTimer *time.Timer
	backoff    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a trigger. Call Start to begin scheduling.
func New(engine Engine, conn connectivity.Observer, config *Config) *Trigger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[scheduler] ", log.LstdFlags)
	}
	return &Trigger{
		engine:  engine,
		conn:    conn,
		config:  config,
		cron:    cron.New(),
		backoff: config.InitialBackoff,
	}
}

// Start registers the periodic pass and starts the cron runner. Calling
// Start on an already-started trigger keeps the existing registration.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entry != 0 {
		// Keep-existing policy for duplicate periodic scheduling.
		return nil
	}

	t.ctx, t.cancel = context.WithCancel(ctx)

	entry, err := t.cron.AddFunc("@every "+t.config.Interval.String(), t.runPeriodic)
	if err != nil {
		return err
	}
	t.entry = entry
	t.cron.Start()

	t.config.Logger.Printf("periodic sync every %s (flex %s)", t.config.Interval, t.config.Flex)
	return nil
}

// Stop halts the cron runner and any pending retry.
func (t *Trigger) Stop() {
	t.mu.Lock()
	if t.retryTimer != nil {
		t.retryTimer.Stop()
		t.retryTimer = nil
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	<-t.cron.Stop().Done()
}

// runPeriodic is the cron entry point.
func (t *Trigger) runPeriodic() {
	if t.config.Flex > 0 {
		delay := time.Duration(rand.Int63n(int64(t.config.Flex)))
		select {
		case <-time.After(delay):
		case <-t.ctx.Done():
			return
		}
	}
	t.run()
}

// run fires one pass if the network constraint is met, and arms a backoff
// retry when the pass fails.
func (t *Trigger) run() {
	if t.ctx.Err() != nil {
		return
	}
	if !t.conn.IsConnected() {
		t.config.Logger.Printf("skipping scheduled sync: no network")
		return
	}

	if t.engine.SyncAll(t.ctx) {
		t.resetBackoff()
		return
	}
	t.scheduleRetry()
}

// scheduleRetry arms a one-shot retry, replacing any already pending one,
// and doubles the delay for the next failure.
func (t *Trigger) scheduleRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.retryTimer != nil {
		t.retryTimer.Stop()
	}

	delay := t.backoff
	t.backoff *= 2
	if t.backoff > t.config.MaxBackoff {
		t.backoff = t.config.MaxBackoff
	}

	t.config.Logger.Printf("sync failed, retrying in %s", delay)
	t.retryTimer = time.AfterFunc(delay, t.run)
}

func (t *Trigger) resetBackoff() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backoff = t.config.InitialBackoff
	if t.retryTimer != nil {
		t.retryTimer.Stop()
		t.retryTimer = nil
	}
}

// NextBackoff exposes the pending retry delay. Intended for tests and the
// status command.
func (t *Trigger) NextBackoff() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backoff
}
