// Package sync coordinates synchronization of all entity kinds between the
// local store and the remote endpoint.
//
// One engine instance exists per process. It is invoked from three racing
// call sites — the background scheduler, manual "sync now" commands, and
// connectivity-regained callbacks — and serializes them with try-lock
// boolean flags only: a rejected attempt returns false immediately and is
// never queued. Per-kind passes cannot overlap themselves, and the global
// pass cannot overlap itself.
//
// The engine never propagates a failure to its caller: repository errors
// surface as false results, and a panicking pass is converted into a
// failure result for its kind.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aryan2621/tasker/internal/connectivity"
	"github.com/aryan2621/tasker/internal/identity"
)

// KindSyncer is the slice of an entity repository the engine drives.
type KindSyncer interface {
	// SyncData runs one push/pull/merge pass. It returns false on any
	// failure and must never panic the caller intentionally.
	SyncData(ctx context.Context) bool

	// DirtyCount reports how many records still need uploading.
	DirtyCount(ctx context.Context) (int, error)
}

// Engine orchestrates per-kind sync passes.
type Engine struct {
	syncers  map[Kind]KindSyncer
	conn     connectivity.Observer
	identity identity.Source
	logger   *log.Logger

	// Try-lock flags: one per kind plus one for the global pass.
	flags  map[Kind]*atomic.Bool
	global atomic.Bool

	mu      sync.RWMutex
	state   State
	results map[Kind]Result
	subs    []chan State

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the engine. Call Start to enable connectivity-triggered
// passes and Close to tear the engine down.
func New(tasks, progress, achievements, streaks KindSyncer, conn connectivity.Observer, src identity.Source, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	flags := make(map[Kind]*atomic.Bool, len(Kinds))
	for _, k := range Kinds {
		flags[k] = &atomic.Bool{}
	}

	return &Engine{
		syncers: map[Kind]KindSyncer{
			KindTasks:        tasks,
			KindProgress:     progress,
			KindAchievements: achievements,
			KindStreaks:      streaks,
		},
		conn:     conn,
		identity: src,
		logger:   logger,
		flags:    flags,
		state:    State{Phase: PhaseIdle},
		results:  make(map[Kind]Result),
	}
}

// Start subscribes to the connectivity stream for the engine's lifetime and
// attempts a sync on every transition to reachable. Close cancels the
// subscription.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	stream := e.conn.Stream()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-stream:
				if st.Online {
					e.logger.Printf("connectivity regained, attempting sync")
					e.AttemptSync(ctx)
				}
			}
		}
	}()
}

// Close cancels the connectivity subscription and waits for launched work
// to finish. In-flight passes run to completion; their flags are released
// by deferred cleanup even when the context is already cancelled.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// SyncAll runs the four per-kind passes in fixed order and reports whether
// all of them succeeded.
//
// Preconditions are checked before the global flag is taken: no network or
// no user fails fast with a published Error state and no per-kind locks
// acquired. A second concurrent SyncAll loses the compare-and-set and
// returns false without touching any collaborator.
func (e *Engine) SyncAll(ctx context.Context) bool {
	if !e.conn.IsConnected() {
		e.setState(State{Phase: PhaseError, Message: "no network connection", At: time.Now()})
		return false
	}
	if !e.identity.IsAuthenticated() {
		e.setState(State{Phase: PhaseError, Message: "not signed in", At: time.Now()})
		return false
	}
	if !e.global.CompareAndSwap(false, true) {
		return false
	}
	defer e.global.Store(false)

	e.setState(State{Phase: PhaseSyncing, Message: "syncing all data", At: time.Now()})

	ok := true
	for _, kind := range Kinds {
		ok = e.syncKind(ctx, kind) && ok
	}

	if ok {
		e.setState(State{Phase: PhaseSuccess, Message: "all data synced", At: time.Now()})
	} else {
		e.setState(State{Phase: PhaseError, Message: "one or more kinds failed to sync", At: time.Now()})
	}
	return ok
}

// SyncTasks runs only the task pass.
func (e *Engine) SyncTasks(ctx context.Context) bool { return e.syncKind(ctx, KindTasks) }

// SyncProgress runs only the progress pass.
func (e *Engine) SyncProgress(ctx context.Context) bool { return e.syncKind(ctx, KindProgress) }

// SyncAchievements runs only the achievement pass.
func (e *Engine) SyncAchievements(ctx context.Context) bool {
	return e.syncKind(ctx, KindAchievements)
}

// SyncStreaks runs only the streak pass.
func (e *Engine) SyncStreaks(ctx context.Context) bool { return e.syncKind(ctx, KindStreaks) }

// syncKind re-validates preconditions, takes the kind's try-lock, delegates
// to the repository, and records the result. The flag is released on every
// exit path, including panics, so a wedged pass cannot block future ones.
func (e *Engine) syncKind(ctx context.Context, kind Kind) (ok bool) {
	if !e.conn.IsConnected() {
		e.record(kind, false, "no network connection")
		return false
	}
	if !e.identity.IsAuthenticated() {
		e.record(kind, false, "not signed in")
		return false
	}

	flag := e.flags[kind]
	if !flag.CompareAndSwap(false, true) {
		// A pass for this kind is already running; it owns the result
		// slot. Fail fast without touching the network collaborator.
		return false
	}
	defer flag.Store(false)

	defer func() {
		if p := recover(); p != nil {
			e.logger.Printf("PANIC in %s sync: %v", kind, p)
			e.record(kind, false, fmt.Sprintf("internal error: %v", p))
			ok = false
		}
	}()

	ok = e.syncers[kind].SyncData(ctx)
	if ok {
		e.record(kind, true, fmt.Sprintf("%s synced", kind))
	} else {
		e.record(kind, false, fmt.Sprintf("%s sync failed", kind))
	}
	return ok
}

// AttemptSync fires a full pass in the background when it would plausibly
// succeed. The checks here only avoid launching doomed work; SyncAll
// re-validates everything, so this gate carries no correctness weight.
func (e *Engine) AttemptSync(ctx context.Context) {
	if !e.conn.IsConnected() || !e.identity.IsAuthenticated() || e.global.Load() {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.SyncAll(ctx)
	}()
}

// SyncSpecific fires a single-kind pass in the background. Unknown kinds
// are ignored.
func (e *Engine) SyncSpecific(ctx context.Context, kind Kind) {
	if _, known := e.syncers[kind]; !known {
		e.logger.Printf("WARNING: ignoring sync request for unknown kind %q", kind)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.syncKind(ctx, kind)
	}()
}

// SyncCounts returns the count of locally-dirty records per kind, or an
// empty map when no user is authenticated. Per-kind query failures are
// logged and reported as zero rather than failing the whole snapshot.
func (e *Engine) SyncCounts(ctx context.Context) map[Kind]int {
	counts := make(map[Kind]int)
	if !e.identity.IsAuthenticated() {
		return counts
	}

	for kind, syncer := range e.syncers {
		n, err := syncer.DirtyCount(ctx)
		if err != nil {
			e.logger.Printf("WARNING: dirty count for %s failed: %v", kind, err)
			continue
		}
		counts[kind] = n
	}
	return counts
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Results returns a snapshot of the last per-kind results.
func (e *Engine) Results() map[Kind]Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[Kind]Result, len(e.results))
	for k, r := range e.results {
		out[k] = r
	}
	return out
}

// Subscribe returns a channel that receives every state transition. The
// current state is delivered first so late subscribers converge.
func (e *Engine) Subscribe() <-chan State {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan State, 8)
	ch <- e.state
	e.subs = append(e.subs, ch)
	return ch
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = s
	for _, ch := range e.subs {
		// Drop rather than block: a stalled subscriber must not stall
		// the sync pass, and it can re-read State() at any time.
		select {
		case ch <- s:
		default:
		}
	}
}

func (e *Engine) record(kind Kind, success bool, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[kind] = Result{Success: success, Message: message, Timestamp: time.Now()}
}
