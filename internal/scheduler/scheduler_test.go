package scheduler

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/aryan2621/tasker/internal/connectivity"
)

type fakeEngine struct {
	mu     sync.Mutex
	calls  int
	result bool
}

func (f *fakeEngine) SyncAll(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConn struct{ online bool }

func (f *fakeConn) IsConnected() bool                 { return f.online }
func (f *fakeConn) Stream() <-chan connectivity.State { return make(chan connectivity.State) }

func testConfig() *Config {
	return &Config{
		Interval:       time.Hour,
		Flex:           0,
		InitialBackoff: time.Hour, // large so retry timers never fire mid-test
		MaxBackoff:     4 * time.Hour,
		Logger:         log.New(io.Discard, "", 0),
	}
}

func TestRunSkipsWhenOffline(t *testing.T) {
	engine := &fakeEngine{result: true}
	trigger := New(engine, &fakeConn{online: false}, testConfig())
	if err := trigger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trigger.Stop()

	trigger.run()
	if engine.callCount() != 0 {
		t.Errorf("engine invoked %d times while offline, want 0", engine.callCount())
	}
}

func TestBackoffDoublesAndResets(t *testing.T) {
	engine := &fakeEngine{result: false}
	trigger := New(engine, &fakeConn{online: true}, testConfig())
	if err := trigger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trigger.Stop()

	if got := trigger.NextBackoff(); got != time.Hour {
		t.Fatalf("initial backoff = %v, want 1h", got)
	}

	trigger.run()
	if got := trigger.NextBackoff(); got != 2*time.Hour {
		t.Errorf("backoff after one failure = %v, want 2h", got)
	}

	trigger.run()
	if got := trigger.NextBackoff(); got != 4*time.Hour {
		t.Errorf("backoff after two failures = %v, want 4h", got)
	}

	// Capped at MaxBackoff.
	trigger.run()
	if got := trigger.NextBackoff(); got != 4*time.Hour {
		t.Errorf("backoff past cap = %v, want 4h", got)
	}

	// A successful pass resets the ladder.
	engine.mu.Lock()
	engine.result = true
	engine.mu.Unlock()
	trigger.run()
	if got := trigger.NextBackoff(); got != time.Hour {
		t.Errorf("backoff after success = %v, want 1h", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	engine := &fakeEngine{result: true}
	trigger := New(engine, &fakeConn{online: true}, testConfig())

	if err := trigger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trigger.Stop()

	// Keep-existing policy: a second Start leaves the registration alone.
	if err := trigger.Start(context.Background()); err != nil {
		t.Errorf("second Start: %v", err)
	}
	if n := len(trigger.cron.Entries()); n != 1 {
		t.Errorf("cron entries = %d, want 1", n)
	}
}

func TestRetryInvokesEngineAgain(t *testing.T) {
	engine := &fakeEngine{result: false}
	config := testConfig()
	config.InitialBackoff = 10 * time.Millisecond
	config.MaxBackoff = 20 * time.Millisecond

	trigger := New(engine, &fakeConn{online: true}, config)
	if err := trigger.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer trigger.Stop()

	trigger.run()

	deadline := time.After(2 * time.Second)
	for engine.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("retry never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
