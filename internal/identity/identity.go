// Package identity provides the authenticated-user cache consumed by the
// sync engine and the repositories.
//
// The cached id may be stale or empty immediately after process start: the
// read paths that depend on it fall back to unscoped reads plus in-memory
// filtering until the id resolves (see internal/repo).
package identity

import (
	"os"
	"strings"
	"sync"
)

// Source reports the current authenticated user.
type Source interface {
	// CurrentUserID returns the synchronously cached user id, or "" when
	// no user is signed in or identity has not resolved yet.
	CurrentUserID() string

	// IsAuthenticated reports whether a user id is currently cached.
	IsAuthenticated() bool

	// Stream returns a channel that receives the user id on every sign-in
	// and "" on sign-out. The current value is delivered first so late
	// subscribers converge.
	Stream() <-chan string
}

// Cache is the in-process Source implementation.
type Cache struct {
	mu     sync.RWMutex
	userID string
	subs   []chan string
}

// NewCache creates an empty identity cache.
func NewCache() *Cache {
	return &Cache{}
}

// NewCacheFromTokenFile seeds the cache from a token file containing the
// user id. A missing file is not an error; the cache just starts empty.
func NewCacheFromTokenFile(path string) *Cache {
	c := NewCache()
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	c.SetUser(strings.TrimSpace(string(data)))
	return c
}

// CurrentUserID implements Source.
func (c *Cache) CurrentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// IsAuthenticated implements Source.
func (c *Cache) IsAuthenticated() bool {
	return c.CurrentUserID() != ""
}

// Stream implements Source.
func (c *Cache) Stream() <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan string, 4)
	ch <- c.userID
	c.subs = append(c.subs, ch)
	return ch
}

// SetUser caches a signed-in user id and notifies subscribers.
func (c *Cache) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == userID {
		return
	}
	c.userID = userID

	for _, ch := range c.subs {
		// Drop rather than block: a slow subscriber must not stall
		// sign-in, and it re-reads the cache on its next cycle anyway.
		select {
		case ch <- userID:
		default:
		}
	}
}

// Clear signs the user out.
func (c *Cache) Clear() {
	c.SetUser("")
}
