package auth

import (
	"sync"

	"github.com/orgkit-dev/orgkit/pkg/storage"
)

// Credentials owns the persisted token pair. It is the only writer of the
// auth_token and refresh_token keys, and it maintains the pair invariant:
// both keys are written together and removed together.
type Credentials struct {
	mu    sync.Mutex
	store storage.Store
}

// NewCredentials creates a credential store over the given backend.
func NewCredentials(store storage.Store) *Credentials {
	return &Credentials{store: store}
}

// Load returns the stored pair. ok is false when either key is missing;
// a half-written pair is treated as absent.
func (c *Credentials) Load() (pair TokenPair, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	access, okA := c.store.Get(KeyAccessToken)
	refresh, okR := c.store.Get(KeyRefreshToken)
	if !okA || !okR {
		return TokenPair{}, false
	}
	return TokenPair{Access: access, Refresh: refresh}, true
}

// Save persists the pair, replacing any previous one.
func (c *Credentials) Save(pair TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Set(KeyAccessToken, pair.Access)
	c.store.Set(KeyRefreshToken, pair.Refresh)
}

// Clear removes both keys.
func (c *Credentials) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Remove(KeyAccessToken)
	c.store.Remove(KeyRefreshToken)
}
