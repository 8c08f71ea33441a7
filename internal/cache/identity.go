package cache

import (
	"sync"
	"time"

	"github.com/globaltelecom/voicebridge/internal/types"
)

// entry pairs a resolved profile with its insertion time
type entry struct {
	profile  types.CallerProfile
	storedAt time.Time
}

// IdentityCache stores resolved caller profiles in memory with a fixed TTL.
// Entries past their TTL read as absent and are evicted on access. Writes to
// the same key overwrite.
type IdentityCache struct {
	entries map[string]entry
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

// NewIdentityCache creates a new identity cache with the given TTL
func NewIdentityCache(ttl time.Duration) *IdentityCache {
	return &IdentityCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached profile for key, or false if absent or expired
func (c *IdentityCache) Get(key string) (types.CallerProfile, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return types.CallerProfile{}, false
	}

	if c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return types.CallerProfile{}, false
	}

	return e.profile, true
}

// Put stores a profile under key, replacing any existing entry
func (c *IdentityCache) Put(key string, profile types.CallerProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{profile: profile, storedAt: c.now()}
}

// Size returns the current number of cached entries, expired or not
func (c *IdentityCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
