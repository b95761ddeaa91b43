package analysis

import (
	"sync"
	"time"

	"github.com/signaldesk/signaldesk/internal/models"
)

// CommentaryCache keeps language-model commentary per token for a TTL so
// repeated analyses do not re-prompt the model.
type CommentaryCache struct {
	mu    sync.RWMutex
	cache map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	commentary models.Commentary
	storedAt   time.Time
}

// NewCommentaryCache creates a cache with the given TTL. A non-positive TTL
// disables caching.
func NewCommentaryCache(ttl time.Duration) *CommentaryCache {
	return &CommentaryCache{
		cache: make(map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached commentary for tokenID if it has not expired.
func (c *CommentaryCache) Get(tokenID string) (models.Commentary, bool) {
	if c == nil || c.ttl <= 0 {
		return models.Commentary{}, false
	}
	c.mu.RLock()
	entry, ok := c.cache[tokenID]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return models.Commentary{}, false
	}
	return entry.commentary, true
}

// Put stores commentary for tokenID and drops expired entries.
func (c *CommentaryCache) Put(tokenID string, commentary models.Commentary) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.cache {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.cache, k)
		}
	}
	c.cache[tokenID] = cacheEntry{commentary: commentary, storedAt: now}
}

// Len returns the number of stored entries, expired or not.
func (c *CommentaryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
