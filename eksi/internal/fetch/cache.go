package fetch

import (
	"context"
	"sync"
	"time"
)

// Cache memoises successful fetches by URL for a fixed TTL. It decorates any
// Client; expired entries are evicted on access. Only successful results are
// cached, so a transient fetch failure does not poison the window.
type Cache struct {
	inner Client
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  *Result
	expires time.Time
}

// NewCache wraps inner with a TTL memo. Default TTL: 15 minutes.
func NewCache(inner Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns a cached result when one is fresh, otherwise delegates to
// the inner client and stores the outcome.
func (c *Cache) Fetch(ctx context.Context, url string) (*Result, error) {
	c.mu.Lock()
	c.evictLocked()
	if e, ok := c.entries[url]; ok {
		c.mu.Unlock()
		return e.result, nil
	}
	c.mu.Unlock()

	res, err := c.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[url] = cacheEntry{result: res, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return res, nil
}

// Len reports the number of live cache entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
	return len(c.entries)
}

func (c *Cache) evictLocked() {
	now := c.now()
	for url, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, url)
		}
	}
}
