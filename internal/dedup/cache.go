// Package dedup tracks recently-seen document identities so a URL is
// processed at most once per horizon window.
package dedup

import (
	"sync"
	"time"
)

// Cache answers "seen since horizon?" for URL hashes. Entries first seen
// before the horizon are stale: Seen ignores them and Compact drops them.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	horizon time.Time
	seen    map[string]time.Time
}

// NewCache returns a cache that considers entries at or after horizon as seen.
func NewCache(horizon time.Time) *Cache {
	return &Cache{
		horizon: horizon,
		seen:    make(map[string]time.Time),
	}
}

// Seen reports whether urlHash was recorded with a first-seen time at or
// after the horizon.
func (c *Cache) Seen(urlHash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	firstSeen, ok := c.seen[urlHash]
	return ok && !firstSeen.Before(c.horizon)
}

// Record marks urlHash as first seen at firstSeen. An existing entry keeps its
// original first-seen time: the first occurrence wins.
func (c *Cache) Record(urlHash string, firstSeen time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[urlHash]; !ok {
		c.seen[urlHash] = firstSeen
	}
}

// Warm bulk-loads previously persisted entries, typically from the store at
// cycle start. Entries before the horizon are ignored.
func (c *Cache) Warm(entries map[string]time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for urlHash, firstSeen := range entries {
		if firstSeen.Before(c.horizon) {
			continue
		}
		if _, ok := c.seen[urlHash]; !ok {
			c.seen[urlHash] = firstSeen
		}
	}
}

// Compact drops entries older than the horizon and returns the number removed.
// The cache does not need full history, only the current window.
func (c *Cache) Compact() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for urlHash, firstSeen := range c.seen {
		if firstSeen.Before(c.horizon) {
			delete(c.seen, urlHash)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, stale included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}
