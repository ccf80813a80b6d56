package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// readingCache is a TTL cache keyed by (area, provider). Entries are
// immutable snapshots, replaced wholesale on refresh and never mutated in
// place, so readers that already hold a value are always safe.
type readingCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	clock   clockwork.Clock
	maxSize int
	logger  *zap.Logger
}

func newReadingCache(maxSize int, clock clockwork.Clock, logger *zap.Logger) *readingCache {
	return &readingCache{
		entries: make(map[string]cacheEntry),
		clock:   clock,
		maxSize: maxSize,
		logger:  logger,
	}
}

func (c *readingCache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if c.clock.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *readingCache) put(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.clock.Now().Add(ttl)
	c.entries[key] = cacheEntry{value: value, expiresAt: expiresAt}

	c.logger.Debug("Reading cached",
		zap.String("key", key),
		zap.Time("expires_at", expiresAt))
}

func (c *readingCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.logger.Debug("Evicted oldest reading from cache", zap.String("key", oldestKey))
	}
}

func (c *readingCache) stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"entries":  len(c.entries),
		"max_size": c.maxSize,
	}
}
