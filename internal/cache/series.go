// Package cache keeps recently fetched price histories in memory.
package cache

import (
	"fmt"
	"sync"
	"time"

	"EventStudy/internal/model"
)

// Key identifies a fetched history.
func Key(source, symbol string, from, to time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", source, symbol, from.Format(model.DateLayout), to.Format(model.DateLayout))
}

type entry struct {
	series    *model.PriceSeries
	expiresAt time.Time
}

// SeriesCache is a TTL cache of price series with concurrency safety.
// Cached series are shared between readers and must not be modified.
type SeriesCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewSeriesCache creates a cache whose entries live for ttl. A non-positive
// ttl disables caching.
func NewSeriesCache(ttl time.Duration) *SeriesCache {
	return &SeriesCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached series for key, if present and not expired.
func (c *SeriesCache) Get(key string) (*model.PriceSeries, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.series, true
}

// Set stores series under key.
func (c *SeriesCache) Set(key string, series *model.PriceSeries) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{series: series, expiresAt: c.now().Add(c.ttl)}
}

// Purge drops expired entries and returns how many were removed.
func (c *SeriesCache) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (c *SeriesCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
