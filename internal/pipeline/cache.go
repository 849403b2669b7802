package pipeline

import (
	"sync"
	"time"
)

// reportCache is a thread-safe TTL cache of validation reports keyed by
// project ID. Entries carry an explicit insertion time; expiry is checked
// on read so correctness never depends on process lifetime.
type reportCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	report     *ValidationReport
	insertedAt time.Time
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{
		items: make(map[string]cacheEntry),
		ttl:   ttl,
	}
}

func (c *reportCache) get(projectID string) (*ValidationReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[projectID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.insertedAt) > c.ttl {
		return nil, false
	}
	return entry.report, true
}

func (c *reportCache) set(projectID string, report *ValidationReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[projectID] = cacheEntry{report: report, insertedAt: time.Now()}

	// Drop expired entries opportunistically.
	if c.ttl > 0 {
		for key, entry := range c.items {
			if time.Since(entry.insertedAt) > c.ttl {
				delete(c.items, key)
			}
		}
	}
}

func (c *reportCache) invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, projectID)
}
