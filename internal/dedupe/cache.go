package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	id string
	ts time.Time
}

// Cache keeps the set of post IDs that have already been handled, together
// with the time each one was first recorded. Membership is what suppresses
// duplicate notifications; Evict trims entries that fell behind the horizon
// so the set stays bounded on a long-running process.
type Cache struct {
	mu    sync.Mutex
	items map[string]time.Time
	order []entry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]time.Time)}
}

// Has reports whether the id has been recorded and not yet evicted.
// It does not record the id; use Record() for that.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[id]
	return ok
}

// Record stores the id with the given first-seen time. Recording an id that
// is already present is a no-op: the original timestamp is kept, so repeated
// sightings never extend an entry's lifetime.
func (c *Cache) Record(id string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; ok {
		return
	}
	c.items[id] = now
	c.order = append(c.order, entry{id: id, ts: now})
}

// Evict removes every entry first seen before the cutoff and returns how
// many were removed. Entries are recorded in time order, so eviction only
// ever pops from the front.
func (c *Cache) Evict(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for len(c.order) > 0 && c.order[0].ts.Before(cutoff) {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest.id)
		removed++
	}
	return removed
}

// Len returns the number of ids currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
