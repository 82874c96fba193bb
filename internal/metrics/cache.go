package metrics

import (
	"fmt"
	"sync"

	"deriverse-journal/internal/types"
)

// DefaultCacheCapacity bounds the number of memoized reports.
const DefaultCacheCapacity = 25

// CacheEntry pairs the two engine outputs for one (dataset, filters) key.
type CacheEntry struct {
	Metrics  *types.MetricsResult
	Insights *types.Insights
}

// Cache memoizes engine results so unrelated requests do not recompute
// them. The engines themselves stay pure; the cache is owned by the calling
// layer and is an optimization only — results are identical with or without
// it. Eviction removes the oldest inserted key once capacity is exceeded.
type Cache struct {
	mu      sync.Mutex
	cap     int
	order   []string
	entries map[string]CacheEntry
}

// NewCache creates a cache holding at most capacity entries. Non-positive
// capacity falls back to the default.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		cap:     capacity,
		entries: make(map[string]CacheEntry, capacity),
	}
}

// CacheKey builds the deterministic composite key for one dataset version
// and filter combination.
func CacheKey(version uint64, f Filters) string {
	from, to := "", ""
	if !f.From.IsZero() {
		from = f.From.Format("2006-01-02")
	}
	if !f.To.IsZero() {
		to = f.To.Format("2006-01-02")
	}
	return fmt.Sprintf("v%d|%s|%s|%s", version, f.Symbol, from, to)
}

// Get returns the entry for key, if present.
func (c *Cache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores the entry for key, evicting the oldest key when full.
func (c *Cache) Put(key string, e CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = e
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
