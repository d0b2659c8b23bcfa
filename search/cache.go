package search

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheCapacity bounds the embedding cache when no capacity is given.
const DefaultCacheCapacity = 10000

// Embedding is a cached embedding vector and the tokens spent producing it.
type Embedding struct {
	Vector []float32
	Tokens int
}

// CacheStats reports cache activity since creation.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expired   int64
	Size      int
}

// CacheOption configures an LRUCache.
type CacheOption func(*LRUCache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *LRUCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxAge expires entries older than age. Zero disables expiry.
func WithMaxAge(age time.Duration) CacheOption {
	return func(c *LRUCache) {
		c.maxAge = max(age, 0)
	}
}

// LRUCache is a thread-safe least-recently-used cache of embeddings with a
// maximum size.
type LRUCache struct {
	maxSize int
	maxAge  time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
	stats CacheStats
}

type cacheEntry struct {
	key      string
	value    Embedding
	storedAt time.Time
}

// NewLRUCache creates a cache holding at most maxSize entries. A
// non-positive maxSize selects DefaultCacheCapacity.
func NewLRUCache(maxSize int, opts ...CacheOption) *LRUCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheCapacity
	}
	c := &LRUCache{
		maxSize: maxSize,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache and marks it as recently used.
// Expired entries are dropped and reported as missing.
func (c *LRUCache) Get(key string) (Embedding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return Embedding{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.maxAge > 0 && c.now().Sub(entry.storedAt) > c.maxAge {
		c.order.Remove(elem)
		delete(c.items, key)
		c.stats.Expired++
		c.stats.Misses++
		return Embedding{}, false
	}

	c.order.MoveToFront(elem)
	c.stats.Hits++
	return entry.value, true
}

// Set adds or updates a value in the cache, evicting the least recently
// used entry when the cache is full.
func (c *LRUCache) Set(key string, value Embedding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.storedAt = c.now()
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, storedAt: c.now()})
	c.items[key] = elem

	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.stats.Evictions++
		}
	}
}

// Clear removes all entries from the cache.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order = list.New()
}

// Len returns the current number of items in the cache.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *LRUCache) Capacity() int {
	return c.maxSize
}

// Stats returns a snapshot of the cache counters.
func (c *LRUCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	return s
}
