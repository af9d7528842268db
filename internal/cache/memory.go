package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryCache is a per-process LRU cache with per-entry expiry.
// Expired entries are evicted when read.
type MemoryCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	now      func() time.Time
	mu       sync.Mutex
}

type cacheEntry struct {
	key       string
	value     float64
	expiresAt time.Time
}

// NewMemoryCache creates a new cache with the given capacity.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return 0, false, nil
	}
	entry := elem.Value.(*cacheEntry)
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.lru.Remove(elem)
		delete(c.cache, key)
		return 0, false, nil
	}
	c.lru.MoveToFront(elem)
	return entry.value, true, nil
}

// Set stores value for key, evicting the least recently used entry if at capacity.
// ttl <= 0 means the entry never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		return nil
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: expiresAt}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close is a no-op.
func (c *MemoryCache) Close() error {
	return nil
}
