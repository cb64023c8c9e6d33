package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps pages in process memory for the life of a run
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache; a zero ttl never expires entries
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{items: gocache.New(ttl, cleanupInterval)}
}

// Get returns a stored value
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Set stores value; ttl zero uses the cache default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, value, ttl)
	return nil
}

// Delete removes a value
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear removes everything
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len reports the number of live entries
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
