// Package cache keeps fetched portal pages so repeated runs do not hit the
// court site again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/estatescout/internal/model"
)

// Store is a byte-oriented key/value cache
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a page URL
func Key(pageURL string) string {
	hash := sha256.Sum256([]byte(pageURL))
	return "estatescout-page-v1-" + hex.EncodeToString(hash[:])
}

// Page is one cached fetch
type Page struct {
	URL       string          `json:"url"`
	Body      []byte          `json:"body"`
	Meta      model.FetchMeta `json:"meta"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// PageCache stores whole fetches on top of a Store
type PageCache struct {
	store Store
	ttl   time.Duration
}

// NewPageCache wraps store; ttl zero defers to the store's default
func NewPageCache(store Store, ttl time.Duration) *PageCache {
	return &PageCache{store: store, ttl: ttl}
}

// New builds the page cache described by cfg. A disabled cache stores nothing.
func New(cfg model.CacheConfig) *PageCache {
	if !cfg.Enabled {
		return NewPageCache(nopStore{}, 0)
	}
	if cfg.Dir == "" {
		return NewPageCache(NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), cfg.MemoryTTL)
	}
	return NewPageCache(NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), 0)
}

// Get returns the cached fetch of pageURL
func (c *PageCache) Get(pageURL string) (*Page, bool) {
	data, ok := c.store.Get(Key(pageURL))
	if !ok {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	// Hash collisions are not worth a second lookup; treat as a miss
	if page.URL != pageURL {
		return nil, false
	}
	return &page, true
}

// Put caches a fetch
func (c *PageCache) Put(page *Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal cached page: %w", err)
	}
	if err := c.store.Set(Key(page.URL), data, c.ttl); err != nil {
		return fmt.Errorf("cache %s: %w", page.URL, err)
	}
	return nil
}

// Forget drops the cached fetch of pageURL
func (c *PageCache) Forget(pageURL string) error {
	return c.store.Delete(Key(pageURL))
}

// Clear drops every cached fetch
func (c *PageCache) Clear() error {
	return c.store.Clear()
}

type nopStore struct{}

func (nopStore) Get(string) ([]byte, bool) { return nil, false }
func (nopStore) Set(string, []byte, time.Duration) error { return nil }
func (nopStore) Delete(string) error { return nil }
func (nopStore) Clear() error { return nil }
