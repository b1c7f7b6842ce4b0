package memo

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRU is an in-process size-bounded cache with per-entry expiry
type LRU struct {
	cache *lru.Cache
	now   func() time.Time
}

// NewLRU creates an LRU cache holding at most size entries
func NewLRU(size int) (*LRU, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRU{cache: cache, now: time.Now}, nil
}

// Name implements Cache
func (c *LRU) Name() string {
	return "lru"
}

// Get implements Cache. Expired entries are evicted on read.
func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	entry := v.(lruEntry)
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.cache.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set implements Cache. A non-positive ttl never expires.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := lruEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.cache.Add(key, entry)
	return nil
}

// Delete implements Cache
func (c *LRU) Delete(_ context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}

// Purge implements Cache
func (c *LRU) Purge(_ context.Context) error {
	c.cache.Purge()
	return nil
}

// Len returns the number of entries, expired or not
func (c *LRU) Len() int {
	return c.cache.Len()
}

// PurgeExpired drops every expired entry and returns how many were removed
func (c *LRU) PurgeExpired(_ context.Context) (int, error) {
	now := c.now()
	removed := 0
	for _, k := range c.cache.Keys() {
		v, ok := c.cache.Peek(k)
		if !ok {
			continue
		}
		entry := v.(lruEntry)
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			c.cache.Remove(k)
			removed++
		}
	}
	return removed, nil
}
