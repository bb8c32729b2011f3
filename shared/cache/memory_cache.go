package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = (*MemoryCache)(nil)

// MemoryCache implements Cache in process, for local development and tests
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a new MemoryCache with the given default expiration
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)
	if !found {
		return nil, ErrCacheMiss
	}
	return value.([]byte), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}
