// Package cache provides the read-through result cache shared by the update
// API and the web pages.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a key/value store whose entries expire after a fixed TTL.
// Concurrent writers for the same key race and the last one wins.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	// Clear drops every entry. There is no per-key invalidation.
	Clear()
	Len() int
}

type lruCache struct {
	lru *expirable.LRU[string, any]
}

// New returns a Cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 4096
	}
	return &lruCache{
		lru: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

func (c *lruCache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *lruCache) Set(key string, value any) {
	c.lru.Add(key, value)
}

func (c *lruCache) Clear() {
	c.lru.Purge()
}

func (c *lruCache) Len() int {
	return c.lru.Len()
}

// Load returns the cached value for key, or computes it with fn and stores
// the result. Errors are never cached.
func Load[T any](c Cache, key string, fn func() (T, error)) (T, bool, error) {
	if value, ok := c.Get(key); ok {
		if typed, ok := value.(T); ok {
			return typed, true, nil
		}
	}

	value, err := fn()
	if err != nil {
		return value, false, err
	}
	c.Set(key, value)
	return value, false, nil
}
