// Package cache provides the keyed server-state cache every data-dependent
// feature reads through. Entries hold the server's last authoritative
// response for a logical resource ("cart", "wishlist", "products:slug", ...).
// Reads through Fetch de-duplicate concurrent identical fetches; writes to a
// key must go through that key's designated mutation functions so the cached
// value is always a verbatim server response, never a client-side merge.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value any
	stale bool
}

// Cache is a keyed query cache. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Peek returns the cached value for key, if any. A stale value is still
// returned: consumers keep rendering the last known server state while a
// re-fetch is pending.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Replace stores the server's authoritative response for key and marks the
// entry fresh. Racing replaces are last-response-wins.
func (c *Cache) Replace(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: v}
}

// Invalidate marks the given keys stale so the next Fetch re-fetches them.
// The cached value stays readable via Peek until the re-fetch settles.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.stale = true
		}
		c.group.Forget(key)
	}
}

// Remove drops the given keys entirely (used on sign-out, when the cached
// state belongs to the previous user).
func (c *Cache) Remove(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.group.Forget(key)
	}
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.value, true
}

// Fetch returns the fresh cached value for key or fetches it with fn.
// Concurrent fetches for the same key collapse to one in-flight request;
// every waiter receives the same result. Errors are never cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have refreshed the entry while this caller
		// was waiting for the flight lock.
		if v, ok := c.lookup(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}

		fetched, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Replace(key, fetched)
		return fetched, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
