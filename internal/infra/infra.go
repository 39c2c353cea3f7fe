// Package infra provides shared infrastructure: a load-once keyed cache and a
// request rate limiter for remote stores.
package infra

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// --- Load-once cache ---

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a thread-safe, process-lifetime cache. A key is populated at most
// once; concurrent requests for a missing key share a single in-flight load.
// Entries never expire and are never evicted.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]cacheEntry[V])}
}

// LoadFunc computes the value for a key. Returning keep=false hands the value
// to the waiting callers without storing it.
type LoadFunc[V any] func(ctx context.Context) (value V, keep bool)

// Get returns a stored value.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return e.value, ok
}

// GetOrLoad returns the stored value for key, or runs load exactly once for
// all concurrent callers. The load runs on a context that is detached from
// ctx cancellation; a caller whose ctx ends stops waiting and gets ctx.Err(),
// while the load continues for the others.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A flight for this key may have finished between Get and DoChan.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, keep := load(detached)
		if keep {
			c.mu.Lock()
			c.entries[key] = cacheEntry[V]{value: v, storedAt: time.Now()}
			c.mu.Unlock()
		}
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val.(V), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Item is a stored entry as returned by Items.
type Item[V any] struct {
	Key      string
	Value    V
	StoredAt time.Time
}

// Items returns all stored entries sorted by key.
func (c *Cache[V]) Items() []Item[V] {
	c.mu.RLock()
	items := make([]Item[V], 0, len(c.entries))
	for k, e := range c.entries {
		items = append(items, Item[V]{Key: k, Value: e.value, StoredAt: e.storedAt})
	}
	c.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting. A nil *RateLimiter
// never blocks.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// PerSecond returns a limiter allowing n requests per second, or nil (no
// limit) when n <= 0.
func PerSecond(n int) *RateLimiter {
	if n <= 0 {
		return nil
	}
	return NewRateLimiter(n, time.Second)
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	elapsed := time.Since(rl.lastRefill)
	if elapsed < rl.refillRate {
		return
	}
	periods := int(elapsed / rl.refillRate)
	rl.tokens += periods * rl.maxTokens
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
}
