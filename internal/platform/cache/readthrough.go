package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Stats receives hit/miss notifications. Implementations must be safe for
// concurrent use. A nil Stats disables recording.
type Stats interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// ReadThrough is an in-process TTL cache that loads-and-stores on miss.
//
// The TTL is fixed per instance. Expired entries are treated as misses and
// never served. Invalidation is synchronous: once Invalidate or InvalidateAll
// returns, the next GetOrLoad in this process misses and reloads. There is no
// cross-process invalidation; staleness across instances is bounded only by
// the TTL.
//
// Concurrent GetOrLoad calls for the same missing key are collapsed into a
// single loader invocation via singleflight.
type ReadThrough[V any] struct {
	name  string
	store *lru.LRU[string, V]
	group singleflight.Group
	gen   atomic.Uint64
	stats Stats
}

// NewReadThrough constructs a cache holding up to size entries for ttl each.
// stats may be nil.
func NewReadThrough[V any](name string, size int, ttl time.Duration, stats Stats) *ReadThrough[V] {
	if size <= 0 {
		size = 1024
	}
	return &ReadThrough[V]{
		name:  name,
		store: lru.NewLRU[string, V](size, nil, ttl),
		stats: stats,
	}
}

// GetOrLoad returns the cached value for key, or runs loader, stores the
// result and returns it. Loader errors are returned as-is and nothing is
// cached for the key.
func (c *ReadThrough[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	if v, ok := c.store.Get(key); ok {
		c.recordHit()
		return v, nil
	}
	c.recordMiss()

	gen := c.gen.Load()
	v, err, _ := c.group.Do(flightKey(gen, key), func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		// Skip the store when an invalidation raced the load, so a stale
		// value cannot outlive its invalidation.
		if c.gen.Load() == gen {
			c.store.Add(key, v)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops one key.
func (c *ReadThrough[V]) Invalidate(key string) {
	c.gen.Add(1)
	c.store.Remove(key)
}

// InvalidateAll drops every entry.
func (c *ReadThrough[V]) InvalidateAll() {
	c.gen.Add(1)
	c.store.Purge()
}

// Len reports the number of live entries.
func (c *ReadThrough[V]) Len() int {
	return c.store.Len()
}

func (c *ReadThrough[V]) recordHit() {
	if c.stats != nil {
		c.stats.CacheHit(c.name)
	}
}

func (c *ReadThrough[V]) recordMiss() {
	if c.stats != nil {
		c.stats.CacheMiss(c.name)
	}
}

func flightKey(gen uint64, key string) string {
	return fmt.Sprintf("%d:%s", gen, key)
}
