package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// QueryCache holds decoded read results keyed by "resource|params".
// Concurrent reads of the same key share one fetch. Values are shared
// between callers and must not be mutated.
type QueryCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
	// bumped on invalidation; a fetch only stores its result if unchanged
	generation map[string]uint64
	epoch      uint64
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		ttl:        ttl,
		now:        time.Now,
		entries:    map[string]cacheEntry{},
		generation: map[string]uint64{},
	}
}

func cacheKey(resource, params string) string {
	return resource + "|" + params
}

// Fetch returns the fresh cached value for resource and params, or calls
// fetch and caches its result. Errors are never cached.
func (q *QueryCache) Fetch(resource, params string, fetch func() (any, error)) (any, error) {
	key := cacheKey(resource, params)

	q.mu.Lock()
	if e, ok := q.entries[key]; ok && q.now().Before(e.expiresAt) {
		q.mu.Unlock()
		return e.value, nil
	}
	gen, epoch := q.generation[resource], q.epoch
	q.mu.Unlock()

	// reads issued after an invalidation never join a fetch that started before it
	flight := fmt.Sprintf("%s#%d.%d", key, epoch, gen)
	v, err, _ := q.group.Do(flight, func() (any, error) {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.generation[resource] == gen && q.epoch == epoch && q.ttl > 0 {
			q.entries[key] = cacheEntry{value: value, expiresAt: q.now().Add(q.ttl)}
		}
		q.mu.Unlock()
		return value, nil
	})
	return v, err
}

// Invalidate drops every entry of the given resources.
func (q *QueryCache) Invalidate(resources ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, resource := range resources {
		q.generation[resource]++
		prefix := resource + "|"
		for key := range q.entries {
			if strings.HasPrefix(key, prefix) {
				delete(q.entries, key)
			}
		}
	}
}

// InvalidateAll empties the cache.
func (q *QueryCache) InvalidateAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.epoch++
	q.entries = map[string]cacheEntry{}
}

// Len counts entries, expired ones included.
func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func cachedFetch[T any](q *QueryCache, resource, params string, fetch func() (T, error)) (T, error) {
	v, err := q.Fetch(resource, params, func() (any, error) { return fetch() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
