// Package cache is the read-side synchronization layer: a keyed store of
// backend responses with per-resource freshness windows, stale-but-usable
// results, prefix invalidation and coalescing of concurrent fetches for an
// identical key.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached read: the resource name plus its input
// parameter (for example the account id). Parameterless reads leave Param
// empty.
type Key struct {
	Resource string
	Param    string
}

func (k Key) String() string {
	return k.Resource + "/" + k.Param
}

// Options tunes one read. A zero TTL means the value is revalidated on
// every fetch (while still being served as stale data when the refresh
// fails). Retry is the number of additional attempts after a failure.
type Options struct {
	TTL        time.Duration
	Retry      int
	RetryDelay time.Duration
}

// Result carries a cached or freshly fetched value. Stale is true when the
// value predates its freshness window and the caller should present it as
// "refreshing" rather than current.
type Result[T any] struct {
	Value     T
	Stale     bool
	FetchedAt time.Time
}

type entry struct {
	value     any
	fetchedAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	entries map[Key]entry
	group   singleflight.Group

	// Generation counters, bumped by invalidation. A fetch captures them
	// before running and refuses to store its response when either moved,
	// so a mutation observed mid-flight can never be papered over by a
	// pre-mutation response landing afterwards.
	keyGens map[Key]uint64
	resGens map[string]uint64

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func New() *Cache {
	return &Cache{
		entries: make(map[Key]entry),
		keyGens: make(map[Key]uint64),
		resGens: make(map[string]uint64),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Fetch returns the cached value when it is still inside the freshness
// window, otherwise runs fn. Concurrent fetches of the same key share a
// single in-flight call. When fn fails and an older value exists, that
// value is returned stale alongside the error so screens never blank.
func Fetch[T any](ctx context.Context, c *Cache, key Key, opts Options, fn func(context.Context) (T, error)) (Result[T], error) {
	if value, fetchedAt, ok := c.lookup(key, opts.TTL); ok {
		return Result[T]{Value: value.(T), FetchedAt: fetchedAt}, nil
	}

	fresh, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Re-check: a coalesced waiter may arrive after the leader stored.
		if value, _, ok := c.lookup(key, opts.TTL); ok {
			return value, nil
		}

		keyGen, resGen := c.generation(key)
		value, err := fn(ctx)
		for attempt := 0; err != nil && attempt < opts.Retry; attempt++ {
			if sleepErr := c.sleep(ctx, opts.RetryDelay); sleepErr != nil {
				break
			}
			value, err = fn(ctx)
		}
		if err != nil {
			return nil, err
		}
		c.store(key, value, keyGen, resGen)
		return value, nil
	})

	if err != nil {
		if stale, fetchedAt, ok := c.lookupAny(key); ok {
			return Result[T]{Value: stale.(T), Stale: true, FetchedAt: fetchedAt}, err
		}
		var zero Result[T]
		return zero, err
	}
	return Result[T]{Value: fresh.(T), FetchedAt: c.now()}, nil
}

// Invalidate drops the given keys. A subsequent read of any of them is
// treated as stale and refetched; in-flight coalesced calls are detached,
// and their eventual responses are discarded by the generation check, so a
// post-invalidation read cannot observe a pre-invalidation response.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.keyGens[key]++
		c.group.Forget(key.String())
	}
}

// InvalidateResource drops every key of one resource regardless of
// parameter, including keys whose first fetch is still in flight.
func (c *Cache) InvalidateResource(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resGens[resource]++
	for key := range c.entries {
		if key.Resource == resource {
			delete(c.entries, key)
			c.group.Forget(key.String())
		}
	}
}

// lookup returns the value only while it is fresh.
func (c *Cache) lookup(key Key, ttl time.Duration) (any, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	if ttl <= 0 || c.now().Sub(e.fetchedAt) > ttl {
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// lookupAny returns the value regardless of age, for stale fallback.
func (c *Cache) lookupAny(key Key) (any, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

func (c *Cache) generation(key Key) (uint64, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyGens[key], c.resGens[key.Resource]
}

// store inserts the fetched value unless the key was invalidated while the
// fetch ran. The fetched value still flows back to the read that started
// before the mutation; it just never re-enters the cache.
func (c *Cache) store(key Key, value any, keyGen, resGen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyGens[key] != keyGen || c.resGens[key.Resource] != resGen {
		return
	}
	c.entries[key] = entry{value: value, fetchedAt: c.now()}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
