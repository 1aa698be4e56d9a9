package cache

import (
	"context"
	"time"
)

// Poll re-fetches one key at a fixed interval, invalidating it first so
// every tick reaches the backend. Each outcome (fresh, stale-with-error, or
// error) is handed to onResult. The loop blocks until ctx is cancelled;
// callers run it in a goroutine tied to the consuming view's lifetime, so
// no timer outlives its consumer.
func Poll[T any](ctx context.Context, c *Cache, key Key, opts Options, interval time.Duration, fn func(context.Context) (T, error), onResult func(Result[T], error)) {
	fetch := func() {
		result, err := Fetch(ctx, c, key, opts, fn)
		if ctx.Err() != nil {
			return
		}
		onResult(result, err)
	}

	fetch()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Invalidate(key)
			fetch()
		}
	}
}
