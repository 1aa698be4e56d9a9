package resource

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

type Logs struct {
	client *api.Client
	cache  *cache.Cache
}

// Query reads the activity log of one connected account. Logs are
// append-only from this layer's perspective; there are no mutations.
func (l *Logs) Query(ctx context.Context, accountID uuid.UUID) (cache.Result[[]model.AutomationLog], error) {
	if accountID == uuid.Nil {
		return cache.Result[[]model.AutomationLog]{}, nil
	}

	key := cache.Key{Resource: resLogs, Param: accountID.String()}
	return cache.Fetch(ctx, l.cache, key, cache.Options{TTL: logsTTL}, func(ctx context.Context) ([]model.AutomationLog, error) {
		wires, err := l.client.QueryLogs(ctx, accountID.String())
		if err != nil {
			return nil, err
		}
		logs := make([]model.AutomationLog, 0, len(wires))
		for _, w := range wires {
			entry, err := model.LogFromWire(w)
			if err != nil {
				log.Printf("[WARN] resource: skipping malformed log entry: %v", err)
				continue
			}
			logs = append(logs, entry)
		}
		return logs, nil
	})
}

// Watch re-reads the account's log at the given interval until ctx is
// cancelled, approximating near-real-time visibility without a push
// channel. It blocks; run it in a goroutine scoped to the consuming view.
func (l *Logs) Watch(ctx context.Context, accountID uuid.UUID, interval time.Duration, onResult func(cache.Result[[]model.AutomationLog], error)) {
	if accountID == uuid.Nil {
		return
	}
	key := cache.Key{Resource: resLogs, Param: accountID.String()}
	cache.Poll(ctx, l.cache, key, cache.Options{TTL: logsTTL}, interval, func(ctx context.Context) ([]model.AutomationLog, error) {
		wires, err := l.client.QueryLogs(ctx, accountID.String())
		if err != nil {
			return nil, err
		}
		logs := make([]model.AutomationLog, 0, len(wires))
		for _, w := range wires {
			entry, err := model.LogFromWire(w)
			if err != nil {
				continue
			}
			logs = append(logs, entry)
		}
		return logs, nil
	}, onResult)
}
