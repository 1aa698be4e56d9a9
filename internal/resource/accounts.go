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

type Accounts struct {
	client *api.Client
	cache  *cache.Cache

	Disconnecting Mutation
}

// List reads the user's connected accounts. A nil user id is a no-op read:
// no request is issued. The read retries once after a short delay, since
// the account list gates everything else on the dashboard.
func (a *Accounts) List(ctx context.Context, userID uuid.UUID) (cache.Result[[]model.ConnectedAccount], error) {
	if userID == uuid.Nil {
		return cache.Result[[]model.ConnectedAccount]{}, nil
	}

	key := cache.Key{Resource: resAccounts, Param: userID.String()}
	opts := cache.Options{TTL: accountsTTL, Retry: 1, RetryDelay: time.Second}
	return cache.Fetch(ctx, a.cache, key, opts, func(ctx context.Context) ([]model.ConnectedAccount, error) {
		wires, err := a.client.ListAccounts(ctx, userID.String())
		if err != nil {
			return nil, err
		}
		accounts := make([]model.ConnectedAccount, 0, len(wires))
		for _, w := range wires {
			account, err := model.AccountFromWire(w)
			if err != nil {
				log.Printf("[WARN] resource: skipping malformed account: %v", err)
				continue
			}
			accounts = append(accounts, account)
		}
		return accounts, nil
	})
}

// Disconnect removes a connected account. Rules and logs owned by the
// account become orphans, so their cached views are invalidated along with
// every account listing - the superset of affected keys.
func (a *Accounts) Disconnect(ctx context.Context, accountID uuid.UUID) error {
	return a.Disconnecting.run(func() error {
		if err := a.client.DisconnectAccount(ctx, accountID.String()); err != nil {
			return err
		}
		a.cache.InvalidateResource(resAccounts)
		a.cache.Invalidate(
			cache.Key{Resource: resRules, Param: accountID.String()},
			cache.Key{Resource: resLogs, Param: accountID.String()},
			cache.Key{Resource: resSummaries, Param: accountID.String()},
		)
		a.cache.InvalidateResource(resEvents)
		return nil
	})
}
