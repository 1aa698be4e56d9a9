package resource

import (
	"context"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

type User struct {
	client *api.Client
	cache  *cache.Cache
}

// Current reads the signed-in user. The backend creates the user record on
// first OAuth login; this layer never writes it.
func (u *User) Current(ctx context.Context) (cache.Result[model.User], error) {
	key := cache.Key{Resource: resUser}
	return cache.Fetch(ctx, u.cache, key, cache.Options{TTL: userTTL}, func(ctx context.Context) (model.User, error) {
		wire, err := u.client.CurrentUser(ctx)
		if err != nil {
			return model.User{}, err
		}
		return model.UserFromWire(wire)
	})
}

type Health struct {
	client *api.Client
	cache  *cache.Cache
}

// Check calls the backend's liveness endpoint.
func (h *Health) Check(ctx context.Context) (cache.Result[model.HealthStatus], error) {
	key := cache.Key{Resource: resHealth}
	return cache.Fetch(ctx, h.cache, key, cache.Options{TTL: healthTTL}, func(ctx context.Context) (model.HealthStatus, error) {
		wire, err := h.client.Health(ctx)
		if err != nil {
			return model.HealthStatus{}, err
		}
		return model.HealthFromWire(wire), nil
	})
}
