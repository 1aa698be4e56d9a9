// Package resource exposes one read/write surface per backend resource,
// wrapping the API client in cache-aware operations: keyed reads with
// freshness windows, no-op reads for absent identifiers, and mutations that
// invalidate every cache key they can affect.
package resource

import (
	"sync/atomic"
	"time"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
)

// Cache key resource names.
const (
	resUser      = "user"
	resAccounts  = "accounts"
	resRules     = "rules"
	resLogs      = "logs"
	resEvents    = "events"
	resSummaries = "event-summaries"
	resHealth    = "health"
)

// Freshness windows, mirroring how often each resource is worth re-asking
// the backend for. A zero window means every read revalidates (coalesced
// while in flight).
const (
	userTTL      = 30 * time.Second
	accountsTTL  = 30 * time.Second
	rulesTTL     = 0
	logsTTL      = 5 * time.Second
	eventsTTL    = 0
	summariesTTL = 60 * time.Second
	healthTTL    = 30 * time.Second
)

// LogPollInterval is how often a watching view re-reads the activity log.
const LogPollInterval = 60 * time.Second

// Hooks bundles every resource over one shared client and cache.
type Hooks struct {
	User     *User
	Accounts *Accounts
	Rules    *Rules
	Logs     *Logs
	Events   *Events
	Health   *Health
}

func New(client *api.Client, c *cache.Cache) *Hooks {
	return &Hooks{
		User:     &User{client: client, cache: c},
		Accounts: &Accounts{client: client, cache: c},
		Rules:    &Rules{client: client, cache: c},
		Logs:     &Logs{client: client, cache: c},
		Events:   &Events{client: client, cache: c},
		Health:   &Health{client: client, cache: c},
	}
}

// Mutation tracks whether one write operation is in flight. Duplicate
// submissions are deliberately not deduplicated here; the flag exists so
// the UI can disable the triggering control while a submission runs.
type Mutation struct {
	inFlight atomic.Bool
}

func (m *Mutation) InFlight() bool {
	return m.inFlight.Load()
}

func (m *Mutation) run(fn func() error) error {
	m.inFlight.Store(true)
	defer m.inFlight.Store(false)
	return fn()
}
