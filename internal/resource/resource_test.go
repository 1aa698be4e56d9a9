package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

// fakeBackend is an in-memory stand-in for the agenda-automation API,
// counting requests per method+path so tests can assert on call volume.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	rules []api.AutomationRule
	logs  []api.AutomationLog
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}}
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, n := range f.calls {
		sum += n
	}
	return sum
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/rules"):
			f.mu.Lock()
			rules := append([]api.AutomationRule(nil), f.rules...)
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(rules)

		case r.Method == http.MethodPost && r.URL.Path == "/rules":
			var req api.CreateRuleRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			conditions, _ := json.Marshal(req.TriggerConditions)
			params, _ := json.Marshal(req.ActionParams)
			rule := api.AutomationRule{
				ID:                 uuid.NewString(),
				ConnectedAccountID: req.ConnectedAccountID,
				Name:               req.Name,
				IsActive:           true,
				TriggerConditions:  conditions,
				ActionParams:       params,
				CreatedAt:          "2025-01-01T00:00:00Z",
				UpdatedAt:          "2025-01-01T00:00:00Z",
			}
			f.mu.Lock()
			f.rules = append(f.rules, rule)
			f.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(rule)

		case r.Method == http.MethodGet && r.URL.Path == "/logs/query":
			f.mu.Lock()
			logs := append([]api.AutomationLog(nil), f.logs...)
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(logs)

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/accounts/"):
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/accounts"):
			_ = json.NewEncoder(w).Encode([]api.ConnectedAccount{})

		default:
			http.NotFound(w, r)
		}
	})
}

func newHooks(t *testing.T, backend *fakeBackend) (*Hooks, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	client := api.New(srv.URL)
	return New(client, cache.New()), srv
}

func TestReadsWithNilIDIssueNoRequests(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)
	ctx := context.Background()

	if _, err := hooks.Rules.List(ctx, uuid.Nil); err != nil {
		t.Errorf("Rules.List: %v", err)
	}
	if _, err := hooks.Logs.Query(ctx, uuid.Nil); err != nil {
		t.Errorf("Logs.Query: %v", err)
	}
	if _, err := hooks.Events.List(ctx, uuid.Nil, EventQuery{}); err != nil {
		t.Errorf("Events.List: %v", err)
	}
	if _, err := hooks.Events.Summaries(ctx, uuid.Nil); err != nil {
		t.Errorf("Events.Summaries: %v", err)
	}
	if _, err := hooks.Accounts.List(ctx, uuid.Nil); err != nil {
		t.Errorf("Accounts.List: %v", err)
	}

	if got := backend.total(); got != 0 {
		t.Errorf("nil-id reads issued %d requests, want 0", got)
	}
}

func TestCreateRuleThenListReturnsNormalizedRule(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)
	ctx := context.Background()
	accountID := uuid.New()

	created, err := hooks.Rules.Create(ctx, accountID, "Shift wake-up",
		model.TriggerConditions{SummaryEquals: "Dienst"},
		model.ActionParams{OffsetMinutes: -60, DurationMin: 5},
	)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ConnectedAccountID != accountID {
		t.Errorf("created rule account = %s, want %s", created.ConnectedAccountID, accountID)
	}

	res, err := hooks.Rules.List(ctx, accountID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Value) != 1 {
		t.Fatalf("rules = %d, want 1", len(res.Value))
	}
	rule := res.Value[0]
	if rule.TriggerConditions.SummaryEquals != "Dienst" {
		t.Errorf("SummaryEquals = %q, want Dienst", rule.TriggerConditions.SummaryEquals)
	}
	if rule.ActionParams.OffsetMinutes != -60 || rule.ActionParams.DurationMin != 5 {
		t.Errorf("action params = %+v, want offset -60 duration 5", rule.ActionParams)
	}
}

func TestDisconnectCascadesInvalidation(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)
	ctx := context.Background()
	accountID := uuid.New()

	backend.logs = []api.AutomationLog{{
		ID:                 1,
		ConnectedAccountID: accountID.String(),
		Timestamp:          "2025-01-01T00:00:00Z",
		Status:             "success",
	}}

	// Prime the caches for the account's dependent views.
	if _, err := hooks.Rules.List(ctx, accountID); err != nil {
		t.Fatal(err)
	}
	if _, err := hooks.Logs.Query(ctx, accountID); err != nil {
		t.Fatal(err)
	}
	logsBefore := backend.count("GET /logs/query")

	if err := hooks.Accounts.Disconnect(ctx, accountID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	// Dependent reads must hit the backend again, not a pre-deletion cache.
	if _, err := hooks.Logs.Query(ctx, accountID); err != nil {
		t.Fatal(err)
	}
	if got := backend.count("GET /logs/query"); got != logsBefore+1 {
		t.Errorf("logs fetched %d times after disconnect, want %d", got, logsBefore+1)
	}
	if _, err := hooks.Rules.List(ctx, accountID); err != nil {
		t.Fatal(err)
	}
}

func TestLogsQueryServedFromCacheInsideWindow(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)
	ctx := context.Background()
	accountID := uuid.New()

	if _, err := hooks.Logs.Query(ctx, accountID); err != nil {
		t.Fatal(err)
	}
	if _, err := hooks.Logs.Query(ctx, accountID); err != nil {
		t.Fatal(err)
	}
	if got := backend.count("GET /logs/query"); got != 1 {
		t.Errorf("logs fetched %d times inside freshness window, want 1", got)
	}
}

func TestLogsWatchDeliversAndStopsOnCancel(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)
	accountID := uuid.New()

	backend.logs = []api.AutomationLog{{
		ID:                 1,
		ConnectedAccountID: accountID.String(),
		Timestamp:          "2025-01-01T00:00:00Z",
		Status:             "success",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan []model.AutomationLog, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		hooks.Logs.Watch(ctx, accountID, 10*time.Millisecond, func(res cache.Result[[]model.AutomationLog], err error) {
			if err != nil {
				t.Errorf("watch result: %v", err)
				return
			}
			results <- res.Value
		})
	}()

	select {
	case logs := <-results:
		if len(logs) != 1 || logs[0].Status != model.LogSuccess {
			t.Errorf("first watch result = %+v", logs)
		}
	case <-time.After(time.Second):
		t.Fatal("watch delivered no initial result")
	}

	// Let a few ticks re-read the backend, then cancel the consuming view.
	time.Sleep(60 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancellation")
	}

	after := backend.count("GET /logs/query")
	if after < 2 {
		t.Errorf("watch queried the backend %d times, expected periodic re-reads", after)
	}
	time.Sleep(50 * time.Millisecond)
	if got := backend.count("GET /logs/query"); got != after {
		t.Error("watch kept querying after cancellation")
	}
}

func TestLogsWatchWithNilAccountReturnsImmediately(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hooks.Logs.Watch(context.Background(), uuid.Nil, time.Millisecond, func(cache.Result[[]model.AutomationLog], error) {
			t.Error("watch on a nil account delivered a result")
		})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch on a nil account did not return")
	}
	if got := backend.total(); got != 0 {
		t.Errorf("nil-account watch issued %d requests, want 0", got)
	}
}

func TestMutationInFlightFlag(t *testing.T) {
	backend := newFakeBackend()
	hooks, _ := newHooks(t, backend)

	var during bool
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = hooks.Rules.Deleting.run(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	during = hooks.Rules.Deleting.InFlight()
	close(release)

	if !during {
		t.Error("InFlight() = false while mutation was running")
	}
	// The flag drops once the mutation returns.
	for i := 0; i < 100 && hooks.Rules.Deleting.InFlight(); i++ {
		time.Sleep(time.Millisecond)
	}
	if hooks.Rules.Deleting.InFlight() {
		t.Error("InFlight() = true after mutation finished")
	}
}
