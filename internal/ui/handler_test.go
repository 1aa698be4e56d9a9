package ui

import (
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strings"
	"testing"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/config"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
	"github.com/jeffreasy/agenda-dashboard/internal/session"
	"github.com/jeffreasy/agenda-dashboard/internal/token"
)

const (
	testUserID    = "6f9e2d1c-0a3b-4c5d-8e7f-102938475665"
	testAccountID = "a1b2c3d4-e5f6-4789-9abc-def012345678"
	testRuleID    = "0e8400e2-9b41-4d71-a456-426614174000"
)

// fakeBackend serves the minimum REST surface a dashboard page load hits.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"`+testUserID+`","email":"jeff@example.com","name":"Jeff"}`)
	})
	mux.HandleFunc("/users/"+testUserID+"/accounts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":"`+testAccountID+`","user_id":"`+testUserID+`","provider":"google","email":"cal@example.com","status":"active"}]`)
	})
	mux.HandleFunc("/accounts/"+testAccountID+"/rules", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":"`+testRuleID+`","connected_account_id":"`+testAccountID+`","name":"Shift reminder","is_active":true,"trigger_conditions":{"summary_equals":"Dienst"},"action_params":{"offset_minutes":-60,"duration_min":5}}]`)
	})
	mux.HandleFunc("/logs/query", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":1,"connected_account_id":"`+testAccountID+`","status":"success","timestamp":"2026-08-27T06:00:00Z"}]`)
	})
	mux.HandleFunc("/accounts/"+testAccountID+"/events/summaries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"summary":"Dienst","count":12}]`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"database":true,"services":["scheduler"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestHandler(t *testing.T, backendURL string) *Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ListenAddr: ":0",
		BaseURL:    "http://localhost:8090",
		APIBaseURL: backendURL,
		StateDir:   dir,
	}
	tokens, err := token.Open(dir)
	if err != nil {
		t.Fatalf("open token store: %v", err)
	}
	snapshot := session.Open(dir)
	client := api.New(backendURL,
		api.WithTokenSource(tokens),
		api.WithAuthFailureHook(func() { _ = tokens.Clear() }),
	)
	hooks := resource.New(client, cache.New())
	return NewHandler(cfg, hooks, tokens, snapshot)
}

func TestAuthCallbackPersistsTokenAndRedirects(t *testing.T) {
	h := newTestHandler(t, "http://localhost:1")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token=tok-123", nil)
	rec := httptest.NewRecorder()
	h.AuthCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if got := h.tokens.Token(); got != "tok-123" {
		t.Errorf("stored token = %q, want tok-123", got)
	}
	if !h.snapshot.Current().Authenticated {
		t.Error("snapshot not marked authenticated")
	}
}

func TestAuthCallbackWithoutTokenGoesToLogin(t *testing.T) {
	h := newTestHandler(t, "http://localhost:1")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	rec := httptest.NewRecorder()
	h.AuthCallback(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if got := h.tokens.Token(); got != "" {
		t.Errorf("token = %q, want empty", got)
	}
}

func TestLogoutClearsTokenAndSnapshot(t *testing.T) {
	h := newTestHandler(t, "http://localhost:1")
	if err := h.tokens.Set("tok-123"); err != nil {
		t.Fatal(err)
	}
	h.snapshot.SetAuthenticated(true)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if got := h.tokens.Token(); got != "" {
		t.Errorf("token after logout = %q, want empty", got)
	}
	if h.snapshot.Current().Authenticated {
		t.Error("snapshot still authenticated after logout")
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestLoginRedirectsWhenAlreadySignedIn(t *testing.T) {
	h := newTestHandler(t, "http://localhost:1")
	if err := h.tokens.Set("tok-123"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestLoginShowsSignInLink(t *testing.T) {
	h := newTestHandler(t, "http://backend.example")

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http://backend.example/auth/google/login") {
		t.Error("sign-in link to the backend OAuth entry point missing")
	}
}

func TestDashboardRendersAccountsRulesAndLogs(t *testing.T) {
	backend := fakeBackend(t)
	h := newTestHandler(t, backend.URL)
	if err := h.tokens.Set("tok-123"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		body, _ := httputil.DumpResponse(rec.Result(), true)
		t.Fatalf("status = %d, want 200\n%s", rec.Code, body)
	}
	body := rec.Body.String()
	for _, want := range []string{"cal@example.com", "Shift reminder", "Dienst"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	snap := h.snapshot.Current()
	if snap.User == nil || snap.User.Email != "jeff@example.com" {
		t.Error("snapshot user not updated from page load")
	}
	if len(snap.Accounts) != 1 || len(snap.Rules) != 1 || len(snap.Logs) != 1 {
		t.Errorf("snapshot not updated: %d accounts, %d rules, %d logs",
			len(snap.Accounts), len(snap.Rules), len(snap.Logs))
	}
}

func TestDashboardAuthFailureRedirectsToLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := newTestHandler(t, srv.URL)
	if err := h.tokens.Set("expired"); err != nil {
		t.Fatal(err)
	}
	h.snapshot.SetAuthenticated(true)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if got := h.tokens.Token(); got != "" {
		t.Errorf("token = %q, want cleared", got)
	}
	if h.snapshot.Current().Authenticated {
		t.Error("snapshot still authenticated after rejected session")
	}
}

func TestLogsJSONServesNormalizedLog(t *testing.T) {
	backend := fakeBackend(t)
	h := newTestHandler(t, backend.URL)
	if err := h.tokens.Set("tok-123"); err != nil {
		t.Fatal(err)
	}
	// Orphan filtering consults the snapshot's account set.
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	h.Dashboard(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/dashboard/logs.json?account="+testAccountID, nil)
	rec := httptest.NewRecorder()
	h.LogsJSON(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"success"`) {
		t.Errorf("response missing normalized log entry: %s", body)
	}
	if !strings.Contains(body, `"connectedAccountId":"`+testAccountID+`"`) {
		t.Errorf("response missing account id: %s", body)
	}
}

func TestLogsJSONRejectsMissingAccount(t *testing.T) {
	h := newTestHandler(t, "http://localhost:1")

	req := httptest.NewRequest(http.MethodGet, "/dashboard/logs.json", nil)
	rec := httptest.NewRecorder()
	h.LogsJSON(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
