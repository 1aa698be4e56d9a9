package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(User{ID: "u1"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("tok-123")))
	if _, err := c.CurrentUser(context.Background()); err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
}

func TestClientOmitsBearerWhenUnauthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(User{})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("")))
	if _, err := c.CurrentUser(context.Background()); err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClientClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind Kind
	}{
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"forbidden", http.StatusForbidden, KindAuth},
		{"not found", http.StatusNotFound, KindNotFound},
		{"server error", http.StatusInternalServerError, KindServer},
		{"bad gateway", http.StatusBadGateway, KindServer},
		{"conflict passes through", http.StatusConflict, KindHTTP},
		{"bad request passes through", http.StatusBadRequest, KindHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := New(srv.URL)
			_, err := c.CurrentUser(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsKind(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestClientErrorPreservesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"duplicate rule"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateRule(context.Background(), CreateRuleRequest{Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("Status = %d, want 409", apiErr.Status)
	}
	if string(apiErr.Body) != `{"message":"duplicate rule"}` {
		t.Errorf("Body = %q, want original body", apiErr.Body)
	}
}

func TestClientAuthFailureHookFiresBeforeReturn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	fired := false
	c := New(srv.URL, WithAuthFailureHook(func() { fired = true }))
	_, err := c.ListRules(context.Background(), "acc-1")
	if !IsKind(err, KindAuth) {
		t.Fatalf("error = %v, want auth kind", err)
	}
	if !fired {
		t.Error("auth failure hook did not fire")
	}
}

func TestClientNetworkErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL)
	_, err := c.CurrentUser(context.Background())
	if !IsKind(err, KindNetwork) {
		t.Errorf("error = %v, want network kind", err)
	}
}

func TestClientObserverSeesStatusAndRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var gotMethod, gotRoute string
	var gotStatus int
	c := New(srv.URL, WithObserver(func(method, route string, status int, _ time.Duration) {
		gotMethod, gotRoute, gotStatus = method, route, status
	}))
	if err := c.DeleteRule(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if gotMethod != http.MethodDelete || gotStatus != http.StatusNoContent {
		t.Errorf("observer saw (%s, %d), want (DELETE, 204)", gotMethod, gotStatus)
	}
	// The label is the path template, never the concrete id, so metric
	// cardinality stays bounded.
	if gotRoute != "/rules/{id}" {
		t.Errorf("observer route = %q, want /rules/{id}", gotRoute)
	}
}
