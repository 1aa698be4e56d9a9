package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/jeffreasy/agenda-dashboard/internal/config"
	"github.com/jeffreasy/agenda-dashboard/internal/http/csrf"
	"github.com/jeffreasy/agenda-dashboard/internal/http/ratelimit"
	"github.com/jeffreasy/agenda-dashboard/internal/metrics"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
	"github.com/jeffreasy/agenda-dashboard/internal/session"
	"github.com/jeffreasy/agenda-dashboard/internal/token"
	"github.com/jeffreasy/agenda-dashboard/internal/ui"
)

// NewRouter wires the dashboard's routes. Auth entry points are rate
// limited per IP; everything behind them requires a stored token and a
// CSRF token on writes.
func NewRouter(cfg *config.Config, hooks *resource.Hooks, tokens *token.Store, snapshot *session.Store) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.New(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	uiHandler := ui.NewHandler(cfg, hooks, tokens, snapshot)

	r.Group(func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/login", uiHandler.Login)
		r.Get("/auth/callback", uiHandler.AuthCallback)
	})

	r.With(requireToken(tokens), csrf.Middleware(cfg)).Post("/auth/logout", uiHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(requireToken(tokens))
		r.Use(csrf.Middleware(cfg))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
		})
		r.Get("/dashboard", uiHandler.Dashboard)
		r.Get("/dashboard/logs.json", uiHandler.LogsJSON)

		r.Post("/rules", uiHandler.CreateRule)
		r.Post("/rules/{ruleID}", uiHandler.UpdateRule)
		r.Post("/rules/{ruleID}/toggle", uiHandler.ToggleRule)
		r.Post("/rules/{ruleID}/delete", uiHandler.DeleteRule)

		r.Post("/accounts/{accountID}/disconnect", uiHandler.DisconnectAccount)

		r.Get("/calendar", uiHandler.Calendar)
		r.Get("/calendar/all", uiHandler.CalendarAll)
		r.Post("/calendar/events", uiHandler.CreateEvent)
		r.Post("/calendar/events/{eventID}", uiHandler.UpdateEvent)
		r.Post("/calendar/events/{eventID}/delete", uiHandler.DeleteEvent)
	})

	return r
}

// requireToken sends token-less browsers to the sign-in page. The backend
// still validates the token itself on every proxied call.
func requireToken(tokens *token.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens.Token() == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
