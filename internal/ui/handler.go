package ui

import (
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/config"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
	"github.com/jeffreasy/agenda-dashboard/internal/session"
	"github.com/jeffreasy/agenda-dashboard/internal/token"
)

// Handler serves the server-rendered dashboard pages.
type Handler struct {
	cfg       *config.Config
	hooks     *resource.Hooks
	tokens    *token.Store
	snapshot  *session.Store
	templates map[string]*template.Template
}

func NewHandler(cfg *config.Config, hooks *resource.Hooks, tokens *token.Store, snapshot *session.Store) *Handler {
	return &Handler{
		cfg:       cfg,
		hooks:     hooks,
		tokens:    tokens,
		snapshot:  snapshot,
		templates: templates,
	}
}

// Login shows the sign-in entry point. The button navigates the browser to
// the backend's OAuth redirect; nothing is fetched from here.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.tokens.Token() != "" {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	data := h.withFlash(r, map[string]any{
		"Title":          "Sign in",
		"GoogleLoginURL": h.cfg.APIBaseURL + "/auth/google/login",
	})
	h.render(w, r, "login.html", data)
}

// AuthCallback receives the one-time token delivered by the backend's
// OAuth redirect, persists it and enters the dashboard.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("token")
	if value == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := h.tokens.Set(value); err != nil {
		h.renderError(w, r, "Could not store your session. Please try signing in again.")
		return
	}
	h.snapshot.SetAuthenticated(true)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout clears the token and the session snapshot.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	_ = h.tokens.Clear()
	h.snapshot.Clear()
	http.Redirect(w, r, "/login", http.StatusFound)
}

// selectedAccount resolves the account the page is scoped to: the
// ?account= parameter when present, otherwise the first connected account.
func selectedAccount(r *http.Request, accounts []model.ConnectedAccount) (uuid.UUID, *model.ConnectedAccount) {
	if raw := r.URL.Query().Get("account"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			for i := range accounts {
				if accounts[i].ID == id {
					return id, &accounts[i]
				}
			}
		}
	}
	if len(accounts) > 0 {
		return accounts[0].ID, &accounts[0]
	}
	return uuid.Nil, nil
}
