package ui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/http/errors"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
)

// Dashboard renders the main page: connected accounts, the selected
// account's rules and activity log, and the rule form.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, uuid.Nil, defaultRuleForm(), nil, uuid.Nil)
}

func defaultRuleForm() ruleForm {
	return ruleForm{
		OffsetMinutes: strconv.Itoa(model.DefaultActionParams.OffsetMinutes),
		DurationMin:   strconv.Itoa(model.DefaultActionParams.DurationMin),
	}
}

// renderDashboard assembles the page data. Reads degrade independently:
// a failed read contributes a banner and, when available, its last known
// value, so one upstream hiccup never blanks the whole page.
func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, preferred uuid.UUID, form ruleForm, fieldErrors map[string]string, editingRuleID uuid.UUID) {
	ctx := r.Context()
	var banners []string

	userRes, err := h.hooks.User.Current(ctx)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	} else {
		u := userRes.Value
		h.snapshot.SetUser(&u)
	}
	user := userRes.Value

	accountsRes, err := h.hooks.Accounts.List(ctx, user.ID)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	} else if user.ID != uuid.Nil {
		h.snapshot.SetAccounts(accountsRes.Value)
	}
	accounts := accountsRes.Value

	selectedID, selected := selectedAccount(r, accounts)
	if preferred != uuid.Nil {
		for i := range accounts {
			if accounts[i].ID == preferred {
				selectedID, selected = preferred, &accounts[i]
				break
			}
		}
	}

	rulesRes, rulesErr := h.hooks.Rules.List(ctx, selectedID)
	if rulesErr != nil {
		if h.handleAuthError(w, r, rulesErr) {
			return
		}
		banners = append(banners, bannerMessage(rulesErr))
	} else if selectedID != uuid.Nil {
		h.snapshot.SetRules(rulesRes.Value)
	}
	rules := model.RulesForAccounts(rulesRes.Value, accounts)

	logsRes, logsErr := h.hooks.Logs.Query(ctx, selectedID)
	if logsErr != nil {
		if h.handleAuthError(w, r, logsErr) {
			return
		}
		banners = append(banners, bannerMessage(logsErr))
	} else if selectedID != uuid.Nil {
		h.snapshot.SetLogs(logsRes.Value)
	}
	logs := model.LogsForAccounts(logsRes.Value, accounts)

	// A ?edit= parameter preloads the form with an existing rule, unless a
	// failed submission is being re-rendered.
	if fieldErrors == nil && editingRuleID == uuid.Nil {
		if id, err := uuid.Parse(r.URL.Query().Get("edit")); err == nil {
			for _, rule := range rules {
				if rule.ID == id {
					form = ruleFormFromRule(rule)
					editingRuleID = id
					break
				}
			}
		}
	}

	// Suggestions and health are decorations; their failures stay quiet.
	summariesRes, _ := h.hooks.Events.Summaries(ctx, selectedID)
	healthRes, healthErr := h.hooks.Health.Check(ctx)

	// Template truth on a uuid array is always true, so the edit marker is
	// passed as a string.
	editing := ""
	if editingRuleID != uuid.Nil {
		editing = editingRuleID.String()
	}

	data := h.withFlash(r, map[string]any{
		"Title":         "Dashboard",
		"User":          user,
		"Accounts":      accounts,
		"Selected":      selected,
		"SelectedID":    selectedID,
		"Rules":         rules,
		"RulesStale":    rulesRes.Stale,
		"Logs":          logs,
		"LogsStale":     logsRes.Stale,
		"Summaries":     summariesRes.Value,
		"HealthOK":      healthErr == nil && healthRes.Value.Database,
		"Banners":       banners,
		"Form":          form,
		"FieldErrors":   fieldErrors,
		"EditingRuleID": editing,
		"LogPollMillis": resource.LogPollInterval.Milliseconds(),

		"RuleBusy":       h.hooks.Rules.Creating.InFlight() || h.hooks.Rules.Updating.InFlight(),
		"ToggleBusy":     h.hooks.Rules.Toggling.InFlight(),
		"DeleteBusy":     h.hooks.Rules.Deleting.InFlight(),
		"DisconnectBusy": h.hooks.Accounts.Disconnecting.InFlight(),
	})
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	h.render(w, r, "dashboard.html", data)
}

// CreateRule handles the new-rule form. Validation failures re-render the
// page with inline field errors and never reach the backend.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PostFormValue("account_id"))
	if err != nil {
		errors.BadRequestError(w, r, err, "missing or invalid account")
		return
	}

	form := ruleFormFromRequest(r)
	name, conditions, params, fieldErrs := form.validate()
	if fieldErrs != nil {
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, accountID, form, fieldErrs, uuid.Nil)
		return
	}

	created, err := h.hooks.Rules.Create(r.Context(), accountID, name, conditions, params)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/dashboard", map[string]string{"account": accountID.String(), "error": bannerMessage(err)})
		return
	}
	h.snapshot.AddRule(created)
	h.redirect(w, r, "/dashboard", map[string]string{"account": accountID.String(), "status": "Rule created."})
}

// UpdateRule handles the edit form of an existing rule.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid rule id")
		return
	}
	accountID, _ := uuid.Parse(r.PostFormValue("account_id"))

	form := ruleFormFromRequest(r)
	name, conditions, params, fieldErrs := form.validate()
	if fieldErrs != nil {
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, accountID, form, fieldErrs, ruleID)
		return
	}

	updated, err := h.hooks.Rules.Update(r.Context(), ruleID, name, conditions, params)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/dashboard", map[string]string{"account": accountID.String(), "error": bannerMessage(err)})
		return
	}
	h.snapshot.UpdateRule(updated)
	h.redirect(w, r, "/dashboard", map[string]string{"account": updated.ConnectedAccountID.String(), "status": "Rule updated."})
}

// ToggleRule flips a rule between active and paused.
func (h *Handler) ToggleRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid rule id")
		return
	}
	isActive := r.PostFormValue("active") == "1"

	toggled, err := h.hooks.Rules.Toggle(r.Context(), ruleID, isActive)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/dashboard", map[string]string{"error": bannerMessage(err)})
		return
	}
	h.snapshot.UpdateRule(toggled)
	status := "Rule paused."
	if toggled.IsActive {
		status = "Rule activated."
	}
	h.redirect(w, r, "/dashboard", map[string]string{"account": toggled.ConnectedAccountID.String(), "status": status})
}

// DeleteRule removes a rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid rule id")
		return
	}
	account := r.PostFormValue("account_id")

	if err := h.hooks.Rules.Delete(r.Context(), ruleID); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/dashboard", map[string]string{"account": account, "error": bannerMessage(err)})
		return
	}
	h.snapshot.DeleteRule(ruleID)
	h.redirect(w, r, "/dashboard", map[string]string{"account": account, "status": "Rule deleted."})
}

// DisconnectAccount detaches a provider account. Rules and logs owned by
// it disappear from the page on the next load.
func (h *Handler) DisconnectAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		errors.BadRequestError(w, r, err, "invalid account id")
		return
	}

	if err := h.hooks.Accounts.Disconnect(r.Context(), accountID); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/dashboard", map[string]string{"error": bannerMessage(err)})
		return
	}
	h.snapshot.DeleteAccount(accountID)
	h.redirect(w, r, "/dashboard", map[string]string{"status": "Account disconnected."})
}

// LogsJSON feeds the dashboard's periodic log refresh. The page script
// polls it and swaps the activity table without a full reload.
func (h *Handler) LogsJSON(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.URL.Query().Get("account"))
	if err != nil {
		http.Error(w, `{"error":"missing or invalid account"}`, http.StatusBadRequest)
		return
	}

	res, fetchErr := h.hooks.Logs.Query(r.Context(), accountID)
	if fetchErr != nil && api.IsKind(fetchErr, api.KindAuth) {
		h.snapshot.Clear()
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	logs := model.LogsForAccounts(res.Value, h.snapshot.Current().Accounts)
	payload := struct {
		Logs  []model.AutomationLog `json:"logs"`
		Stale bool                  `json:"stale"`
	}{Logs: logs, Stale: res.Stale || fetchErr != nil}
	if payload.Logs == nil {
		payload.Logs = []model.AutomationLog{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		errors.LogError(r, "encoding logs response", err)
	}
}
