package ui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/http/errors"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
)

// Default viewing window for the calendar page.
const calendarWindow = 7 * 24 * time.Hour

// Calendar renders the provider events of the selected account, plus the
// new-event form.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	h.renderCalendar(w, r, http.StatusOK, eventForm{}, nil)
}

func (h *Handler) renderCalendar(w http.ResponseWriter, r *http.Request, status int, form eventForm, fieldErrors map[string]string) {
	ctx := r.Context()
	var banners []string

	userRes, err := h.hooks.User.Current(ctx)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	}

	accountsRes, err := h.hooks.Accounts.List(ctx, userRes.Value.ID)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	}
	accounts := accountsRes.Value
	selectedID, selected := selectedAccount(r, accounts)

	from, to := calendarRange(r)
	query := resource.EventQuery{
		CalendarID: r.URL.Query().Get("calendar"),
		TimeMin:    from.Format(time.RFC3339),
		TimeMax:    to.Format(time.RFC3339),
	}

	eventsRes, eventsErr := h.hooks.Events.List(ctx, selectedID, query)
	if eventsErr != nil {
		if h.handleAuthError(w, r, eventsErr) {
			return
		}
		banners = append(banners, bannerMessage(eventsErr))
	}

	// A ?edit= parameter preloads the form with an existing event, unless a
	// failed submission is being re-rendered.
	editingEventID := ""
	if fieldErrors == nil {
		if id := r.URL.Query().Get("edit"); id != "" {
			for _, event := range eventsRes.Value {
				if event.ID == id {
					form = eventFormFromEvent(event, query.CalendarID)
					editingEventID = id
					break
				}
			}
		}
	}

	data := h.withFlash(r, map[string]any{
		"Title":          "Calendar",
		"User":           userRes.Value,
		"Accounts":       accounts,
		"Selected":       selected,
		"SelectedID":     selectedID,
		"CalendarID":     query.CalendarID,
		"From":           from,
		"To":             to,
		"Events":         eventsRes.Value,
		"EventsStale":    eventsRes.Stale,
		"Banners":        banners,
		"Form":           form,
		"FieldErrors":    fieldErrors,
		"EditingEventID": editingEventID,
		"EventBusy":      h.hooks.Events.Creating.InFlight() || h.hooks.Events.Updating.InFlight(),
	})
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	h.render(w, r, "calendar.html", data)
}

// calendarRange resolves the ?from= and ?to= date parameters, defaulting
// to the coming week.
func calendarRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(calendarWindow)

	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
			from = t
			to = from.Add(calendarWindow)
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil && t.After(from) {
			to = t
		}
	}
	return from, to
}

// CreateEvent handles the new-event form on the calendar page.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PostFormValue("account_id"))
	if err != nil {
		errors.BadRequestError(w, r, err, "missing or invalid account")
		return
	}

	form := eventFormFromRequest(r)
	input, fieldErrs := form.validate()
	if fieldErrs != nil {
		h.renderCalendar(w, r, http.StatusUnprocessableEntity, form, fieldErrs)
		return
	}

	if _, err := h.hooks.Events.Create(r.Context(), accountID, input, form.CalendarID); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "error": bannerMessage(err)})
		return
	}
	h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "status": "Event created."})
}

// UpdateEvent handles the edit form of a provider event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	accountID, err := uuid.Parse(r.PostFormValue("account_id"))
	if err != nil {
		errors.BadRequestError(w, r, err, "missing or invalid account")
		return
	}

	form := eventFormFromRequest(r)
	input, fieldErrs := form.validate()
	if fieldErrs != nil {
		h.renderCalendar(w, r, http.StatusUnprocessableEntity, form, fieldErrs)
		return
	}

	if _, err := h.hooks.Events.Update(r.Context(), accountID, eventID, input, form.CalendarID); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "error": bannerMessage(err)})
		return
	}
	h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "status": "Event updated."})
}

// DeleteEvent removes a provider event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	accountID, err := uuid.Parse(r.PostFormValue("account_id"))
	if err != nil {
		errors.BadRequestError(w, r, err, "missing or invalid account")
		return
	}
	calendarID := r.PostFormValue("calendar_id")

	if err := h.hooks.Events.Delete(r.Context(), accountID, eventID, calendarID); err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "error": bannerMessage(err)})
		return
	}
	h.redirect(w, r, "/calendar", map[string]string{"account": accountID.String(), "status": "Event deleted."})
}

// CalendarAll renders the merged view across every connected account.
func (h *Handler) CalendarAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var banners []string

	userRes, err := h.hooks.User.Current(ctx)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	}

	accountsRes, err := h.hooks.Accounts.List(ctx, userRes.Value.ID)
	if err != nil {
		if h.handleAuthError(w, r, err) {
			return
		}
		banners = append(banners, bannerMessage(err))
	}
	accounts := accountsRes.Value

	from, to := calendarRange(r)
	var events []model.CalendarEvent
	if len(accounts) > 0 {
		refs := make([]api.AggregatedAccountRef, 0, len(accounts))
		for _, a := range accounts {
			refs = append(refs, api.AggregatedAccountRef{AccountID: a.ID.String()})
		}
		events, err = h.hooks.Events.Aggregated(ctx, refs, from.Format(time.RFC3339), to.Format(time.RFC3339))
		if err != nil {
			if h.handleAuthError(w, r, err) {
				return
			}
			banners = append(banners, bannerMessage(err))
		}
	}

	data := h.withFlash(r, map[string]any{
		"Title":    "All calendars",
		"User":     userRes.Value,
		"Accounts": accounts,
		"From":     from,
		"To":       to,
		"Events":   events,
		"Banners":  banners,
	})
	h.render(w, r, "calendar_all.html", data)
}
