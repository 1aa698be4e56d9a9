package api

import (
	"context"
	"net/http"
	"net/url"
)

// Typed wrappers over the backend's REST surface. Paths are relative to the
// configured base URL (".../api/v1"). Each call carries its path template
// alongside the concrete path; the template feeds the latency observer so
// metric labels stay bounded.

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/users/me", "/users/me", nil, nil, &user)
	return user, err
}

func (c *Client) ListAccounts(ctx context.Context, userID string) ([]ConnectedAccount, error) {
	var accounts []ConnectedAccount
	err := c.do(ctx, http.MethodGet, "/users/{id}/accounts", "/users/"+url.PathEscape(userID)+"/accounts", nil, nil, &accounts)
	return accounts, err
}

func (c *Client) DisconnectAccount(ctx context.Context, accountID string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/{id}", "/accounts/"+url.PathEscape(accountID), nil, nil, nil)
}

func (c *Client) ListRules(ctx context.Context, accountID string) ([]AutomationRule, error) {
	var rules []AutomationRule
	err := c.do(ctx, http.MethodGet, "/accounts/{id}/rules", "/accounts/"+url.PathEscape(accountID)+"/rules", nil, nil, &rules)
	return rules, err
}

func (c *Client) CreateRule(ctx context.Context, req CreateRuleRequest) (AutomationRule, error) {
	var rule AutomationRule
	err := c.do(ctx, http.MethodPost, "/rules", "/rules", nil, req, &rule)
	return rule, err
}

func (c *Client) UpdateRule(ctx context.Context, ruleID string, req UpdateRuleRequest) (AutomationRule, error) {
	var rule AutomationRule
	err := c.do(ctx, http.MethodPut, "/rules/{id}", "/rules/"+url.PathEscape(ruleID), nil, req, &rule)
	return rule, err
}

func (c *Client) ToggleRule(ctx context.Context, ruleID string, isActive bool) (AutomationRule, error) {
	var rule AutomationRule
	body := map[string]bool{"is_active": isActive}
	err := c.do(ctx, http.MethodPatch, "/rules/{id}/toggle", "/rules/"+url.PathEscape(ruleID)+"/toggle", nil, body, &rule)
	return rule, err
}

func (c *Client) DeleteRule(ctx context.Context, ruleID string) error {
	return c.do(ctx, http.MethodDelete, "/rules/{id}", "/rules/"+url.PathEscape(ruleID), nil, nil, nil)
}

func (c *Client) QueryLogs(ctx context.Context, accountID string) ([]AutomationLog, error) {
	query := url.Values{"account_id": {accountID}}
	var logs []AutomationLog
	err := c.do(ctx, http.MethodGet, "/logs/query", "/logs/query", query, nil, &logs)
	return logs, err
}

// EventQuery narrows an event listing. Zero values are omitted.
type EventQuery struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
}

func (q EventQuery) values() url.Values {
	v := url.Values{}
	if q.CalendarID != "" {
		v.Set("calendarId", q.CalendarID)
	}
	if q.TimeMin != "" {
		v.Set("timeMin", q.TimeMin)
	}
	if q.TimeMax != "" {
		v.Set("timeMax", q.TimeMax)
	}
	return v
}

func (c *Client) ListEvents(ctx context.Context, accountID string, q EventQuery) ([]CalendarEvent, error) {
	var events []CalendarEvent
	path := "/accounts/" + url.PathEscape(accountID) + "/calendar/events"
	err := c.do(ctx, http.MethodGet, "/accounts/{id}/calendar/events", path, q.values(), nil, &events)
	return events, err
}

func (c *Client) CreateEvent(ctx context.Context, accountID string, req CreateEventRequest, calendarID string) (CalendarEvent, error) {
	var event CalendarEvent
	path := "/accounts/" + url.PathEscape(accountID) + "/calendar/events"
	err := c.do(ctx, http.MethodPost, "/accounts/{id}/calendar/events", path, EventQuery{CalendarID: calendarID}.values(), req, &event)
	return event, err
}

func (c *Client) UpdateEvent(ctx context.Context, accountID, eventID string, req CreateEventRequest, calendarID string) (CalendarEvent, error) {
	var event CalendarEvent
	path := "/accounts/" + url.PathEscape(accountID) + "/calendar/events/" + url.PathEscape(eventID)
	err := c.do(ctx, http.MethodPut, "/accounts/{id}/calendar/events/{eventId}", path, EventQuery{CalendarID: calendarID}.values(), req, &event)
	return event, err
}

func (c *Client) DeleteEvent(ctx context.Context, accountID, eventID, calendarID string) error {
	path := "/accounts/" + url.PathEscape(accountID) + "/calendar/events/" + url.PathEscape(eventID)
	return c.do(ctx, http.MethodDelete, "/accounts/{id}/calendar/events/{eventId}", path, EventQuery{CalendarID: calendarID}.values(), nil, nil)
}

func (c *Client) EventSummaries(ctx context.Context, accountID string) ([]EventSummary, error) {
	var summaries []EventSummary
	path := "/accounts/" + url.PathEscape(accountID) + "/events/summaries"
	err := c.do(ctx, http.MethodGet, "/accounts/{id}/events/summaries", path, nil, nil, &summaries)
	return summaries, err
}

func (c *Client) AggregatedEvents(ctx context.Context, req AggregatedEventsRequest) ([]CalendarEvent, error) {
	var events []CalendarEvent
	err := c.do(ctx, http.MethodPost, "/calendar/aggregated-events", "/calendar/aggregated-events", nil, req, &events)
	return events, err
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", "/health", nil, nil, &status)
	return status, err
}
