package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
)

// Wire-to-display conversion. Primary ids must parse (an entity we cannot
// address is unrenderable); timestamps degrade to the zero time and the two
// JSON-encoded rule sub-objects degrade to documented defaults.

func UserFromWire(w api.User) (User, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return User{}, fmt.Errorf("model: user id %q: %w", w.ID, err)
	}
	return User{
		ID:        id,
		Email:     w.Email,
		Name:      w.Name,
		CreatedAt: parseTime(w.CreatedAt),
		UpdatedAt: parseTime(w.UpdatedAt),
	}, nil
}

func UserToWire(u User) api.User {
	return api.User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func AccountFromWire(w api.ConnectedAccount) (ConnectedAccount, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return ConnectedAccount{}, fmt.Errorf("model: account id %q: %w", w.ID, err)
	}
	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return ConnectedAccount{}, fmt.Errorf("model: account %s user id %q: %w", w.ID, w.UserID, err)
	}

	var lastChecked *time.Time
	if w.LastChecked != nil && *w.LastChecked != "" {
		t := parseTime(*w.LastChecked)
		lastChecked = &t
	}

	return ConnectedAccount{
		ID:             id,
		UserID:         userID,
		Provider:       Provider(w.Provider),
		Email:          w.Email,
		ProviderUserID: w.ProviderUserID,
		TokenExpiry:    parseTime(w.TokenExpiry),
		Scopes:         w.Scopes,
		Status:         AccountStatus(w.Status),
		CreatedAt:      parseTime(w.CreatedAt),
		UpdatedAt:      parseTime(w.UpdatedAt),
		LastChecked:    lastChecked,
	}, nil
}

func AccountToWire(a ConnectedAccount) api.ConnectedAccount {
	var lastChecked *string
	if a.LastChecked != nil {
		s := formatTime(*a.LastChecked)
		lastChecked = &s
	}
	return api.ConnectedAccount{
		ID:             a.ID.String(),
		UserID:         a.UserID.String(),
		Provider:       string(a.Provider),
		Email:          a.Email,
		ProviderUserID: a.ProviderUserID,
		TokenExpiry:    formatTime(a.TokenExpiry),
		Scopes:         a.Scopes,
		Status:         string(a.Status),
		CreatedAt:      formatTime(a.CreatedAt),
		UpdatedAt:      formatTime(a.UpdatedAt),
		LastChecked:    lastChecked,
	}
}

func RuleFromWire(w api.AutomationRule) (AutomationRule, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return AutomationRule{}, fmt.Errorf("model: rule id %q: %w", w.ID, err)
	}
	accountID, err := uuid.Parse(w.ConnectedAccountID)
	if err != nil {
		return AutomationRule{}, fmt.Errorf("model: rule %s account id %q: %w", w.ID, w.ConnectedAccountID, err)
	}

	conditions := TriggerConditions{}
	if wc, ok := api.DecodeTriggerConditions(w.TriggerConditions); ok {
		conditions = triggerFromWire(wc)
	}
	params := DefaultActionParams
	if wp, ok := api.DecodeActionParams(w.ActionParams); ok {
		params = actionFromWire(wp)
	}

	return AutomationRule{
		ID:                 id,
		ConnectedAccountID: accountID,
		Name:               w.Name,
		IsActive:           w.IsActive,
		TriggerConditions:  conditions,
		ActionParams:       params,
		CreatedAt:          parseTime(w.CreatedAt),
		UpdatedAt:          parseTime(w.UpdatedAt),
	}, nil
}

func RuleToWire(r AutomationRule) api.AutomationRule {
	conditions, _ := json.Marshal(TriggerToWire(r.TriggerConditions))
	params, _ := json.Marshal(ActionToWire(r.ActionParams))
	return api.AutomationRule{
		ID:                 r.ID.String(),
		ConnectedAccountID: r.ConnectedAccountID.String(),
		Name:               r.Name,
		IsActive:           r.IsActive,
		TriggerConditions:  conditions,
		ActionParams:       params,
		CreatedAt:          formatTime(r.CreatedAt),
		UpdatedAt:          formatTime(r.UpdatedAt),
	}
}

func triggerFromWire(w api.TriggerConditions) TriggerConditions {
	return TriggerConditions{
		SummaryEquals:       w.SummaryEquals,
		SummaryContains:     w.SummaryContains,
		LocationEquals:      w.LocationEquals,
		LocationContains:    w.LocationContains,
		DescriptionContains: w.DescriptionContains,
		StatusEquals:        w.StatusEquals,
		CreatorContains:     w.CreatorContains,
		OrganizerContains:   w.OrganizerContains,
		StartTimeAfter:      w.StartTimeAfter,
		StartTimeBefore:     w.StartTimeBefore,
		EndTimeAfter:        w.EndTimeAfter,
		EndTimeBefore:       w.EndTimeBefore,
	}
}

// TriggerToWire maps display predicates back to backend field names, for
// create/update request bodies.
func TriggerToWire(c TriggerConditions) api.TriggerConditions {
	return api.TriggerConditions{
		SummaryEquals:       c.SummaryEquals,
		SummaryContains:     c.SummaryContains,
		LocationEquals:      c.LocationEquals,
		LocationContains:    c.LocationContains,
		DescriptionContains: c.DescriptionContains,
		StatusEquals:        c.StatusEquals,
		CreatorContains:     c.CreatorContains,
		OrganizerContains:   c.OrganizerContains,
		StartTimeAfter:      c.StartTimeAfter,
		StartTimeBefore:     c.StartTimeBefore,
		EndTimeAfter:        c.EndTimeAfter,
		EndTimeBefore:       c.EndTimeBefore,
	}
}

func actionFromWire(w api.ActionParams) ActionParams {
	return ActionParams{
		OffsetMinutes: w.OffsetMinutes,
		DurationMin:   w.DurationMin,
		TitlePrefix:   w.TitlePrefix,
	}
}

func ActionToWire(p ActionParams) api.ActionParams {
	return api.ActionParams{
		OffsetMinutes: p.OffsetMinutes,
		DurationMin:   p.DurationMin,
		TitlePrefix:   p.TitlePrefix,
	}
}

func LogFromWire(w api.AutomationLog) (AutomationLog, error) {
	accountID, err := uuid.Parse(w.ConnectedAccountID)
	if err != nil {
		return AutomationLog{}, fmt.Errorf("model: log %d account id %q: %w", w.ID, w.ConnectedAccountID, err)
	}

	var ruleID *uuid.UUID
	if w.RuleID != "" {
		parsed, err := uuid.Parse(w.RuleID)
		if err != nil {
			return AutomationLog{}, fmt.Errorf("model: log %d rule id %q: %w", w.ID, w.RuleID, err)
		}
		ruleID = &parsed
	}

	return AutomationLog{
		ID:                 w.ID,
		ConnectedAccountID: accountID,
		RuleID:             ruleID,
		Timestamp:          parseTime(w.Timestamp),
		Status:             LogStatus(w.Status),
		TriggerDetails:     triggerDetailsFromWire(w.TriggerDetails),
		ActionDetails:      actionDetailsFromWire(w.ActionDetails),
		ErrorMessage:       w.ErrorMessage,
	}, nil
}

func LogToWire(l AutomationLog) api.AutomationLog {
	var ruleID string
	if l.RuleID != nil {
		ruleID = l.RuleID.String()
	}
	var trigger *api.TriggerLogDetails
	if l.TriggerDetails != nil {
		trigger = &api.TriggerLogDetails{
			GoogleEventID:  l.TriggerDetails.GoogleEventID,
			TriggerSummary: l.TriggerDetails.TriggerSummary,
			TriggerTime:    l.TriggerDetails.TriggerTime,
		}
	}
	var action *api.ActionLogDetails
	if l.ActionDetails != nil {
		action = &api.ActionLogDetails{
			CreatedEventID:      l.ActionDetails.CreatedEventID,
			CreatedEventSummary: l.ActionDetails.CreatedEventSummary,
			ReminderTime:        l.ActionDetails.ReminderTime,
		}
	}
	return api.AutomationLog{
		ID:                 l.ID,
		ConnectedAccountID: l.ConnectedAccountID.String(),
		RuleID:             ruleID,
		Timestamp:          formatTime(l.Timestamp),
		Status:             string(l.Status),
		TriggerDetails:     trigger,
		ActionDetails:      action,
		ErrorMessage:       l.ErrorMessage,
	}
}

func triggerDetailsFromWire(w *api.TriggerLogDetails) *TriggerLogDetails {
	if w == nil {
		return nil
	}
	return &TriggerLogDetails{
		GoogleEventID:  w.GoogleEventID,
		TriggerSummary: w.TriggerSummary,
		TriggerTime:    w.TriggerTime,
	}
}

func actionDetailsFromWire(w *api.ActionLogDetails) *ActionLogDetails {
	if w == nil {
		return nil
	}
	return &ActionLogDetails{
		CreatedEventID:      w.CreatedEventID,
		CreatedEventSummary: w.CreatedEventSummary,
		ReminderTime:        w.ReminderTime,
	}
}

func EventFromWire(w api.CalendarEvent) CalendarEvent {
	return CalendarEvent{
		ID:          w.ID,
		Summary:     w.Summary,
		Description: w.Description,
		Location:    w.Location,
		Start:       EventTime(w.Start),
		End:         EventTime(w.End),
		Status:      w.Status,
	}
}

func EventToWire(e CalendarEvent) api.CalendarEvent {
	return api.CalendarEvent{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       api.EventDateTime(e.Start),
		End:         api.EventDateTime(e.End),
		Status:      e.Status,
	}
}

func EventSummaryFromWire(w api.EventSummary) EventSummary {
	return EventSummary{
		Summary:     w.Summary,
		Location:    w.Location,
		Description: w.Description,
		StartTime:   w.StartTime,
		Count:       w.Count,
	}
}

func HealthFromWire(w api.HealthStatus) HealthStatus {
	return HealthStatus{Database: w.Database, Services: w.Services}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
