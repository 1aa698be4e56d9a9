package api

import "encoding/json"

// Wire shapes as the backend transmits them: snake_case fields, string
// timestamps, and rule sub-objects that may arrive either as JSON objects
// or as JSON-encoded strings.

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ConnectedAccount struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Provider       string   `json:"provider"`
	Email          string   `json:"email"`
	ProviderUserID string   `json:"provider_user_id"`
	TokenExpiry    string   `json:"token_expiry"`
	Scopes         []string `json:"scopes"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	LastChecked    *string  `json:"last_checked"`
}

type TriggerConditions struct {
	SummaryEquals       string `json:"summary_equals,omitempty"`
	SummaryContains     string `json:"summary_contains,omitempty"`
	LocationEquals      string `json:"location_equals,omitempty"`
	LocationContains    string `json:"location_contains,omitempty"`
	DescriptionContains string `json:"description_contains,omitempty"`
	StatusEquals        string `json:"status_equals,omitempty"`
	CreatorContains     string `json:"creator_contains,omitempty"`
	OrganizerContains   string `json:"organizer_contains,omitempty"`
	StartTimeAfter      string `json:"start_time_after,omitempty"`
	StartTimeBefore     string `json:"start_time_before,omitempty"`
	EndTimeAfter        string `json:"end_time_after,omitempty"`
	EndTimeBefore       string `json:"end_time_before,omitempty"`
}

type ActionParams struct {
	OffsetMinutes int    `json:"offset_minutes"`
	DurationMin   int    `json:"duration_min"`
	TitlePrefix   string `json:"title_prefix,omitempty"`
}

type AutomationRule struct {
	ID                 string          `json:"id"`
	ConnectedAccountID string          `json:"connected_account_id"`
	Name               string          `json:"name"`
	IsActive           bool            `json:"is_active"`
	TriggerConditions  json.RawMessage `json:"trigger_conditions"`
	ActionParams       json.RawMessage `json:"action_params"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

type TriggerLogDetails struct {
	GoogleEventID  string `json:"google_event_id"`
	TriggerSummary string `json:"trigger_summary"`
	TriggerTime    string `json:"trigger_time"`
}

type ActionLogDetails struct {
	CreatedEventID      string `json:"created_event_id"`
	CreatedEventSummary string `json:"created_event_summary"`
	ReminderTime        string `json:"reminder_time"`
}

type AutomationLog struct {
	ID                 int64              `json:"id"`
	ConnectedAccountID string             `json:"connected_account_id"`
	RuleID             string             `json:"rule_id,omitempty"`
	Timestamp          string             `json:"timestamp"`
	Status             string             `json:"status"`
	TriggerDetails     *TriggerLogDetails `json:"trigger_details"`
	ActionDetails      *ActionLogDetails  `json:"action_details"`
	ErrorMessage       string             `json:"error_message,omitempty"`
}

// EventDateTime matches the provider's event time shape: either dateTime
// (timed event) or date (all-day) is populated.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// CalendarEvent is the raw provider event passed through by the backend.
// The provider speaks camelCase, so this is the one wire shape that does.
type CalendarEvent struct {
	ID          string        `json:"id"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	Status      string        `json:"status,omitempty"`
}

type EventSummary struct {
	Summary     string `json:"summary"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	Count       int    `json:"count"`
}

type HealthStatus struct {
	Database bool     `json:"database"`
	Services []string `json:"services"`
}

type CreateRuleRequest struct {
	ConnectedAccountID string            `json:"connected_account_id"`
	Name               string            `json:"name"`
	TriggerConditions  TriggerConditions `json:"trigger_conditions"`
	ActionParams       ActionParams      `json:"action_params"`
}

type UpdateRuleRequest struct {
	Name              string            `json:"name"`
	TriggerConditions TriggerConditions `json:"trigger_conditions"`
	ActionParams      ActionParams      `json:"action_params"`
}

type CreateEventRequest struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	CalendarID  string        `json:"calendarId,omitempty"`
}

type AggregatedAccountRef struct {
	AccountID  string `json:"accountId"`
	CalendarID string `json:"calendarId,omitempty"`
}

type AggregatedEventsRequest struct {
	Accounts []AggregatedAccountRef `json:"accounts"`
	TimeMin  string                 `json:"timeMin,omitempty"`
	TimeMax  string                 `json:"timeMax,omitempty"`
}

// DecodeTriggerConditions decodes a rule's trigger_conditions field, which
// may be a JSON object or a JSON-encoded string containing one. The second
// return is false when the payload is malformed; callers substitute the
// documented default (empty conditions).
func DecodeTriggerConditions(raw json.RawMessage) (TriggerConditions, bool) {
	var tc TriggerConditions
	ok := decodeObjectOrString(raw, &tc)
	return tc, ok
}

// DecodeActionParams decodes a rule's action_params field with the same
// object-or-string tolerance. Callers substitute the documented default
// (offset -60, duration 5) when it reports false.
func DecodeActionParams(raw json.RawMessage) (ActionParams, bool) {
	var ap ActionParams
	ok := decodeObjectOrString(raw, &ap)
	return ap, ok
}

func decodeObjectOrString(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	if err := json.Unmarshal(raw, out); err == nil {
		return true
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return false
	}
	return json.Unmarshal([]byte(encoded), out) == nil
}
