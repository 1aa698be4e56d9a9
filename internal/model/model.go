package model

import (
	"time"

	"github.com/google/uuid"
)

// Display shapes: normalized naming over the backend's wire format. These
// are what pages render and what the session snapshot persists (hence the
// camelCase JSON tags).

type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountRevoked AccountStatus = "revoked"
	AccountError   AccountStatus = "error"
	AccountPaused  AccountStatus = "paused"
)

type LogStatus string

const (
	LogPending LogStatus = "pending"
	LogSuccess LogStatus = "success"
	LogFailure LogStatus = "failure"
	LogSkipped LogStatus = "skipped"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ConnectedAccount struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"userId"`
	Provider       Provider      `json:"provider"`
	Email          string        `json:"email"`
	ProviderUserID string        `json:"providerUserId"`
	TokenExpiry    time.Time     `json:"tokenExpiry"`
	Scopes         []string      `json:"scopes"`
	Status         AccountStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	LastChecked    *time.Time    `json:"lastChecked,omitempty"`
}

// TriggerConditions is the sparse predicate set on a rule. Empty fields are
// absent predicates.
type TriggerConditions struct {
	SummaryEquals       string `json:"summaryEquals,omitempty"`
	SummaryContains     string `json:"summaryContains,omitempty"`
	LocationEquals      string `json:"locationEquals,omitempty"`
	LocationContains    string `json:"locationContains,omitempty"`
	DescriptionContains string `json:"descriptionContains,omitempty"`
	StatusEquals        string `json:"statusEquals,omitempty"`
	CreatorContains     string `json:"creatorContains,omitempty"`
	OrganizerContains   string `json:"organizerContains,omitempty"`
	StartTimeAfter      string `json:"startTimeAfter,omitempty"`
	StartTimeBefore     string `json:"startTimeBefore,omitempty"`
	EndTimeAfter        string `json:"endTimeAfter,omitempty"`
	EndTimeBefore       string `json:"endTimeBefore,omitempty"`
}

// ActionParams describes the reminder event a matching rule creates.
// OffsetMinutes is relative to the matched event's start; negative means
// before.
type ActionParams struct {
	OffsetMinutes int    `json:"offsetMinutes"`
	DurationMin   int    `json:"durationMin"`
	TitlePrefix   string `json:"titlePrefix,omitempty"`
}

// DefaultActionParams is substituted when a rule's action_params payload is
// malformed.
var DefaultActionParams = ActionParams{OffsetMinutes: -60, DurationMin: 5}

type AutomationRule struct {
	ID                 uuid.UUID         `json:"id"`
	ConnectedAccountID uuid.UUID         `json:"connectedAccountId"`
	Name               string            `json:"name"`
	IsActive           bool              `json:"isActive"`
	TriggerConditions  TriggerConditions `json:"triggerConditions"`
	ActionParams       ActionParams      `json:"actionParams"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

type TriggerLogDetails struct {
	GoogleEventID  string `json:"googleEventId"`
	TriggerSummary string `json:"triggerSummary"`
	TriggerTime    string `json:"triggerTime"`
}

type ActionLogDetails struct {
	CreatedEventID      string `json:"createdEventId"`
	CreatedEventSummary string `json:"createdEventSummary"`
	ReminderTime        string `json:"reminderTime"`
}

// AutomationLog is one immutable rule-evaluation record. RuleID is nil for
// account-level entries.
type AutomationLog struct {
	ID                 int64              `json:"id"`
	ConnectedAccountID uuid.UUID          `json:"connectedAccountId"`
	RuleID             *uuid.UUID         `json:"ruleId,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
	Status             LogStatus          `json:"status"`
	TriggerDetails     *TriggerLogDetails `json:"triggerDetails,omitempty"`
	ActionDetails      *ActionLogDetails  `json:"actionDetails,omitempty"`
	ErrorMessage       string             `json:"errorMessage,omitempty"`
}

// EventTime carries the provider's timed-or-all-day duality untouched.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// CalendarEvent is a read-only provider event passthrough.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Status      string    `json:"status,omitempty"`
}

type EventSummary struct {
	Summary     string `json:"summary"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Count       int    `json:"count"`
}

type HealthStatus struct {
	Database bool     `json:"database"`
	Services []string `json:"services"`
}

// RulesForAccounts drops rules whose owning account is not in the loaded
// account set. An orphaned rule on screen is a display defect.
func RulesForAccounts(rules []AutomationRule, accounts []ConnectedAccount) []AutomationRule {
	known := accountIDSet(accounts)
	var kept []AutomationRule
	for _, r := range rules {
		if known[r.ConnectedAccountID] {
			kept = append(kept, r)
		}
	}
	return kept
}

// LogsForAccounts drops logs whose owning account is not in the loaded
// account set.
func LogsForAccounts(logs []AutomationLog, accounts []ConnectedAccount) []AutomationLog {
	known := accountIDSet(accounts)
	var kept []AutomationLog
	for _, l := range logs {
		if known[l.ConnectedAccountID] {
			kept = append(kept, l)
		}
	}
	return kept
}

func accountIDSet(accounts []ConnectedAccount) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(accounts))
	for _, a := range accounts {
		set[a.ID] = true
	}
	return set
}
