package ui

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeffreasy/agenda-dashboard/internal/model"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
)

// Local bounds for rule action parameters. The backend remains
// authoritative; rejecting these here just avoids a round trip for a
// guaranteed-invalid rule.
const (
	offsetMinutesMin = -1440
	offsetMinutesMax = 1440
	durationMinMin   = 1
	durationMinMax   = 60
)

// ruleForm holds the raw submitted values so a failed validation can
// re-render the form with the user's input intact.
type ruleForm struct {
	Name                string
	SummaryEquals       string
	SummaryContains     string
	LocationEquals      string
	LocationContains    string
	DescriptionContains string
	StatusEquals        string
	CreatorContains     string
	OrganizerContains   string
	StartTimeAfter      string
	StartTimeBefore     string
	EndTimeAfter        string
	EndTimeBefore       string
	OffsetMinutes       string
	DurationMin         string
	TitlePrefix         string
}

func ruleFormFromRequest(r *http.Request) ruleForm {
	get := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	return ruleForm{
		Name:                get("name"),
		SummaryEquals:       get("summary_equals"),
		SummaryContains:     get("summary_contains"),
		LocationEquals:      get("location_equals"),
		LocationContains:    get("location_contains"),
		DescriptionContains: get("description_contains"),
		StatusEquals:        get("status_equals"),
		CreatorContains:     get("creator_contains"),
		OrganizerContains:   get("organizer_contains"),
		StartTimeAfter:      get("start_time_after"),
		StartTimeBefore:     get("start_time_before"),
		EndTimeAfter:        get("end_time_after"),
		EndTimeBefore:       get("end_time_before"),
		OffsetMinutes:       get("offset_minutes"),
		DurationMin:         get("duration_min"),
		TitlePrefix:         r.PostFormValue("title_prefix"),
	}
}

// validate checks the form locally and, when clean, returns the rule name,
// trigger conditions and action params ready for submission. Field errors
// are keyed by form field name and rendered inline.
func (f ruleForm) validate() (string, model.TriggerConditions, model.ActionParams, map[string]string) {
	errs := map[string]string{}

	if f.Name == "" {
		errs["name"] = "Name is required."
	}

	offset := 0
	if f.OffsetMinutes == "" {
		errs["offset_minutes"] = "Offset is required."
	} else if parsed, err := strconv.Atoi(f.OffsetMinutes); err != nil {
		errs["offset_minutes"] = "Offset must be a whole number of minutes."
	} else if parsed < offsetMinutesMin || parsed > offsetMinutesMax {
		errs["offset_minutes"] = "Offset must be between -1440 and 1440 minutes."
	} else {
		offset = parsed
	}

	duration := 0
	if f.DurationMin == "" {
		errs["duration_min"] = "Duration is required."
	} else if parsed, err := strconv.Atoi(f.DurationMin); err != nil {
		errs["duration_min"] = "Duration must be a whole number of minutes."
	} else if parsed < durationMinMin || parsed > durationMinMax {
		errs["duration_min"] = "Duration must be between 1 and 60 minutes."
	} else {
		duration = parsed
	}

	for field, value := range map[string]string{
		"start_time_after":  f.StartTimeAfter,
		"start_time_before": f.StartTimeBefore,
		"end_time_after":    f.EndTimeAfter,
		"end_time_before":   f.EndTimeBefore,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("15:04", value); err != nil {
			errs[field] = "Use HH:MM, for example 06:30."
		}
	}

	if len(errs) > 0 {
		return "", model.TriggerConditions{}, model.ActionParams{}, errs
	}

	conditions := model.TriggerConditions{
		SummaryEquals:       f.SummaryEquals,
		SummaryContains:     f.SummaryContains,
		LocationEquals:      f.LocationEquals,
		LocationContains:    f.LocationContains,
		DescriptionContains: f.DescriptionContains,
		StatusEquals:        f.StatusEquals,
		CreatorContains:     f.CreatorContains,
		OrganizerContains:   f.OrganizerContains,
		StartTimeAfter:      f.StartTimeAfter,
		StartTimeBefore:     f.StartTimeBefore,
		EndTimeAfter:        f.EndTimeAfter,
		EndTimeBefore:       f.EndTimeBefore,
	}
	params := model.ActionParams{
		OffsetMinutes: offset,
		DurationMin:   duration,
		TitlePrefix:   f.TitlePrefix,
	}
	return f.Name, conditions, params, nil
}

func ruleFormFromRule(rule model.AutomationRule) ruleForm {
	c := rule.TriggerConditions
	p := rule.ActionParams
	return ruleForm{
		Name:                rule.Name,
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
		OffsetMinutes:       strconv.Itoa(p.OffsetMinutes),
		DurationMin:         strconv.Itoa(p.DurationMin),
		TitlePrefix:         p.TitlePrefix,
	}
}

// eventForm collects provider event fields. Times come from
// datetime-local inputs and are forwarded to the provider as RFC 3339.
type eventForm struct {
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	CalendarID  string
}

func eventFormFromRequest(r *http.Request) eventForm {
	get := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	return eventForm{
		Summary:     get("summary"),
		Description: get("description"),
		Location:    get("location"),
		Start:       get("start"),
		End:         get("end"),
		CalendarID:  get("calendar_id"),
	}
}

func (f eventForm) validate() (resource.EventInput, map[string]string) {
	errs := map[string]string{}

	if f.Summary == "" {
		errs["summary"] = "Summary is required."
	}
	start, err := parseLocalDateTime(f.Start)
	if err != nil {
		errs["start"] = "Start must be a valid date and time."
	}
	end, err := parseLocalDateTime(f.End)
	if err != nil {
		errs["end"] = "End must be a valid date and time."
	}
	if len(errs) == 0 && !end.After(start) {
		errs["end"] = "End must be after start."
	}
	if len(errs) > 0 {
		return resource.EventInput{}, errs
	}

	return resource.EventInput{
		Summary:     f.Summary,
		Description: f.Description,
		Location:    f.Location,
		Start:       model.EventTime{DateTime: start.Format(time.RFC3339)},
		End:         model.EventTime{DateTime: end.Format(time.RFC3339)},
	}, nil
}

func eventFormFromEvent(event model.CalendarEvent, calendarID string) eventForm {
	return eventForm{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       localDateTimeValue(event.Start),
		End:         localDateTimeValue(event.End),
		CalendarID:  calendarID,
	}
}

func localDateTimeValue(t model.EventTime) string {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed.Format("2006-01-02T15:04")
		}
		return t.DateTime
	}
	if t.Date != "" {
		return t.Date + "T00:00"
	}
	return ""
}

func parseLocalDateTime(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
