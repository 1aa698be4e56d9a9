package resource

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/model"
)

// Events proxies calendar events through the backend to the upstream
// provider. Reads are passthrough; writes go through the provider's CRUD.
type Events struct {
	client *api.Client
	cache  *cache.Cache

	Creating    Mutation
	Updating    Mutation
	Deleting    Mutation
	Aggregating Mutation
}

// EventQuery narrows an event listing; zero fields are omitted from the
// request.
type EventQuery struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
}

func (q EventQuery) wire() api.EventQuery {
	return api.EventQuery{CalendarID: q.CalendarID, TimeMin: q.TimeMin, TimeMax: q.TimeMax}
}

func eventKey(accountID uuid.UUID, q EventQuery) cache.Key {
	param := strings.Join([]string{accountID.String(), q.CalendarID, q.TimeMin, q.TimeMax}, "|")
	return cache.Key{Resource: resEvents, Param: param}
}

func (e *Events) List(ctx context.Context, accountID uuid.UUID, q EventQuery) (cache.Result[[]model.CalendarEvent], error) {
	if accountID == uuid.Nil {
		return cache.Result[[]model.CalendarEvent]{}, nil
	}

	return cache.Fetch(ctx, e.cache, eventKey(accountID, q), cache.Options{TTL: eventsTTL}, func(ctx context.Context) ([]model.CalendarEvent, error) {
		wires, err := e.client.ListEvents(ctx, accountID.String(), q.wire())
		if err != nil {
			return nil, err
		}
		events := make([]model.CalendarEvent, 0, len(wires))
		for _, w := range wires {
			events = append(events, model.EventFromWire(w))
		}
		return events, nil
	})
}

// Summaries reads distinct historical event summaries with counts, used by
// the rule form to suggest trigger values.
func (e *Events) Summaries(ctx context.Context, accountID uuid.UUID) (cache.Result[[]model.EventSummary], error) {
	if accountID == uuid.Nil {
		return cache.Result[[]model.EventSummary]{}, nil
	}

	key := cache.Key{Resource: resSummaries, Param: accountID.String()}
	return cache.Fetch(ctx, e.cache, key, cache.Options{TTL: summariesTTL}, func(ctx context.Context) ([]model.EventSummary, error) {
		wires, err := e.client.EventSummaries(ctx, accountID.String())
		if err != nil {
			return nil, err
		}
		summaries := make([]model.EventSummary, 0, len(wires))
		for _, w := range wires {
			summaries = append(summaries, model.EventSummaryFromWire(w))
		}
		return summaries, nil
	})
}

// EventInput is the user-provided event body for create and update.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       model.EventTime
	End         model.EventTime
}

func (in EventInput) wire(calendarID string) api.CreateEventRequest {
	return api.CreateEventRequest{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       api.EventDateTime(in.Start),
		End:         api.EventDateTime(in.End),
		CalendarID:  calendarID,
	}
}

func (e *Events) Create(ctx context.Context, accountID uuid.UUID, in EventInput, calendarID string) (model.CalendarEvent, error) {
	var created model.CalendarEvent
	err := e.Creating.run(func() error {
		wire, err := e.client.CreateEvent(ctx, accountID.String(), in.wire(calendarID), calendarID)
		if err != nil {
			return err
		}
		created = model.EventFromWire(wire)
		e.cache.InvalidateResource(resEvents)
		e.cache.Invalidate(cache.Key{Resource: resSummaries, Param: accountID.String()})
		return nil
	})
	return created, err
}

func (e *Events) Update(ctx context.Context, accountID uuid.UUID, eventID string, in EventInput, calendarID string) (model.CalendarEvent, error) {
	var updated model.CalendarEvent
	err := e.Updating.run(func() error {
		wire, err := e.client.UpdateEvent(ctx, accountID.String(), eventID, in.wire(calendarID), calendarID)
		if err != nil {
			return err
		}
		updated = model.EventFromWire(wire)
		e.cache.InvalidateResource(resEvents)
		return nil
	})
	return updated, err
}

func (e *Events) Delete(ctx context.Context, accountID uuid.UUID, eventID, calendarID string) error {
	return e.Deleting.run(func() error {
		if err := e.client.DeleteEvent(ctx, accountID.String(), eventID, calendarID); err != nil {
			return err
		}
		e.cache.InvalidateResource(resEvents)
		return nil
	})
}

// Aggregated merges events across several accounts in one backend call.
// Results are not cached; the merged view has no stable key worth keeping.
func (e *Events) Aggregated(ctx context.Context, refs []api.AggregatedAccountRef, timeMin, timeMax string) ([]model.CalendarEvent, error) {
	var merged []model.CalendarEvent
	err := e.Aggregating.run(func() error {
		wires, err := e.client.AggregatedEvents(ctx, api.AggregatedEventsRequest{
			Accounts: refs,
			TimeMin:  timeMin,
			TimeMax:  timeMax,
		})
		if err != nil {
			return err
		}
		merged = make([]model.CalendarEvent, 0, len(wires))
		for _, w := range wires {
			merged = append(merged, model.EventFromWire(w))
		}
		return nil
	})
	return merged, err
}
