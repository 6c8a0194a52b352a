package restbackend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/schedule"
)

var _ schedule.Repository = (*Client)(nil) // interface compliance check

const (
	eventsPath = "/rest/v1/calendar_events"
	slotsPath  = "/rest/v1/timetable_slots"
)

func (c *Client) QueryEvents(ctx context.Context, filter schedule.EventFilter) ([]schedule.CalendarEvent, error) {
	query := url.Values{"order": {"date.asc"}}
	if len(filter.Audiences) > 0 {
		query.Set("audience", "in.("+strings.Join(filter.Audiences, ",")+")")
	}
	if !filter.From.IsZero() {
		query.Add("date", "gte."+filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		query.Add("date", "lt."+filter.To.UTC().Format(time.RFC3339))
	}

	var rows []schedule.CalendarEvent
	if err := c.do(ctx, http.MethodGet, eventsPath, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying calendar events")
	}
	return rows, nil
}

func (c *Client) QuerySlotsBySection(ctx context.Context, section string) ([]schedule.TimetableSlot, error) {
	query := url.Values{}
	if section != "" {
		query.Set("section", "eq."+section)
	}
	return c.querySlots(ctx, query)
}

func (c *Client) QuerySlotsByFaculty(ctx context.Context, facultyID string) ([]schedule.TimetableSlot, error) {
	return c.querySlots(ctx, url.Values{"faculty_id": {"eq." + facultyID}})
}

func (c *Client) querySlots(ctx context.Context, query url.Values) ([]schedule.TimetableSlot, error) {
	var rows []schedule.TimetableSlot
	if err := c.do(ctx, http.MethodGet, slotsPath, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying timetable slots")
	}
	return rows, nil
}
