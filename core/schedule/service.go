package schedule

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/auth"
)

var ErrNotFound = errors.New("schedule entry not found")

type (
	Repository interface {
		QueryEvents(ctx context.Context, filter EventFilter) ([]CalendarEvent, error)
		QuerySlotsBySection(ctx context.Context, section string) ([]TimetableSlot, error)
		QuerySlotsByFaculty(ctx context.Context, facultyID string) ([]TimetableSlot, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EventsFor returns calendar events visible to the viewer within the window.
// A zero window defaults to the current month.
func (svc *Service) EventsFor(ctx context.Context, viewer auth.Profile, filter EventFilter) ([]CalendarEvent, error) {
	if filter.From.IsZero() {
		now := time.Now().UTC()
		filter.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		filter.To = filter.From.AddDate(0, 1, 0)
	}
	if viewer.IsFaculty() {
		filter.Audiences = []string{announce.AudienceAll, announce.AudienceFaculty}
	} else {
		filter.Audiences = []string{announce.AudienceAll, announce.AudienceStudents}
	}
	events, err := svc.repo.QueryEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// SlotsFor returns the viewer's weekly timetable: faculty get the slots they
// teach, students get their section's slots.
func (svc *Service) SlotsFor(ctx context.Context, viewer auth.Profile, section string) ([]TimetableSlot, error) {
	var slots []TimetableSlot
	var err error
	if viewer.IsFaculty() {
		slots, err = svc.repo.QuerySlotsByFaculty(ctx, viewer.ID)
	} else {
		slots, err = svc.repo.QuerySlotsBySection(ctx, core.CleanString(section, true /* lower */))
	}
	if err != nil {
		return nil, err
	}
	sortSlots(slots)
	return slots, nil
}

var dayOrder = func() map[string]int {
	m := make(map[string]int, len(Weekdays))
	for i, d := range Weekdays {
		m[d] = i
	}
	return m
}()

func sortSlots(slots []TimetableSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if dayOrder[slots[i].Day] != dayOrder[slots[j].Day] {
			return dayOrder[slots[i].Day] < dayOrder[slots[j].Day]
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// SlotsForDay filters a sorted timetable down to a single weekday.
func SlotsForDay(slots []TimetableSlot, day string) []TimetableSlot {
	out := make([]TimetableSlot, 0, len(slots))
	for _, s := range slots {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out
}
