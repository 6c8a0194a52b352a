package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/auth"
	"github.com/kampala/campushub/core/schedule"
	dummybackend "github.com/kampala/campushub/services/backend/dummy"
)

var (
	student = auth.Profile{ID: "std1", Role: auth.RoleStudent}
	faculty = auth.Profile{ID: "fac1", Role: auth.RoleFaculty}
)

func newTestService(t *testing.T) (*schedule.Service, *dummybackend.DB) {
	t.Helper()
	db, err := dummybackend.Open()
	if err != nil {
		t.Fatalf("opening dummy backend: %v", err)
	}
	return schedule.NewService(dummybackend.NewScheduleRepository(db)), db
}

func TestService_EventsFor(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	db.SeedEvents(
		schedule.CalendarEvent{ID: "e1", Title: "Sports day", Kind: schedule.KindActivity, Date: monthStart.Add(72 * time.Hour), Audience: announce.AudienceAll},
		schedule.CalendarEvent{ID: "e2", Title: "Exam week", Kind: schedule.KindExam, Date: monthStart.Add(24 * time.Hour), Audience: announce.AudienceStudents},
		schedule.CalendarEvent{ID: "e3", Title: "Staff meeting", Kind: schedule.KindActivity, Date: monthStart.Add(48 * time.Hour), Audience: announce.AudienceFaculty},
		schedule.CalendarEvent{ID: "e4", Title: "Next year", Kind: schedule.KindHoliday, Date: monthStart.AddDate(1, 0, 0), Audience: announce.AudienceAll},
	)

	// zero window defaults to the current month
	events, err := svc.EventsFor(ctx, student, schedule.EventFilter{})
	if err != nil {
		t.Fatalf("EventsFor(student) error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("student events = %d, want 2 (this month, student-visible)", len(events))
	}
	// sorted by date
	if events[0].ID != "e2" || events[1].ID != "e1" {
		t.Errorf("order = [%s %s], want [e2 e1]", events[0].ID, events[1].ID)
	}

	events, err = svc.EventsFor(ctx, faculty, schedule.EventFilter{})
	if err != nil {
		t.Fatalf("EventsFor(faculty) error = %v", err)
	}
	for _, ev := range events {
		if ev.Audience == announce.AudienceStudents {
			t.Errorf("faculty calendar leaked a students-only event: %q", ev.Title)
		}
	}

	// explicit window reaching into next year
	events, err = svc.EventsFor(ctx, student, schedule.EventFilter{
		From: monthStart,
		To:   monthStart.AddDate(2, 0, 0),
	})
	if err != nil {
		t.Fatalf("EventsFor(window) error = %v", err)
	}
	if len(events) != 3 {
		t.Errorf("windowed events = %d, want 3", len(events))
	}
}

func TestService_SlotsFor(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	db.SeedSlots(
		schedule.TimetableSlot{ID: "s1", CourseID: "cs101", Section: "a", Day: schedule.Wednesday, StartTime: "09:00", EndTime: "10:30", FacultyID: "fac1"},
		schedule.TimetableSlot{ID: "s2", CourseID: "cs102", Section: "a", Day: schedule.Monday, StartTime: "11:00", EndTime: "12:30", FacultyID: "fac2"},
		schedule.TimetableSlot{ID: "s3", CourseID: "cs103", Section: "a", Day: schedule.Monday, StartTime: "09:00", EndTime: "10:30", FacultyID: "fac1"},
		schedule.TimetableSlot{ID: "s4", CourseID: "cs104", Section: "b", Day: schedule.Friday, StartTime: "14:00", EndTime: "15:30", FacultyID: "fac1"},
	)

	slots, err := svc.SlotsFor(ctx, student, "A") // section is case-insensitive
	if err != nil {
		t.Fatalf("SlotsFor(student) error = %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("student slots = %d, want 3", len(slots))
	}
	// day order then start time
	if slots[0].ID != "s3" || slots[1].ID != "s2" || slots[2].ID != "s1" {
		t.Errorf("order = [%s %s %s], want [s3 s2 s1]", slots[0].ID, slots[1].ID, slots[2].ID)
	}

	slots, err = svc.SlotsFor(ctx, faculty, "")
	if err != nil {
		t.Fatalf("SlotsFor(faculty) error = %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("faculty slots = %d, want 3", len(slots))
	}
	for _, s := range slots {
		if s.FacultyID != faculty.ID {
			t.Errorf("slot %s belongs to %s, want %s", s.ID, s.FacultyID, faculty.ID)
		}
	}

	monday := schedule.SlotsForDay(slots, schedule.Monday)
	if len(monday) != 1 || monday[0].ID != "s3" {
		t.Errorf("monday slots = %+v, want [s3]", monday)
	}
}
