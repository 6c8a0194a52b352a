package dummybackend

import (
	"context"

	"github.com/kampala/campushub/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) QueryEvents(ctx context.Context, filter schedule.EventFilter) ([]schedule.CalendarEvent, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	audiences := make(map[string]bool, len(filter.Audiences))
	for _, a := range filter.Audiences {
		audiences[a] = true
	}

	out := make([]schedule.CalendarEvent, 0, len(repo.db.events))
	for _, ev := range repo.db.events {
		if len(audiences) > 0 && !audiences[ev.Audience] {
			continue
		}
		if !filter.From.IsZero() && ev.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !ev.Date.Before(filter.To) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (repo *scheduleRepository) QuerySlotsBySection(ctx context.Context, section string) ([]schedule.TimetableSlot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]schedule.TimetableSlot, 0, len(repo.db.slots))
	for _, slot := range repo.db.slots {
		if section == "" || slot.Section == section {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (repo *scheduleRepository) QuerySlotsByFaculty(ctx context.Context, facultyID string) ([]schedule.TimetableSlot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]schedule.TimetableSlot, 0, len(repo.db.slots))
	for _, slot := range repo.db.slots {
		if slot.FacultyID == facultyID {
			out = append(out, slot)
		}
	}
	return out, nil
}

// Seed helpers

func (db *DB) SeedEvents(events ...schedule.CalendarEvent) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.events = append(db.events, events...)
}

func (db *DB) SeedSlots(slots ...schedule.TimetableSlot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.slots = append(db.slots, slots...)
}
