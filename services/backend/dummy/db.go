package dummybackend

import (
	"sync"

	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/attendance"
	"github.com/kampala/campushub/core/auth"
	"github.com/kampala/campushub/core/results"
	"github.com/kampala/campushub/core/schedule"
)

// DB is an in-memory stand-in for the hosted platform; used by tests and
// local dev.
type DB struct {
	mu sync.RWMutex

	credentials map[string]*credential // by email
	session     *auth.Session          // the active session, nil when signed out
	subscribers []chan auth.SessionEvent

	profiles      map[string]*auth.Profile // by subject id
	announcements []announce.Announcement
	events        []schedule.CalendarEvent
	slots         []schedule.TimetableSlot
	attendance    []attendance.Record
	results       []results.Result
}

type credential struct {
	subjectID    string
	email        string
	passwordHash []byte
}

func Open() (*DB, error) {
	return &DB{
		credentials: make(map[string]*credential),
		profiles:    make(map[string]*auth.Profile),
	}, nil
}

// broadcast delivers ev to all subscribers without blocking; must be called
// with db.mu held.
func (db *DB) broadcast(ev auth.SessionEvent) {
	for _, sub := range db.subscribers {
		select {
		case sub <- ev:
		default:
		}
	}
}
