package dummybackend

import (
	"context"

	"github.com/google/uuid"

	"github.com/kampala/campushub/core/announce"
)

type announceRepository struct {
	db *DB
}

var _ announce.Repository = (*announceRepository)(nil) // interface compliance check

func NewAnnounceRepository(db *DB) announce.Repository {
	return &announceRepository{db: db}
}

func (repo *announceRepository) QueryAnnouncements(ctx context.Context, filter announce.QueryFilter) ([]announce.Announcement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	audiences := make(map[string]bool, len(filter.Audiences))
	for _, a := range filter.Audiences {
		audiences[a] = true
	}

	out := make([]announce.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		if len(audiences) > 0 && !audiences[a.Audience] {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if !filter.Since.IsZero() && a.PostedAt.Before(filter.Since) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (repo *announceRepository) CreateAnnouncement(ctx context.Context, a announce.Announcement) (announce.Announcement, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = uuid.New().String()
	// newest first
	repo.db.announcements = append([]announce.Announcement{a}, repo.db.announcements...)
	return a, nil
}
