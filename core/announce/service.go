package announce

import (
	"context"
	"errors"
	"time"

	"github.com/kampala/campushub/core/auth"
)

var (
	// errors
	ErrNotFound  = errors.New("announcement not found")
	ErrForbidden = errors.New("only faculty can post announcements")
)

type (
	Repository interface {
		QueryAnnouncements(ctx context.Context, filter QueryFilter) ([]Announcement, error)
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// QueryFor returns the feed visible to the viewer: students see posts aimed at
// students or everyone, faculty see everything.
func (svc *Service) QueryFor(ctx context.Context, viewer auth.Profile, filter QueryFilter) ([]Announcement, error) {
	if viewer.IsFaculty() {
		filter.Audiences = AllAudiences
	} else {
		filter.Audiences = []string{AudienceAll, AudienceStudents}
	}
	return svc.repo.QueryAnnouncements(ctx, filter)
}

// Post publishes an announcement authored by a faculty member.
func (svc *Service) Post(ctx context.Context, author auth.Profile, na NewAnnouncement) (Announcement, error) {
	if !author.IsFaculty() {
		return Announcement{}, ErrForbidden
	}
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		AuthorID:   author.ID,
		AuthorName: author.FullName(),
		Title:      na.Title,
		Body:       na.Body,
		Category:   na.Category,
		Audience:   na.Audience,
		PostedAt:   time.Now().UTC(),
	})
}
