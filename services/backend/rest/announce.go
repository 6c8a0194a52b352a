package restbackend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/announce"
)

var _ announce.Repository = (*Client)(nil) // interface compliance check

const announcementsPath = "/rest/v1/announcements"

func (c *Client) QueryAnnouncements(ctx context.Context, filter announce.QueryFilter) ([]announce.Announcement, error) {
	query := url.Values{"order": {"posted_at.desc"}}
	if len(filter.Audiences) > 0 {
		query.Set("audience", "in.("+strings.Join(filter.Audiences, ",")+")")
	}
	if filter.Category != "" {
		query.Set("category", "eq."+filter.Category)
	}
	if !filter.Since.IsZero() {
		query.Set("posted_at", "gte."+filter.Since.UTC().Format(time.RFC3339))
	}

	var rows []announce.Announcement
	if err := c.do(ctx, http.MethodGet, announcementsPath, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	return rows, nil
}

type announcementInsert struct {
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Audience   string    `json:"audience"`
	PostedAt   time.Time `json:"posted_at"`
}

func (c *Client) CreateAnnouncement(ctx context.Context, a announce.Announcement) (announce.Announcement, error) {
	row := announcementInsert{
		AuthorID:   a.AuthorID,
		AuthorName: a.AuthorName,
		Title:      a.Title,
		Body:       a.Body,
		Category:   a.Category,
		Audience:   a.Audience,
		PostedAt:   a.PostedAt,
	}
	var rows []announce.Announcement
	err := c.do(ctx, http.MethodPost, announcementsPath, nil, []announcementInsert{row}, &rows,
		"Prefer", "return=representation")
	if err != nil {
		return announce.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	if len(rows) == 0 {
		return announce.Announcement{}, errors.New("insert returned no row")
	}
	return rows[0], nil
}
