package announce

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kampala/campushub/core"
)

// Audiences
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceFaculty  = "faculty"
)

var AllAudiences = []string{AudienceAll, AudienceStudents, AudienceFaculty}

// Categories
const (
	CategoryGeneral  = "general"
	CategoryAcademic = "academic"
	CategoryEvent    = "event"
	CategoryUrgent   = "urgent"
)

var AllCategories = []string{CategoryGeneral, CategoryAcademic, CategoryEvent, CategoryUrgent}

// Announcement is a post on the campus feed.
type Announcement struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"` // profile id
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Audience   string    `json:"audience"`
	PostedAt   time.Time `json:"posted_at"` // UTC
}

// NewAnnouncement contains information needed to post an Announcement.
type NewAnnouncement struct {
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"omitempty,oneof=general academic event urgent"`
	Audience string `json:"audience" validate:"omitempty,oneof=all students faculty"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	na.Category = core.CleanString(na.Category, true /* lower */)
	na.Audience = core.CleanString(na.Audience, true /* lower */)
	if na.Category == "" {
		na.Category = CategoryGeneral
	}
	if na.Audience == "" {
		na.Audience = AudienceAll
	}
	return validate.Struct(na)
}

// QueryFilter narrows a feed query. Audiences is filled in by the service
// from the viewer's role; callers only set Category and Since.
type QueryFilter struct {
	Audiences []string
	Category  string    `query:"category"`
	Since     time.Time `query:"since"`
}
