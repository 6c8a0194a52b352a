package announce_test

import (
	"context"
	"testing"

	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/auth"
	dummybackend "github.com/kampala/campushub/services/backend/dummy"
)

var (
	student = auth.Profile{ID: "std1", FirstName: "Jane", LastName: "Doe", Role: auth.RoleStudent}
	faculty = auth.Profile{ID: "fac1", FirstName: "John", LastName: "Prof", Role: auth.RoleFaculty}
)

func newTestService(t *testing.T) *announce.Service {
	t.Helper()
	db, err := dummybackend.Open()
	if err != nil {
		t.Fatalf("opening dummy backend: %v", err)
	}
	return announce.NewService(dummybackend.NewAnnounceRepository(db))
}

func TestService_Post(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Post(ctx, student, announce.NewAnnouncement{Title: "nope", Body: "x"}); err != announce.ErrForbidden {
		t.Errorf("Post() by student error = %v, want ErrForbidden", err)
	}

	ann, err := svc.Post(ctx, faculty, announce.NewAnnouncement{
		Title:    "Midterm schedule",
		Body:     "Midterms start next Monday.",
		Category: announce.CategoryAcademic,
		Audience: announce.AudienceStudents,
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if ann.ID == "" {
		t.Error("ID not assigned")
	}
	if ann.AuthorID != faculty.ID || ann.AuthorName != "John Prof" {
		t.Errorf("author = %q/%q, want fac1/John Prof", ann.AuthorID, ann.AuthorName)
	}
	if ann.PostedAt.IsZero() {
		t.Error("PostedAt not set")
	}
}

func TestService_QueryFor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	post := func(title, audience string) {
		t.Helper()
		if _, err := svc.Post(ctx, faculty, announce.NewAnnouncement{
			Title: title, Body: "b", Category: announce.CategoryGeneral, Audience: audience,
		}); err != nil {
			t.Fatalf("Post(%s) error = %v", title, err)
		}
	}
	post("everyone", announce.AudienceAll)
	post("students only", announce.AudienceStudents)
	post("faculty only", announce.AudienceFaculty)

	studentFeed, err := svc.QueryFor(ctx, student, announce.QueryFilter{})
	if err != nil {
		t.Fatalf("QueryFor(student) error = %v", err)
	}
	if len(studentFeed) != 2 {
		t.Errorf("student feed = %d items, want 2", len(studentFeed))
	}
	for _, a := range studentFeed {
		if a.Audience == announce.AudienceFaculty {
			t.Errorf("student feed leaked a faculty-only post: %q", a.Title)
		}
	}

	facultyFeed, err := svc.QueryFor(ctx, faculty, announce.QueryFilter{})
	if err != nil {
		t.Fatalf("QueryFor(faculty) error = %v", err)
	}
	if len(facultyFeed) != 3 {
		t.Errorf("faculty feed = %d items, want 3", len(facultyFeed))
	}

	filtered, err := svc.QueryFor(ctx, faculty, announce.QueryFilter{Category: announce.CategoryUrgent})
	if err != nil {
		t.Fatalf("QueryFor(category) error = %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("urgent feed = %d items, want 0", len(filtered))
	}
}
