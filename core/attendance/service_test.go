package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/kampala/campushub/core/attendance"
	"github.com/kampala/campushub/core/auth"
	dummybackend "github.com/kampala/campushub/services/backend/dummy"
)

var (
	student = auth.Profile{ID: "std1", Role: auth.RoleStudent}
	faculty = auth.Profile{ID: "fac1", Role: auth.RoleFaculty}
)

func newTestService(t *testing.T) *attendance.Service {
	t.Helper()
	db, err := dummybackend.Open()
	if err != nil {
		t.Fatalf("opening dummy backend: %v", err)
	}
	return attendance.NewService(dummybackend.NewAttendanceRepository(db))
}

func TestService_SubmitSheet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	tests := []struct {
		name    string
		taker   auth.Profile
		sheet   attendance.Sheet
		wantErr error
	}{
		{
			name:    "students cannot take attendance",
			taker:   student,
			sheet:   attendance.Sheet{CourseID: "cs101", Date: yesterday, Entries: []attendance.SheetEntry{{StudentID: "std1", Present: true}}},
			wantErr: attendance.ErrForbidden,
		},
		{
			name:    "future date rejected",
			taker:   faculty,
			sheet:   attendance.Sheet{CourseID: "cs101", Date: time.Now().UTC().Add(48 * time.Hour), Entries: []attendance.SheetEntry{{StudentID: "std1"}}},
			wantErr: attendance.ErrSheetInFuture,
		},
		{
			name:  "duplicate students rejected",
			taker: faculty,
			sheet: attendance.Sheet{CourseID: "cs101", Date: yesterday, Entries: []attendance.SheetEntry{
				{StudentID: "std1", Present: true},
				{StudentID: "std1", Present: false},
			}},
			wantErr: attendance.ErrDuplicateStudents,
		},
		{
			name:  "valid sheet",
			taker: faculty,
			sheet: attendance.Sheet{CourseID: "cs101", Date: yesterday, Entries: []attendance.SheetEntry{
				{StudentID: "std1", Present: true},
				{StudentID: "std2", Present: false},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.SubmitSheet(ctx, tt.taker, tt.sheet); err != tt.wantErr {
				t.Errorf("SubmitSheet() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_SubmitSheet_overwrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	date := time.Now().UTC().Add(-24 * time.Hour)

	first := attendance.Sheet{CourseID: "cs101", Date: date, Entries: []attendance.SheetEntry{
		{StudentID: "std1", Present: false},
		{StudentID: "std2", Present: false},
	}}
	if err := svc.SubmitSheet(ctx, faculty, first); err != nil {
		t.Fatalf("SubmitSheet() error = %v", err)
	}

	// correction: std1 was actually present
	second := attendance.Sheet{CourseID: "cs101", Date: date, Entries: []attendance.SheetEntry{
		{StudentID: "std1", Present: true},
		{StudentID: "std2", Present: false},
	}}
	if err := svc.SubmitSheet(ctx, faculty, second); err != nil {
		t.Fatalf("SubmitSheet() resubmit error = %v", err)
	}

	records, err := svc.CourseSheet(ctx, faculty, "cs101", date)
	if err != nil {
		t.Fatalf("CourseSheet() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (resubmit replaces, not appends)", len(records))
	}
	for _, rec := range records {
		if rec.StudentID == "std1" && !rec.Present {
			t.Error("std1 still marked absent after correction")
		}
	}

	if _, err := svc.CourseSheet(ctx, student, "cs101", date); err != attendance.ErrForbidden {
		t.Errorf("CourseSheet() by student error = %v, want ErrForbidden", err)
	}
}

func TestService_SummaryFor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	day := func(daysAgo int) time.Time { return time.Now().UTC().AddDate(0, 0, -daysAgo) }
	submit := func(course string, daysAgo int, present bool) {
		t.Helper()
		sheet := attendance.Sheet{CourseID: course, Date: day(daysAgo), Entries: []attendance.SheetEntry{
			{StudentID: student.ID, Present: present},
		}}
		if err := svc.SubmitSheet(ctx, faculty, sheet); err != nil {
			t.Fatalf("SubmitSheet(%s) error = %v", course, err)
		}
	}
	submit("cs101", 3, true)
	submit("cs101", 2, true)
	submit("cs101", 1, false)
	submit("cs102", 1, true)

	summaries, err := svc.SummaryFor(ctx, student)
	if err != nil {
		t.Fatalf("SummaryFor() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	cs101 := summaries[0]
	if cs101.CourseID != "cs101" || cs101.Held != 3 || cs101.Attended != 2 {
		t.Errorf("cs101 = %+v, want 2 of 3", cs101)
	}
	if cs101.Percentage != 66.67 {
		t.Errorf("cs101.Percentage = %v, want 66.67", cs101.Percentage)
	}
	if summaries[1].Percentage != 100 {
		t.Errorf("cs102.Percentage = %v, want 100", summaries[1].Percentage)
	}

	if _, err := svc.SummaryFor(ctx, faculty); err != attendance.ErrForbidden {
		t.Errorf("SummaryFor() by faculty error = %v, want ErrForbidden", err)
	}
}
