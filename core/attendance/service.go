package attendance

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/kampala/campushub/core/auth"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance record not found")
	ErrForbidden         = errors.New("not allowed for this role")
	ErrSheetInFuture     = errors.New("cannot take attendance for a future date")
	ErrDuplicateStudents = errors.New("sheet lists a student more than once")
)

type (
	Repository interface {
		QueryRecordsByStudent(ctx context.Context, studentID string) ([]Record, error)
		QueryRecordsByCourseDate(ctx context.Context, courseID string, date time.Time) ([]Record, error)
		// SaveSheet upserts all records for (course, date) atomically.
		SaveSheet(ctx context.Context, records []Record) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SummaryFor returns per-course attendance percentages for a student viewer.
func (svc *Service) SummaryFor(ctx context.Context, viewer auth.Profile) ([]CourseSummary, error) {
	if !viewer.IsStudent() {
		return nil, ErrForbidden
	}
	records, err := svc.repo.QueryRecordsByStudent(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// CourseSheet returns the recorded roll call for a course+date; faculty only.
func (svc *Service) CourseSheet(ctx context.Context, viewer auth.Profile, courseID string, date time.Time) ([]Record, error) {
	if !viewer.IsFaculty() {
		return nil, ErrForbidden
	}
	return svc.repo.QueryRecordsByCourseDate(ctx, courseID, day(date))
}

// SubmitSheet records a roll call taken by a faculty member. Resubmitting the
// same course+date overwrites the previous marks.
func (svc *Service) SubmitSheet(ctx context.Context, taker auth.Profile, sheet Sheet) error {
	if !taker.IsFaculty() {
		return ErrForbidden
	}
	date := day(sheet.Date)
	if date.After(day(time.Now().UTC())) {
		return ErrSheetInFuture
	}
	seen := make(map[string]bool, len(sheet.Entries))
	records := make([]Record, 0, len(sheet.Entries))
	for _, entry := range sheet.Entries {
		if seen[entry.StudentID] {
			return ErrDuplicateStudents
		}
		seen[entry.StudentID] = true
		records = append(records, Record{
			CourseID:  sheet.CourseID,
			StudentID: entry.StudentID,
			Date:      date,
			Present:   entry.Present,
		})
	}
	return svc.repo.SaveSheet(ctx, records)
}

// Summarize folds raw records into per-course summaries, sorted by course id.
func Summarize(records []Record) []CourseSummary {
	byCourse := make(map[string]*CourseSummary)
	for _, rec := range records {
		sum, ok := byCourse[rec.CourseID]
		if !ok {
			sum = &CourseSummary{CourseID: rec.CourseID}
			byCourse[rec.CourseID] = sum
		}
		sum.Held++
		if rec.Present {
			sum.Attended++
		}
	}

	summaries := make([]CourseSummary, 0, len(byCourse))
	for _, sum := range byCourse {
		sum.Percentage = math.Round(float64(sum.Attended)/float64(sum.Held)*10000) / 100
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CourseID < summaries[j].CourseID })
	return summaries
}

// day truncates a timestamp to UTC day precision.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
