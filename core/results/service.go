package results

import (
	"context"
	"errors"
	"sort"

	"github.com/kampala/campushub/core/auth"
)

var (
	// errors
	ErrNotFound  = errors.New("result not found")
	ErrForbidden = errors.New("not allowed for this role")
)

type (
	Repository interface {
		QueryResultsByStudent(ctx context.Context, studentID string) ([]Result, error)
		QueryResultsByCourse(ctx context.Context, courseID, term string) ([]Result, error)
		// UpsertResult inserts or replaces the row for (student, course, term).
		UpsertResult(ctx context.Context, r Result) (Result, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ForStudent returns the viewer's own results, newest term first.
func (svc *Service) ForStudent(ctx context.Context, viewer auth.Profile) ([]Result, error) {
	if !viewer.IsStudent() {
		return nil, ErrForbidden
	}
	rows, err := svc.repo.QueryResultsByStudent(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Term != rows[j].Term {
			return rows[i].Term > rows[j].Term
		}
		return rows[i].CourseID < rows[j].CourseID
	})
	return rows, nil
}

// ForCourse returns all results of a course for a term; faculty only.
func (svc *Service) ForCourse(ctx context.Context, viewer auth.Profile, courseID, term string) ([]Result, error) {
	if !viewer.IsFaculty() {
		return nil, ErrForbidden
	}
	return svc.repo.QueryResultsByCourse(ctx, courseID, term)
}

// Record grades and stores a score posted by a faculty member.
func (svc *Service) Record(ctx context.Context, grader auth.Profile, nr NewResult) (Result, error) {
	if !grader.IsFaculty() {
		return Result{}, ErrForbidden
	}
	return svc.repo.UpsertResult(ctx, Result{
		StudentID: nr.StudentID,
		CourseID:  nr.CourseID,
		Term:      nr.Term,
		Score:     nr.Score,
		Grade:     GradeFromScore(nr.Score),
	})
}
