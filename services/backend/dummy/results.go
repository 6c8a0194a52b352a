package dummybackend

import (
	"context"

	"github.com/google/uuid"

	"github.com/kampala/campushub/core/results"
)

type resultsRepository struct {
	db *DB
}

var _ results.Repository = (*resultsRepository)(nil) // interface compliance check

func NewResultsRepository(db *DB) results.Repository {
	return &resultsRepository{db: db}
}

func (repo *resultsRepository) QueryResultsByStudent(ctx context.Context, studentID string) ([]results.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]results.Result, 0)
	for _, row := range repo.db.results {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (repo *resultsRepository) QueryResultsByCourse(ctx context.Context, courseID, term string) ([]results.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]results.Result, 0)
	for _, row := range repo.db.results {
		if row.CourseID == courseID && row.Term == term {
			out = append(out, row)
		}
	}
	return out, nil
}

func (repo *resultsRepository) UpsertResult(ctx context.Context, row results.Result) (results.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for i, existing := range repo.db.results {
		if existing.StudentID == row.StudentID && existing.CourseID == row.CourseID && existing.Term == row.Term {
			row.ID = existing.ID
			repo.db.results[i] = row
			return row, nil
		}
	}
	row.ID = uuid.New().String()
	repo.db.results = append(repo.db.results, row)
	return row, nil
}
