package dummybackend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kampala/campushub/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (repo *attendanceRepository) QueryRecordsByCourseDate(ctx context.Context, courseID string, date time.Time) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	out := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.CourseID == courseID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (repo *attendanceRepository) SaveSheet(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// drop any previous marks for the same course+date
	courseID, date := records[0].CourseID, records[0].Date
	kept := repo.db.attendance[:0]
	for _, rec := range repo.db.attendance {
		if !(rec.CourseID == courseID && rec.Date.Equal(date)) {
			kept = append(kept, rec)
		}
	}
	repo.db.attendance = kept

	for _, rec := range records {
		rec.ID = uuid.New().String()
		repo.db.attendance = append(repo.db.attendance, rec)
	}
	return nil
}
