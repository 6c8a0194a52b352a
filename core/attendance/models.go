package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kampala/campushub/core"
)

// Record is a single attendance mark for a student in a course on a date.
type Record struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"` // profile id
	Date      time.Time `json:"date"`       // day precision, UTC
	Present   bool      `json:"present"`
}

// CourseSummary aggregates a student's attendance for one course.
type CourseSummary struct {
	CourseID   string  `json:"course_id"`
	Held       int     `json:"held"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// SheetEntry is one row of a faculty attendance sheet.
type SheetEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   bool   `json:"present"`
}

// Sheet is a full class roll call for a course on a date.
type Sheet struct {
	CourseID string       `json:"course_id" validate:"required"`
	Date     time.Time    `json:"date" validate:"required"`
	Entries  []SheetEntry `json:"entries" validate:"required,min=1,dive"`
}

func (s *Sheet) Validate(validate *validator.Validate) error {
	s.CourseID = core.CleanString(s.CourseID, true /* lower */)
	return validate.Struct(s)
}
