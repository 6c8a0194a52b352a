package results

import (
	"github.com/go-playground/validator/v10"

	"github.com/kampala/campushub/core"
)

// Result is a graded score for a student in a course for a term.
type Result struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"` // profile id
	CourseID  string  `json:"course_id"`
	Term      string  `json:"term"` // e.g. "2026-spring"
	Score     float64 `json:"score"`
	Grade     string  `json:"grade"`
}

// NewResult contains information needed to record a Result.
type NewResult struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Term      string  `json:"term" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
}

func (nr *NewResult) Validate(validate *validator.Validate) error {
	nr.CourseID = core.CleanString(nr.CourseID, true /* lower */)
	nr.Term = core.CleanString(nr.Term, true /* lower */)
	return validate.Struct(nr)
}

// GradeFromScore maps a 0-100 score to a letter grade.
func GradeFromScore(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	case score >= 50:
		return "E"
	default:
		return "F"
	}
}
