package schedule

import "time"

// Calendar event kinds
const (
	KindClass    = "class"
	KindExam     = "exam"
	KindHoliday  = "holiday"
	KindActivity = "activity"
)

var AllKinds = []string{KindClass, KindExam, KindHoliday, KindActivity}

// CalendarEvent is a dated entry on the academic calendar.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Kind     string    `json:"kind"`
	Date     time.Time `json:"date"`
	Audience string    `json:"audience"` // all | students | faculty
}

// Weekdays as stored in timetable rows.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
)

var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday}

// TimetableSlot is a recurring weekly teaching slot.
type TimetableSlot struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	Section     string `json:"section"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"` // "09:00"
	EndTime     string `json:"end_time"`   // "10:30"
	Room        string `json:"room"`
	FacultyID   string `json:"faculty_id"` // profile id
	FacultyName string `json:"faculty_name"`
}

// EventFilter narrows a calendar query to a window. Audiences is filled in by
// the service from the viewer's role.
type EventFilter struct {
	Audiences []string
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}
