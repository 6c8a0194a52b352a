package restbackend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/attendance"
)

var _ attendance.Repository = (*Client)(nil) // interface compliance check

const attendancePath = "/rest/v1/attendance_records"

const dayFormat = "2006-01-02"

func (c *Client) QueryRecordsByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	return c.queryRecords(ctx, url.Values{"student_id": {"eq." + studentID}})
}

func (c *Client) QueryRecordsByCourseDate(ctx context.Context, courseID string, date time.Time) ([]attendance.Record, error) {
	return c.queryRecords(ctx, url.Values{
		"course_id": {"eq." + courseID},
		"date":      {"eq." + date.UTC().Format(dayFormat)},
	})
}

// recordRow is the wire shape; date columns come back as "2006-01-02" strings.
type recordRow struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

func (c *Client) queryRecords(ctx context.Context, query url.Values) ([]attendance.Record, error) {
	var rows []recordRow
	if err := c.do(ctx, http.MethodGet, attendancePath, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	out := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		date, err := time.ParseInLocation(dayFormat, row.Date, time.UTC)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing record date %q", row.Date)
		}
		out = append(out, attendance.Record{
			ID:        row.ID,
			CourseID:  row.CourseID,
			StudentID: row.StudentID,
			Date:      date,
			Present:   row.Present,
		})
	}
	return out, nil
}

type recordInsert struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

// SaveSheet replaces all marks for the sheet's course+date with the given ones.
func (c *Client) SaveSheet(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}
	courseID, date := records[0].CourseID, records[0].Date.UTC().Format(dayFormat)

	query := url.Values{
		"course_id": {"eq." + courseID},
		"date":      {"eq." + date},
	}
	if err := c.do(ctx, http.MethodDelete, attendancePath, query, nil, nil); err != nil {
		return errors.Wrap(err, "clearing previous marks")
	}

	rows := make([]recordInsert, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordInsert{
			CourseID:  rec.CourseID,
			StudentID: rec.StudentID,
			Date:      rec.Date.UTC().Format(dayFormat),
			Present:   rec.Present,
		})
	}
	err := c.do(ctx, http.MethodPost, attendancePath, nil, rows, nil)
	return errors.Wrap(err, "inserting marks")
}
