package restbackend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/results"
)

var _ results.Repository = (*Client)(nil) // interface compliance check

const resultsPath = "/rest/v1/results"

func (c *Client) QueryResultsByStudent(ctx context.Context, studentID string) ([]results.Result, error) {
	return c.queryResults(ctx, url.Values{"student_id": {"eq." + studentID}})
}

func (c *Client) QueryResultsByCourse(ctx context.Context, courseID, term string) ([]results.Result, error) {
	return c.queryResults(ctx, url.Values{
		"course_id": {"eq." + courseID},
		"term":      {"eq." + term},
	})
}

func (c *Client) queryResults(ctx context.Context, query url.Values) ([]results.Result, error) {
	var rows []results.Result
	if err := c.do(ctx, http.MethodGet, resultsPath, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return rows, nil
}

type resultInsert struct {
	StudentID string  `json:"student_id"`
	CourseID  string  `json:"course_id"`
	Term      string  `json:"term"`
	Score     float64 `json:"score"`
	Grade     string  `json:"grade"`
}

func (c *Client) UpsertResult(ctx context.Context, row results.Result) (results.Result, error) {
	query := url.Values{"on_conflict": {"student_id,course_id,term"}}
	insert := resultInsert{
		StudentID: row.StudentID,
		CourseID:  row.CourseID,
		Term:      row.Term,
		Score:     row.Score,
		Grade:     row.Grade,
	}
	var rows []results.Result
	err := c.do(ctx, http.MethodPost, resultsPath, query, []resultInsert{insert}, &rows,
		"Prefer", "resolution=merge-duplicates,return=representation")
	if err != nil {
		return results.Result{}, errors.Wrap(err, "upserting result")
	}
	if len(rows) == 0 {
		return results.Result{}, errors.New("upsert returned no row")
	}
	return rows[0], nil
}
