package restbackend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/auth"
)

var _ auth.ProfileRepository = (*Client)(nil) // interface compliance check

const profilesPath = "/rest/v1/profiles"

func (c *Client) GetProfileBySubject(ctx context.Context, subjectID string) (auth.Profile, error) {
	return c.getProfile(ctx, url.Values{
		"subject_id": {"eq." + subjectID},
		"limit":      {"1"},
	})
}

func (c *Client) GetProfileBySubjectAndRole(ctx context.Context, subjectID, role string) (auth.Profile, error) {
	return c.getProfile(ctx, url.Values{
		"subject_id": {"eq." + subjectID},
		"role":       {"eq." + role},
		"limit":      {"1"},
	})
}

func (c *Client) getProfile(ctx context.Context, query url.Values) (auth.Profile, error) {
	var rows []auth.Profile
	if err := c.do(ctx, http.MethodGet, profilesPath, query, nil, &rows); err != nil {
		return auth.Profile{}, errors.Wrap(err, "querying profiles")
	}
	if len(rows) == 0 {
		return auth.Profile{}, auth.ErrProfileNotFound
	}
	return rows[0], nil
}

type profileInsert struct {
	SubjectID string `json:"subject_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (c *Client) CreateProfile(ctx context.Context, prof auth.Profile) (auth.Profile, error) {
	row := profileInsert{
		SubjectID: prof.SubjectID,
		FirstName: prof.FirstName,
		LastName:  prof.LastName,
		Email:     prof.Email,
		Role:      prof.Role,
	}
	var rows []auth.Profile
	err := c.do(ctx, http.MethodPost, profilesPath, nil, []profileInsert{row}, &rows,
		"Prefer", "return=representation")
	if err != nil {
		if statusOf(err) == http.StatusConflict {
			return auth.Profile{}, auth.ErrProfileExists
		}
		return auth.Profile{}, errors.Wrap(err, "inserting profile")
	}
	if len(rows) == 0 {
		return auth.Profile{}, errors.New("insert returned no row")
	}
	return rows[0], nil
}
