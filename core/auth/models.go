package auth

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kampala/campushub/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

var (
	AllRoles = []string{RoleStudent, RoleFaculty}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Faculty", Value: RoleFaculty},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the platform-issued proof of authentication for a subject.
// It is owned by the SessionAPI implementation; the engine only reads it.
type Session struct {
	SubjectID   string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Session change notifications pushed by the platform.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// SessionEvent is a session change notification. Session is nil on sign-out.
type SessionEvent struct {
	Type    string
	Session *Session
}

// Profile is the application user record keyed by the session's subject id.
type Profile struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

func (p Profile) IsStudent() bool { return p.Role == RoleStudent }
func (p Profile) IsFaculty() bool { return p.Role == RoleFaculty }

// Phase names the engine's position in its lifecycle.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseProbing         Phase = "probing"
	PhaseResolved        Phase = "resolved"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseError           Phase = "error"
)

// State is the published auth state: one writer (the engine), many readers.
// Loading is true from construction until the first resolution.
type State struct {
	Profile *Profile `json:"profile"`
	Loading bool     `json:"loading"`
	Phase   Phase    `json:"phase"`
}

func (st State) Authenticated() bool { return st.Profile != nil }

// Credentials contains information needed to log a user in.
// Role is the portal the user is logging into; it must match the profile's role.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,portalrole"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.Role = core.CleanString(c.Role, true /* lower */)
	return validate.Struct(c)
}

// Registration contains information needed to create a new account.
type Registration struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,personname"`
	LastName        string `json:"last_name" validate:"required,personname"`
	Role            string `json:"role" validate:"required,portalrole"`
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.FirstName = core.CleanString(r.FirstName)
	r.LastName = core.CleanString(r.LastName)
	r.Role = core.CleanString(r.Role, true /* lower */)
	return validate.Struct(r)
}
