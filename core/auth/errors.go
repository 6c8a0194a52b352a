package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the platform rejects an email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationFailed is returned when credentials are valid but no
	// profile matches the requested role.
	ErrAuthenticationFailed = errors.New("profile not found or role mismatch")
	// ErrProfileNotFound is returned when no profile row exists for a subject.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned on a duplicate profile insert for a subject.
	ErrProfileExists = errors.New("a profile for this subject already exists")
	// ErrEmailExists is returned when a credential already exists for an email.
	ErrEmailExists = errors.New("an account with this email already exists")
	// ErrFetchTimeout is returned when a profile lookup exceeds its bound.
	ErrFetchTimeout = errors.New("profile lookup timed out")
	// ErrNoActiveSession is returned by session operations when nobody is signed in.
	ErrNoActiveSession = errors.New("no active session")
	// ErrBackendUnavailable is returned on network/service failure.
	ErrBackendUnavailable = errors.New("backend service unavailable")
)

// RegistrationError reports a failed registration and the stage it failed at
// ("credential" or "profile").
type RegistrationError struct {
	Stage string
	Err   error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration failed (%s): %v", e.Stage, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Cause supports pkg/errors cause chains.
func (e *RegistrationError) Cause() error { return e.Err }
