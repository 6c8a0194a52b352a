package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/announce"
	"github.com/kampala/campushub/core/attendance"
	"github.com/kampala/campushub/core/auth"
	"github.com/kampala/campushub/core/results"
	"github.com/kampala/campushub/core/schedule"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errLoginRequired    = echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"error": "not authenticated", "redirect": "/login"})
	errSessionResolving = echo.NewHTTPError(http.StatusServiceUnavailable, "session still resolving")
	errRefreshExpired   = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errTooManyRequests  = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			code, message = mapDomainError(origErr)
			if code == 0 { // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var prof auth.Profile
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					prof.SubjectID = claims.Subject
					prof.Email = claims.Email
					prof.Role = claims.Role
				}
				logger.Error(msg, errors.Wrap(err, msg), prof)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// mapDomainError maps known sentinel errors to HTTP semantics.
// A zero code means the error is unknown.
func mapDomainError(err error) (code int, message interface{}) {
	switch err {
	case auth.ErrInvalidCredentials, auth.ErrAuthenticationFailed, auth.ErrEmailExists:
		return http.StatusBadRequest, err.Error()
	case auth.ErrNoActiveSession:
		return http.StatusUnauthorized, err.Error()
	case announce.ErrForbidden, attendance.ErrForbidden, results.ErrForbidden:
		return http.StatusForbidden, err.Error()
	case announce.ErrNotFound, attendance.ErrNotFound, results.ErrNotFound, schedule.ErrNotFound, auth.ErrProfileNotFound:
		return http.StatusNotFound, err.Error()
	case attendance.ErrSheetInFuture, attendance.ErrDuplicateStudents:
		return http.StatusBadRequest, err.Error()
	case auth.ErrBackendUnavailable, auth.ErrFetchTimeout:
		return http.StatusServiceUnavailable, err.Error()
	}
	return 0, nil
}
