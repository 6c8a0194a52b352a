package echoapi

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

// routeGuard blocks protected routes until the session engine has settled.
// A loading state is surfaced as a retryable 503 rather than a misleading 401.
// Resolved requests get the profile installed in the request context.
func routeGuard(engine *auth.Engine) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st := engine.State()
			if st.Loading {
				ctx.Response().Header().Set("Retry-After", "1")
				return errSessionResolving
			}
			if !st.Authenticated() {
				return errLoginRequired
			}
			ctx.Set(contextProfileKey, *st.Profile)
			return next(ctx)
		}
	}
}

func studentMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(auth.RoleStudent)
}

func facultyMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(auth.RoleFaculty)
}

func roleMiddleware(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prof, err := getContextProfile(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}
			if prof.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// authRateLimiter throttles credential endpoints per client IP.
func authRateLimiter(conf *core.Config) echo.MiddlewareFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(conf.Server.AuthRateLimit), conf.Server.AuthRateBurst)
			limiters[ip] = lim
		}
		return lim
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lim := limiterFor(ctx.RealIP())
			if !lim.Allow() {
				retry := time.Duration(float64(time.Second) / conf.Server.AuthRateLimit)
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
