package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/auth"
)

type accountApi struct {
	deps ServerDeps
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{deps: deps}

	ag := g.Group("/auth")

	// un-authed endpoints
	limiter := authRateLimiter(deps.Conf)
	ag.POST("/login", api.login, limiter)
	ag.POST("/register", api.register, limiter)

	// authed endpoints
	authed := ag.Group("", jwt)
	authed.POST("/logout", api.logout)
	authed.POST("/token-refresh", api.refreshToken)
	authed.GET("/me", api.me)
}

// Handlers

func (api *accountApi) login(ctx echo.Context) error {
	var data auth.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	prof, err := api.deps.Engine.Login(ctx.Request().Context(), data.Email, data.Password, data.Role)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}

	claims := GetProfileClaims(api.deps.Conf, prof)
	token, err := GenerateToken(api.deps.Conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Profile: prof})
}

func (api *accountApi) register(ctx echo.Context) error {
	var data auth.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	prof, err := api.deps.Engine.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering")
	}

	return ctx.JSON(http.StatusCreated, prof)
}

func (api *accountApi) logout(ctx echo.Context) error {
	if err := api.deps.Engine.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// me reports the engine's published view of the session.
func (api *accountApi) me(ctx echo.Context) error {
	st := api.deps.Engine.State()
	if st.Loading {
		ctx.Response().Header().Set("Retry-After", "1")
		return errSessionResolving
	}
	if !st.Authenticated() {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, StateResponse{
		Profile:   st.Profile,
		IsStudent: st.Profile.IsStudent(),
		IsFaculty: st.Profile.IsFaculty(),
	})
}

type (
	LoginResponse struct {
		Token   string       `json:"token"`
		Profile auth.Profile `json:"profile"`
	}

	StateResponse struct {
		Profile   *auth.Profile `json:"profile"`
		IsStudent bool          `json:"is_student"`
		IsFaculty bool          `json:"is_faculty"`
	}
)
