package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

// mockServer is the throwaway REST server the portal shipped with before the
// hosted platform took over auth. It keeps everything in memory and restarts
// clean.
type mockServer struct {
	conf *core.Config

	mu    sync.RWMutex
	users map[string]*mockUser // keyed by email
}

type mockUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	passwordHash []byte
}

type mockClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newMockServer(conf *core.Config) *mockServer {
	s := &mockServer{
		conf:  conf,
		users: make(map[string]*mockUser),
	}
	s.seed()
	return s
}

// seed installs the two demo accounts (password "password123").
func (s *mockServer) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	s.users["student@example.com"] = &mockUser{
		ID:           uuid.New().String(),
		Email:        "student@example.com",
		Name:         "Demo Student",
		Role:         auth.RoleStudent,
		passwordHash: hash,
	}
	s.users["faculty@example.com"] = &mockUser{
		ID:           uuid.New().String(),
		Email:        "faculty@example.com",
		Name:         "Demo Faculty",
		Role:         auth.RoleFaculty,
		passwordHash: hash,
	}
}

func (s *mockServer) app() *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		app.Use(middleware.Logger())
	}

	api := app.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	authed := api.Group("", middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(s.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		Claims:        new(mockClaims),
		ErrorHandler: func(error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		},
	}))
	authed.GET("/auth/verify", s.verify)
	authed.GET("/dashboard", s.dashboard)

	return app
}

// Handlers

func (s *mockServer) register(ctx echo.Context) error {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if data.Email == "" || len(data.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "email and a password of at least 8 characters are required")
	}
	if data.Role != auth.RoleStudent && data.Role != auth.RoleFaculty {
		data.Role = auth.RoleStudent
	}
	if data.Name == "" {
		data.Name = core.EmailLocalPart(data.Email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[data.Email]; ok {
		return echo.NewHTTPError(http.StatusConflict, "an account with this email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	usr := &mockUser{
		ID:           uuid.New().String(),
		Email:        data.Email,
		Name:         data.Name,
		Role:         data.Role,
		passwordHash: hash,
	}
	s.users[usr.Email] = usr

	token, err := s.generateToken(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"token": token, "user": usr})
}

func (s *mockServer) login(ctx echo.Context) error {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)

	s.mu.RLock()
	usr, ok := s.users[data.Email]
	s.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(usr.passwordHash, []byte(data.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := s.generateToken(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token, "user": usr})
}

func (s *mockServer) verify(ctx echo.Context) error {
	usr, err := s.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr})
}

// dashboard returns a role-flavored landing payload, enough for the portal
// shell to render something meaningful.
func (s *mockServer) dashboard(ctx echo.Context) error {
	usr, err := s.contextUser(ctx)
	if err != nil {
		return err
	}

	greeting := "Welcome back, " + usr.Name
	var widgets []string
	if usr.Role == auth.RoleFaculty {
		widgets = []string{"announcements", "timetable", "attendance-sheets", "results-entry"}
	} else {
		widgets = []string{"announcements", "timetable", "attendance", "results"}
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"greeting": greeting,
		"role":     usr.Role,
		"widgets":  widgets,
	})
}

func (s *mockServer) generateToken(usr *mockUser) (string, error) {
	claims := &mockClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.ID,
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		Email: usr.Email,
		Role:  usr.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.conf.SecretKey))
}

func (s *mockServer) contextUser(ctx echo.Context) (*mockUser, error) {
	token, ok := ctx.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	claims, ok := token.Claims.(*mockClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	usr, ok := s.users[strings.ToLower(claims.Email)]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
	}
	return usr, nil
}
