package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

var (
	jwtContextKey     = "profileToken"
	contextProfileKey = "profile"
)

// newJWTConfig builds the JWT auth middleware config binding the browser to
// this gateway's session.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Role         string `json:"role,omitempty"`
	IsStudent    bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsFaculty    bool   `json:"is_faculty,omitempty"` // -> FACULTY PORTAL
}

func GetProfileClaims(conf *core.Config, prof auth.Profile, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   prof.SubjectID,
			Audience:  "Campus",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        prof.Email,
		FirstName:    prof.FirstName,
		LastName:     prof.LastName,
		Role:         prof.Role,
		IsStudent:    prof.IsStudent(),
		IsFaculty:    prof.IsFaculty(),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextProfile returns the profile installed by the route guard.
func getContextProfile(ctx echo.Context) (auth.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(auth.Profile); ok {
		return prof, nil
	}
	return auth.Profile{}, errUnauthorized
}

// refreshToken re-issues a token for the current session, provided the
// refresh window has not lapsed and the engine still resolves the same subject.
func refreshToken(ctx echo.Context, deps ServerDeps) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	st := deps.Engine.State()
	if !st.Authenticated() || st.Profile.SubjectID != claims.Subject {
		return "", errUnauthorized
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(deps.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetProfileClaims(deps.Conf, *st.Profile, claims.OrigIssuedAt)
	token, err := GenerateToken(deps.Conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}
