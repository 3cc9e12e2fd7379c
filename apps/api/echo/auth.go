package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
)

const (
	tokenContextKey     = "userToken"
	principalContextKey = "principal"
	tokenAudience       = "Admissions"
)

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Kind         string `json:"kind"`
	Name         string `json:"name,omitempty"`
	IsTeacher    bool   `json:"is_teacher,omitempty"`   // -> TEACHER PORTAL
	IsSecretary  bool   `json:"is_secretary,omitempty"` // -> SECRETARY PORTAL
}

// GetClaims returns the claims of a fresh token for the principal.
// origIat carries the original issue time over token refreshes.
func GetClaims(conf *core.Config, p core.Principal, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(p.ID),
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Kind:         p.Kind,
		Name:         p.Name,
		IsTeacher:    p.IsTeacher(),
		IsSecretary:  p.IsSecretary(),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextPrincipal(ctx echo.Context) (core.Principal, error) {
	if p, ok := ctx.Get(principalContextKey).(core.Principal); ok {
		return p, nil
	}
	return core.Principal{}, errUnauthorized
}

// loadPrincipal resolves the token subject against the store,
// so that deleted accounts and revoked capabilities take effect before the token expires.
func (s *server) loadPrincipal(ctx echo.Context, claims Claims) (core.Principal, error) {
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return core.Principal{}, errUnauthorized
	}

	reqCtx := ctx.Request().Context()
	switch claims.Kind {
	case core.KindApplicant:
		a, err := s.deps.Applicants.GetByID(reqCtx, id)
		if err != nil {
			if core.IsNotFound(err) {
				return core.Principal{}, errUnauthorized
			}
			return core.Principal{}, errors.Wrap(err, "finding applicant by ID")
		}
		return a.Principal(), nil
	case core.KindStaff:
		st, err := s.deps.Staff.GetByID(reqCtx, id)
		if err != nil {
			if core.IsNotFound(err) {
				return core.Principal{}, errUnauthorized
			}
			return core.Principal{}, errors.Wrap(err, "finding staff by ID")
		}
		return st.Principal(), nil
	}
	return core.Principal{}, errUnauthorized
}

func (s *server) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context principal")
	}

	// staff may have lost every capability since the last login
	if p.Kind == core.KindStaff && p.Caps.IsEmpty() {
		return "", errHttpForbidden
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.deps.Conf.Server.JWTRefreshDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(s.deps.Conf, GetClaims(s.deps.Conf, p, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
