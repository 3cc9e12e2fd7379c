package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
)

// principalMiddleware loads the caller behind the JWT and stores it in the context. It must run after the JWT middleware.
func (s *server) principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		p, err := s.loadPrincipal(ctx, claims)
		if err != nil {
			return err
		}
		ctx.Set(principalContextKey, p)
		return next(ctx)
	}
}

func requirePrincipal(allowed func(core.Principal) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			if allowed(p) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

var (
	secretaryMiddleware = requirePrincipal(core.Principal.IsSecretary)
	teacherMiddleware   = requirePrincipal(core.Principal.IsTeacher)
	applicantMiddleware = requirePrincipal(core.Principal.IsApplicant)
)

// paramID parses the int path parameter name. Malformed ids are reported as not found.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
