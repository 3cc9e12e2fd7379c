package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
)

type teacherApi struct {
	*server
}

func registerTeacherAPI(g *echo.Group, s *server) {
	api := teacherApi{server: s}

	gg := g.Group("/groups")
	gg.GET("", api.queryGroups)
	gg.GET("/:id", api.retrieveGroup)
	gg.PUT("/:id/results", api.recordResults)
}

func (api *teacherApi) queryGroups(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	groups, err := api.deps.Groups.TeacherGroups(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *teacherApi) retrieveGroup(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	d, err := api.deps.Groups.TeacherDetail(ctx.Request().Context(), id, p)
	if err != nil {
		return errors.Wrap(err, "getting group detail")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *teacherApi) recordResults(ctx echo.Context) error {
	return recordResults(ctx, api.server, membership.RoleTeacher)
}

// recordResults writes a score batch for the group on behalf of the context principal, under the role's policy.
func recordResults(ctx echo.Context, s *server, role membership.Role) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	var data membership.RecordScores
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordScores")
	}
	if err = data.Validate(s.deps.Validate); err != nil {
		return err
	}

	res, err := s.deps.Membership.RecordScores(ctx.Request().Context(), id, data.Results, role, p)
	if err != nil {
		return errors.Wrap(err, "recording scores")
	}
	return ctx.JSON(http.StatusOK, res)
}
