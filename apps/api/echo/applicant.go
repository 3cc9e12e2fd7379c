package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type applicantApi struct {
	*server
}

func registerApplicantAPI(g *echo.Group, s *server) {
	api := applicantApi{server: s}

	g.GET("/application", api.application)
}

// application returns the caller's own file: profile, exams by date and total score.
func (api *applicantApi) application(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	app, err := api.deps.Reports.ApplicantExams(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "getting applicant exams")
	}
	return ctx.JSON(http.StatusOK, app)
}
