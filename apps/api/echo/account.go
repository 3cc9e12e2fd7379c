package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/staff"
)

type accountApi struct {
	*server
}

func registerAuthAPI(g *echo.Group, s *server, authed []echo.MiddlewareFunc) {
	api := accountApi{server: s}

	// un-authed endpoints
	g.POST("/login/applicant", api.loginApplicant)
	g.POST("/login/staff", api.loginStaff)
	g.POST("/register/applicant", api.registerApplicant)
	g.POST("/register/staff", api.registerStaff)
	g.GET("/specialties", api.querySpecialties)

	// authed endpoints
	ag := g.Group("", authed...)
	ag.GET("/me", api.me)
	ag.POST("/token-refresh", api.refresh)
}

// Handlers

func (api *accountApi) loginApplicant(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := api.deps.Applicants.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating applicant")
	}
	return api.respondWithToken(ctx, a.Principal())
}

func (api *accountApi) loginStaff(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.Staff.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating staff")
	}
	return api.respondWithToken(ctx, st.Principal())
}

func (api *accountApi) respondWithToken(ctx echo.Context, p core.Principal) error {
	token, err := GenerateToken(api.deps.Conf, GetClaims(api.deps.Conf, p))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Principal: newPrincipalResponse(p)})
}

func (api *accountApi) registerApplicant(ctx echo.Context) error {
	var data applicant.NewApplicant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplicant")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := api.deps.Applicants.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering applicant")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *accountApi) registerStaff(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.Staff.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering staff")
	}
	return ctx.JSON(http.StatusCreated, st)
}

// querySpecialties feeds the applicant registration form.
func (api *accountApi) querySpecialties(ctx echo.Context) error {
	sps, err := api.deps.Catalog.QuerySpecialties(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying specialties")
	}
	return ctx.JSON(http.StatusOK, sps)
}

func (api *accountApi) me(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	return ctx.JSON(http.StatusOK, newPrincipalResponse(p))
}

func (api *accountApi) refresh(ctx echo.Context) error {
	token, err := api.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	p, _ := getContextPrincipal(ctx)
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Principal: newPrincipalResponse(p)})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token     string            `json:"token"`
		Principal PrincipalResponse `json:"principal"`
	}

	PrincipalResponse struct {
		ID          int    `json:"id"`
		Kind        string `json:"kind"`
		Name        string `json:"name"`
		IsTeacher   bool   `json:"is_teacher"`
		IsSecretary bool   `json:"is_secretary"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func newPrincipalResponse(p core.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:          p.ID,
		Kind:        p.Kind,
		Name:        p.Name,
		IsTeacher:   p.IsTeacher(),
		IsSecretary: p.IsSecretary(),
	}
}
