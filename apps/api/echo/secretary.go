package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/staff"
)

type secretaryApi struct {
	*server
}

func registerSecretaryAPI(g *echo.Group, s *server) {
	api := secretaryApi{server: s}

	g.GET("/dashboard", api.dashboard)

	ag := g.Group("/applicants")
	ag.GET("", api.queryApplicants)
	ag.POST("", api.createApplicant)
	ag.GET("/:id", api.retrieveApplicant)
	ag.PUT("/:id", api.updateApplicant)
	ag.DELETE("/:id", api.destroyApplicant)

	gg := g.Group("/groups")
	gg.GET("", api.queryGroups)
	gg.POST("", api.createGroup)
	gg.GET("/:id", api.retrieveGroup)
	gg.DELETE("/:id", api.destroyGroup)
	gg.GET("/:id/teachers", api.queryGroupTeachers)
	gg.POST("/:id/teachers", api.bindTeacher)
	gg.DELETE("/:id/teachers/:teacherId", api.unbindTeacher)
	gg.GET("/:id/applicants", api.queryEligible)
	gg.GET("/:id/available-applicants", api.queryAvailable)
	gg.POST("/:id/applicants", api.transfer)
	gg.DELETE("/:id/applicants/:applicantId", api.removeMember)
	gg.PUT("/:id/results", api.recordResults)

	sg := g.Group("/specialties")
	sg.GET("", api.querySpecialties)
	sg.POST("", api.createSpecialty)
	sg.GET("/:id", api.retrieveSpecialty)
	sg.PUT("/:id", api.updateSpecialty)
	sg.DELETE("/:id", api.destroySpecialty)
	sg.GET("/:id/subjects", api.querySpecialtySubjects)

	subg := g.Group("/subjects")
	subg.GET("", api.querySubjects)
	subg.POST("", api.createSubject)
	subg.PUT("/:id", api.updateSubject)
	subg.DELETE("/:id", api.destroySubject)

	tg := g.Group("/teachers")
	tg.GET("", api.queryStaff)
	tg.POST("", api.createStaff)
	tg.PUT("/:id", api.updateStaff)
	tg.DELETE("/:id", api.destroyStaff)
}

// Dashboard

func (api *secretaryApi) dashboard(ctx echo.Context) error {
	dash, err := api.deps.Reports.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// Applicants

func (api *secretaryApi) queryApplicants(ctx echo.Context) error {
	filter := new(applicant.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []applicant.Applicant{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, applicant.OrderingFields...)

	apps, err := api.deps.Applicants.Filter(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "filtering applicants")
	}
	if apps == nil {
		apps = []applicant.Applicant{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *secretaryApi) createApplicant(ctx echo.Context) error {
	var data applicant.NewApplicant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplicant")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := api.deps.Applicants.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating applicant")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// retrieveApplicant returns the applicant with their exams and total score.
func (api *secretaryApi) retrieveApplicant(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	app, err := api.deps.Reports.ApplicantExams(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting applicant exams")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *secretaryApi) updateApplicant(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data applicant.UpdateApplicant
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplicant")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := api.deps.Applicants.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating applicant")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *secretaryApi) destroyApplicant(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.deps.Applicants.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting applicant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Groups

func (api *secretaryApi) queryGroups(ctx echo.Context) error {
	groups, err := api.deps.Groups.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *secretaryApi) createGroup(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	g, err := api.deps.Groups.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *secretaryApi) retrieveGroup(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	d, err := api.deps.Groups.Detail(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting group detail")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *secretaryApi) destroyGroup(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.deps.Groups.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryGroupTeachers lists every staff member, flagging those bound to the group.
func (api *secretaryApi) queryGroupTeachers(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	opts, err := api.deps.Groups.StaffOptions(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying staff options")
	}
	if opts == nil {
		opts = []group.StaffOption{}
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *secretaryApi) bindTeacher(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data group.BindTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BindTeacher")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err = api.deps.Groups.BindTeacher(ctx.Request().Context(), id, data.TeacherID); err != nil {
		return errors.Wrap(err, "binding teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *secretaryApi) unbindTeacher(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	teacherID, err := paramID(ctx, "teacherId")
	if err != nil {
		return err
	}
	if err = api.deps.Groups.UnbindTeacher(ctx.Request().Context(), id, teacherID); err != nil {
		return errors.Wrap(err, "unbinding teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *secretaryApi) queryEligible(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	apps, err := api.deps.Membership.Eligible(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying eligible applicants")
	}
	if apps == nil {
		apps = []membership.EligibleApplicant{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *secretaryApi) queryAvailable(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	apps, err := api.deps.Membership.Available(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying available applicants")
	}
	if apps == nil {
		apps = []membership.EligibleApplicant{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *secretaryApi) transfer(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data membership.TransferRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	res, err := api.deps.Membership.Transfer(ctx.Request().Context(), id, data.ApplicantID)
	if err != nil {
		return errors.Wrap(err, "transferring applicant")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *secretaryApi) removeMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	applicantID, err := paramID(ctx, "applicantId")
	if err != nil {
		return err
	}
	if err = api.deps.Membership.Remove(ctx.Request().Context(), id, applicantID); err != nil {
		return errors.Wrap(err, "removing member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *secretaryApi) recordResults(ctx echo.Context) error {
	return recordResults(ctx, api.server, membership.RoleSecretary)
}

// Specialties

func (api *secretaryApi) querySpecialties(ctx echo.Context) error {
	sps, err := api.deps.Catalog.QuerySpecialties(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying specialties")
	}
	if sps == nil {
		sps = []catalog.Specialty{}
	}
	return ctx.JSON(http.StatusOK, sps)
}

func (api *secretaryApi) createSpecialty(ctx echo.Context) error {
	var data catalog.NewSpecialty
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSpecialty")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sp, err := api.deps.Catalog.CreateSpecialty(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating specialty")
	}
	return ctx.JSON(http.StatusCreated, sp)
}

func (api *secretaryApi) retrieveSpecialty(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	sp, err := api.deps.Catalog.GetSpecialty(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting specialty")
	}
	return ctx.JSON(http.StatusOK, sp)
}

func (api *secretaryApi) updateSpecialty(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.UpdateSpecialty
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSpecialty")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sp, err := api.deps.Catalog.UpdateSpecialty(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating specialty")
	}
	return ctx.JSON(http.StatusOK, sp)
}

func (api *secretaryApi) destroySpecialty(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.deps.Catalog.DeleteSpecialty(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting specialty")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *secretaryApi) querySpecialtySubjects(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	subs, err := api.deps.Catalog.SpecialtySubjects(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying specialty subjects")
	}
	if subs == nil {
		subs = []catalog.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// Subjects

func (api *secretaryApi) querySubjects(ctx echo.Context) error {
	subs, err := api.deps.Catalog.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []catalog.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *secretaryApi) createSubject(ctx echo.Context) error {
	var data catalog.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sub, err := api.deps.Catalog.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *secretaryApi) updateSubject(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sub, err := api.deps.Catalog.UpdateSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *secretaryApi) destroySubject(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.deps.Catalog.DeleteSubject(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Staff

func (api *secretaryApi) queryStaff(ctx echo.Context) error {
	all, err := api.deps.Staff.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if all == nil {
		all = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, all)
}

func (api *secretaryApi) createStaff(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.Staff.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *secretaryApi) updateStaff(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data staff.UpdateStaff
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStaff")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.Staff.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating staff")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *secretaryApi) destroyStaff(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	if err = api.deps.Staff.Delete(ctx.Request().Context(), id, p); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return ctx.NoContent(http.StatusNoContent)
}
