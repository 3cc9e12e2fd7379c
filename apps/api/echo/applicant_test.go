package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core/report"
)

func nullFloat(f float64) null.Float64 { return null.Float64From(f) }

func Test_applicantApi_application(t *testing.T) {
	env, srv := setup(t)
	math := env.CreateSubject(t, "Mathematics")
	physics := env.CreateSubject(t, "Physics")
	cs := env.CreateSpecialty(t, "CS", math.ID, physics.ID)
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", cs.ID)
	alan := env.CreateApplicant(t, "Alan", "Turing", "alan@example.com", cs.ID)
	emmy := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)

	later := env.CreateGroup(t, math.ID, examDate.Add(48*time.Hour), "")
	sooner := env.CreateGroup(t, physics.ID, examDate, "B2")
	env.BindTeacher(t, later.ID, emmy.ID)
	env.Transfer(t, later.ID, ada.ID)
	env.Transfer(t, sooner.ID, ada.ID)
	env.Transfer(t, later.ID, alan.ID)

	req, rec := newAuthRequest(http.MethodPut, "/api/teacher/groups/"+strconv.Itoa(later.ID)+"/results", getToken(t, env.Conf, emmy.Principal()),
		[]byte(`{"results": [{"applicant_id": `+strconv.Itoa(ada.ID)+`, "score": 64.5}]}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	runHTTPTests(t, srv, []httpTest{
		{name: "auth required", path: "/api/applicant/application", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "staff is refused", path: "/api/applicant/application", token: getToken(t, env.Conf, emmy.Principal()),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
	})

	t.Run("own exams", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/applicant/application", getToken(t, env.Conf, ada.Principal()))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var app report.Application
		decode(t, rec, &app)
		assert.Equal(t, ada.ID, app.Applicant.ID)
		assert.Equal(t, "Specialty CS", app.Applicant.SpecialtyName)
		require.Len(t, app.Exams, 2)
		assert.Equal(t, sooner.ID, app.Exams[0].GroupID, "soonest exam first")
		assert.Equal(t, "B2", app.Exams[0].RoomNumber.String)
		assert.False(t, app.Exams[0].Score.Valid)
		assert.Equal(t, nullFloat(64.5), app.Exams[1].Score)
		assert.Equal(t, 64.5, app.TotalScore)
	})

	t.Run("no exams yet", func(t *testing.T) {
		bob := env.CreateApplicant(t, "Bob", "Kahn", "bob@example.com", cs.ID)
		req, rec := newAuthRequest(http.MethodGet, "/api/applicant/application", getToken(t, env.Conf, bob.Principal()))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var app report.Application
		decode(t, rec, &app)
		assert.Empty(t, app.Exams)
		assert.Zero(t, app.TotalScore)
	})
}
