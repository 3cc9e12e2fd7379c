package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/report"
	"github.com/trezcool/admissions/services/email"
)

var examDate = time.Date(2030, 7, 1, 9, 0, 0, 0, time.UTC)

func Test_secretaryApi_access(t *testing.T) {
	env, srv := setup(t)
	sp := env.CreateSpecialty(t, "CS")
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", sp.ID)
	emmy := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)
	secToken := getToken(t, env.Conf, grace.Principal())

	runHTTPTests(t, srv, []httpTest{
		{name: "auth required", path: "/api/secretary/groups", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "teacher is refused", path: "/api/secretary/groups", token: getToken(t, env.Conf, emmy.Principal()),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "applicant is refused", path: "/api/secretary/groups", token: getToken(t, env.Conf, ada.Principal()),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{name: "secretary", path: "/api/secretary/groups", token: secToken, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "malformed id", path: "/api/secretary/groups/abc", token: secToken, wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)},
		{
			name: "unknown group", path: "/api/secretary/groups/999", token: secToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "group not found"}),
		},
		{
			name: "cannot delete self", method: http.MethodDelete, path: fmt.Sprintf("/api/secretary/teachers/%d", grace.ID), token: secToken,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "you cannot delete your own account"}),
		},
		{name: "delete staff", method: http.MethodDelete, path: fmt.Sprintf("/api/secretary/teachers/%d", emmy.ID), token: secToken, wantCode: http.StatusNoContent},
	})
}

func Test_secretaryApi_catalog(t *testing.T) {
	env, srv := setup(t)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)
	token := getToken(t, env.Conf, grace.Principal())

	post := func(path string, obj interface{}) []byte {
		req, rec := newAuthRequest(http.MethodPost, path, token, marshallObj(t, obj))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return rec.Body.Bytes()
	}

	var math, physics catalog.Subject
	decodeBytes(t, post("/api/secretary/subjects", catalog.NewSubject{Name: "Mathematics"}), &math)
	decodeBytes(t, post("/api/secretary/subjects", catalog.NewSubject{Name: "Physics"}), &physics)

	var cs catalog.Specialty
	decodeBytes(t, post("/api/secretary/specialties", catalog.NewSpecialty{
		Name: "Computer science", Code: "CS", SeatsCount: 40, SubjectIDs: []int{math.ID, physics.ID},
	}), &cs)

	runHTTPTests(t, srv, []httpTest{
		{
			name: "subjects by name", path: "/api/secretary/subjects", token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, math, physics),
		},
		{
			name: "specialty subjects", path: fmt.Sprintf("/api/secretary/specialties/%d/subjects", cs.ID), token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, math, physics),
		},
		{
			name: "duplicate code", method: http.MethodPost, path: "/api/secretary/specialties", token: token,
			body:     marshallObj(t, catalog.NewSpecialty{Name: "Other", Code: "cs", SeatsCount: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Error:  "a specialty with this code already exists",
				Fields: map[string]string{"code": "a specialty with this code already exists"},
			}),
		},
		{
			name: "invalid specialty", method: http.MethodPost, path: "/api/secretary/specialties", token: token,
			body:     []byte(`{"name": "Other", "code": "O-1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "validation failed", Fields: map[string]string{
				"code":        "only alphanumeric characters and underscores are allowed",
				"seats_count": "this field is required",
			}}),
		},
		{
			name: "update specialty subjects", method: http.MethodPut, path: fmt.Sprintf("/api/secretary/specialties/%d", cs.ID), token: token,
			body:     []byte(fmt.Sprintf(`{"subject_ids": [%d]}`, physics.ID)),
			wantCode: http.StatusOK,
			wantData: marshallObj(t, catalog.Specialty{ID: cs.ID, Name: cs.Name, Code: cs.Code, SeatsCount: cs.SeatsCount, SubjectIDs: []int{physics.ID}}),
		},
		{
			name: "delete subject", method: http.MethodDelete, path: fmt.Sprintf("/api/secretary/subjects/%d", math.ID), token: token,
			wantCode: http.StatusNoContent,
		},
		{
			name: "delete unknown subject", method: http.MethodDelete, path: fmt.Sprintf("/api/secretary/subjects/%d", math.ID), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "subject not found"}),
		},
	})
}

func Test_secretaryApi_applicants(t *testing.T) {
	env, srv := setup(t)
	cs := env.CreateSpecialty(t, "CS")
	bio := env.CreateSpecialty(t, "BIO")
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", cs.ID)
	alan := env.CreateApplicant(t, "Alan", "Turing", "alan@example.com", cs.ID)
	rosalind := env.CreateApplicant(t, "Rosalind", "Franklin", "rosalind@example.com", bio.ID)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)
	token := getToken(t, env.Conf, grace.Principal())

	runHTTPTests(t, srv, []httpTest{
		{name: "all", path: "/api/secretary/applicants", token: token, wantCode: http.StatusOK, wantData: marshallList(t, ada, alan, rosalind)},
		{
			name: "by specialty", path: fmt.Sprintf("/api/secretary/applicants?specialty_id=%d", bio.ID), token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, rosalind),
		},
		{name: "search", path: "/api/secretary/applicants?search=TUR", token: token, wantCode: http.StatusOK, wantData: marshallList(t, alan)},
		{name: "bad filter", path: "/api/secretary/applicants?specialty_id=abc", token: token, wantCode: http.StatusOK, wantData: marshallList(t)},
		{
			name: "ordering", path: "/api/secretary/applicants?ordering=-last_name", token: token,
			wantCode: http.StatusOK, wantData: marshallList(t, alan, ada, rosalind),
		},
		{
			name: "invalid status", method: http.MethodPut, path: fmt.Sprintf("/api/secretary/applicants/%d", ada.ID), token: token,
			body:     []byte(`{"status": "expelled"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "validation failed", Fields: map[string]string{"status": "invalid applicant status"}}),
		},
	})

	t.Run("admit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/api/secretary/applicants/%d", ada.ID), token, []byte(`{"status": "Admitted"}`))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var a applicant.Applicant
		decode(t, rec, &a)
		assert.Equal(t, applicant.StatusAdmitted, a.Status)

		req, rec = newAuthRequest(http.MethodGet, "/api/secretary/applicants?status=admitted", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallList(t, a)}, rec)
	})

	t.Run("create and delete", func(t *testing.T) {
		body := marshallObj(t, applicant.NewApplicant{
			FirstName: "Marie", LastName: "Curie", BirthDate: "2006-11-07", PassportData: "PL 1867", Address: "Warsaw",
			Email: "marie@example.com", Password: "Rad1um&Polon1um", SpecialtyID: bio.ID, Status: applicant.StatusAdmitted,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/secretary/applicants", token, body)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var a applicant.Applicant
		decode(t, rec, &a)
		assert.Equal(t, applicant.StatusAdmitted, a.Status, "a secretary may set the status")

		path := fmt.Sprintf("/api/secretary/applicants/%d", a.ID)
		req, rec = newAuthRequest(http.MethodDelete, path, token)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, path, token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "applicant not found"})}, rec)
	})
}

func Test_secretaryApi_groups(t *testing.T) {
	env, srv := setup(t)
	math := env.CreateSubject(t, "Mathematics")
	physics := env.CreateSubject(t, "Physics")
	cs := env.CreateSpecialty(t, "CS", math.ID, physics.ID)
	bio := env.CreateSpecialty(t, "BIO", physics.ID)
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", cs.ID)
	alan := env.CreateApplicant(t, "Alan", "Turing", "alan@example.com", cs.ID)
	env.CreateApplicant(t, "Rosalind", "Franklin", "rosalind@example.com", bio.ID)
	emmy := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)
	token := getToken(t, env.Conf, grace.Principal())

	var g, other group.Group
	t.Run("create", func(t *testing.T) {
		body := marshallObj(t, group.NewGroup{SubjectID: math.ID, ExamDate: examDate, RoomNumber: " 101 "})
		req, rec := newAuthRequest(http.MethodPost, "/api/secretary/groups", token, body)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &g)
		assert.Equal(t, "Mathematics", g.SubjectName)
		assert.Equal(t, "101", g.RoomNumber.String)

		other = env.CreateGroup(t, math.ID, examDate.Add(24*time.Hour), "")
	})
	groupPath := func(id int, suffix string) string {
		return fmt.Sprintf("/api/secretary/groups/%d%s", id, suffix)
	}

	runHTTPTests(t, srv, []httpTest{
		{
			name: "create with unknown subject", method: http.MethodPost, path: "/api/secretary/groups", token: token,
			body:     marshallObj(t, group.NewGroup{SubjectID: 999, ExamDate: examDate}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "subject does not exist", Fields: map[string]string{"subject_id": "subject does not exist"}}),
		},
		{
			name: "create without date", method: http.MethodPost, path: "/api/secretary/groups", token: token,
			body:     []byte(fmt.Sprintf(`{"subject_id": %d}`, math.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "validation failed", Fields: map[string]string{"exam_date": "this field is required"}}),
		},
		{
			name: "bind teacher", method: http.MethodPost, path: groupPath(g.ID, "/teachers"), token: token,
			body: marshallObj(t, group.BindTeacher{TeacherID: emmy.ID}), wantCode: http.StatusNoContent,
		},
		{
			name: "bind non teacher", method: http.MethodPost, path: groupPath(g.ID, "/teachers"), token: token,
			body: marshallObj(t, group.BindTeacher{TeacherID: grace.ID}), wantCode: http.StatusBadRequest,
		},
		{
			name: "bind unknown teacher", method: http.MethodPost, path: groupPath(g.ID, "/teachers"), token: token,
			body: marshallObj(t, group.BindTeacher{TeacherID: 999}), wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "teacher not found"}),
		},
		{
			name: "transfer", method: http.MethodPost, path: groupPath(other.ID, "/applicants"), token: token,
			body: marshallObj(t, membership.TransferRequest{ApplicantID: ada.ID}), wantCode: http.StatusOK,
		},
		{
			name: "transfer replaces the same subject group", method: http.MethodPost, path: groupPath(g.ID, "/applicants"), token: token,
			body: marshallObj(t, membership.TransferRequest{ApplicantID: ada.ID}), wantCode: http.StatusOK,
		},
		{
			name: "transfer unknown applicant", method: http.MethodPost, path: groupPath(g.ID, "/applicants"), token: token,
			body: marshallObj(t, membership.TransferRequest{ApplicantID: 999}), wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "applicant not found"}),
		},
		{
			name: "transfer to unknown group", method: http.MethodPost, path: groupPath(999, "/applicants"), token: token,
			body: marshallObj(t, membership.TransferRequest{ApplicantID: ada.ID}), wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "group not found"}),
		},
	})

	t.Run("detail", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, groupPath(g.ID, ""), token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var d group.Detail
		decode(t, rec, &d)
		assert.Equal(t, 1, d.ApplicantCount)
		assert.Equal(t, 1, d.TeacherCount)
		if assert.Len(t, d.Applicants, 1) {
			assert.Equal(t, ada.ID, d.Applicants[0].ID)
			assert.False(t, d.Applicants[0].Score.Valid)
		}
		if assert.Len(t, d.Teachers, 1) {
			assert.Equal(t, emmy.ID, d.Teachers[0].ID)
		}

		req, rec = newAuthRequest(http.MethodGet, groupPath(other.ID, ""), token)
		srv.ServeHTTP(rec, req)
		decode(t, rec, &d)
		assert.Empty(t, d.Applicants, "transfer moved ada out of the other group")
	})

	t.Run("staff options", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, groupPath(g.ID, "/teachers"), token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var opts []group.StaffOption
		decode(t, rec, &opts)
		require.Len(t, opts, 2)
		assert.Equal(t, grace.ID, opts[0].ID)
		assert.False(t, opts[0].InGroup)
		assert.Equal(t, emmy.ID, opts[1].ID)
		assert.True(t, opts[1].InGroup)
	})

	t.Run("eligible and available", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, groupPath(g.ID, "/applicants"), token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var eligible []membership.EligibleApplicant
		decode(t, rec, &eligible)
		require.Len(t, eligible, 2, "only CS applicants sit mathematics")
		inGroup := map[int]bool{}
		for _, e := range eligible {
			inGroup[e.ID] = e.InGroup
		}
		assert.Equal(t, map[int]bool{ada.ID: true, alan.ID: false}, inGroup)

		req, rec = newAuthRequest(http.MethodGet, groupPath(g.ID, "/available-applicants"), token)
		srv.ServeHTTP(rec, req)
		var available []membership.EligibleApplicant
		decode(t, rec, &available)
		if assert.Len(t, available, 1) {
			assert.Equal(t, alan.ID, available[0].ID)
		}
	})

	t.Run("results", func(t *testing.T) {
		env.Transfer(t, g.ID, alan.ID)
		body := []byte(fmt.Sprintf(`{"results": [{"applicant_id": %d, "score": 91.5}, {"applicant_id": %d}, {"applicant_id": 999, "score": 10}]}`, ada.ID, alan.ID))
		req, rec := newAuthRequest(http.MethodPut, groupPath(g.ID, "/results"), token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, membership.RecordResult{Updated: 2, Skipped: 1})}, rec)

		req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/api/secretary/applicants/%d", ada.ID), token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var app report.Application
		decode(t, rec, &app)
		assert.Equal(t, 91.5, app.TotalScore)

		body = []byte(fmt.Sprintf(`{"results": [{"applicant_id": %d, "score": -1}]}`, ada.ID))
		req, rec = newAuthRequest(http.MethodPut, groupPath(g.ID, "/results"), token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "score cannot be negative", Fields: map[string]string{"score": "score cannot be negative"}}),
		}, rec)
	})

	t.Run("storage fault is opaque", func(t *testing.T) {
		env.DB.FailOn("membership.insert", 0, errors.New("disk full"))
		defer env.DB.ClearFaults()

		req, rec := newAuthRequest(http.MethodPost, groupPath(other.ID, "/applicants"), token, marshallObj(t, membership.TransferRequest{ApplicantID: alan.ID}))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusInternalServerError, wantData: marshallObj(t, httpErr{Error: "Internal Server Error"})}, rec)
	})

	t.Run("dashboard", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/secretary/dashboard", token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash report.Dashboard
		decode(t, rec, &dash)
		assert.Equal(t, 3, dash.TotalApplicants)
		if assert.Len(t, dash.UpcomingGroups, 2) {
			assert.Equal(t, g.ID, dash.UpcomingGroups[0].ID)
			assert.Equal(t, 2, dash.UpcomingGroups[0].ApplicantCount)
		}
	})

	t.Run("remove and unbind", func(t *testing.T) {
		for _, path := range []string{
			groupPath(g.ID, fmt.Sprintf("/applicants/%d", ada.ID)),
			groupPath(g.ID, fmt.Sprintf("/applicants/%d", ada.ID)),
			groupPath(g.ID, fmt.Sprintf("/teachers/%d", emmy.ID)),
		} {
			req, rec := newAuthRequest(http.MethodDelete, path, token)
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNoContent, rec.Code, path)
		}

		req, rec := newAuthRequest(http.MethodDelete, groupPath(g.ID, ""), token)
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("transfer mails the applicant", func(t *testing.T) {
		var found bool
		for _, msg := range emailsvc.SentMessages() {
			if len(msg.To) > 0 && msg.To[0].Address == ada.Email {
				found = true
			}
		}
		assert.True(t, found)
	})
}
