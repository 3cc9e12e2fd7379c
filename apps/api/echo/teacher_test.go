package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/staff"
)

func Test_teacherApi(t *testing.T) {
	env, srv := setup(t)
	math := env.CreateSubject(t, "Mathematics")
	cs := env.CreateSpecialty(t, "CS", math.ID)
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", cs.ID)
	alan := env.CreateApplicant(t, "Alan", "Turing", "alan@example.com", cs.ID)
	emmy := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)

	mine := env.CreateGroup(t, math.ID, examDate, "101")
	notMine := env.CreateGroup(t, math.ID, examDate.Add(time.Hour), "")
	env.BindTeacher(t, mine.ID, emmy.ID)
	env.Transfer(t, mine.ID, ada.ID)
	env.Transfer(t, mine.ID, alan.ID)
	token := getToken(t, env.Conf, emmy.Principal())

	groupPath := func(id int, suffix string) string {
		return fmt.Sprintf("/api/teacher/groups/%d%s", id, suffix)
	}
	notBound := marshallObj(t, httpErr{Error: "you are not assigned to this group"})

	runHTTPTests(t, srv, []httpTest{
		{
			name: "secretary is refused", path: "/api/teacher/groups", token: getToken(t, env.Conf, grace.Principal()),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{name: "unbound group", path: groupPath(notMine.ID, ""), token: token, wantCode: http.StatusForbidden, wantData: notBound},
		{
			name: "unknown group", path: groupPath(999, ""), token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "group not found"}),
		},
		{
			name: "results on unbound group", method: http.MethodPut, path: groupPath(notMine.ID, "/results"), token: token,
			body: []byte(fmt.Sprintf(`{"results": [{"applicant_id": %d, "score": 50}]}`, ada.ID)), wantCode: http.StatusForbidden, wantData: notBound,
		},
		{
			name: "results required", method: http.MethodPut, path: groupPath(mine.ID, "/results"), token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "validation failed", Fields: map[string]string{"results": "this field is required"}}),
		},
	})

	t.Run("own groups", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/teacher/groups", token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var groups []group.Group
		decode(t, rec, &groups)
		if assert.Len(t, groups, 1) {
			assert.Equal(t, mine.ID, groups[0].ID)
			assert.Equal(t, 2, groups[0].ApplicantCount)
		}
	})

	t.Run("results skip missing scores", func(t *testing.T) {
		ctx := context.Background()
		_, err := env.Membership.RecordScores(ctx, mine.ID, []membership.Result{
			{ApplicantID: alan.ID, Score: membership.ScoreInput{Score: nullFloat(60), Set: true}},
		}, membership.RoleSecretary, grace.Principal())
		require.NoError(t, err)

		body := []byte(fmt.Sprintf(`{"results": [{"applicant_id": %d, "score": 77}, {"applicant_id": %d, "score": null}]}`, ada.ID, alan.ID))
		req, rec := newAuthRequest(http.MethodPut, groupPath(mine.ID, "/results"), token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, membership.RecordResult{Updated: 1, Skipped: 1})}, rec)

		req, rec = newAuthRequest(http.MethodGet, groupPath(mine.ID, ""), token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var d group.Detail
		decode(t, rec, &d)
		scores := map[int]float64{}
		for _, m := range d.Applicants {
			scores[m.ID] = m.Score.Float64
		}
		assert.Equal(t, map[int]float64{ada.ID: 77, alan.ID: 60}, scores, "a null score from a teacher keeps the grade")
	})

	t.Run("revoked teacher", func(t *testing.T) {
		no := false
		_, err := env.Staff.Update(context.Background(), emmy.ID, staff.UpdateStaff{IsTeacher: &no})
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodGet, "/api/teacher/groups", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})
}
