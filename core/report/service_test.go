package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/report"
	"github.com/trezcool/admissions/tests"
)

func TestTotalScore(t *testing.T) {
	tests := []struct {
		name  string
		exams []report.Exam
		want  float64
	}{
		{name: "no exams", want: 0},
		{name: "ungraded counts as zero", exams: []report.Exam{{Score: null.Float64From(80)}, {}}, want: 80},
		{name: "sum", exams: []report.Exam{{Score: null.Float64From(80.5)}, {Score: null.Float64From(70)}}, want: 150.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.TotalScore(tt.exams))
		})
	}
}

func TestService_ApplicantExams(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	physics := env.CreateSubject(t, "Physics")
	sp := env.CreateSpecialty(t, "CS", math.ID, physics.ID)
	a := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", sp.ID)

	day := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	late := env.CreateGroup(t, math.ID, day.Add(72*time.Hour), "")
	early := env.CreateGroup(t, physics.ID, day, "B2")
	env.Transfer(t, late.ID, a.ID)
	env.Transfer(t, early.ID, a.ID)
	_, err := env.Membership.RecordScores(ctx, late.ID, []membership.Result{
		{ApplicantID: a.ID, Score: membership.ScoreInput{Score: null.Float64From(88), Set: true}},
	}, membership.RoleSecretary, core.Principal{})
	require.NoError(t, err)

	app, err := env.Reports.ApplicantExams(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, app.Applicant.ID)
	require.Len(t, app.Exams, 2)
	assert.Equal(t, early.ID, app.Exams[0].GroupID, "soonest exam first")
	assert.Equal(t, "Physics", app.Exams[0].SubjectName)
	assert.False(t, app.Exams[0].Score.Valid)
	assert.Equal(t, 88.0, app.TotalScore)

	_, err = env.Reports.ApplicantExams(ctx, 999)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	sp := env.CreateSpecialty(t, "CS", math.ID)
	ada := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", sp.ID)
	env.CreateApplicant(t, "Alan", "Turing", "alan@example.com", sp.ID)
	admitted := applicant.StatusAdmitted
	_, err := env.Applicants.Update(ctx, ada.ID, applicant.UpdateApplicant{Status: &admitted})
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	report.NowFunc = func() time.Time { return now }
	defer func() { report.NowFunc = time.Now }()

	env.CreateGroup(t, math.ID, now.Add(-time.Hour), "")
	soon := env.CreateGroup(t, math.ID, now.Add(time.Hour), "")
	later := env.CreateGroup(t, math.ID, now.Add(48*time.Hour), "")
	env.Transfer(t, soon.ID, ada.ID)

	dash, err := env.Reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TotalApplicants)
	assert.Equal(t, 1, dash.AdmittedCount)
	assert.Equal(t, []report.StatusCount{
		{Status: applicant.StatusRegistered, Count: 1},
		{Status: applicant.StatusAdmitted, Count: 1},
		{Status: applicant.StatusRejected, Count: 0},
		{Status: applicant.StatusWithdrawn, Count: 0},
	}, dash.StatusCounts)
	require.Len(t, dash.UpcomingGroups, 2, "past groups are left out")
	assert.Equal(t, soon.ID, dash.UpcomingGroups[0].ID)
	assert.Equal(t, 1, dash.UpcomingGroups[0].ApplicantCount)
	assert.Equal(t, later.ID, dash.UpcomingGroups[1].ID)
}

func TestService_DashboardLimit(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	start := time.Now().Add(time.Hour)
	for i := 0; i < 12; i++ {
		env.CreateGroup(t, math.ID, start.Add(time.Duration(i)*time.Hour), "")
	}

	dash, err := env.Reports.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, dash.UpcomingGroups, 10)
	assert.Zero(t, dash.TotalApplicants)
	assert.Len(t, dash.StatusCounts, len(applicant.Statuses))
}
