package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/tests"
)

var examDate = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")

	g, err := env.Groups.Create(ctx, group.NewGroup{SubjectID: math.ID, ExamDate: examDate.In(time.FixedZone("EET", 2*3600)), RoomNumber: "101"})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", g.SubjectName)
	assert.True(t, g.ExamDate.Equal(examDate))
	assert.Equal(t, "101", g.RoomNumber.String)
	assert.Zero(t, g.ApplicantCount)

	_, err = env.Groups.Create(ctx, group.NewGroup{SubjectID: 999, ExamDate: examDate})
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if assert.True(t, ok) {
		assert.Equal(t, "subject_id", vErr.Fields[0].Field)
	}
}

func TestService_QueryAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	older := env.CreateGroup(t, math.ID, examDate, "")
	newer := env.CreateGroup(t, math.ID, examDate.Add(48*time.Hour), "")

	groups, err := env.Groups.QueryAll(ctx)
	require.NoError(t, err)
	if assert.Len(t, groups, 2) {
		assert.Equal(t, newer.ID, groups[0].ID)
		assert.Equal(t, older.ID, groups[1].ID)
	}
}

func TestService_Teachers(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	g := env.CreateGroup(t, math.ID, examDate, "")
	other := env.CreateGroup(t, math.ID, examDate.Add(time.Hour), "")
	emmy := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)
	grace := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)

	t.Run("bind", func(t *testing.T) {
		require.NoError(t, env.Groups.BindTeacher(ctx, g.ID, emmy.ID))
		require.NoError(t, env.Groups.BindTeacher(ctx, g.ID, emmy.ID), "binding twice is a no-op")

		d, err := env.Groups.Detail(ctx, g.ID)
		require.NoError(t, err)
		assert.Len(t, d.Teachers, 1)
		assert.Equal(t, 1, d.TeacherCount)
		assert.NotNil(t, d.Applicants)
	})

	t.Run("bind errors", func(t *testing.T) {
		err := env.Groups.BindTeacher(ctx, g.ID, grace.ID)
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		if assert.True(t, ok) {
			assert.Equal(t, "teacher_id", vErr.Fields[0].Field)
		}
		assert.Equal(t, group.ErrTeacherNotFound, errors.Cause(env.Groups.BindTeacher(ctx, g.ID, 999)))
		assert.Equal(t, group.ErrNotFound, errors.Cause(env.Groups.BindTeacher(ctx, 999, emmy.ID)))
	})

	t.Run("teacher view", func(t *testing.T) {
		groups, err := env.Groups.TeacherGroups(ctx, emmy.ID)
		require.NoError(t, err)
		if assert.Len(t, groups, 1) {
			assert.Equal(t, g.ID, groups[0].ID)
		}

		_, err = env.Groups.TeacherDetail(ctx, g.ID, emmy.Principal())
		assert.NoError(t, err)
		_, err = env.Groups.TeacherDetail(ctx, other.ID, emmy.Principal())
		assert.Equal(t, group.ErrNotBound, errors.Cause(err))
		_, err = env.Groups.TeacherDetail(ctx, 999, emmy.Principal())
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("staff options", func(t *testing.T) {
		opts, err := env.Groups.StaffOptions(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, opts, 2)
		// ordered by last name
		assert.Equal(t, grace.ID, opts[0].ID)
		assert.False(t, opts[0].InGroup)
		assert.Equal(t, emmy.ID, opts[1].ID)
		assert.True(t, opts[1].InGroup)
	})

	t.Run("unbind", func(t *testing.T) {
		require.NoError(t, env.Groups.UnbindTeacher(ctx, g.ID, emmy.ID))
		require.NoError(t, env.Groups.UnbindTeacher(ctx, g.ID, emmy.ID))
		bound, err := env.Groups.IsTeacherBound(ctx, g.ID, emmy.ID)
		require.NoError(t, err)
		assert.False(t, bound)
	})
}

func TestService_DeleteCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	math := env.CreateSubject(t, "Mathematics")
	sp := env.CreateSpecialty(t, "CS", math.ID)
	a := env.CreateApplicant(t, "Ada", "Lovelace", "ada@example.com", sp.ID)
	g := env.CreateGroup(t, math.ID, examDate, "")
	env.Transfer(t, g.ID, a.ID)

	require.NoError(t, env.Groups.Delete(ctx, g.ID))
	assert.True(t, core.IsNotFound(env.Groups.Delete(ctx, g.ID)))

	app, err := env.Reports.ApplicantExams(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, app.Exams)
}
