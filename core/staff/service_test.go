package staff_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/staff"
	"github.com/trezcool/admissions/tests"
)

func TestService_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	s, err := env.Staff.Register(ctx, staff.NewStaff{
		FirstName: "Emmy", LastName: "Noether", Email: "emmy@example.com", Password: testutil.Password,
		IsTeacher: true, IsSecretary: true,
	})
	require.NoError(t, err)
	assert.False(t, s.IsTeacher)
	assert.False(t, s.IsSecretary)

	_, err = env.Staff.Authenticate(ctx, "emmy@example.com", testutil.Password)
	assert.Equal(t, staff.ErrNoCapabilities, errors.Cause(err), "no capability yet")

	yes := true
	_, err = env.Staff.Update(ctx, s.ID, staff.UpdateStaff{IsTeacher: &yes})
	require.NoError(t, err)

	got, err := env.Staff.Authenticate(ctx, "EMMY@example.com", testutil.Password)
	require.NoError(t, err)
	p := got.Principal()
	assert.True(t, p.IsTeacher())
	assert.False(t, p.IsSecretary())

	_, err = env.Staff.Authenticate(ctx, "emmy@example.com", "nope")
	assert.Equal(t, core.ErrInvalidCredentials, err)
	_, err = env.Staff.Authenticate(ctx, "nobody@example.com", testutil.Password)
	assert.Equal(t, core.ErrInvalidCredentials, err)

	_, err = env.Staff.Register(ctx, staff.NewStaff{FirstName: "E", LastName: "N", Email: "emmy@example.com", Password: testutil.Password})
	assert.Equal(t, staff.ErrEmailExists, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	sec := env.CreateStaff(t, "Grace", "Hopper", "grace@example.com", false, true)
	tch := env.CreateStaff(t, "Emmy", "Noether", "emmy@example.com", true, false)

	assert.Equal(t, staff.ErrCannotDeleteSelf, env.Staff.Delete(ctx, sec.ID, sec.Principal()))
	require.NoError(t, env.Staff.Delete(ctx, tch.ID, sec.Principal()))
	assert.True(t, core.IsNotFound(env.Staff.Delete(ctx, tch.ID, sec.Principal())))

	all, err := env.Staff.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_UpdateOrCreate(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	s, err := env.Staff.UpdateOrCreate(ctx, " Admin@Example.com ", testutil.Password, false, true)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", s.Email)
	assert.True(t, s.IsSecretary)

	s, err = env.Staff.UpdateOrCreate(ctx, "admin@example.com", "N3w-Passw0rd!", true, false)
	require.NoError(t, err)
	assert.True(t, s.IsSecretary, "capabilities are only added")
	assert.True(t, s.IsTeacher)

	_, err = env.Staff.Authenticate(ctx, "admin@example.com", "N3w-Passw0rd!")
	assert.NoError(t, err)

	require.NoError(t, env.Staff.ResetPassword(ctx, "admin@example.com", testutil.Password))
	_, err = env.Staff.Authenticate(ctx, "admin@example.com", testutil.Password)
	assert.NoError(t, err)

	assert.True(t, core.IsNotFound(env.Staff.ResetPassword(ctx, "nobody@example.com", testutil.Password)))
}
