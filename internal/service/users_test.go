package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/comic_reader/internal/models"
)

func TestSeedDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seededAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	env.svc.Now = func() time.Time { return seededAt }

	require.NoError(t, env.svc.SeedDefaults(ctx))
	require.NoError(t, env.svc.SeedDefaults(ctx))

	admin, err := env.svc.Me(ctx, Caller{Username: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@gmail.com", admin.Email)
	assert.True(t, seededAt.Equal(admin.DateOfBirth), "got %v", admin.DateOfBirth)

	user, err := env.svc.Me(ctx, Caller{Username: "user"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	res, err := env.svc.Login(ctx, "admin", defaultSeedPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.ID)

	page, err := env.svc.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAlice(t)

	got, err := env.svc.Me(context.Background(), Caller{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = env.svc.Me(context.Background(), Caller{Username: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerAlice(t)
	bob, err := env.svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@x.com", Password: "pw"})
	require.NoError(t, err)

	self := Caller{Username: "alice", Scope: models.RoleUser.Scope()}
	admin := Caller{Username: "root", Scope: models.RoleAdmin.Scope()}

	got, err := env.svc.GetUser(ctx, self, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = env.svc.GetUser(ctx, self, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = env.svc.GetUser(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = env.svc.GetUser(ctx, admin, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := env.svc.Register(ctx, RegisterInput{
			Username: fmt.Sprintf("u%02d", i),
			Email:    fmt.Sprintf("u%02d@x.com", i),
			Password: "pw",
		})
		require.NoError(t, err)
	}

	page, err := env.svc.ListUsers(ctx, 2, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 12, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Size)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "u05", page.Items[0].Username)

	page, err = env.svc.ListUsers(ctx, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Len(t, page.Items, 10)
}
