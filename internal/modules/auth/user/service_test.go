package user_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/middleware/mwtest"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/modules/auth/user"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnv(t *testing.T) (*mwtest.Env, *user.Service) {
	t.Helper()
	env := mwtest.New(t, dbtest.Open(t))
	svc := user.NewService(env.DB, env.Sessions, env.Registry, zap.NewNop())
	user.NewHandler(svc).RegisterRoutes(env.Router.Group("/api"), env.Auth)
	return env, svc
}

func TestCreateAndList(t *testing.T) {
	_, svc := newEnv(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, &user.CreateUserDTO{Email: " Editor@Example.org", Name: "Ed", Password: "long-enough", Role: models.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, "editor@example.org", u.Email)
	assert.Equal(t, models.UserActive, u.Status)
	assert.NotEqual(t, "long-enough", u.PasswordHash)

	_, err = svc.Create(ctx, &user.CreateUserDTO{Email: "EDITOR@example.org", Name: "Dup", Password: "long-enough"})
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	_, err = svc.Create(ctx, &user.CreateUserDTO{Email: "short@example.org", Name: "S", Password: "short"})
	assert.True(t, apperr.Is(err, apperr.ValidationError))
	_, err = svc.Create(ctx, &user.CreateUserDTO{Email: "r@example.org", Name: "R", Password: "long-enough", Role: "OWNER"})
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = svc.Create(ctx, &user.CreateUserDTO{Email: "author@example.org", Name: "Au", Password: "long-enough"})
	require.NoError(t, err)

	page, err := svc.List(ctx, user.ListQuery{Role: "editor"}, pagination.Query{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Ed", page.Items[0].Name)

	_, err = svc.List(ctx, user.ListQuery{Status: "gone"}, pagination.Query{Page: 1, Limit: 10})
	assert.True(t, apperr.Is(err, apperr.ValidationError))
}

func TestSuspendRevokesSessions(t *testing.T) {
	env, svc := newEnv(t)
	ctx := context.Background()
	admin, _ := env.Login(t, "admin@example.org", models.RoleAdmin)
	member, memberToken := env.Login(t, "member@example.org", models.RoleAuthor)

	suspended := models.UserSuspended
	got, err := svc.Update(ctx, member.ID, admin.ID, &user.UpdateUserDTO{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, got.Status)

	sess, err := env.Sessions.Find(ctx, memberToken)
	require.NoError(t, err)
	assert.Nil(t, sess)
	ok, err := env.Registry.Contains(ctx, memberToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminCannotLockThemselvesOut(t *testing.T) {
	env, svc := newEnv(t)
	ctx := context.Background()
	admin, _ := env.Login(t, "admin@example.org", models.RoleAdmin)

	editor := models.RoleEditor
	_, err := svc.Update(ctx, admin.ID, admin.ID, &user.UpdateUserDTO{Role: &editor})
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	pending := models.UserPending
	_, err = svc.Update(ctx, admin.ID, admin.ID, &user.UpdateUserDTO{Status: &pending})
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	_, err = svc.Update(ctx, "missing", admin.ID, &user.UpdateUserDTO{})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestChangePassword(t *testing.T) {
	env, svc := newEnv(t)
	ctx := context.Background()
	u := dbtest.CreateUser(t, env.DB, "pw@example.org", models.RoleAuthor, models.UserActive)

	assert.True(t, apperr.Is(svc.ChangePassword(ctx, u.ID, "wrong", "new-password"), apperr.ValidationError))
	assert.True(t, apperr.Is(svc.ChangePassword(ctx, u.ID, "password", "password"), apperr.ValidationError))
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password", "new-password"))
	assert.True(t, apperr.Is(svc.ChangePassword(ctx, u.ID, "password", "another-one"), apperr.ValidationError))
}

func TestRoutesAreAdminOnly(t *testing.T) {
	env, _ := newEnv(t)
	_, editorToken := env.Login(t, "editor@example.org", models.RoleEditor)
	_, adminToken := env.Login(t, "admin@example.org", models.RoleAdmin)

	w := env.Do(t, http.MethodGet, "/api/users", nil, editorToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.Do(t, http.MethodGet, "/api/users", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.Do(t, http.MethodPost, "/api/users", map[string]any{"email": "not-an-email", "name": "x", "password": "long-enough"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Do(t, http.MethodPatch, "/api/users/me/password", map[string]any{"oldPassword": "password", "newPassword": "fresh-password"}, editorToken)
	assert.Equal(t, http.StatusOK, w.Code)
}
