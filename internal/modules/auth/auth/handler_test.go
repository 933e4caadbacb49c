package auth_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/middleware/mwtest"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/modules/auth/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnv(t *testing.T, limit int64) *mwtest.Env {
	t.Helper()
	env := mwtest.New(t, dbtest.Open(t))
	svc := auth.NewService(env.DB, env.Sessions, env.Registry, time.Hour, zap.NewNop())
	limiter := middleware.RateLimit(env.Client, middleware.RateLimitConfig{Prefix: "login", Max: limit, Window: time.Hour}, zap.NewNop())
	auth.NewHandler(svc, env.Cookie, limiter).RegisterRoutes(env.Router.Group("/api"), env.Auth)
	return env
}

func sessionCookie(t *testing.T, header http.Header) *http.Cookie {
	t.Helper()
	for _, c := range (&http.Response{Header: header}).Cookies() {
		if c.Name == mwtest.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", mwtest.CookieName)
	return nil
}

func TestLoginSessionLogout(t *testing.T) {
	env := newEnv(t, 100)
	user := dbtest.CreateUser(t, env.DB, "member@example.org", models.RoleEditor, models.UserActive)
	ctx := context.Background()

	w := env.Do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": " Member@Example.org ", "password": "password"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := mwtest.Decode[map[string]any](t, w)
	assert.Equal(t, true, body["success"])

	cookie := sessionCookie(t, w.Header())
	assert.True(t, cookie.HttpOnly)
	token := cookie.Value
	ok, err := env.Registry.Contains(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	w = env.Do(t, http.MethodGet, "/api/auth/session", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
	assert.NotContains(t, w.Body.String(), token)

	w = env.Do(t, http.MethodGet, "/api/auth/sessions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current":true`)

	w = env.Do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, sessionCookie(t, w.Header()).MaxAge)
	assert.Contains(t, w.Body.String(), `"success":true`)

	sess, err := env.Sessions.Find(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, sess)
	ok, err = env.Registry.Contains(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	w = env.Do(t, http.MethodGet, "/api/auth/session", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newEnv(t, 100)

	w := env.Do(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.Do(t, http.MethodPost, "/api/auth/logout", nil, "stale-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginFailures(t *testing.T) {
	env := newEnv(t, 100)
	dbtest.CreateUser(t, env.DB, "active@example.org", models.RoleAuthor, models.UserActive)
	dbtest.CreateUser(t, env.DB, "suspended@example.org", models.RoleAuthor, models.UserSuspended)

	cases := []struct {
		email, password string
		status          int
	}{
		{"active@example.org", "wrong", http.StatusUnauthorized},
		{"nobody@example.org", "password", http.StatusUnauthorized},
		{"suspended@example.org", "password", http.StatusForbidden},
		{"suspended@example.org", "wrong", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := env.Do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": tc.email, "password": tc.password}, "")
		assert.Equal(t, tc.status, w.Code, tc.email)
		assert.Empty(t, w.Header().Values("Set-Cookie"), tc.email)
	}

	w := env.Do(t, http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":""}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	env := newEnv(t, 2)
	creds := map[string]any{"email": "x@example.org", "password": "nope"}

	for i := 0; i < 2; i++ {
		w := env.Do(t, http.MethodPost, "/api/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.Do(t, http.MethodPost, "/api/auth/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
