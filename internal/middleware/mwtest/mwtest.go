// Package mwtest wires session authorization against miniredis for handler tests.
package mwtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/modules/auth/authn"
	"github.com/assocsite/portal/internal/pkg/session"
	"github.com/assocsite/portal/internal/pkg/tokenregistry"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CookieName  = "admin-auth-token"
	RegistryKey = "admin-tokens"
)

type Env struct {
	DB         *gorm.DB
	Redis      *miniredis.Miniredis
	Client     *redis.Client
	Registry   *tokenregistry.Registry
	Sessions   *session.Store
	Authorizer *authn.Authorizer
	Cookie     middleware.SessionCookie
	Auth       middleware.SessionMW
	Router     *gin.Engine
}

// New returns an environment whose router has no routes yet.
func New(t testing.TB, db *gorm.DB) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := session.NewStore(db)
	registry := tokenregistry.New(rdb, RegistryKey)
	authorizer := authn.NewAuthorizer(registry, authn.NewValidator(sessions, zap.NewNop()), zap.NewNop(), false)
	cookie := middleware.SessionCookie{Name: CookieName}

	return &Env{
		DB:         db,
		Redis:      mr,
		Client:     rdb,
		Registry:   registry,
		Sessions:   sessions,
		Authorizer: authorizer,
		Cookie:     cookie,
		Auth:       middleware.NewSessionMW(authorizer, cookie),
		Router:     gin.New(),
	}
}

// Login creates an active user with role and a registered session, returning the user and token.
func (e *Env) Login(t testing.TB, email string, role models.Role) (*models.User, string) {
	t.Helper()
	user := dbtest.CreateUser(t, e.DB, email, role, models.UserActive)
	sess, err := e.Sessions.Create(context.Background(), user.ID, "127.0.0.1", "test", time.Hour)
	require.NoError(t, err)
	require.NoError(t, e.Registry.Add(context.Background(), sess.Token))
	return user, sess.Token
}

// Do serves a request. body is JSON-encoded unless it is nil or an io.Reader.
func (e *Env) Do(t testing.TB, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case io.Reader:
		reader = v
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the recorder body into a fresh T.
func Decode[T any](t testing.TB, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
