package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/assocsite/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	status := http.StatusCreated
	router := gin.New()
	router.Use(middleware.Idempotency(rdb, middleware.SessionCookie{Name: "admin-auth-token"}, zap.NewNop()))
	router.POST("/posts", func(c *gin.Context) { c.Status(status) })

	post := func(key, token string) int {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		if key != "" {
			req.Header.Set(middleware.IdempotencyHeader, key)
		}
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "admin-auth-token", Value: token})
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("", "a"))
	assert.Equal(t, http.StatusCreated, post("", "a"), "no key, no deduplication")

	assert.Equal(t, http.StatusCreated, post("k1", "a"))
	assert.Equal(t, http.StatusConflict, post("k1", "a"))
	assert.Equal(t, http.StatusCreated, post("k1", "b"), "keys are scoped to the session")

	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, post("k2", "a"))
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, post("k2", "a"), "failed attempts release the key")

	mr.Close()
	assert.Equal(t, http.StatusCreated, post("k3", "a"), "redis outage does not block writes")
}
