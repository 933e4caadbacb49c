package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, []error) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var recorded []error
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		handler(c)
		for _, e := range c.Errors {
			recorded = append(recorded, e.Err)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w, recorded
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFail_ClassifiedError(t *testing.T) {
	w, recorded := serve(t, func(c *gin.Context) {
		Fail(c, fmt.Errorf("wrap: %w", apperr.New(apperr.InsufficientPermission, "requires one of: ADMIN")))
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "InsufficientPermission", body["error"])
	assert.Equal(t, "requires one of: ADMIN", body["message"])
	assert.Empty(t, recorded)
}

func TestFail_UnexpectedErrorIsSanitized(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")
	w, recorded := serve(t, func(c *gin.Context) { Fail(c, cause) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Unexpected", body["error"])
	assert.NotContains(t, body["message"], "10.0.0.5")
	require.Len(t, recorded, 1)
	assert.ErrorIs(t, recorded[0], cause)
}
