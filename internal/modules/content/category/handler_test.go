package category_test

import (
	"net/http"
	"testing"

	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/middleware/mwtest"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/modules/content/category"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEndpoint(t *testing.T) {
	env := mwtest.New(t, dbtest.Open(t))
	category.NewHandler(category.NewService(env.DB)).RegisterRoutes(env.Router.Group("/api"), env.Auth)
	_, admin := env.Login(t, "admin@example.org", models.RoleAdmin)

	w := env.Do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Events"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Events"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.Do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Board", "isVisible": false}, admin)
	require.Equal(t, http.StatusCreated, w.Code)

	type item struct {
		Slug      string `json:"slug"`
		PostCount *int64 `json:"postCount"`
	}
	w = env.Do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	plain := mwtest.Decode[struct {
		Data []item `json:"data"`
	}](t, w)
	require.Len(t, plain.Data, 1)
	assert.Equal(t, "events", plain.Data[0].Slug)
	assert.Nil(t, plain.Data[0].PostCount)

	w = env.Do(t, http.MethodGet, "/api/categories?includeCount=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	counted := mwtest.Decode[struct {
		Data []item `json:"data"`
	}](t, w)
	require.Len(t, counted.Data, 1)
	require.NotNil(t, counted.Data[0].PostCount)
	assert.EqualValues(t, 0, *counted.Data[0].PostCount)
}
