package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeArticle(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "news"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "news", name), []byte(content), 0o644))
}

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeArticle(t, dir, "assembly.md", "---\ntitle: General Assembly\ndate: 2026-03-01\nsummary: Yearly meeting\n---\n# Agenda\n\n- budget\n- board election\n")
	writeArticle(t, dir, "picnic.md", "---\ntitle: Summer Picnic\nslug: Summer Picnic 2026\ndate: 2026-06-15\n---\nBring **food**.\n")
	writeArticle(t, dir, "draft.md", "---\ntitle: Not yet\ndate: 2026-09-01\ndraft: true\n---\nsecret\n")
	writeArticle(t, dir, "broken.md", "no front matter here\n")
	return dir
}

func TestParseArticle(t *testing.T) {
	a, err := ParseArticle("fallback-name", []byte("---\ntitle: Hello\ndate: 2026-01-02\n---\nbody text\n"))
	require.NoError(t, err)
	assert.Equal(t, "fallback-name", a.Slug)
	assert.Equal(t, "Hello", a.Title)
	assert.Equal(t, 2026, a.Date.Year())
	assert.Equal(t, "body text", a.Body)

	_, err = ParseArticle("x", []byte("---\ntitle: Hello\n"))
	assert.Error(t, err)
	_, err = ParseArticle("x", []byte("---\ndate: 2026-01-02\n---\n"))
	assert.Error(t, err)
	_, err = ParseArticle("x", []byte("---\ntitle: Hello\ndate: someday\n---\n"))
	assert.Error(t, err)
}

func TestListSkipsDraftsAndSortsNewestFirst(t *testing.T) {
	svc := NewService(seed(t), zap.NewNop())

	page, err := svc.List(context.Background(), pagination.Query{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "summer-picnic-2026", page.Items[0].Slug)
	assert.Equal(t, "assembly", page.Items[1].Slug)

	page, err = svc.List(context.Background(), pagination.Query{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "assembly", page.Items[0].Slug)
	assert.Equal(t, 2, page.Pages)

	page, err = svc.List(context.Background(), pagination.Query{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListOverflowingPage(t *testing.T) {
	svc := NewService(seed(t), zap.NewNop())

	var page response.Page[Article]
	require.NotPanics(t, func() {
		var err error
		page, err = svc.List(context.Background(), pagination.Query{Page: 4611686018427387905, Limit: 10})
		require.NoError(t, err)
	})
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 2, page.Total)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news?page=4611686018427387905&limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"page":214748364`)
}

func TestListMissingDirectory(t *testing.T) {
	svc := NewService(t.TempDir(), zap.NewNop())
	page, err := svc.List(context.Background(), pagination.Query{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(seed(t), zap.NewNop())).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news/assembly", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail Detail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "General Assembly", detail.Title)
	assert.Contains(t, detail.HTML, "<h1>Agenda</h1>")
	assert.Contains(t, detail.HTML, "<li>budget</li>")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news/draft", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news?limit=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}
