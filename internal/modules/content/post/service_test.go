package post

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	author *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	author := dbtest.CreateUser(t, db, "author@example.org", models.RoleAuthor, models.UserActive)
	return &fixture{db: db, svc: NewService(db), author: author}
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug.Make(name), IsVisible: true}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *fixture) tag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug.Make(name)}
	require.NoError(t, f.db.Create(tag).Error)
	return tag
}

func (f *fixture) post(t *testing.T, title string, status models.PostStatus, categoryID *string, publishedAt *time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       title,
		Slug:        slug.Make(title),
		Content:     "Body of " + title,
		Status:      status,
		CategoryID:  categoryID,
		AuthorID:    f.author.ID,
		PublishedAt: publishedAt,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func at(day int) *time.Time {
	v := time.Date(2024, time.March, day, 10, 0, 0, 0, time.UTC)
	return &v
}

func page(n, limit int) pagination.Query {
	return pagination.Query{Page: n, Limit: limit}
}

func TestListPublishedFiltersAndOrders(t *testing.T) {
	f := newFixture(t)
	events := f.category(t, "Events")
	f.post(t, "Older", models.PostPublished, &events.ID, at(1))
	f.post(t, "Newest", models.PostPublished, nil, at(3))
	f.post(t, "Middle", models.PostPublished, &events.ID, at(2))
	f.post(t, "Draft", models.PostDraft, &events.ID, nil)
	f.post(t, "Archived", models.PostArchived, nil, at(4))

	got, err := f.svc.ListPublished(context.Background(), PublicListQuery{Page: page(1, 10)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Total)
	assert.Equal(t, 1, got.Pages)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "Newest", got.Items[0].Title)
	assert.Equal(t, "Middle", got.Items[1].Title)
	assert.Equal(t, "Older", got.Items[2].Title)
	require.NotNil(t, got.Items[1].Category)
	assert.Equal(t, "events", got.Items[1].Category.Slug)
	require.NotNil(t, got.Items[1].Author)

	got, err = f.svc.ListPublished(context.Background(), PublicListQuery{CategorySlug: "events", Page: page(1, 10)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Total)

	got, err = f.svc.ListPublished(context.Background(), PublicListQuery{Page: page(2, 2)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Total)
	assert.Equal(t, 2, got.Pages)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Older", got.Items[0].Title)
}

func TestListPublishedOverflowingPage(t *testing.T) {
	f := newFixture(t)
	f.post(t, "Only", models.PostPublished, nil, at(1))

	got, err := f.svc.ListPublished(context.Background(), PublicListQuery{
		Page: pagination.Parse("4611686018427387905", "10", 10, 50),
	})
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.EqualValues(t, 1, got.Total)
	assert.Equal(t, 214748364, got.Page)
}

func TestListAdminBreaksSortTiesByID(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, 0, 6)
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		ids = append(ids, f.post(t, title, models.PostDraft, nil, nil).ID)
	}
	sort.Strings(ids)

	got := make([]string, 0, len(ids))
	for n := 1; n <= 3; n++ {
		res, err := f.svc.ListAdmin(context.Background(), AdminListQuery{SortBy: "status", Page: page(n, 2)})
		require.NoError(t, err)
		for _, p := range res.Items {
			got = append(got, p.ID)
		}
	}
	assert.Equal(t, ids, got)
}

func TestListAdmin(t *testing.T) {
	f := newFixture(t)
	news := f.category(t, "News")
	f.post(t, "General Assembly", models.PostPublished, &news.ID, at(1))
	f.post(t, "Budget draft", models.PostDraft, nil, nil)
	f.post(t, "Zoning notes", models.PostArchived, nil, nil)

	ctx := context.Background()
	t.Run("search is case-insensitive over title and content", func(t *testing.T) {
		got, err := f.svc.ListAdmin(ctx, AdminListQuery{Search: "ASSEMBLY", Page: page(1, 10)})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "General Assembly", got.Items[0].Title)

		got, err = f.svc.ListAdmin(ctx, AdminListQuery{Search: "body of budget", Page: page(1, 10)})
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
	})

	t.Run("filters", func(t *testing.T) {
		got, err := f.svc.ListAdmin(ctx, AdminListQuery{Status: "draft", Page: page(1, 10)})
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, models.PostDraft, got.Items[0].Status)

		got, err = f.svc.ListAdmin(ctx, AdminListQuery{CategoryID: news.ID, Page: page(1, 10)})
		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
	})

	t.Run("sort by title", func(t *testing.T) {
		got, err := f.svc.ListAdmin(ctx, AdminListQuery{SortBy: "title", SortOrder: "asc", Page: page(1, 10)})
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		assert.Equal(t, "Budget draft", got.Items[0].Title)
		assert.Equal(t, "Zoning notes", got.Items[2].Title)
	})

	t.Run("wildcards in search match literally", func(t *testing.T) {
		got, err := f.svc.ListAdmin(ctx, AdminListQuery{Search: "%", Page: page(1, 10)})
		require.NoError(t, err)
		assert.Empty(t, got.Items)

		got, err = f.svc.ListAdmin(ctx, AdminListQuery{Search: "budget_draft", Page: page(1, 10)})
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("rejects unknown sort fields", func(t *testing.T) {
		for _, q := range []AdminListQuery{
			{SortBy: "password_hash"},
			{SortBy: "title; DROP TABLE posts"},
			{SortOrder: "sideways"},
			{Status: "GONE"},
		} {
			q.Page = page(1, 10)
			_, err := f.svc.ListAdmin(ctx, q)
			assert.True(t, apperr.Is(err, apperr.ValidationError), "%+v", q)
		}
	})
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := f.tag(t, "Volunteers")

	p, err := f.svc.Create(ctx, CreateInput{
		Title:    "Spring Fair 2024!",
		Content:  "Join us",
		AuthorID: f.author.ID,
		TagIDs:   []string{tag.ID, tag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "spring-fair-2024", p.Slug)
	assert.Equal(t, models.PostDraft, p.Status)
	assert.Nil(t, p.PublishedAt)
	require.Len(t, p.Tags, 1)
	assert.Equal(t, "Volunteers", p.Tags[0].Name)

	second, err := f.svc.Create(ctx, CreateInput{Title: "spring fair 2024", Content: "again", AuthorID: f.author.ID})
	require.NoError(t, err)
	assert.Equal(t, "spring-fair-2024-2", second.Slug)

	published, err := f.svc.Create(ctx, CreateInput{Title: "Live", Content: "now", Status: models.PostPublished, AuthorID: f.author.ID})
	require.NoError(t, err)
	assert.NotNil(t, published.PublishedAt)

	for name, in := range map[string]CreateInput{
		"empty title":      {Title: "  ", Content: "x", AuthorID: f.author.ID},
		"empty content":    {Title: "x", Content: "", AuthorID: f.author.ID},
		"no slug":          {Title: "!!!", Content: "x", AuthorID: f.author.ID},
		"deleted status":   {Title: "x", Content: "x", Status: models.PostDeleted, AuthorID: f.author.ID},
		"unknown tag":      {Title: "x", Content: "x", TagIDs: []string{"missing"}, AuthorID: f.author.ID},
		"unknown category": {Title: "x", Content: "x", CategoryID: strPtr("missing"), AuthorID: f.author.ID},
	} {
		_, err := f.svc.Create(ctx, in)
		assert.True(t, apperr.Is(err, apperr.ValidationError), name)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.CreateUser(t, f.db, "other@example.org", models.RoleAuthor, models.UserActive)
	p := f.post(t, "Original", models.PostDraft, nil, nil)
	f.post(t, "Taken", models.PostDraft, nil, nil)
	tag := f.tag(t, "Sports")

	t.Run("authors cannot edit other posts", func(t *testing.T) {
		_, err := f.svc.Update(ctx, p.ID, Actor{UserID: other.ID, Role: models.RoleAuthor}, UpdateInput{Title: strPtr("Hijack")})
		assert.True(t, apperr.Is(err, apperr.InsufficientPermission))
	})

	t.Run("editors can edit any post", func(t *testing.T) {
		got, err := f.svc.Update(ctx, p.ID, Actor{UserID: other.ID, Role: models.RoleEditor}, UpdateInput{
			Title:  strPtr("Renamed"),
			Slug:   strPtr("Renamed Post"),
			TagIDs: &[]string{tag.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "renamed-post", got.Slug)
		require.Len(t, got.Tags, 1)
	})

	t.Run("publishing stamps publishedAt", func(t *testing.T) {
		status := models.PostPublished
		got, err := f.svc.Update(ctx, p.ID, Actor{UserID: f.author.ID, Role: models.RoleAuthor}, UpdateInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.PostPublished, got.Status)
		assert.NotNil(t, got.PublishedAt)
	})

	t.Run("slug collision", func(t *testing.T) {
		_, err := f.svc.Update(ctx, p.ID, Actor{UserID: f.author.ID, Role: models.RoleAdmin}, UpdateInput{Slug: strPtr("taken")})
		assert.True(t, apperr.Is(err, apperr.ValidationError))
	})

	t.Run("clearing tags", func(t *testing.T) {
		got, err := f.svc.Update(ctx, p.ID, Actor{UserID: f.author.ID, Role: models.RoleAdmin}, UpdateInput{TagIDs: &[]string{}})
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.svc.Update(ctx, "missing", Actor{UserID: f.author.ID, Role: models.RoleAdmin}, UpdateInput{})
		assert.True(t, apperr.Is(err, apperr.NotFound))
	})
}

func TestDeleteHidesPostEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "Farewell", models.PostPublished, nil, at(1))

	require.NoError(t, f.svc.Delete(ctx, p.ID))

	var raw models.Post
	require.NoError(t, f.db.Unscoped().First(&raw, "id = ?", p.ID).Error)
	assert.Equal(t, models.PostDeleted, raw.Status)
	assert.True(t, raw.DeletedAt.Valid)

	got, err := f.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := f.svc.ListPublished(ctx, PublicListQuery{Page: page(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	admin, err := f.svc.ListAdmin(ctx, AdminListQuery{Page: page(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, admin.Items)

	_, err = f.svc.ViewBySlug(ctx, "farewell")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	err = f.svc.Delete(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestViewBySlugCountsEachView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, "Annual Report", models.PostPublished, nil, at(1))
	f.post(t, "Unfinished", models.PostDraft, nil, nil)

	for i := 1; i <= 3; i++ {
		got, err := f.svc.ViewBySlug(ctx, "annual-report")
		require.NoError(t, err)
		assert.EqualValues(t, i, got.ViewCount)
	}

	var stored models.Post
	require.NoError(t, f.db.First(&stored, "id = ?", p.ID).Error)
	assert.EqualValues(t, 3, stored.ViewCount)

	_, err := f.svc.ViewBySlug(ctx, "unfinished")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = f.svc.ViewBySlug(ctx, "nothing-here")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestRelated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.category(t, "Club")
	main := f.post(t, "Main", models.PostPublished, &club.ID, at(10))
	for day := 1; day <= 4; day++ {
		f.post(t, "Sibling "+string(rune('A'+day)), models.PostPublished, &club.ID, at(day))
	}
	f.post(t, "Hidden sibling", models.PostDraft, &club.ID, nil)
	f.post(t, "Elsewhere", models.PostPublished, nil, at(5))

	related, err := f.svc.Related(ctx, main, RelatedLimit)
	require.NoError(t, err)
	require.Len(t, related, 3)
	for _, r := range related {
		assert.NotEqual(t, main.ID, r.ID)
		assert.Equal(t, club.ID, *r.CategoryID)
		assert.Equal(t, models.PostPublished, r.Status)
	}
	assert.Equal(t, "Sibling E", related[0].Title)

	lonely := f.post(t, "Lonely", models.PostPublished, nil, at(6))
	related, err = f.svc.Related(ctx, lonely, RelatedLimit)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestGetEditView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.category(t, "Zeta")
	f.category(t, "Alpha")
	f.tag(t, "Music")
	p := f.post(t, "Editable", models.PostDraft, nil, nil)

	view, err := f.svc.GetEditView(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, view.Post.ID)
	require.Len(t, view.Categories, 2)
	assert.Equal(t, "Alpha", view.Categories[0].Name)
	assert.Len(t, view.Tags, 1)

	_, err = f.svc.GetEditView(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func strPtr(s string) *string { return &s }
