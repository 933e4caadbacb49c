package category

import (
	"context"
	"testing"
	"time"

	"github.com/assocsite/portal/internal/database/dbtest"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestListVisibleOrderAndCounts(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	second, err := svc.Create(ctx, &CreateCategoryDTO{Name: "Sports", Order: 2})
	require.NoError(t, err)
	first, err := svc.Create(ctx, &CreateCategoryDTO{Name: "Culture", Order: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateCategoryDTO{Name: "Arts", Order: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateCategoryDTO{Name: "Internal", IsVisible: boolPtr(false)})
	require.NoError(t, err)

	author := dbtest.CreateUser(t, db, "a@example.org", models.RoleAuthor, models.UserActive)
	now := time.Now()
	for i, status := range []models.PostStatus{models.PostPublished, models.PostPublished, models.PostDraft} {
		p := &models.Post{Title: "p", Slug: "p-" + string(rune('a'+i)), Content: "x", Status: status, AuthorID: author.ID, CategoryID: &second.ID, PublishedAt: &now}
		require.NoError(t, db.Create(p).Error)
	}
	gone := &models.Post{Title: "gone", Slug: "gone", Content: "x", Status: models.PostPublished, AuthorID: author.ID, CategoryID: &second.ID}
	require.NoError(t, db.Create(gone).Error)
	require.NoError(t, db.Delete(gone).Error)

	cats, err := svc.ListVisible(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, first.ID, cats[0].ID)
	assert.Equal(t, "Arts", cats[1].Name)
	assert.Equal(t, "Sports", cats[2].Name)

	counted, err := svc.ListVisibleWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counted, 3)
	assert.EqualValues(t, 0, counted[0].PostCount)
	assert.EqualValues(t, 2, counted[2].PostCount)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCreateAndUpdateSlugs(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()

	cat, err := svc.Create(ctx, &CreateCategoryDTO{Name: "Youth Programs"})
	require.NoError(t, err)
	assert.Equal(t, "youth-programs", cat.Slug)
	assert.True(t, cat.IsVisible)

	_, err = svc.Create(ctx, &CreateCategoryDTO{Name: "Other", Slug: "Youth Programs"})
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	other, err := svc.Create(ctx, &CreateCategoryDTO{Name: "Other"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, &UpdateCategoryDTO{Slug: strPtr("youth-programs")})
	assert.True(t, apperr.Is(err, apperr.ValidationError))

	updated, err := svc.Update(ctx, other.ID, &UpdateCategoryDTO{Name: strPtr("Seniors"), IsVisible: boolPtr(false), Order: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Seniors", updated.Name)
	assert.False(t, updated.IsVisible)
	assert.Equal(t, 5, updated.Order)

	_, err = svc.Update(ctx, "missing", &UpdateCategoryDTO{})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDeleteKeepsPostsButHidesCategory(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	cat, err := svc.Create(ctx, &CreateCategoryDTO{Name: "Temporary"})
	require.NoError(t, err)
	author := dbtest.CreateUser(t, db, "a@example.org", models.RoleAuthor, models.UserActive)
	p := &models.Post{Title: "p", Slug: "p", Content: "x", Status: models.PostPublished, AuthorID: author.ID, CategoryID: &cat.ID}
	require.NoError(t, db.Create(p).Error)

	require.NoError(t, svc.Delete(ctx, cat.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, cat.ID), apperr.NotFound))

	cats, err := svc.ListVisible(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	var stored models.Post
	require.NoError(t, db.First(&stored, "id = ?", p.ID).Error)
	require.NotNil(t, stored.CategoryID)
	assert.Equal(t, cat.ID, *stored.CategoryID)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
