package category

import (
	"context"
	"errors"
	"strings"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/slug"
	"gorm.io/gorm"
)

type CreateCategoryDTO struct {
	Name        string `json:"name"        binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Order       int    `json:"order"`
	IsVisible   *bool  `json:"isVisible"`
}

type UpdateCategoryDTO struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	IsVisible   *bool   `json:"isVisible"`
}

// WithCount is a category annotated with its published post count.
type WithCount struct {
	models.Category
	PostCount int64 `json:"postCount"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListVisible returns visible categories by order then name.
func (s *Service) ListVisible(ctx context.Context) ([]models.Category, error) {
	cats := make([]models.Category, 0)
	err := s.db.WithContext(ctx).
		Where("is_visible = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Find(&cats).Error
	return cats, err
}

// ListAll includes hidden categories.
func (s *Service) ListAll(ctx context.Context) ([]models.Category, error) {
	cats := make([]models.Category, 0)
	return cats, s.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&cats).Error
}

// ListVisibleWithCounts annotates ListVisible with the number of published, non-deleted posts.
func (s *Service) ListVisibleWithCounts(ctx context.Context) ([]WithCount, error) {
	cats, err := s.ListVisible(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WithCount, len(cats))
	if len(cats) == 0 {
		return out, nil
	}

	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	var rows []struct {
		CategoryID string
		PostCount  int64
	}
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Select("category_id, COUNT(*) AS post_count").
		Where("status = ? AND category_id IN ?", models.PostPublished, ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.PostCount
	}
	for i, c := range cats {
		out[i] = WithCount{Category: c, PostCount: counts[c.ID]}
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

// Create derives the slug from the name when none is given.
func (s *Service) Create(ctx context.Context, dto *CreateCategoryDTO) (*models.Category, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	source := dto.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	catSlug := slug.Make(source)
	if catSlug == "" {
		return nil, apperr.Validationf("slug must contain at least one letter or digit")
	}
	if err := s.ensureSlugFree(ctx, catSlug, ""); err != nil {
		return nil, err
	}

	cat := models.Category{
		Name:        name,
		Slug:        catSlug,
		Description: strings.TrimSpace(dto.Description),
		Color:       strings.TrimSpace(dto.Color),
		Order:       dto.Order,
		IsVisible:   true,
	}
	if dto.IsVisible != nil {
		cat.IsVisible = *dto.IsVisible
	}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateCategoryDTO) (*models.Category, error) {
	cat, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFoundf("Category not found")
	}

	updates := map[string]interface{}{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, apperr.Validationf("name cannot be empty")
		}
		updates["name"] = name
	}
	if dto.Slug != nil {
		v := slug.Make(*dto.Slug)
		if v == "" {
			return nil, apperr.Validationf("slug must contain at least one letter or digit")
		}
		if v != cat.Slug {
			if err := s.ensureSlugFree(ctx, v, cat.ID); err != nil {
				return nil, err
			}
			updates["slug"] = v
		}
	}
	if dto.Description != nil {
		updates["description"] = strings.TrimSpace(*dto.Description)
	}
	if dto.Color != nil {
		updates["color"] = strings.TrimSpace(*dto.Color)
	}
	if dto.Order != nil {
		updates["sort_order"] = *dto.Order
	}
	if dto.IsVisible != nil {
		updates["is_visible"] = *dto.IsVisible
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(cat).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Delete soft-deletes the category. Posts keep their category id.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Category not found")
	}
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, value, exceptID string) error {
	q := s.db.WithContext(ctx).Unscoped().Model(&models.Category{}).Where("slug = ?", value)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validationf("slug %q is already in use", value)
	}
	return nil
}
