package tag

import (
	"context"
	"errors"
	"strings"

	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/assocsite/portal/internal/pkg/slug"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTagDTO struct {
	Name  string `json:"name"  binding:"required"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type UpdateTagDTO struct {
	Name  *string `json:"name"`
	Slug  *string `json:"slug"`
	Color *string `json:"color"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0)
	return tags, s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	var t models.Tag
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateTagDTO) (*models.Tag, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	source := dto.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	tagSlug := slug.Make(source)
	if tagSlug == "" {
		return nil, apperr.Validationf("slug must contain at least one letter or digit")
	}
	if err := s.ensureSlugFree(ctx, tagSlug, ""); err != nil {
		return nil, err
	}

	t := models.Tag{Name: name, Slug: tagSlug, Color: strings.TrimSpace(dto.Color)}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateTagDTO) (*models.Tag, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFoundf("Tag not found")
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
		if v != t.Slug {
			if err := s.ensureSlugFree(ctx, v, t.ID); err != nil {
				return nil, err
			}
			updates["slug"] = v
		}
	}
	if dto.Color != nil {
		updates["color"] = strings.TrimSpace(*dto.Color)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Delete soft-deletes the tag. Join rows stay; preloads skip deleted tags.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Tag{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Tag not found")
	}
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, value, exceptID string) error {
	q := s.db.WithContext(ctx).Unscoped().Model(&models.Tag{}).Where("slug = ?", value)
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

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	g := rg.Group("/tags")
	g.GET("", h.list)

	managers := g.Group("", auth(models.RoleAdmin, models.RoleEditor))
	managers.POST("", h.create)
	managers.PATCH("/:id", h.update)
	managers.PUT("/:id", h.update)
	managers.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	tags, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"data": tags})
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateTagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, t)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateTagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, t)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
