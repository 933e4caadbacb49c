package post

import (
	"strings"

	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts post routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	posts := rg.Group("/posts")

	posts.GET("", h.list)
	posts.GET("/by-slug/:slug", h.getBySlug)
	posts.GET("/slug/:slug", h.getBySlugWithRelated)

	writers := auth(models.RoleAdmin, models.RoleEditor, models.RoleAuthor)
	posts.GET("/admin", writers, h.listAdmin)
	posts.POST("", writers, h.create)
	posts.GET("/:id/edit", writers, h.editView)
	posts.PUT("/:id", writers, h.update)

	posts.GET("/:id", auth(), h.get)
	posts.DELETE("/:id", auth(models.RoleAdmin, models.RoleEditor), h.delete)
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	page, err := h.svc.ListPublished(c.Request.Context(), PublicListQuery{
		CategorySlug: c.Query("category"),
		Page:         pagination.FromContext(c, pagination.DefaultLimit, pagination.MaxLimit),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toPageResponse(page))
}

// listAdmin GET /posts/admin  [ADMIN, EDITOR, AUTHOR]
func (h *Handler) listAdmin(c *gin.Context) {
	page, err := h.svc.ListAdmin(c.Request.Context(), AdminListQuery{
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		CategoryID: c.Query("categoryId"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Page:       pagination.FromContext(c, pagination.DefaultLimit, pagination.MaxLimit),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toPageResponse(page))
}

// get GET /posts/:id  [auth]
func (h *Handler) get(c *gin.Context) {
	post, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if post == nil {
		response.NotFoundMsg(c, "Post not found")
		return
	}
	response.OK(c, toResponse(post))
}

// editView GET /posts/:id/edit
func (h *Handler) editView(c *gin.Context) {
	view, err := h.svc.GetEditView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"post":       toResponse(view.Post),
		"categories": view.Categories,
		"tags":       view.Tags,
	})
}

// getBySlug GET /posts/by-slug/:slug
func (h *Handler) getBySlug(c *gin.Context) {
	post, err := h.svc.ViewBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toResponse(post))
}

// getBySlugWithRelated GET /posts/slug/:slug
func (h *Handler) getBySlugWithRelated(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.svc.ViewBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	related, err := h.svc.Related(ctx, post, RelatedLimit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"post":         toResponse(post),
		"relatedPosts": toResponses(related),
	})
}

// create POST /posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess := middleware.CurrentSession(c)
	authorID := sess.UserID
	if v := strings.TrimSpace(dto.AuthorID); v != "" && sess.HasRole(models.RoleAdmin) {
		authorID = v
	}

	post, err := h.svc.Create(c.Request.Context(), CreateInput{
		Title:       dto.Title,
		Content:     dto.Content,
		Excerpt:     dto.Excerpt,
		Status:      models.PostStatus(strings.ToUpper(strings.TrimSpace(dto.Status))),
		CategoryID:  dto.CategoryID,
		AuthorID:    authorID,
		IsFeatured:  dto.IsFeatured,
		PublishedAt: dto.PublishedAt,
		TagIDs:      dto.TagIDs,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, toResponse(post))
}

// update PUT /posts/:id
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess := middleware.CurrentSession(c)
	post, err := h.svc.Update(c.Request.Context(), c.Param("id"), Actor{UserID: sess.UserID, Role: sess.User.Role}, dto.input())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toResponse(post))
}

// delete DELETE /posts/:id  [ADMIN, EDITOR]
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "message": "Post deleted"})
}
