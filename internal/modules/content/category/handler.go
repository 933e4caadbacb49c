package category

import (
	"strconv"

	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	cats := rg.Group("/categories")
	cats.GET("", h.list)

	managers := cats.Group("", auth(models.RoleAdmin, models.RoleEditor))
	managers.GET("/all", h.listAll)
	managers.POST("", h.create)
	managers.PATCH("/:id", h.update)
	managers.PUT("/:id", h.update)
	managers.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	includeCount, _ := strconv.ParseBool(c.Query("includeCount"))
	if includeCount {
		cats, err := h.svc.ListVisibleWithCounts(c.Request.Context())
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, gin.H{"data": cats})
		return
	}

	cats, err := h.svc.ListVisible(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"data": cats})
}

func (h *Handler) listAll(c *gin.Context) {
	cats, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"data": cats})
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, cat)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cat, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, cat)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
