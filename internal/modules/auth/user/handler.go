package user

import (
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/pagination"
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
	g := rg.Group("/users")
	g.PATCH("/me/password", auth(), h.changePassword)

	admin := g.Group("", auth(models.RoleAdmin))
	admin.GET("", h.list)
	admin.POST("", h.create)
	admin.GET("/:id", h.get)
	admin.PATCH("/:id", h.update)
	admin.DELETE("/:id/sessions", h.revokeSessions)
}

func (h *Handler) list(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), ListQuery{
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}, pagination.FromContext(c, 20, pagination.MaxLimit))
	if err != nil {
		response.Fail(c, err)
		return
	}
	items := make([]userResponse, len(page.Items))
	for i := range page.Items {
		items[i] = toResponse(&page.Items[i])
	}
	response.OK(c, response.Page[userResponse]{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	})
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if u == nil {
		response.NotFoundMsg(c, "User not found")
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, toResponse(u))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) revokeSessions(c *gin.Context) {
	if err := h.svc.RevokeSessions(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), dto.OldPassword, dto.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"success": true})
}
