package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file size for form fields and boundaries.
const multipartOverhead = 1 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	g := rg.Group("/media", auth())
	g.GET("", h.list)
	g.GET("/:id", h.get)

	writers := auth(models.RoleAdmin, models.RoleEditor, models.RoleAuthor)
	g.POST("", writers, h.upload)
	g.PATCH("/:id", writers, h.update)
	g.DELETE("/:id", auth(models.RoleAdmin, models.RoleEditor), h.delete)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	result, err := h.svc.List(c.Request.Context(), ListQuery{
		Type:   c.Query("type"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if m == nil {
		response.NotFoundMsg(c, "Media not found")
		return
	}
	response.OK(c, m)
}

func (h *Handler) upload(c *gin.Context) {
	if limit := h.svc.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, "file exceeds the upload limit")
			return
		}
		response.BadRequest(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer file.Close()

	m, err := h.svc.Upload(c.Request.Context(), UploadInput{
		OriginalName: fileHeader.Filename,
		Size:         fileHeader.Size,
		Body:         file,
		UploaderID:   middleware.CurrentUserID(c),
		Alt:          c.PostForm("alt"),
		Title:        c.PostForm("title"),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateMediaDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, m)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
