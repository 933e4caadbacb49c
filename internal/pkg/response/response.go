package response

import (
	"errors"
	"net/http"

	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
)

const unexpectedMessage = "Something went wrong, please try again later"

// Page is the envelope for page-numbered list responses.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// OK sends a 200 response.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends a failure envelope with an explicit status and kind.
func Error(c *gin.Context, status int, kind apperr.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "error": kind, "message": message})
}

// Fail maps err to the error envelope. Unclassified errors become a sanitized 500
// and the original error is attached to the context for the request logger.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	if kind == apperr.Unexpected {
		_ = c.Error(err)
		Error(c, status, kind, unexpectedMessage)
		return
	}

	var message string
	var e *apperr.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	Error(c, status, kind, message)
}

// BadRequest sends a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, apperr.ValidationError, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, apperr.Unauthenticated, "Authentication required")
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, apperr.NotFound, "Not Found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, apperr.NotFound, message)
}

// InternalError sends a sanitized 500 and records err on the context.
func InternalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	Error(c, http.StatusInternalServerError, apperr.Unexpected, unexpectedMessage)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": 0, "code": http.StatusTooManyRequests, "message": message})
}
