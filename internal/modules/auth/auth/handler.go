package auth

import (
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/modules/auth/authn"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc          *Service
	cookie       middleware.SessionCookie
	loginLimiter gin.HandlerFunc
}

// NewHandler builds the auth handler. loginLimiter may be nil.
func NewHandler(svc *Service, cookie middleware.SessionCookie, loginLimiter gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, cookie: cookie, loginLimiter: loginLimiter}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	a := rg.Group("/auth")

	login := []gin.HandlerFunc{h.login}
	if h.loginLimiter != nil {
		login = append([]gin.HandlerFunc{h.loginLimiter}, login...)
	}
	a.POST("/login", login...)
	a.POST("/logout", h.logout)
	a.GET("/session", auth(), h.session)
	a.GET("/sessions", auth(), h.listSessions)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sess, user, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.cookie.Set(c, sess.Token, h.svc.TTL())
	response.OK(c, loginResponse{
		Success: true,
		User: authn.UserView{
			ID:     user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
			Status: user.Status,
		},
		ExpiresAt: sess.ExpiresAt,
	})
}

// logout always succeeds and always clears the cookie.
func (h *Handler) logout(c *gin.Context) {
	token := h.cookie.Read(c)
	if token == "" {
		token = middleware.NormalizeToken(c.GetHeader("Authorization"))
	}
	h.svc.Logout(c.Request.Context(), token)
	h.cookie.Clear(c)
	response.OK(c, gin.H{"success": true, "message": "Logged out successfully"})
}

func (h *Handler) session(c *gin.Context) {
	response.OK(c, middleware.CurrentSession(c))
}

func (h *Handler) listSessions(c *gin.Context) {
	current := middleware.CurrentSession(c)
	sessions, err := h.svc.ListSessions(c.Request.Context(), current.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	items := make([]sessionItem, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{
			ID:        s.ID,
			IP:        s.IP,
			UserAgent: s.UserAgent,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
			Current:   s.Token == current.Token,
		}
	}
	response.OK(c, gin.H{"data": items})
}
