package middleware

import (
	"errors"
	"strings"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/modules/auth/authn"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeySession = "auth_session"

// RequireSession authorizes API requests from the session cookie (or a Bearer header)
// and aborts with the classified JSON error on failure.
func RequireSession(authorizer *authn.Authorizer, cookie SessionCookie, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var opts []authn.Option
		if len(roles) > 0 {
			opts = append(opts, authn.RequireRoles(roles...))
		}
		token := extractToken(c, cookie)
		sess, err := authorizer.Authorize(c.Request.Context(), token, opts...)
		if err != nil {
			if revokable(err) {
				authorizer.Revoke(c.Request.Context(), token)
			}
			response.Fail(c, err)
			return
		}
		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// revokable reports whether err means the token's session is gone for good.
func revokable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.SessionExpired, apperr.AccountInactive:
		return true
	case apperr.InvalidSession:
		return !errors.Is(err, authn.ErrTokenNotRegistered)
	}
	return false
}

// SessionMW builds RequireSession middleware for a role set. No roles means any active user.
type SessionMW func(roles ...models.Role) gin.HandlerFunc

// NewSessionMW binds RequireSession to an authorizer and cookie.
func NewSessionMW(authorizer *authn.Authorizer, cookie SessionCookie) SessionMW {
	return func(roles ...models.Role) gin.HandlerFunc {
		return RequireSession(authorizer, cookie, roles...)
	}
}

// CurrentSession returns the session stored by RequireSession or the route guard.
func CurrentSession(c *gin.Context) *authn.AuthenticatedSession {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil
	}
	sess, _ := v.(*authn.AuthenticatedSession)
	return sess
}

// CurrentUserID returns the authenticated user id or "".
func CurrentUserID(c *gin.Context) string {
	if sess := CurrentSession(c); sess != nil {
		return sess.UserID
	}
	return ""
}

// IsAuthenticated reports whether a session is attached to the request.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentSession(c) != nil
}

func extractToken(c *gin.Context, cookie SessionCookie) string {
	if token := cookie.Read(c); token != "" {
		return token
	}
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
