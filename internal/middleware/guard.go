package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/assocsite/portal/internal/metrics"
	"github.com/assocsite/portal/internal/modules/auth/authn"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuardConfig configures the admin route guard.
type GuardConfig struct {
	Prefixes  []string
	LoginPath string
	Cookie    SessionCookie
}

// Guard redirects unauthenticated requests under the protected prefixes to the login page.
// The original path and query are preserved in the redirect parameter.
func Guard(cfg GuardConfig, authorizer *authn.Authorizer, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("guard")
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == cfg.LoginPath || !IsProtectedPath(path, cfg.Prefixes) {
			c.Next()
			return
		}

		token := cfg.Cookie.Read(c)
		if token == "" {
			metrics.ObserveGuard(metrics.GuardNoCookie)
			redirectToLogin(c, cfg.LoginPath)
			return
		}

		sess, err := authorizer.Authorize(c.Request.Context(), token)
		switch {
		case err == nil:
			if sess.RegistryBypassed {
				metrics.ObserveGuard(metrics.GuardRegistryOpen)
			} else {
				metrics.ObserveGuard(metrics.GuardPass)
			}
			c.Set(ContextKeySession, sess)
			c.Next()
		case errors.Is(err, authn.ErrRegistryUnavailable):
			metrics.ObserveGuard(metrics.GuardRegistryClose)
			redirectToLogin(c, cfg.LoginPath)
		case errors.Is(err, authn.ErrTokenNotRegistered):
			metrics.ObserveGuard(metrics.GuardUnknownToken)
			cfg.Cookie.Clear(c)
			redirectToLogin(c, cfg.LoginPath)
		case apperr.KindOf(err) == apperr.Unexpected:
			log.Error("session lookup failed", zap.String("path", path), zap.Error(err))
			metrics.ObserveGuard(metrics.GuardInvalid)
			redirectToLogin(c, cfg.LoginPath)
		default:
			metrics.ObserveGuard(metrics.GuardInvalid)
			authorizer.Revoke(c.Request.Context(), token)
			cfg.Cookie.Clear(c)
			redirectToLogin(c, cfg.LoginPath)
		}
	}
}

// IsProtectedPath reports whether path equals a prefix or lies below it.
func IsProtectedPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func redirectToLogin(c *gin.Context, loginPath string) {
	original := c.Request.URL.Path
	if q := c.Request.URL.RawQuery; q != "" {
		original += "?" + q
	}
	target := loginPath + "?" + url.Values{"redirect": {original}}.Encode()
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
