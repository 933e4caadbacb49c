package app

import (
	"time"

	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/modules/auth/auth"
	"github.com/assocsite/portal/internal/modules/auth/user"
	"github.com/assocsite/portal/internal/modules/content/category"
	"github.com/assocsite/portal/internal/modules/content/news"
	"github.com/assocsite/portal/internal/modules/content/post"
	"github.com/assocsite/portal/internal/modules/content/tag"
	"github.com/assocsite/portal/internal/modules/site"
	"github.com/assocsite/portal/internal/modules/storage/media"
	"github.com/assocsite/portal/internal/modules/system/health"
	"github.com/assocsite/portal/internal/pkg/objectstore"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix        = "/api"
	loginMaxAttempts = 10
	loginWindow      = 15 * time.Minute
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	rdb := a.redis.Raw()

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Pages and uploads sit behind the route guard; the API authorizes per route.
	pages := r.Group("", middleware.Guard(middleware.GuardConfig{
		Prefixes:  a.cfg.Auth.ProtectedPrefixes,
		LoginPath: a.cfg.Auth.LoginPath,
		Cookie:    a.cookie,
	}, a.authorizer, a.logger))
	site.NewHandler(a.cfg.SiteDir(), a.cfg.Auth.LoginPath).RegisterRoutes(pages)
	if local, ok := a.store.(*objectstore.Local); ok {
		r.Static(objectstore.PublicPrefix, local.Dir())
	}

	api := r.Group(apiPrefix)
	api.Use(middleware.Idempotency(rdb, a.cookie, a.logger))
	authMW := middleware.NewSessionMW(a.authorizer, a.cookie)

	health.NewHandler(db, a.redis, a.sched, a.cfg.LogDir()).RegisterRoutes(api, authMW)

	loginLimiter := middleware.RateLimit(rdb, middleware.RateLimitConfig{
		Prefix: "login",
		Max:    loginMaxAttempts,
		Window: loginWindow,
	}, a.logger)
	authSvc := auth.NewService(db, a.sessions, a.registry, a.cfg.Auth.SessionTTL, a.logger)
	auth.NewHandler(authSvc, a.cookie, loginLimiter).RegisterRoutes(api, authMW)
	user.NewHandler(user.NewService(db, a.sessions, a.registry, a.logger)).RegisterRoutes(api, authMW)

	post.NewHandler(post.NewService(db)).RegisterRoutes(api, authMW)
	category.NewHandler(category.NewService(db)).RegisterRoutes(api, authMW)
	tag.NewHandler(tag.NewService(db)).RegisterRoutes(api, authMW)
	news.NewHandler(news.NewService(a.cfg.ContentDir(), a.logger)).RegisterRoutes(api)

	mediaSvc := media.NewService(db, a.store, a.cfg.MaxUploadBytes())
	media.NewHandler(mediaSvc).RegisterRoutes(api, authMW)
}
