package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/assocsite/portal/internal/config"
	"github.com/assocsite/portal/internal/database"
	"github.com/assocsite/portal/internal/metrics"
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/modules/auth/authn"
	pkgcron "github.com/assocsite/portal/internal/pkg/cron"
	"github.com/assocsite/portal/internal/pkg/objectstore"
	pkgredis "github.com/assocsite/portal/internal/pkg/redis"
	"github.com/assocsite/portal/internal/pkg/session"
	"github.com/assocsite/portal/internal/pkg/tokenregistry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg        *config.AppConfig
	router     *gin.Engine
	db         *gorm.DB
	redis      *pkgredis.Client
	logger     *zap.Logger
	sessions   *session.Store
	registry   *tokenregistry.Registry
	authorizer *authn.Authorizer
	cookie     middleware.SessionCookie
	store      objectstore.Store
	sched      *pkgcron.Scheduler
	cancel     context.CancelFunc
}

// New initializes the application: DB, Redis, auth, object store, routes and cron jobs.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.Name); err != nil {
			logger.Warn("db stats collector not registered", zap.Error(err))
		}
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("redis: %w", err)
	}

	store, err := newObjectStore(cfg)
	if err != nil {
		_ = rc.Close()
		_ = database.Close(db)
		return nil, fmt.Errorf("object store: %w", err)
	}

	sessions := session.NewStore(db)
	registry := tokenregistry.New(rc.Raw(), cfg.Auth.TokenRegistryKey)
	validator := authn.NewValidator(sessions, logger)
	// Development fails open when the registry is unreachable.
	authorizer := authn.NewAuthorizer(registry, validator, logger, cfg.IsDev())

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(newCORS(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(metrics.ObserveCron)

	a := &App{
		cfg:        cfg,
		router:     router,
		db:         db,
		redis:      rc,
		logger:     logger,
		sessions:   sessions,
		registry:   registry,
		authorizer: authorizer,
		cookie:     middleware.SessionCookie{Name: cfg.Auth.CookieName, Secure: cfg.Auth.SecureCookie},
		store:      store,
		sched:      sched,
		cancel:     cancel,
	}
	a.registerRoutes()
	a.registerCronJobs()
	sched.Start(ctx)
	return a, nil
}

func newObjectStore(cfg *config.AppConfig) (objectstore.Store, error) {
	if cfg.Media.Driver == config.MediaDriverS3 {
		return objectstore.NewS3(cfg.Media.S3)
	}
	return objectstore.NewLocal(cfg.UploadDir(), cfg.Media.PublicBaseURL)
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Wait()
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}
