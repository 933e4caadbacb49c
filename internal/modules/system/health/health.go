// Package health exposes liveness, scheduled job control and log inspection.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/database"
	"github.com/assocsite/portal/internal/middleware"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/cron"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Pinger is anything with a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type logItem struct {
	Size     string `json:"size"`
	Filename string `json:"filename"`
	Created  int64  `json:"created"`
}

type Handler struct {
	db     *gorm.DB
	redis  Pinger
	sched  *cron.Scheduler
	logDir string
}

func NewHandler(db *gorm.DB, redis Pinger, sched *cron.Scheduler, logDir string) *Handler {
	return &Handler{db: db, redis: redis, sched: sched, logDir: logDir}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth middleware.SessionMW) {
	rg.GET("/health", h.health)

	admin := rg.Group("/health", auth(models.RoleAdmin))
	admin.GET("/cron", h.listJobs)
	admin.POST("/cron/run/:name", h.runJob)
	admin.GET("/log/list", h.listLogs)
	admin.GET("/log", h.readLog)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	checks := gin.H{"database": "ok", "redis": "ok"}
	status, code := "ok", http.StatusOK
	if err := database.Ping(ctx, h.db); err != nil {
		checks["database"] = "unavailable"
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = "unavailable"
		status, code = "degraded", http.StatusServiceUnavailable
	}
	checks["status"] = status
	c.JSON(code, checks)
}

func (h *Handler) listJobs(c *gin.Context) {
	response.OK(c, gin.H{"data": h.sched.List()})
}

func (h *Handler) runJob(c *gin.Context) {
	if err := h.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
		if errors.Is(err, cron.ErrJobNotFound) {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": "job triggered"})
}

func (h *Handler) listLogs(c *gin.Context) {
	entries, err := os.ReadDir(h.logDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.OK(c, []logItem{})
			return
		}
		response.InternalError(c, err)
		return
	}

	items := make([]logItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, logItem{
			Size:     formatByteSize(info.Size()),
			Filename: entry.Name(),
			Created:  info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Created > items[j].Created })
	response.OK(c, items)
}

func (h *Handler) readLog(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" || filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".log") {
		response.BadRequest(c, "invalid filename")
		return
	}
	path := filepath.Join(h.logDir, filename)
	if _, err := os.Stat(path); err != nil {
		response.NotFoundMsg(c, "log file not found")
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.File(path)
}

func formatByteSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
