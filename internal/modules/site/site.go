// Package site serves the pre-built public and admin pages.
package site

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// Handler serves files below root. Access to /admin is enforced by the route guard.
type Handler struct {
	root      string
	loginPath string
}

func NewHandler(root, loginPath string) *Handler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Handler{root: filepath.Clean(root), loginPath: loginPath}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.serveSection(""))
	r.GET(h.loginPath, h.serveSection(strings.TrimPrefix(h.loginPath, "/")))
	r.GET("/admin", h.serveSection("admin"))
	r.GET("/admin/*filepath", h.serveSection("admin"))
}

// serveSection returns a handler that serves the requested file from root/section, falling
// back to the section's index.html for paths that are not files.
func (h *Handler) serveSection(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if info, err := os.Stat(h.root); err != nil || !info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"message": "site pages are not deployed"})
			return
		}

		base := filepath.Join(h.root, section)
		if rel := strings.TrimPrefix(c.Param("filepath"), "/"); rel != "" {
			target, ok := h.resolve(base, rel)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid path"})
				return
			}
			if isFile(target) {
				c.File(target)
				return
			}
		}

		candidates := []string{filepath.Join(base, indexFile)}
		if section != "" {
			candidates = append(candidates, base+".html")
		}
		for _, candidate := range candidates {
			if isFile(candidate) {
				c.Header("Cache-Control", "no-cache")
				c.File(candidate)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "page not found"})
	}
}

func (h *Handler) resolve(base, rel string) (string, bool) {
	cleanRel := strings.TrimPrefix(filepath.Clean("/"+rel), string(os.PathSeparator))
	target := filepath.Join(base, cleanRel)
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
