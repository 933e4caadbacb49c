// Package news serves association news written as markdown files with YAML front matter.
package news

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/assocsite/portal/internal/pkg/slug"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

var (
	frontMatterDelim = []byte("---")
	dateLayouts      = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}
)

type frontMatter struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Date    string `yaml:"date"`
	Summary string `yaml:"summary"`
	Draft   bool   `yaml:"draft"`
}

// Article is one news entry. Body holds the raw markdown and is not serialized.
type Article struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Summary string    `json:"summary,omitempty"`
	Draft   bool      `json:"-"`
	Body    string    `json:"-"`
}

// Detail is an article with its rendered body.
type Detail struct {
	Article
	HTML string `json:"html"`
}

// Service reads articles from dir on every call so edits show up without a restart.
type Service struct {
	dir    string
	logger *zap.Logger
}

func NewService(contentDir string, logger *zap.Logger) *Service {
	return &Service{dir: filepath.Join(contentDir, "news"), logger: logger.Named("news")}
}

// List returns published articles, newest first.
func (s *Service) List(ctx context.Context, q pagination.Query) (response.Page[Article], error) {
	articles, err := s.load(ctx)
	if err != nil {
		return response.Page[Article]{}, err
	}

	total := len(articles)
	start := q.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return response.Page[Article]{
		Items: articles[start:end],
		Total: int64(total),
		Page:  q.Page,
		Limit: q.Limit,
		Pages: pagination.TotalPages(int64(total), q.Limit),
	}, nil
}

// Get renders the published article with the given slug.
func (s *Service) Get(ctx context.Context, articleSlug string) (*Detail, error) {
	articles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		if a.Slug != articleSlug {
			continue
		}
		html, err := RenderMarkdown(a.Body)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", a.Slug, err)
		}
		return &Detail{Article: a, HTML: html}, nil
	}
	return nil, apperr.NotFoundf("article %q not found", articleSlug)
}

func (s *Service) load(ctx context.Context) ([]Article, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		a, err := ParseArticle(strings.TrimSuffix(filepath.Base(path), ".md"), raw)
		if err != nil {
			s.logger.Warn("skip malformed article", zap.String("file", path), zap.Error(err))
			continue
		}
		if a.Draft {
			continue
		}
		articles = append(articles, *a)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Date.Equal(articles[j].Date) {
			return articles[i].Slug < articles[j].Slug
		}
		return articles[i].Date.After(articles[j].Date)
	})
	return articles, nil
}

// ParseArticle splits raw into front matter and body. name is the file name without
// extension and provides the slug when the front matter has none.
func ParseArticle(name string, raw []byte) (*Article, error) {
	raw = bytes.TrimLeft(raw, "\ufeff\r\n\t ")
	if !bytes.HasPrefix(raw, frontMatterDelim) {
		return nil, errors.New("missing front matter")
	}
	rest := raw[len(frontMatterDelim):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if end < 0 {
		return nil, errors.New("unterminated front matter")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	date, err := parseDate(fm.Date)
	if err != nil {
		return nil, err
	}

	source := fm.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	articleSlug := slug.Make(source)
	if articleSlug == "" {
		return nil, errors.New("empty slug")
	}

	body := rest[end+1+len(frontMatterDelim):]
	return &Article{
		Slug:    articleSlug,
		Title:   title,
		Date:    date,
		Summary: strings.TrimSpace(fm.Summary),
		Draft:   fm.Draft,
		Body:    strings.TrimSpace(string(body)),
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/news")
	g.GET("", h.list)
	g.GET("/:slug", h.get)
}

func (h *Handler) list(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), pagination.FromContext(c, defaultLimit, maxLimit))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, page)
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, detail)
}
