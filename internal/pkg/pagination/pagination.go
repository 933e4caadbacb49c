package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query holds parsed page-number pagination parameters.
type Query struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip for q.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// FromContext reads page and limit from the query string, clamped to [1, maxLimit].
func FromContext(c *gin.Context, defaultLimit, maxLimit int) Query {
	return Parse(c.Query("page"), c.Query("limit"), defaultLimit, maxLimit)
}

// Parse is FromContext for raw string values.
func Parse(rawPage, rawLimit string, defaultLimit, maxLimit int) Query {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}

	page := parseIntOr(rawPage, DefaultPage)
	limit := parseIntOr(rawLimit, defaultLimit)
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// Offset must stay within int32 so the row skip fits every driver.
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}
	return Query{Page: page, Limit: limit}
}

// Paginate counts db under its current predicate, then loads the requested page into a Page envelope.
// Ordering must already be applied to db. scopes apply to the page load only (e.g. Preload).
func Paginate[T any](db *gorm.DB, q Query, scopes ...func(*gorm.DB) *gorm.DB) (response.Page[T], error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Page[T]{}, err
	}

	items := make([]T, 0)
	if err := db.Scopes(scopes...).Offset(q.Offset()).Limit(q.Limit).Find(&items).Error; err != nil {
		return response.Page[T]{}, err
	}

	return response.Page[T]{
		Items: items,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Pages: TotalPages(total, q.Limit),
	}, nil
}

// TotalPages returns ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SearchPattern returns a lower-cased substring LIKE pattern for term. Wildcards are escaped
// with '!', so the query must say ESCAPE '!'.
func SearchPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(term)) + "%"
}
