package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/assocsite/portal/internal/pkg/slug"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RelatedLimit caps the related posts returned with a slug lookup.
const RelatedLimit = 3

const maxSlugAttempts = 1000

// sortColumns maps the accepted sortBy values to columns.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
	"title":       "title",
	"viewCount":   "view_count",
	"status":      "status",
}

// PublicListQuery filters the public listing.
type PublicListQuery struct {
	CategorySlug string
	Page         pagination.Query
}

// AdminListQuery filters the back-office listing.
type AdminListQuery struct {
	Search     string
	Status     string
	CategoryID string
	SortBy     string
	SortOrder  string
	Page       pagination.Query
}

// Actor is the user performing a write.
type Actor struct {
	UserID string
	Role   models.Role
}

// CreateInput is a validated create request.
type CreateInput struct {
	Title       string
	Content     string
	Excerpt     string
	Status      models.PostStatus
	CategoryID  *string
	AuthorID    string
	IsFeatured  bool
	PublishedAt *time.Time
	TagIDs      []string
}

// UpdateInput carries the whitelisted fields of an update. Nil means unchanged.
type UpdateInput struct {
	Title       *string
	Content     *string
	Excerpt     *string
	Slug        *string
	Status      *models.PostStatus
	CategoryID  *string
	IsFeatured  *bool
	PublishedAt *time.Time
	TagIDs      *[]string
}

// EditView bundles a post with the option lists of the edit form.
type EditView struct {
	Post       *models.Post
	Categories []models.Category
	Tags       []models.Tag
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Author").Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("name ASC")
	})
}

// ListPublished returns published posts, newest publication first.
func (s *Service) ListPublished(ctx context.Context, q PublicListQuery) (response.Page[models.Post], error) {
	tx := s.db.WithContext(ctx).Model(&models.Post{}).Where("status = ?", models.PostPublished)
	if v := strings.TrimSpace(q.CategorySlug); v != "" {
		tx = tx.Where("category_id IN (?)", s.db.Model(&models.Category{}).Select("id").Where("slug = ?", v))
	}
	tx = tx.Order("published_at DESC").Order("created_at DESC").Order("id ASC")
	return pagination.Paginate[models.Post](tx, q.Page, withRelations)
}

// ListAdmin returns posts of every non-deleted status with search, filters and a validated sort.
func (s *Service) ListAdmin(ctx context.Context, q AdminListQuery) (response.Page[models.Post], error) {
	order, err := orderClause(q.SortBy, q.SortOrder)
	if err != nil {
		return response.Page[models.Post]{}, err
	}

	tx := s.db.WithContext(ctx).Model(&models.Post{})
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := pagination.SearchPattern(term)
		tx = tx.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if v := strings.TrimSpace(q.Status); v != "" {
		status := models.PostStatus(strings.ToUpper(v))
		if !status.Valid() {
			return response.Page[models.Post]{}, apperr.Validationf("invalid status %q", v)
		}
		tx = tx.Where("status = ?", status)
	}
	if v := strings.TrimSpace(q.CategoryID); v != "" {
		tx = tx.Where("category_id = ?", v)
	}
	return pagination.Paginate[models.Post](tx.Order(order), q.Page, withRelations)
}

func orderClause(sortBy, sortOrder string) (string, error) {
	column := "created_at"
	if v := strings.TrimSpace(sortBy); v != "" {
		c, ok := sortColumns[v]
		if !ok {
			return "", apperr.Validationf("invalid sortBy %q", v)
		}
		column = c
	}

	direction := "DESC"
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return "", apperr.Validationf("invalid sortOrder %q, expected asc or desc", sortOrder)
	}
	return column + " " + direction + ", id ASC", nil
}

// GetByID returns the post with its relations, or (nil, nil) when absent or deleted.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := withRelations(s.db.WithContext(ctx)).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetEditView loads the post and the category and tag lists concurrently.
func (s *Service) GetEditView(ctx context.Context, id string) (*EditView, error) {
	view := &EditView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		post, err := s.GetByID(gctx, id)
		view.Post = post
		return err
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("sort_order ASC").Order("name ASC").Find(&view.Categories).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Order("name ASC").Find(&view.Tags).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if view.Post == nil {
		return nil, apperr.NotFoundf("Post not found")
	}
	return view, nil
}

// Create inserts a post. The slug derives from the title and gets a numeric suffix on collision.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validationf("title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validationf("content is required")
	}
	if in.AuthorID == "" {
		return nil, apperr.Validationf("author is required")
	}

	status := in.Status
	if status == "" {
		status = models.PostDraft
	}
	if !status.Valid() || status == models.PostDeleted {
		return nil, apperr.Validationf("invalid status %q", in.Status)
	}

	base := slug.Make(title)
	if base == "" {
		return nil, apperr.Validationf("title must contain at least one letter or digit")
	}

	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postSlug, err := availableSlug(tx, base)
		if err != nil {
			return err
		}
		categoryID, err := resolveCategory(tx, in.CategoryID)
		if err != nil {
			return err
		}
		tags, err := loadTags(tx, in.TagIDs)
		if err != nil {
			return err
		}

		post := models.Post{
			Title:       title,
			Slug:        postSlug,
			Content:     in.Content,
			Excerpt:     strings.TrimSpace(in.Excerpt),
			Status:      status,
			CategoryID:  categoryID,
			AuthorID:    in.AuthorID,
			IsFeatured:  in.IsFeatured,
			PublishedAt: in.PublishedAt,
			Tags:        tags,
		}
		if status == models.PostPublished && post.PublishedAt == nil {
			now := s.now()
			post.PublishedAt = &now
		}
		if err := tx.Omit("Tags.*").Create(&post).Error; err != nil {
			return err
		}
		id = post.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

// Update applies in to the post. Authors may only edit their own posts.
func (s *Service) Update(ctx context.Context, id string, actor Actor, in UpdateInput) (*models.Post, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.First(&post, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Post not found")
		}
		if err != nil {
			return err
		}
		if actor.Role == models.RoleAuthor && post.AuthorID != actor.UserID {
			return apperr.New(apperr.InsufficientPermission, "Authors can only edit their own posts")
		}

		updates, err := s.buildUpdates(tx, &post, in)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.TagIDs != nil {
			tags, err := loadTags(tx, *in.TagIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *Service) buildUpdates(tx *gorm.DB, post *models.Post, in UpdateInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validationf("title cannot be empty")
		}
		updates["title"] = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperr.Validationf("content cannot be empty")
		}
		updates["content"] = *in.Content
	}
	if in.Excerpt != nil {
		updates["excerpt"] = strings.TrimSpace(*in.Excerpt)
	}
	if in.Slug != nil {
		v := slug.Make(*in.Slug)
		if v == "" {
			return nil, apperr.Validationf("slug must contain at least one letter or digit")
		}
		if v != post.Slug {
			taken, err := slugTaken(tx, v, post.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Validationf("slug %q is already in use", v)
			}
			updates["slug"] = v
		}
	}
	if in.CategoryID != nil {
		categoryID, err := resolveCategory(tx, in.CategoryID)
		if err != nil {
			return nil, err
		}
		updates["category_id"] = categoryID
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.PublishedAt != nil {
		updates["published_at"] = *in.PublishedAt
	}
	if in.Status != nil {
		status := *in.Status
		if !status.Valid() || status == models.PostDeleted {
			return nil, apperr.Validationf("invalid status %q", status)
		}
		updates["status"] = status
		if status == models.PostPublished && post.PublishedAt == nil && in.PublishedAt == nil {
			updates["published_at"] = s.now()
		}
	}
	return updates, nil
}

func (s *Service) reload(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFoundf("Post not found")
	}
	return post, nil
}

// Delete soft-deletes the post in one statement, marking it DELETED.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.PostDeleted,
		"deleted_at": s.now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Post not found")
	}
	return nil
}

// ViewBySlug returns the published post with postSlug and counts the view.
func (s *Service) ViewBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	var post models.Post
	err := withRelations(s.db.WithContext(ctx)).
		Where("slug = ? AND status = ?", postSlug, models.PostPublished).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("Post not found")
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, err
	}
	post.ViewCount++
	return &post, nil
}

// Related returns up to limit other published posts from the same category.
func (s *Service) Related(ctx context.Context, post *models.Post, limit int) ([]models.Post, error) {
	related := make([]models.Post, 0)
	if post.CategoryID == nil {
		return related, nil
	}
	err := withRelations(s.db.WithContext(ctx)).
		Where("category_id = ? AND status = ? AND id <> ?", *post.CategoryID, models.PostPublished, post.ID).
		Order("published_at DESC").Order("created_at DESC").Order("id ASC").
		Limit(limit).
		Find(&related).Error
	return related, err
}

// availableSlug returns base or the first free base-N. Deleted posts keep their slug reserved.
func availableSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for n := 2; n <= maxSlugAttempts; n++ {
		taken, err := slugTaken(tx, candidate, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, n)
	}
	return "", apperr.Validationf("no free slug for %q", base)
}

func slugTaken(tx *gorm.DB, value, exceptID string) (bool, error) {
	q := tx.Unscoped().Model(&models.Post{}).Where("slug = ?", value)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveCategory maps "" to no category and rejects unknown ids.
func resolveCategory(tx *gorm.DB, id *string) (*string, error) {
	if id == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil, nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", v).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.Validationf("category %q not found", v)
	}
	return &v, nil
}

func loadTags(tx *gorm.DB, ids []string) ([]models.Tag, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	tags := make([]models.Tag, 0, len(unique))
	if len(unique) == 0 {
		return tags, nil
	}
	if err := tx.Where("id IN ?", unique).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, apperr.Validationf("unknown tag id in %v", unique)
	}
	return tags, nil
}
