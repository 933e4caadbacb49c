// Package media manages the media library: uploads, metadata and the filtered listing.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/metrics"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/objectstore"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// sortOrders maps the accepted sort values to ORDER BY clauses. Unknown values fall back to newest.
var sortOrders = map[string]string{
	"newest":    "created_at DESC, id ASC",
	"oldest":    "created_at ASC, id ASC",
	"name-asc":  "original_name ASC, id ASC",
	"name-desc": "original_name DESC, id ASC",
	"size-asc":  "size ASC, id ASC",
	"size-desc": "size DESC, id ASC",
}

type ListQuery struct {
	Type   string
	Search string
	Sort   string
	Limit  int
	Offset int
}

// ListResult is the offset-paginated listing with per-type counts of the whole library.
type ListResult struct {
	Items  []models.Media             `json:"items"`
	Total  int64                      `json:"total"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
	Stats  map[models.MediaType]int64 `json:"stats"`
}

// UploadInput is a file received from a client.
type UploadInput struct {
	OriginalName string
	Size         int64
	Body         io.ReadSeeker
	UploaderID   string
	Alt          string
	Title        string
}

type UpdateMediaDTO struct {
	Alt   *string `json:"alt"`
	Title *string `json:"title"`
}

type Service struct {
	db       *gorm.DB
	store    objectstore.Store
	maxBytes int64
	now      func() time.Time
}

func NewService(db *gorm.DB, store objectstore.Store, maxBytes int64) *Service {
	return &Service{db: db, store: store, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

func clampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	limit, offset := clampPage(q.Limit, q.Offset)

	tx := s.db.WithContext(ctx).Model(&models.Media{})
	if v := strings.TrimSpace(q.Type); v != "" {
		typ := models.MediaType(strings.ToUpper(v))
		if !typ.Valid() {
			return nil, apperr.Validationf("invalid media type %q", v)
		}
		tx = tx.Where("type = ?", typ)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := pagination.SearchPattern(term)
		tx = tx.Where(
			"(LOWER(original_name) LIKE ? ESCAPE '!' OR LOWER(file_name) LIKE ? ESCAPE '!' OR LOWER(alt) LIKE ? ESCAPE '!' OR LOWER(title) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	order, ok := sortOrders[q.Sort]
	if !ok {
		order = sortOrders["newest"]
	}
	items := make([]models.Media, 0)
	if err := tx.Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Limit: limit, Offset: offset, Stats: stats}, nil
}

// Stats counts non-deleted media per type. Every type is present, zero when empty.
func (s *Service) Stats(ctx context.Context) (map[models.MediaType]int64, error) {
	var rows []struct {
		Type  models.MediaType
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&models.Media{}).
		Select("type, COUNT(*) AS total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[models.MediaType]int64, len(models.MediaTypes))
	for _, t := range models.MediaTypes {
		stats[t] = 0
	}
	for _, r := range rows {
		stats[r.Type] = r.Total
	}
	return stats, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Upload sniffs the content type, stores the object and records it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Media, error) {
	if in.Size <= 0 {
		return nil, apperr.Validationf("file is empty")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, apperr.Validationf("file exceeds the %d MB upload limit", s.maxBytes>>20)
	}
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(in.OriginalName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return nil, apperr.Validationf("file name is required")
	}

	mtype, err := mimetype.DetectReader(in.Body)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}
	if _, err := in.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	key := objectKey(s.now(), name, mtype)
	url, err := s.store.Put(ctx, key, in.Body, in.Size, mtype.String())
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	metrics.MediaUploadBytes.Observe(float64(in.Size))

	m := models.Media{
		Type:         Classify(mtype),
		OriginalName: name,
		FileName:     key,
		MimeType:     mtype.String(),
		Size:         in.Size,
		URL:          url,
		Alt:          strings.TrimSpace(in.Alt),
		Title:        strings.TrimSpace(in.Title),
		UploaderID:   in.UploaderID,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) Update(ctx context.Context, id string, dto *UpdateMediaDTO) (*models.Media, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFoundf("Media not found")
	}
	updates := map[string]interface{}{}
	if dto.Alt != nil {
		updates["alt"] = strings.TrimSpace(*dto.Alt)
	}
	if dto.Title != nil {
		updates["title"] = strings.TrimSpace(*dto.Title)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(m).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Delete soft-deletes the record. The stored object is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Media{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("Media not found")
	}
	return nil
}

// objectKey is YYYY/MM/<uuid><ext>, the extension taken from the sniffed type when known.
func objectKey(now time.Time, name string, mtype *mimetype.MIME) string {
	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(name))
	}
	if len(ext) > 10 {
		ext = ""
	}
	return now.Format("2006/01") + "/" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/rtf",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.oasis.opendocument",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"text/",
}

// Classify maps a detected MIME type to a media type.
func Classify(mtype *mimetype.MIME) models.MediaType {
	for m := mtype; m != nil; m = m.Parent() {
		value := m.String()
		switch {
		case strings.HasPrefix(value, "image/"):
			return models.MediaImage
		case strings.HasPrefix(value, "video/"):
			return models.MediaVideo
		case strings.HasPrefix(value, "audio/"):
			return models.MediaAudio
		}
		for _, prefix := range documentTypes {
			if strings.HasPrefix(value, prefix) {
				return models.MediaDocument
			}
		}
	}
	return models.MediaOther
}
