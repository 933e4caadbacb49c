package post

import (
	"strings"
	"time"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/response"
)

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Title       string     `json:"title"       binding:"required"`
	Content     string     `json:"content"     binding:"required"`
	Excerpt     string     `json:"excerpt"`
	Status      string     `json:"status"`
	CategoryID  *string    `json:"categoryId"`
	AuthorID    string     `json:"authorId"`
	IsFeatured  bool       `json:"isFeatured"`
	PublishedAt *time.Time `json:"publishedAt"`
	TagIDs      []string   `json:"tagIds"`
}

// UpdatePostDTO is the request body for updating a post (all fields optional).
type UpdatePostDTO struct {
	Title       *string    `json:"title"`
	Content     *string    `json:"content"`
	Excerpt     *string    `json:"excerpt"`
	Slug        *string    `json:"slug"`
	Status      *string    `json:"status"`
	CategoryID  *string    `json:"categoryId"`
	IsFeatured  *bool      `json:"isFeatured"`
	PublishedAt *time.Time `json:"publishedAt"`
	TagIDs      *[]string  `json:"tagIds"`
}

func (dto *UpdatePostDTO) input() UpdateInput {
	in := UpdateInput{
		Title:       dto.Title,
		Content:     dto.Content,
		Excerpt:     dto.Excerpt,
		Slug:        dto.Slug,
		CategoryID:  dto.CategoryID,
		IsFeatured:  dto.IsFeatured,
		PublishedAt: dto.PublishedAt,
		TagIDs:      dto.TagIDs,
	}
	if dto.Status != nil {
		status := models.PostStatus(strings.ToUpper(strings.TrimSpace(*dto.Status)))
		in.Status = &status
	}
	return in
}

type authorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// postResponse is the API shape of a post. The author is reduced to id and name.
type postResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Content     string            `json:"content"`
	Excerpt     string            `json:"excerpt"`
	Status      models.PostStatus `json:"status"`
	CategoryID  *string           `json:"categoryId"`
	Category    *models.Category  `json:"category"`
	AuthorID    string            `json:"authorId"`
	Author      *authorView       `json:"author"`
	IsFeatured  bool              `json:"isFeatured"`
	PublishedAt *time.Time        `json:"publishedAt"`
	ViewCount   int64             `json:"viewCount"`
	Tags        []models.Tag      `json:"tags"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toResponse(p *models.Post) postResponse {
	tags := p.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	var author *authorView
	if p.Author != nil {
		author = &authorView{ID: p.Author.ID, Name: p.Author.Name}
	}
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		CategoryID:  p.CategoryID,
		Category:    p.Category,
		AuthorID:    p.AuthorID,
		Author:      author,
		IsFeatured:  p.IsFeatured,
		PublishedAt: p.PublishedAt,
		ViewCount:   p.ViewCount,
		Tags:        tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toResponses(posts []models.Post) []postResponse {
	items := make([]postResponse, len(posts))
	for i := range posts {
		items[i] = toResponse(&posts[i])
	}
	return items
}

func toPageResponse(page response.Page[models.Post]) response.Page[postResponse] {
	return response.Page[postResponse]{
		Items: toResponses(page.Items),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	}
}
