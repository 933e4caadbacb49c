package models

import "time"

type PostStatus string

const (
	PostDraft     PostStatus = "DRAFT"
	PostPublished PostStatus = "PUBLISHED"
	PostArchived  PostStatus = "ARCHIVED"
	PostDeleted   PostStatus = "DELETED"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostArchived, PostDeleted:
		return true
	}
	return false
}

// Post is a news article.
type Post struct {
	Base
	Title       string     `json:"title"       gorm:"not null"`
	Slug        string     `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	Content     string     `json:"content"     gorm:"type:longtext"`
	Excerpt     string     `json:"excerpt"     gorm:"type:text"`
	Status      PostStatus `json:"status"      gorm:"size:16;not null;default:DRAFT;index"`
	CategoryID  *string    `json:"categoryId"  gorm:"type:char(36);index"`
	Category    *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	AuthorID    string     `json:"authorId"    gorm:"type:char(36);index;not null"`
	Author      *User      `json:"author,omitempty"   gorm:"foreignKey:AuthorID"`
	IsFeatured  bool       `json:"isFeatured"  gorm:"default:false"`
	PublishedAt *time.Time `json:"publishedAt" gorm:"index"`
	ViewCount   int64      `json:"viewCount"   gorm:"default:0"`
	Tags        []Tag      `json:"tags"        gorm:"many2many:post_tags"`
}

func (Post) TableName() string { return "posts" }
