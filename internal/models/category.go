package models

// Category groups posts. Hidden categories are left out of public listings.
type Category struct {
	Base
	Name        string `json:"name"        gorm:"not null"`
	Slug        string `json:"slug"        gorm:"size:191;uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
	Color       string `json:"color"`
	Order       int    `json:"order"       gorm:"column:sort_order;default:0"`
	IsVisible   bool   `json:"isVisible"   gorm:"not null"`
}

func (Category) TableName() string { return "categories" }

// Tag labels posts through the post_tags join table.
type Tag struct {
	Base
	Name  string `json:"name"  gorm:"not null"`
	Slug  string `json:"slug"  gorm:"size:191;uniqueIndex;not null"`
	Color string `json:"color"`
}

func (Tag) TableName() string { return "tags" }
