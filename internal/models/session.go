package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session binds an opaque cookie token to a user until ExpiresAt.
// Rows are removed physically on logout or expiry.
type Session struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Token     string    `json:"-"         gorm:"size:128;uniqueIndex;not null"`
	UserID    string    `json:"userId"    gorm:"type:char(36);index;not null"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"index;not null"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
