package auth

import (
	"time"

	"github.com/assocsite/portal/internal/modules/auth/authn"
)

type LoginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Success   bool           `json:"success"`
	User      authn.UserView `json:"user"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type sessionItem struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	Current   bool      `json:"current"`
}
