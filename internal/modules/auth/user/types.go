package user

import (
	"time"

	"github.com/assocsite/portal/internal/models"
)

type CreateUserDTO struct {
	Email    string            `json:"email"    binding:"required,email"`
	Name     string            `json:"name"     binding:"required"`
	Password string            `json:"password" binding:"required,min=8"`
	Role     models.Role       `json:"role"`
	Status   models.UserStatus `json:"status"`
}

// UpdateUserDTO is an admin edit. Nil fields are left unchanged.
type UpdateUserDTO struct {
	Name     *string            `json:"name"`
	Role     *models.Role       `json:"role"`
	Status   *models.UserStatus `json:"status"`
	Password *string            `json:"password"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type ListQuery struct {
	Role   string
	Status string
}

type userResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Role      models.Role       `json:"role"`
	Status    models.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func toResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
