package models

// Role is the permission level of a back-office user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor, RoleViewer:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
	UserPending   UserStatus = "PENDING"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserSuspended, UserPending:
		return true
	}
	return false
}

// User is a back-office account.
type User struct {
	Base
	Email        string     `json:"email"  gorm:"size:191;uniqueIndex;not null"`
	Name         string     `json:"name"   gorm:"not null"`
	PasswordHash string     `json:"-"      gorm:"not null"`
	Role         Role       `json:"role"   gorm:"size:16;not null;default:AUTHOR"`
	Status       UserStatus `json:"status" gorm:"size:16;not null;default:ACTIVE;index"`
}

func (User) TableName() string { return "users" }
