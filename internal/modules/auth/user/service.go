package user

import (
	"context"
	"errors"
	"strings"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/pagination"
	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/assocsite/portal/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// TokenRegistry is the registry subset needed to revoke a user's tokens.
type TokenRegistry interface {
	Remove(ctx context.Context, tokens ...string) error
}

type Service struct {
	db       *gorm.DB
	sessions *session.Store
	registry TokenRegistry
	logger   *zap.Logger
	cost     int
}

func NewService(db *gorm.DB, sessions *session.Store, registry TokenRegistry, logger *zap.Logger) *Service {
	return &Service{db: db, sessions: sessions, registry: registry, logger: logger.Named("user"), cost: bcrypt.DefaultCost}
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) List(ctx context.Context, q ListQuery, page pagination.Query) (response.Page[models.User], error) {
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if v := strings.TrimSpace(q.Role); v != "" {
		role := models.Role(strings.ToUpper(v))
		if !role.Valid() {
			return response.Page[models.User]{}, apperr.Validationf("invalid role %q", v)
		}
		tx = tx.Where("role = ?", role)
	}
	if v := strings.TrimSpace(q.Status); v != "" {
		status := models.UserStatus(strings.ToUpper(v))
		if !status.Valid() {
			return response.Page[models.User]{}, apperr.Validationf("invalid status %q", v)
		}
		tx = tx.Where("status = ?", status)
	}
	return pagination.Paginate[models.User](tx.Order("created_at DESC"), page)
}

func (s *Service) Create(ctx context.Context, dto *CreateUserDTO) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	name := strings.TrimSpace(dto.Name)
	if email == "" || name == "" {
		return nil, apperr.Validationf("email and name are required")
	}
	if len(dto.Password) < minPasswordLength {
		return nil, apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}
	role := dto.Role
	if role == "" {
		role = models.RoleAuthor
	}
	if !role.Valid() {
		return nil, apperr.Validationf("invalid role %q", dto.Role)
	}
	status := dto.Status
	if status == "" {
		status = models.UserActive
	}
	if !status.Valid() {
		return nil, apperr.Validationf("invalid status %q", dto.Status)
	}

	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Validationf("email %q is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := models.User{Email: email, Name: name, PasswordHash: string(hash), Role: role, Status: status}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies an admin edit. Deactivating a user or resetting the password ends their sessions.
func (s *Service) Update(ctx context.Context, id, actorID string, dto *UpdateUserDTO) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("User not found")
	}

	updates := map[string]interface{}{}
	revoke := false
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, apperr.Validationf("name cannot be empty")
		}
		updates["name"] = name
	}
	if dto.Role != nil {
		if !dto.Role.Valid() {
			return nil, apperr.Validationf("invalid role %q", *dto.Role)
		}
		if id == actorID && *dto.Role != u.Role {
			return nil, apperr.Validationf("you cannot change your own role")
		}
		updates["role"] = *dto.Role
	}
	if dto.Status != nil {
		if !dto.Status.Valid() {
			return nil, apperr.Validationf("invalid status %q", *dto.Status)
		}
		if id == actorID && *dto.Status != models.UserActive {
			return nil, apperr.Validationf("you cannot deactivate your own account")
		}
		updates["status"] = *dto.Status
		revoke = revoke || *dto.Status != models.UserActive
	}
	if dto.Password != nil {
		if len(*dto.Password) < minPasswordLength {
			return nil, apperr.Validationf("password must be at least %d characters", minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.cost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
		revoke = revoke || id != actorID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if revoke {
		if err := s.RevokeSessions(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// ChangePassword lets a user replace their own password after proving the current one.
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFoundf("User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return apperr.Validationf("current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}
	if oldPassword == newPassword {
		return apperr.Validationf("new password must differ from the current one")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(u).Update("password_hash", string(hash)).Error
}

// RevokeSessions deletes every session of userID and drops the tokens from the registry.
func (s *Service) RevokeSessions(ctx context.Context, userID string) error {
	tokens, err := s.sessions.DeleteForUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	if err := s.registry.Remove(ctx, tokens...); err != nil {
		s.logger.Warn("failed to remove revoked tokens from registry", zap.String("user_id", userID), zap.Error(err))
	}
	s.logger.Info("revoked user sessions", zap.String("user_id", userID), zap.Int("count", len(tokens)))
	return nil
}
