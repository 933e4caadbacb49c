package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/assocsite/portal/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid email or password"

// dummyHash is compared against when the email is unknown so both failures cost one bcrypt round.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// TokenRegistry is the part of the registry login and logout maintain.
type TokenRegistry interface {
	Add(ctx context.Context, token string) error
	Remove(ctx context.Context, tokens ...string) error
}

type Service struct {
	db       *gorm.DB
	sessions *session.Store
	registry TokenRegistry
	ttl      time.Duration
	logger   *zap.Logger
}

func NewService(db *gorm.DB, sessions *session.Store, registry TokenRegistry, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{db: db, sessions: sessions, registry: registry, ttl: ttl, logger: logger.Named("auth")}
}

// TTL returns the lifetime of issued sessions.
func (s *Service) TTL() time.Duration { return s.ttl }

// Login checks credentials, opens a session and registers its token.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apperr.Validationf("email and password are required")
	}

	var u models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil, apperr.New(apperr.Unauthenticated, invalidCredentials)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperr.New(apperr.Unauthenticated, invalidCredentials)
	}
	if u.Status != models.UserActive {
		return nil, nil, apperr.New(apperr.AccountInactive, "Account is not active")
	}

	sess, err := s.sessions.Create(ctx, u.ID, ip, ua, s.ttl)
	if err != nil {
		return nil, nil, err
	}
	if err := s.registry.Add(ctx, sess.Token); err != nil {
		if delErr := s.sessions.Delete(ctx, sess.Token); delErr != nil {
			s.logger.Warn("failed to roll back session", zap.String("session_id", sess.ID), zap.Error(delErr))
		}
		return nil, nil, fmt.Errorf("register session token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", u.ID), zap.String("ip", ip))
	return sess, &u, nil
}

// Logout forgets token in the session store and the registry. Failures are logged only.
func (s *Service) Logout(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete session on logout", zap.Error(err))
	}
	if err := s.registry.Remove(ctx, token); err != nil {
		s.logger.Warn("failed to remove token from registry on logout", zap.Error(err))
	}
}

// ListSessions returns the live sessions of userID.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.ListActive(ctx, userID)
}
