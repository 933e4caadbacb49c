// Package authn validates admin session tokens against the session store and the token registry.
package authn

import (
	"context"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/metrics"
	"github.com/assocsite/portal/internal/models"
	"github.com/assocsite/portal/internal/pkg/apperr"
	"go.uber.org/zap"
)

// SessionStore is the subset of the session store the validator needs.
type SessionStore interface {
	Find(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// UserView is the minimal user projection attached to a validated session.
type UserView struct {
	ID     string            `json:"id"`
	Email  string            `json:"email"`
	Name   string            `json:"name"`
	Role   models.Role       `json:"role"`
	Status models.UserStatus `json:"status"`
}

// AuthenticatedSession is the result of a successful validation.
type AuthenticatedSession struct {
	Token  string   `json:"-"`
	UserID string   `json:"userId"`
	User   UserView `json:"user"`

	// RegistryBypassed is set when the token registry was unreachable and the check failed open.
	RegistryBypassed bool `json:"-"`
}

// HasRole reports whether the session user holds one of roles.
func (s *AuthenticatedSession) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}

type options struct {
	roles []models.Role
}

// Option customizes a single validation.
type Option func(*options)

// RequireRoles restricts success to users holding one of roles.
func RequireRoles(roles ...models.Role) Option {
	return func(o *options) { o.roles = append(o.roles, roles...) }
}

// Validator checks a session token with one store read per call.
type Validator struct {
	store  SessionStore
	logger *zap.Logger
	now    func() time.Time
}

func NewValidator(store SessionStore, logger *zap.Logger) *Validator {
	return &Validator{store: store, logger: logger.Named("authn"), now: time.Now}
}

// Validate resolves token to an authenticated session or a classified *apperr.Error.
func (v *Validator) Validate(ctx context.Context, token string, opts ...Option) (*AuthenticatedSession, error) {
	sess, err := v.validate(ctx, token, opts)
	if err != nil {
		metrics.ObserveAuth(string(apperr.KindOf(err)))
		return nil, err
	}
	metrics.ObserveAuth("ok")
	return sess, nil
}

func (v *Validator) validate(ctx context.Context, token string, opts []Option) (*AuthenticatedSession, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.Unauthenticated, "Authentication required")
	}

	sess, err := v.store.Find(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "load session", err)
	}
	if sess == nil || sess.User == nil {
		return nil, apperr.New(apperr.InvalidSession, "Invalid session")
	}

	if sess.Expired(v.now()) {
		if err := v.store.Delete(ctx, token); err != nil {
			v.logger.Warn("failed to delete expired session", zap.String("session_id", sess.ID), zap.Error(err))
		}
		return nil, apperr.New(apperr.SessionExpired, "Session expired")
	}

	user := sess.User
	if user.Status != models.UserActive {
		return nil, apperr.New(apperr.AccountInactive, "Account is not active")
	}

	if len(o.roles) > 0 && !roleIn(user.Role, o.roles) {
		return nil, apperr.Newf(apperr.InsufficientPermission, "Insufficient permission, requires one of: %s", joinRoles(o.roles))
	}

	return &AuthenticatedSession{
		Token:  token,
		UserID: user.ID,
		User: UserView{
			ID:     user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
			Status: user.Status,
		},
	}, nil
}

func roleIn(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func joinRoles(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
