package authn

import (
	"context"
	"errors"
	"strings"

	"github.com/assocsite/portal/internal/pkg/apperr"
	"go.uber.org/zap"
)

var (
	// ErrTokenNotRegistered marks tokens missing from the registry.
	ErrTokenNotRegistered = errors.New("token not in registry")
	// ErrRegistryUnavailable marks registry read failures when failing closed.
	ErrRegistryUnavailable = errors.New("token registry unavailable")
)

// TokenRegistry is the allow-list of admin tokens.
type TokenRegistry interface {
	Contains(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, tokens ...string) error
}

// Authorizer is the single admin authorization check used by the route guard and the API middleware:
// registry membership first, then full session validation.
type Authorizer struct {
	registry  TokenRegistry
	validator *Validator
	logger    *zap.Logger
	failOpen  bool
}

// NewAuthorizer builds an Authorizer. failOpen lets requests through when the registry cannot be read.
func NewAuthorizer(registry TokenRegistry, validator *Validator, logger *zap.Logger, failOpen bool) *Authorizer {
	return &Authorizer{registry: registry, validator: validator, logger: logger.Named("authz"), failOpen: failOpen}
}

// Validator returns the underlying session validator.
func (a *Authorizer) Validator() *Validator { return a.validator }

// Authorize checks token against the registry and then validates its session.
func (a *Authorizer) Authorize(ctx context.Context, token string, opts ...Option) (*AuthenticatedSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return a.validator.Validate(ctx, token, opts...)
	}

	bypassed := false
	ok, err := a.registry.Contains(ctx, token)
	switch {
	case err != nil && a.failOpen:
		a.logger.Warn("token registry unavailable, allowing request", zap.Error(err))
		bypassed = true
	case err != nil:
		a.logger.Error("token registry unavailable", zap.Error(err))
		return nil, apperr.Wrap(apperr.Unexpected, "token registry unavailable", errors.Join(ErrRegistryUnavailable, err))
	case !ok:
		return nil, apperr.Wrap(apperr.InvalidSession, "Invalid session", ErrTokenNotRegistered)
	}

	sess, err := a.validator.Validate(ctx, token, opts...)
	if err != nil {
		return nil, err
	}
	sess.RegistryBypassed = bypassed
	return sess, nil
}

// Revoke removes token from the registry. Failures are logged only.
func (a *Authorizer) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := a.registry.Remove(ctx, token); err != nil {
		a.logger.Warn("failed to remove token from registry", zap.Error(err))
	}
}
