// Package crontask defines the scheduled maintenance jobs.
package crontask

import (
	"context"
	"fmt"
	"time"

	"github.com/assocsite/portal/internal/pkg/cron"
	"go.uber.org/zap"
)

const (
	CleanupSessionsJob      = "cleanup_sessions"
	cleanupSessionsInterval = time.Hour
)

// SessionStore is the part of the session store the cleanup needs.
type SessionStore interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	LiveTokens(ctx context.Context, now time.Time) (map[string]struct{}, error)
}

// TokenRegistry is the part of the admin token registry the cleanup needs.
type TokenRegistry interface {
	Tokens(ctx context.Context) (map[string]struct{}, error)
	Remove(ctx context.Context, tokens ...string) error
}

type Tasks struct {
	sessions SessionStore
	registry TokenRegistry
	logger   *zap.Logger
	now      func() time.Time
}

func New(sessions SessionStore, registry TokenRegistry, logger *zap.Logger) *Tasks {
	return &Tasks{
		sessions: sessions,
		registry: registry,
		logger:   logger.Named("CronService"),
		now:      time.Now,
	}
}

// Register adds every job to sched.
func (t *Tasks) Register(sched *cron.Scheduler) {
	sched.Register(cron.Job{
		Name:        CleanupSessionsJob,
		Description: "Delete expired sessions and unregister their tokens",
		Interval:    cleanupSessionsInterval,
		Fn:          t.CleanupSessions,
	})
}

// CleanupSessions deletes expired sessions, then drops registry tokens with no live session.
func (t *Tasks) CleanupSessions(ctx context.Context) error {
	now := t.now()
	purged, err := t.sessions.PurgeExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}

	// Registry first: a login registers its token only after its session row exists,
	// so any token in this snapshot without a live session is stale.
	registered, err := t.registry.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("read token registry: %w", err)
	}
	live, err := t.sessions.LiveTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("load live tokens: %w", err)
	}
	stale := make([]string, 0)
	for token := range registered {
		if _, ok := live[token]; !ok {
			stale = append(stale, token)
		}
	}
	if err := t.registry.Remove(ctx, stale...); err != nil {
		return fmt.Errorf("prune token registry: %w", err)
	}
	pruned := len(stale)

	t.logger.Info("session cleanup finished",
		zap.Int64("sessions_deleted", purged),
		zap.Int("tokens_pruned", pruned),
	)
	return nil
}
