package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	tokenBytes = 32
)

// Store reads and writes session rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NewToken returns a random opaque token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create issues a new session for userID valid for ttl.
func (s *Store) Create(ctx context.Context, userID, ip, ua string, ttl time.Duration) (*models.Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		IP:        strings.TrimSpace(ip),
		UserAgent: strings.TrimSpace(ua),
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// Find returns the session for token with its user, or (nil, nil) when absent.
func (s *Store) Find(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes the session for token. Deleting a missing token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteForUser removes every session of userID and returns their tokens.
func (s *Store) DeleteForUser(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Session{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error; err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// PurgeExpired deletes sessions that expired before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

// ListActive returns unexpired sessions of userID, newest first.
func (s *Store) ListActive(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// LiveTokens returns the tokens of every unexpired session.
func (s *Store) LiveTokens(ctx context.Context, now time.Time) (map[string]struct{}, error) {
	var tokens []string
	if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("expires_at > ?", now).Pluck("token", &tokens).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set, nil
}
