// Package dbtest opens migrated in-memory SQLite databases for package tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/assocsite/portal/internal/database"
	"github.com/assocsite/portal/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh, migrated in-memory database closed at test cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "password".
func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{Email: email, Name: email, PasswordHash: string(hash), Role: role, Status: status}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateSession inserts a session for userID with a fixed token.
func CreateSession(t testing.TB, db *gorm.DB, token, userID string, expiresAt time.Time) *models.Session {
	t.Helper()
	s := &models.Session{Token: token, UserID: userID, ExpiresAt: expiresAt}
	require.NoError(t, db.Create(s).Error)
	return s
}
