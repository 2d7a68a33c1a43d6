// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"minitwit/config"
	"minitwit/database"
	"minitwit/logger"
	"minitwit/models"
	"minitwit/repositories"
)

// TestConfig returns a configuration pointing at a fresh sqlite file.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBType:           config.DBTypeSQLite,
		DBPath:           filepath.Join(t.TempDir(), "minitwit.db"),
		CredentialSource: config.CredentialSourceStatic,
		SecretKey:        "test-secret-key",
		PerPage:          config.DefaultPerPage,
		Port:             config.DefaultPort,
		LogLevel:         "info",
	}
}

// SetupTestDB opens a sqlite database with the full schema. It is closed when the test ends.
func SetupTestDB(t *testing.T, cfg *config.Config) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), cfg, nil, logger.Discard())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accessor := database.NewAccessor(db)
	defer accessor.Release()
	if err := database.InitSchema(context.Background(), accessor, cfg.DBType); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// Accessor returns an accessor on db released when the test ends.
func Accessor(t *testing.T, db *sqlx.DB) *database.Accessor {
	t.Helper()
	accessor := database.NewAccessor(db)
	t.Cleanup(func() { accessor.Release() })
	return accessor
}

// CreateTestUser registers a user with a bcrypt hash of password and returns the stored row.
func CreateTestUser(t *testing.T, h database.Handle, username, password string) *models.User {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	users := repositories.NewUserRepository(h)
	err = users.Create(ctx, &models.User{
		Username: username,
		Email:    username + "@example.com",
		PwHash:   string(hash),
	})
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	user, err := users.FindByUsername(ctx, username)
	if err != nil || user == nil {
		t.Fatalf("Failed to load test user: %v", err)
	}
	return user
}

// CountRows returns the number of rows in table matching where.
func CountRows(t *testing.T, h database.Handle, table, where string, params database.Params) int {
	t.Helper()
	query := `select count(*) from ` + table
	if where != "" {
		query += ` where ` + where
	}
	n, err := database.QueryOne[int](context.Background(), h, query, params)
	if err != nil || n == nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return *n
}
