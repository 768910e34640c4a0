package store

import (
	"os"
	"testing"

	"tweet-agent/internal/database"
	"tweet-agent/internal/models"

	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Set test environment variables
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "postgres")
	os.Setenv("DB_PASSWORD", "")
	os.Setenv("DB_NAME", "tweet_agent_test")
	os.Setenv("DB_SSLMODE", "disable")

	config := database.LoadConfig()

	err := database.Connect(config)
	if err != nil {
		t.Skipf("Skipping test - PostgreSQL test database not available: %v", err)
	}

	db := database.DB

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	// Clean up any existing test data
	db.Exec("DELETE FROM actions")
	db.Exec("DELETE FROM blocked_users")
	db.Exec("DELETE FROM tweets")

	return db
}
