package services

import (
	"context"
	"os"
	"testing"

	"tweet-agent/internal/database"
	"tweet-agent/internal/models"
	"tweet-agent/internal/twitter"

	"github.com/stretchr/testify/mock"
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

// MockSource is a mock implementation of the Tweet Source collaborator
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ReadLastMentions(ctx context.Context, count int) ([]twitter.Tweet, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]twitter.Tweet), args.Error(1)
}

func (m *MockSource) ReadLastTweets(ctx context.Context, username string, count int) ([]twitter.Tweet, error) {
	args := m.Called(ctx, username, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]twitter.Tweet), args.Error(1)
}

func (m *MockSource) Reply(ctx context.Context, tweetID, text string) (string, error) {
	args := m.Called(ctx, tweetID, text)
	return args.String(0), args.Error(1)
}

func (m *MockSource) Quote(ctx context.Context, tweetID, text string) (string, error) {
	args := m.Called(ctx, tweetID, text)
	return args.String(0), args.Error(1)
}

func (m *MockSource) Post(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockSource) Repost(ctx context.Context, tweetID string) error {
	args := m.Called(ctx, tweetID)
	return args.Error(0)
}
