package services

import (
	"context"
	"testing"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActionsService_PostTweet(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewActionsService(tweetStore, mockSource, "agent")

	mockSource.On("Post", mock.Anything, "fresh hot take").Return("9501", nil)

	tracked, err := svc.PostTweet(context.Background(), "fresh hot take")

	require.NoError(t, err)
	require.NotNil(t, tracked)
	assert.Equal(t, "9501", tracked.TweetID)
	assert.Equal(t, models.KindPosted, tracked.Kind)
	assert.Equal(t, "agent", tracked.AuthorUsername)

	actions, err := tweetStore.RecentActions(models.ActionPost, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.True(t, actions[0].Success)
}

func TestActionsService_PostTweetValidation(t *testing.T) {
	db := setupTestDB(t)
	mockSource := &MockSource{}
	svc := NewActionsService(store.NewTweetStore(db), mockSource, "agent")

	_, err := svc.PostTweet(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
	mockSource.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}

func TestActionsService_RepostDoesNotResolve(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewActionsService(tweetStore, mockSource, "agent")

	tweet := seedUnresolved(t, db, "9502", "alice")
	mockSource.On("Repost", mock.Anything, "9502").Return(nil)

	reposted, err := svc.Repost(context.Background(), tweet.IDTweet)

	require.NoError(t, err)
	assert.True(t, reposted.RepostedByUs)
	assert.NotNil(t, reposted.RepostedAt)
	assert.False(t, reposted.RepliedTo, "repost is bookkeeping, not resolution")
	assert.False(t, reposted.Ignored)

	actions, err := tweetStore.RecentActions(models.ActionRepost, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.True(t, actions[0].Success)
}
