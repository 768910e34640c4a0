package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUnresolved(t *testing.T, db *gorm.DB, tweetID, username string) models.TrackedTweet {
	now := time.Now().UTC()
	m := models.TrackedTweet{
		IDTweet:        uuid.New(),
		TweetID:        tweetID,
		Text:           "@agent what do you think?",
		AuthorUsername: username,
		Kind:           models.KindMention,
		FirstSeenAt:    now,
		LastUpdatedAt:  now,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func countActions(t *testing.T, db *gorm.DB) int64 {
	var count int64
	require.NoError(t, db.Model(&models.Action{}).Count(&count).Error)
	return count
}

func TestReplyService_UnknownInternalID(t *testing.T) {
	db := setupTestDB(t)
	mockSource := &MockSource{}
	svc := NewReplyService(store.NewTweetStore(db), mockSource)

	result, err := svc.Resolve(context.Background(), uuid.New(), "hi there", false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotFound)
	mockSource.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, int64(0), countActions(t, db), "no side effects on not-found")
}

func TestReplyService_AlreadyRepliedIsANoOp(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewReplyService(tweetStore, mockSource)

	tweet := seedUnresolved(t, db, "9101", "alice")
	ok, err := tweetStore.MarkReplied(tweet.IDTweet, "9900")
	require.NoError(t, err)
	require.True(t, ok)
	before := countActions(t, db)

	result, err := svc.Resolve(context.Background(), tweet.IDTweet, "hello again", false)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeAlreadyReplied, result.ErrorCode)
	assert.Equal(t, "9101", result.OriginalTweetID)
	mockSource.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, before, countActions(t, db), "no duplicate audit entry")
}

func TestReplyService_SuccessfulReply(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewReplyService(tweetStore, mockSource)

	tweet := seedUnresolved(t, db, "9102", "bob")
	mockSource.On("Reply", mock.Anything, "9102", "thanks bob").Return("9901", nil)

	result, err := svc.Resolve(context.Background(), tweet.IDTweet, "thanks bob", false)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "9901", result.ReplyTweetID)

	reloaded, err := tweetStore.GetByIDTweet(tweet.IDTweet)
	require.NoError(t, err)
	assert.True(t, reloaded.RepliedTo)
	assert.Equal(t, "9901", reloaded.ReplyTweetID)
	assert.NotNil(t, reloaded.RepliedAt)

	actions, err := tweetStore.RecentActions(models.ActionReply, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.True(t, actions[0].Success)
	assert.Contains(t, actions[0].Metadata, "thanks bob")
	mockSource.AssertExpectations(t)
}

// A quote resolves the tweet just like a reply does, and the audit entry
// records the quote action kind.
func TestReplyService_QuoteCountsAsResolution(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewReplyService(tweetStore, mockSource)

	tweet := seedUnresolved(t, db, "9103", "carol")
	mockSource.On("Quote", mock.Anything, "9103", "interesting take").Return("9902", nil)

	result, err := svc.Resolve(context.Background(), tweet.IDTweet, "interesting take", true)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Quoted)

	reloaded, err := tweetStore.GetByIDTweet(tweet.IDTweet)
	require.NoError(t, err)
	assert.True(t, reloaded.RepliedTo)

	actions, err := tweetStore.RecentActions(models.ActionQuote, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Metadata, `"quoted":true`)
	mockSource.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
}

func TestReplyService_SourceFailureLeavesTweetUnresolved(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewReplyService(tweetStore, mockSource)

	tweet := seedUnresolved(t, db, "9104", "dave")
	sourceErr := errors.New("gateway rejected the action")
	mockSource.On("Reply", mock.Anything, "9104", "hello").Return("", sourceErr)

	result, err := svc.Resolve(context.Background(), tweet.IDTweet, "hello", false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, sourceErr)

	reloaded, lookupErr := tweetStore.GetByIDTweet(tweet.IDTweet)
	require.NoError(t, lookupErr)
	assert.False(t, reloaded.RepliedTo, "failed remote action must not resolve the tweet")

	actions, actionsErr := tweetStore.RecentActions(models.ActionReply, 10)
	require.NoError(t, actionsErr)
	require.Len(t, actions, 1)
	assert.False(t, actions[0].Success)
	assert.Contains(t, actions[0].ErrorMessage, "gateway rejected")
}

func TestReplyService_TextValidation(t *testing.T) {
	db := setupTestDB(t)
	mockSource := &MockSource{}
	svc := NewReplyService(store.NewTweetStore(db), mockSource)

	_, err := svc.Resolve(context.Background(), uuid.New(), "", false)
	assert.ErrorIs(t, err, ErrValidation)

	long := make([]rune, 281)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Resolve(context.Background(), uuid.New(), string(long), false)
	assert.ErrorIs(t, err, ErrValidation)

	mockSource.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
}

// A resolver that loses the conditional update reports the concurrent
// resolution instead of double-committing.
func TestReplyService_ConditionalUpdateClosesTheRace(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewReplyService(tweetStore, mockSource)

	tweet := seedUnresolved(t, db, "9105", "eve")

	// Simulate the concurrent winner committing between this call's
	// pre-check and its remote action.
	mockSource.On("Reply", mock.Anything, "9105", "late reply").Run(func(args mock.Arguments) {
		ok, err := tweetStore.MarkReplied(tweet.IDTweet, "9905")
		require.NoError(t, err)
		require.True(t, ok)
	}).Return("9906", nil)

	result, err := svc.Resolve(context.Background(), tweet.IDTweet, "late reply", false)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeAlreadyReplied, result.ErrorCode)

	reloaded, err := tweetStore.GetByIDTweet(tweet.IDTweet)
	require.NoError(t, err)
	assert.Equal(t, "9905", reloaded.ReplyTweetID, "the winner's reply id sticks")
}
