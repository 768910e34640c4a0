package services

import (
	"context"
	"testing"
	"time"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"
	"tweet-agent/internal/twitter"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedMention(t *testing.T, db *gorm.DB, tweetID, username string, firstSeen time.Time) models.TrackedTweet {
	m := models.TrackedTweet{
		IDTweet:        uuid.New(),
		TweetID:        tweetID,
		Text:           "@agent hello",
		AuthorUsername: username,
		Kind:           models.KindMention,
		FirstSeenAt:    firstSeen,
		LastUpdatedAt:  firstSeen,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedIgnoredMention(t *testing.T, db *gorm.DB, tweetID, username string, firstSeen time.Time) models.TrackedTweet {
	m := models.TrackedTweet{
		IDTweet:        uuid.New(),
		TweetID:        tweetID,
		Text:           "@agent hello",
		AuthorUsername: username,
		Kind:           models.KindMention,
		Ignored:        true,
		IgnoredReason:  models.IgnoredDuplicateUser,
		FirstSeenAt:    firstSeen,
		LastUpdatedAt:  firstSeen,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func TestExtractMentionedUsers(t *testing.T) {
	assert.Equal(t, []string{"@agent", "@friend"}, extractMentionedUsers("hey @agent meet @friend"))
	assert.Empty(t, extractMentionedUsers("no handles here"))
}

func TestMentionsService_IngestIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMentionsService(store.NewTweetStore(db), &MockSource{}, DefaultFilterConfig())

	raw := twitter.Tweet{ID: "4001", Text: "@agent ping @other", AuthorUsername: "alice"}

	first, err := svc.IngestMention(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"@agent", "@other"}, []string(first.MentionedUsers))

	second, err := svc.IngestMention(raw)
	require.NoError(t, err)
	assert.Equal(t, first.IDTweet, second.IDTweet)

	var count int64
	db.Model(&models.TrackedTweet{}).Where("tweet_id = ?", "4001").Count(&count)
	assert.Equal(t, int64(1), count)
}

// Six mentions, three of them from the same author at recency ranks 1, 3
// and 5: the batch keeps the author's newest mention plus the next two
// distinct authors, and marks the author's other two as duplicates.
func TestMentionsService_BatchKeepsOneMentionPerAuthor(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMentionsService(store.NewTweetStore(db), &MockSource{}, DefaultFilterConfig())

	base := time.Now().UTC()
	rank := func(n int) time.Time { return base.Add(-time.Duration(n) * time.Minute) }

	seedMention(t, db, "5001", "alice", rank(1))
	seedMention(t, db, "5002", "bob", rank(2))
	dupA := seedMention(t, db, "5003", "alice", rank(3))
	seedMention(t, db, "5004", "carol", rank(4))
	dupB := seedMention(t, db, "5005", "alice", rank(5))
	seedMention(t, db, "5006", "dave", rank(6))

	result, err := svc.selectUnresolved(3)
	require.NoError(t, err)

	require.Len(t, result, 3)
	assert.Equal(t, "5001", result[0].TweetID)
	assert.Equal(t, "5002", result[1].TweetID)
	assert.Equal(t, "5004", result[2].TweetID)

	for _, dup := range []models.TrackedTweet{dupA, dupB} {
		var reloaded models.TrackedTweet
		require.NoError(t, db.Where("id_tweet = ?", dup.IDTweet).First(&reloaded).Error)
		assert.True(t, reloaded.Ignored)
		assert.Equal(t, models.IgnoredDuplicateUser, reloaded.IgnoredReason)
	}

	// The surplus distinct author is left untouched for a later batch
	var surplus models.TrackedTweet
	require.NoError(t, db.Where("tweet_id = ?", "5006").First(&surplus).Error)
	assert.False(t, surplus.Ignored)
	assert.False(t, surplus.RepliedTo)
}

// The tenth ignored mention from one author trips the block threshold: a
// blocked-user record and a block audit entry appear, and the author's
// mentions stop showing up in unscoped batches even after new ingestion.
func TestMentionsService_BlockThreshold(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	svc := NewMentionsService(tweetStore, &MockSource{}, DefaultFilterConfig())

	base := time.Now().UTC()
	for i := 0; i < 9; i++ {
		seedIgnoredMention(t, db, uuid.NewString(), "spammer", base.Add(-time.Duration(i+10)*time.Minute))
	}
	seedMention(t, db, "6001", "spammer", base.Add(-1*time.Minute))
	seedMention(t, db, "6002", "spammer", base.Add(-2*time.Minute))
	seedMention(t, db, "6003", "harmless", base.Add(-3*time.Minute))

	result, err := svc.selectUnresolved(2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "6001", result[0].TweetID)
	assert.Equal(t, "6003", result[1].TweetID)

	blocked, err := tweetStore.IsBlocked("spammer")
	require.NoError(t, err)
	assert.True(t, blocked, "10th ignored mention must trip the block")

	var record models.BlockedUser
	require.NoError(t, db.Where("username = ?", "spammer").First(&record).Error)
	assert.Equal(t, models.BlockedExcessiveMentions, record.Reason)
	assert.Equal(t, 10, record.IgnoredMentions)

	actions, err := tweetStore.RecentActions(models.ActionBlock, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "spammer", actions[0].TargetUsername)

	// New mentions from the blocked author never reappear unscoped
	seedMention(t, db, "6004", "spammer", base)

	result, err = svc.selectUnresolved(5)
	require.NoError(t, err)
	for _, m := range result {
		assert.NotEqual(t, "spammer", m.AuthorUsername)
	}
}

func TestMentionsService_ScopedListBypassesBlocking(t *testing.T) {
	db := setupTestDB(t)
	tweetStore := store.NewTweetStore(db)
	mockSource := &MockSource{}
	svc := NewMentionsService(tweetStore, mockSource, DefaultFilterConfig())

	base := time.Now().UTC()
	seedMention(t, db, "7001", "mallory", base.Add(-1*time.Minute))
	seedMention(t, db, "7002", "mallory", base.Add(-2*time.Minute))
	_, err := tweetStore.BlockUser(&models.BlockedUser{
		Username:  "mallory",
		Reason:    models.BlockedManual,
		BlockedAt: base,
	})
	require.NoError(t, err)

	mockSource.On("ReadLastMentions", mock.Anything, 10).Return([]twitter.Tweet{}, nil)

	// Explicitly scoped to the blocked author: no block check, no dedup
	result, err := svc.IngestAndListUnanswered(context.Background(), 5, "mallory")
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "7001", result[0].TweetID)
	assert.Equal(t, "7002", result[1].TweetID)
	mockSource.AssertExpectations(t)
}

func TestMentionsService_CountValidation(t *testing.T) {
	db := setupTestDB(t)
	mockSource := &MockSource{}
	svc := NewMentionsService(store.NewTweetStore(db), mockSource, DefaultFilterConfig())

	_, err := svc.IngestAndListUnanswered(context.Background(), 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.IngestAndListUnanswered(context.Background(), 101, "")
	assert.ErrorIs(t, err, ErrValidation)

	mockSource.AssertNotCalled(t, "ReadLastMentions", mock.Anything, mock.Anything)
}

func TestMentionsService_OneBadUpsertDoesNotSinkTheBatch(t *testing.T) {
	db := setupTestDB(t)
	mockSource := &MockSource{}
	svc := NewMentionsService(store.NewTweetStore(db), mockSource, DefaultFilterConfig())

	raw := []twitter.Tweet{
		{ID: "", Text: "@agent broken record", AuthorUsername: "alice"}, // empty platform id fails the upsert
		{ID: "8002", Text: "@agent fine", AuthorUsername: "bob"},
	}
	mockSource.On("ReadLastMentions", mock.Anything, 10).Return(raw, nil)

	result, err := svc.IngestAndListUnanswered(context.Background(), 5, "")
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, "8002", result[0].TweetID)
}
