// Package store is the persistence layer for tracked tweets, blocked users
// and the action audit trail. Uniqueness of the platform tweet id and of
// blocked usernames is enforced by the database itself, so concurrent
// writers of the same record resolve there rather than in process.
package store

import (
	"fmt"
	"time"

	"tweet-agent/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TweetStore provides persistence operations over the agent's entities
type TweetStore struct {
	db *gorm.DB
}

// NewTweetStore creates a new TweetStore
func NewTweetStore(db *gorm.DB) *TweetStore {
	return &TweetStore{db: db}
}

// mutable columns refreshed on every re-ingestion of a known tweet.
// Resolution state (replied_*, ignored_*, reposted_*), identity (id_tweet)
// and first_seen_at are deliberately absent: ingestion never touches them.
var upsertColumns = []string{
	"text",
	"author_username",
	"created_at",
	"url",
	"retweet_count",
	"like_count",
	"reply_count",
	"mentioned_users",
	"last_updated_at",
}

// Upsert stores a freshly fetched tweet. On first sight of a tweet_id the
// row is created with a fresh internal id, first_seen_at = now and an
// unresolved state; on repeat sight only the mutable content and metric
// columns are refreshed. The returned record is the row as persisted, so
// the caller sees the original internal id and resolution state even when
// another writer created the row first.
func (s *TweetStore) Upsert(tweet *models.TrackedTweet) (*models.TrackedTweet, error) {
	if tweet.TweetID == "" {
		return nil, fmt.Errorf("cannot upsert a tweet without a platform id")
	}

	now := time.Now().UTC()
	if tweet.IDTweet == uuid.Nil {
		tweet.IDTweet = uuid.New()
	}
	tweet.FirstSeenAt = now
	tweet.LastUpdatedAt = now

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tweet_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(tweet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tweet %s: %w", tweet.TweetID, err)
	}

	// Re-read the row: on the conflict path the struct still carries the
	// internal id we generated, not the one the winning insert assigned.
	var stored models.TrackedTweet
	if err := s.db.Where("tweet_id = ?", tweet.TweetID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to reload tweet %s after upsert: %w", tweet.TweetID, err)
	}
	return &stored, nil
}

// GetByIDTweet looks up a tracked tweet by its internal id.
// Returns (nil, nil) when no such record exists.
func (s *TweetStore) GetByIDTweet(idTweet uuid.UUID) (*models.TrackedTweet, error) {
	var tweet models.TrackedTweet
	err := s.db.Where("id_tweet = ?", idTweet).First(&tweet).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tweet %s: %w", idTweet, err)
	}
	return &tweet, nil
}

// GetByTweetID looks up a tracked tweet by the platform's tweet id.
// Returns (nil, nil) when no such record exists.
func (s *TweetStore) GetByTweetID(tweetID string) (*models.TrackedTweet, error) {
	var tweet models.TrackedTweet
	err := s.db.Where("tweet_id = ?", tweetID).First(&tweet).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tweet %s: %w", tweetID, err)
	}
	return &tweet, nil
}

// UnansweredFromUser returns unresolved, unignored regular tweets from one
// author, newest platform creation time first.
func (s *TweetStore) UnansweredFromUser(username string, limit int) ([]models.TrackedTweet, error) {
	var tweets []models.TrackedTweet
	err := s.db.
		Where("author_username = ? AND kind = ? AND replied_to = false AND ignored = false",
			username, models.KindRegular).
		Order("created_at DESC").
		Limit(limit).
		Find(&tweets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query unanswered tweets from @%s: %w", username, err)
	}
	return tweets, nil
}

// UnansweredMentionsFromUser returns unresolved, unignored mentions from one
// author, newest first-seen first. Used for the scoped listing path, which
// deliberately skips the blocked-user exclusion.
func (s *TweetStore) UnansweredMentionsFromUser(username string, limit int) ([]models.TrackedTweet, error) {
	var mentions []models.TrackedTweet
	err := s.db.
		Where("author_username = ? AND kind = ? AND replied_to = false AND ignored = false",
			username, models.KindMention).
		Order("first_seen_at DESC, tweet_id").
		Limit(limit).
		Find(&mentions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query unanswered mentions from @%s: %w", username, err)
	}
	return mentions, nil
}

// UnansweredMentionCandidates returns the candidate buffer for the abuse
// filter: unresolved, unignored mentions whose authors are not blocked,
// newest first-seen first. Ties on first_seen_at break on tweet_id so the
// scan order is stable across calls.
func (s *TweetStore) UnansweredMentionCandidates(bufferLimit int) ([]models.TrackedTweet, error) {
	blocked := s.db.Model(&models.BlockedUser{}).Select("username")

	var mentions []models.TrackedTweet
	err := s.db.
		Where("kind = ? AND replied_to = false AND ignored = false", models.KindMention).
		Where("author_username NOT IN (?)", blocked).
		Order("first_seen_at DESC, tweet_id").
		Limit(bufferLimit).
		Find(&mentions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query mention candidates: %w", err)
	}
	return mentions, nil
}

// MarkReplied transitions a tweet to the replied state. The update is
// conditional on the row still being unresolved, so two concurrent resolvers
// cannot both claim it: the caller that sees false lost the race (or the
// tweet was already terminal). Returns whether this call made the transition.
func (s *TweetStore) MarkReplied(idTweet uuid.UUID, replyTweetID string) (bool, error) {
	now := time.Now().UTC()
	result := s.db.Model(&models.TrackedTweet{}).
		Where("id_tweet = ? AND replied_to = false AND ignored = false", idTweet).
		Updates(map[string]interface{}{
			"replied_to":      true,
			"replied_at":      now,
			"reply_tweet_id":  replyTweetID,
			"last_updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark tweet %s as replied: %w", idTweet, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkIgnored transitions a tweet to the ignored state, conditional on the
// row still being unresolved. Returns whether this call made the transition.
func (s *TweetStore) MarkIgnored(idTweet uuid.UUID, reason models.IgnoredReason) (bool, error) {
	now := time.Now().UTC()
	result := s.db.Model(&models.TrackedTweet{}).
		Where("id_tweet = ? AND replied_to = false AND ignored = false", idTweet).
		Updates(map[string]interface{}{
			"ignored":         true,
			"ignored_reason":  reason,
			"ignored_at":      now,
			"last_updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark tweet %s as ignored: %w", idTweet, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkReposted records that we reposted a tweet. Reposting is bookkeeping,
// not resolution, so it carries no unresolved precondition.
func (s *TweetStore) MarkReposted(idTweet uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := s.db.Model(&models.TrackedTweet{}).
		Where("id_tweet = ?", idTweet).
		Updates(map[string]interface{}{
			"reposted_by_us":  true,
			"reposted_at":     now,
			"last_updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark tweet %s as reposted: %w", idTweet, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountIgnoredFrom returns the lifetime count of ignored mentions from an
// author. Feeds the block-threshold check.
func (s *TweetStore) CountIgnoredFrom(username string) (int64, error) {
	var count int64
	err := s.db.Model(&models.TrackedTweet{}).
		Where("author_username = ? AND kind = ? AND ignored = true", username, models.KindMention).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ignored mentions from @%s: %w", username, err)
	}
	return count, nil
}

// CountSeenFrom returns how many mentions from an author have ever been
// ingested, regardless of state.
func (s *TweetStore) CountSeenFrom(username string) (int64, error) {
	var count int64
	err := s.db.Model(&models.TrackedTweet{}).
		Where("author_username = ? AND kind = ?", username, models.KindMention).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count mentions from @%s: %w", username, err)
	}
	return count, nil
}
