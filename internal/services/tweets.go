package services

import (
	"context"
	"fmt"
	"log"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"
	"tweet-agent/internal/twitter"
)

// TweetsService handles ingestion and listing of a single user's tweets
type TweetsService struct {
	store  *store.TweetStore
	source Source
}

// NewTweetsService creates a new TweetsService
func NewTweetsService(tweetStore *store.TweetStore, source Source) *TweetsService {
	return &TweetsService{
		store:  tweetStore,
		source: source,
	}
}

// IngestAndListUnanswered fetches a user's recent tweets, upserts them and
// returns up to count unanswered ones, newest first. The candidate set is
// single-author, so no per-author dedup applies here.
func (s *TweetsService) IngestAndListUnanswered(ctx context.Context, username string, count int) ([]models.TrackedTweet, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if count < 1 || count > 100 {
		return nil, fmt.Errorf("%w: count must be between 1 and 100", ErrValidation)
	}

	log.Printf("Getting %d unanswered tweets from @%s", count, username)

	raw, err := s.source.ReadLastTweets(ctx, username, count*2)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tweets from @%s: %w", username, err)
	}
	log.Printf("Fetched %d tweets from @%s", len(raw), username)

	for _, tweet := range raw {
		if _, err := s.IngestTweet(tweet); err != nil {
			log.Printf("Failed to store tweet %s: %v", tweet.ID, err)
		}
	}

	return s.store.UnansweredFromUser(username, count)
}

// IngestTweet upserts one raw tweet as a regular tracked tweet
func (s *TweetsService) IngestTweet(raw twitter.Tweet) (*models.TrackedTweet, error) {
	tracked := &models.TrackedTweet{
		TweetID:        raw.ID,
		Text:           raw.Text,
		AuthorUsername: raw.AuthorUsername,
		CreatedAt:      raw.CreatedAt,
		URL:            raw.URL,
		Kind:           models.KindRegular,
		RetweetCount:   raw.RetweetCount,
		LikeCount:      raw.LikeCount,
		ReplyCount:     raw.ReplyCount,
	}
	return s.store.Upsert(tracked)
}
