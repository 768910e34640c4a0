package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"

	"github.com/google/uuid"
)

// ActionsService performs the account's own posting actions: new tweets and
// reposts. Both are recorded in the audit trail.
type ActionsService struct {
	store    *store.TweetStore
	source   Source
	username string // the authenticated account's handle
}

// NewActionsService creates a new ActionsService
func NewActionsService(tweetStore *store.TweetStore, source Source, username string) *ActionsService {
	return &ActionsService{
		store:    tweetStore,
		source:   source,
		username: username,
	}
}

// PostTweet publishes a new tweet, tracks it as posted-by-us and records
// the action.
func (s *ActionsService) PostTweet(ctx context.Context, text string) (*models.TrackedTweet, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: tweet text cannot be empty", ErrValidation)
	}
	if len([]rune(text)) > 280 {
		return nil, fmt.Errorf("%w: tweet text cannot exceed 280 characters", ErrValidation)
	}

	log.Println("Posting new tweet")

	tweetID, err := s.source.Post(ctx, text)
	if err != nil {
		log.Printf("Failed to post tweet: %v", err)
		s.logAction(&models.Action{
			ActionType:     models.ActionPost,
			TargetUsername: s.username,
			Success:        false,
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	tracked, err := s.store.Upsert(&models.TrackedTweet{
		TweetID:        tweetID,
		Text:           text,
		AuthorUsername: s.username,
		Kind:           models.KindPosted,
	})
	if err != nil {
		log.Printf("Failed to track posted tweet %s: %v", tweetID, err)
	}

	metadata, _ := json.Marshal(map[string]interface{}{"text": text})
	s.logAction(&models.Action{
		ActionType:     models.ActionPost,
		TargetTweetID:  tweetID,
		TargetUsername: s.username,
		Success:        true,
		ResultTweetID:  tweetID,
		Metadata:       string(metadata),
	})

	log.Printf("✅ Posted tweet %s", tweetID)
	return tracked, nil
}

// Repost retweets a tracked tweet by its internal id. Reposting is
// bookkeeping, not resolution: the tweet stays unresolved.
func (s *ActionsService) Repost(ctx context.Context, idTweet uuid.UUID) (*models.TrackedTweet, error) {
	tweet, err := s.store.GetByIDTweet(idTweet)
	if err != nil {
		return nil, err
	}
	if tweet == nil {
		return nil, fmt.Errorf("%w: no tweet with id %s", ErrNotFound, idTweet)
	}

	log.Printf("Reposting tweet %s", tweet.TweetID)

	if err := s.source.Repost(ctx, tweet.TweetID); err != nil {
		log.Printf("Failed to repost tweet %s: %v", tweet.TweetID, err)
		s.logAction(&models.Action{
			ActionType:     models.ActionRepost,
			TargetTweetID:  tweet.TweetID,
			TargetIDTweet:  &tweet.IDTweet,
			TargetUsername: tweet.AuthorUsername,
			Success:        false,
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	if _, err := s.store.MarkReposted(tweet.IDTweet); err != nil {
		log.Printf("Failed to mark tweet %s as reposted: %v", idTweet, err)
	}

	s.logAction(&models.Action{
		ActionType:     models.ActionRepost,
		TargetTweetID:  tweet.TweetID,
		TargetIDTweet:  &tweet.IDTweet,
		TargetUsername: tweet.AuthorUsername,
		Success:        true,
	})

	reloaded, err := s.store.GetByIDTweet(tweet.IDTweet)
	if err != nil || reloaded == nil {
		return tweet, nil
	}
	return reloaded, nil
}

// logAction appends to the audit trail, swallowing failures
func (s *ActionsService) logAction(action *models.Action) {
	if err := s.store.LogAction(action); err != nil {
		log.Printf("Failed to log %s action: %v", action.ActionType, err)
	}
}
