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

// ReplyService resolves tracked tweets: it transitions a tweet from
// unresolved to replied, delegating the remote action to the Tweet Source
// and recording every attempt in the audit trail.
type ReplyService struct {
	store  *store.TweetStore
	source Source
}

// NewReplyService creates a new ReplyService
func NewReplyService(tweetStore *store.TweetStore, source Source) *ReplyService {
	return &ReplyService{
		store:  tweetStore,
		source: source,
	}
}

// ReplyResult reports the outcome of a Resolve call
type ReplyResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	ErrorCode       string    `json:"error_code,omitempty"`
	IDTweet         uuid.UUID `json:"id_tweet"`
	OriginalTweetID string    `json:"original_tweet_id"`
	ReplyTweetID    string    `json:"reply_tweet_id,omitempty"`
	Quoted          bool      `json:"quoted"`
}

// Resolve replies to (or quote-tweets) the tracked tweet with the given
// internal id and commits the replied transition.
//
// An already-replied tweet returns an ALREADY_REPLIED result without a
// remote call or a new audit entry. The pre-check is only the cheap guard:
// the transition itself is a conditional update keyed on the unresolved
// state, so when two Resolve calls race past the check, exactly one commits
// and the other reports ALREADY_REPLIED.
func (s *ReplyService) Resolve(ctx context.Context, idTweet uuid.UUID, text string, quoted bool) (*ReplyResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: reply text cannot be empty", ErrValidation)
	}
	if len([]rune(text)) > 280 {
		return nil, fmt.Errorf("%w: reply text cannot exceed 280 characters", ErrValidation)
	}

	actionType := models.ActionReply
	if quoted {
		actionType = models.ActionQuote
	}
	log.Printf("Resolving tweet %s (%s)", idTweet, actionType)

	tweet, err := s.store.GetByIDTweet(idTweet)
	if err != nil {
		return nil, err
	}
	if tweet == nil {
		return nil, fmt.Errorf("%w: no tweet with id %s", ErrNotFound, idTweet)
	}

	if tweet.RepliedTo {
		log.Printf("Tweet %s already replied to", idTweet)
		return &ReplyResult{
			Success:         false,
			Message:         fmt.Sprintf("tweet %s has already been replied to", idTweet),
			ErrorCode:       CodeAlreadyReplied,
			IDTweet:         idTweet,
			OriginalTweetID: tweet.TweetID,
			Quoted:          quoted,
		}, nil
	}

	var replyTweetID string
	if quoted {
		replyTweetID, err = s.source.Quote(ctx, tweet.TweetID, text)
	} else {
		replyTweetID, err = s.source.Reply(ctx, tweet.TweetID, text)
	}
	if err != nil {
		log.Printf("Failed to %s tweet %s: %v", actionType, tweet.TweetID, err)
		s.logAction(&models.Action{
			ActionType:     actionType,
			TargetTweetID:  tweet.TweetID,
			TargetIDTweet:  &tweet.IDTweet,
			TargetUsername: tweet.AuthorUsername,
			Success:        false,
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	transitioned, err := s.store.MarkReplied(tweet.IDTweet, replyTweetID)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"text":   text,
		"quoted": quoted,
	})
	s.logAction(&models.Action{
		ActionType:     actionType,
		TargetTweetID:  tweet.TweetID,
		TargetIDTweet:  &tweet.IDTweet,
		TargetUsername: tweet.AuthorUsername,
		Success:        true,
		ResultTweetID:  replyTweetID,
		Metadata:       string(metadata),
	})

	if !transitioned {
		// A concurrent resolver committed between our check and our write.
		// The remote action above did go out; the audit entry records it.
		log.Printf("Tweet %s was resolved concurrently", idTweet)
		return &ReplyResult{
			Success:         false,
			Message:         fmt.Sprintf("tweet %s was resolved by a concurrent request", idTweet),
			ErrorCode:       CodeAlreadyReplied,
			IDTweet:         idTweet,
			OriginalTweetID: tweet.TweetID,
			ReplyTweetID:    replyTweetID,
			Quoted:          quoted,
		}, nil
	}

	verb := "replied to"
	if quoted {
		verb = "quote tweeted"
	}
	log.Printf("Successfully %s tweet %s", verb, tweet.TweetID)

	return &ReplyResult{
		Success:         true,
		Message:         fmt.Sprintf("successfully %s tweet %s", verb, idTweet),
		IDTweet:         idTweet,
		OriginalTweetID: tweet.TweetID,
		ReplyTweetID:    replyTweetID,
		Quoted:          quoted,
	}, nil
}

// logAction appends to the audit trail, swallowing failures: audit
// unavailability never fails the operation being recorded.
func (s *ReplyService) logAction(action *models.Action) {
	if err := s.store.LogAction(action); err != nil {
		log.Printf("Failed to log %s action: %v", action.ActionType, err)
	}
}
