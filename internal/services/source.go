package services

import (
	"context"

	"tweet-agent/internal/twitter"
)

// Source is the Tweet Source collaborator: the external layer that performs
// the actual fetch/reply/quote/post actions against the platform. All
// failures are terminal for the current attempt; this layer never retries.
type Source interface {
	ReadLastMentions(ctx context.Context, count int) ([]twitter.Tweet, error)
	ReadLastTweets(ctx context.Context, username string, count int) ([]twitter.Tweet, error)
	Reply(ctx context.Context, tweetID, text string) (string, error)
	Quote(ctx context.Context, tweetID, text string) (string, error)
	Post(ctx context.Context, text string) (string, error)
	Repost(ctx context.Context, tweetID string) error
}
