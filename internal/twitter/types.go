// Package twitter talks to the page-automation gateway that performs the
// actual fetch/reply/quote/post actions against the platform. The gateway
// owns browser sessions and DOM scraping; this package only speaks its
// JSON-over-HTTP boundary.
package twitter

import (
	"fmt"
	"time"
)

// Tweet is a raw item as fetched from the platform, before ingestion
type Tweet struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	AuthorUsername string     `json:"author_username"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	URL            string     `json:"url,omitempty"`
	RetweetCount   *int       `json:"retweet_count,omitempty"`
	LikeCount      *int       `json:"like_count,omitempty"`
	ReplyCount     *int       `json:"reply_count,omitempty"`
}

// PostResult is the gateway's response to an action that creates a tweet
type PostResult struct {
	TweetID string `json:"tweet_id"`
	URL     string `json:"url,omitempty"`
}

// SourceError is a failure reported by the gateway or its transport. Every
// failure is terminal for the current attempt; Retryable only hints whether
// the caller may usefully try again later.
type SourceError struct {
	Op        string
	Code      string
	Retryable bool
	Err       error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twitter %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("twitter %s: %s", e.Op, e.Code)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
