package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TweetKind classifies how a tracked tweet entered the system
type TweetKind string

const (
	KindMention TweetKind = "mention" // tweet that mentions our account
	KindRegular TweetKind = "regular" // tweet read from a user's profile
	KindReply   TweetKind = "reply"   // reply in a thread we track
	KindPosted  TweetKind = "posted"  // tweet posted by us
)

// IgnoredReason explains why a tracked tweet was suppressed
type IgnoredReason string

const (
	IgnoredDuplicateUser IgnoredReason = "duplicate_user" // same author twice in one batch
	IgnoredBlockedUser   IgnoredReason = "blocked_user"
	IgnoredManual        IgnoredReason = "manual"
)

// TrackedTweet represents a tweet or mention that has been ingested from the
// platform. TweetID is the platform's id and the natural key for upsert;
// IDTweet is our internal id and never changes once assigned.
type TrackedTweet struct {
	IDTweet        uuid.UUID `json:"id_tweet" db:"id_tweet" gorm:"uniqueIndex;type:uuid;not null"`
	TweetID        string    `json:"tweet_id" db:"tweet_id" gorm:"primaryKey"` // Platform tweet ID
	Text           string    `json:"text" db:"text" gorm:"type:text"`
	AuthorUsername string    `json:"author_username" db:"author_username" gorm:"index:idx_tweets_author_created;not null"`
	CreatedAt      *time.Time `json:"created_at" db:"created_at" gorm:"index:idx_tweets_author_created,sort:desc;autoCreateTime:false"` // Platform creation time, not ours
	URL            string    `json:"url" db:"url"`
	Kind           TweetKind `json:"kind" db:"kind" gorm:"index:idx_tweets_kind_state;not null"`

	// Engagement metrics (nullable: not every fetch path captures them)
	RetweetCount *int `json:"retweet_count" db:"retweet_count"`
	LikeCount    *int `json:"like_count" db:"like_count"`
	ReplyCount   *int `json:"reply_count" db:"reply_count"`

	// Mentioned @-handles parsed from the text; only populated for mentions
	MentionedUsers pq.StringArray `json:"mentioned_users" db:"mentioned_users" gorm:"type:text[]"`

	// Resolution state. RepliedTo and Ignored are terminal and mutually
	// exclusive; once either is set the record never becomes unresolved again.
	RepliedTo    bool       `json:"replied_to" db:"replied_to" gorm:"index:idx_tweets_kind_state;default:false"`
	RepliedAt    *time.Time `json:"replied_at" db:"replied_at"`
	ReplyTweetID string     `json:"reply_tweet_id" db:"reply_tweet_id"`

	Ignored       bool          `json:"ignored" db:"ignored" gorm:"index:idx_tweets_kind_state;index:idx_tweets_ignored_seen;default:false"`
	IgnoredReason IgnoredReason `json:"ignored_reason" db:"ignored_reason"`
	IgnoredAt     *time.Time    `json:"ignored_at" db:"ignored_at"`

	// Repost bookkeeping
	RepostedByUs bool       `json:"reposted_by_us" db:"reposted_by_us" gorm:"default:false"`
	RepostedAt   *time.Time `json:"reposted_at" db:"reposted_at"`

	FirstSeenAt   time.Time `json:"first_seen_at" db:"first_seen_at" gorm:"index:idx_tweets_ignored_seen,sort:desc;not null"`
	LastUpdatedAt time.Time `json:"last_updated_at" db:"last_updated_at" gorm:"not null"`
}

// TableName sets the table name for the TrackedTweet model
func (TrackedTweet) TableName() string {
	return "tweets"
}

// IsResolved reports whether the tweet is in a terminal state
func (t *TrackedTweet) IsResolved() bool {
	return t.RepliedTo || t.Ignored
}

// IsMention reports whether the tweet entered the system as a mention
func (t *TrackedTweet) IsMention() bool {
	return t.Kind == KindMention
}
