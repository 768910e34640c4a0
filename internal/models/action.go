package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionType identifies the kind of action recorded in the audit trail
type ActionType string

const (
	ActionReply  ActionType = "reply"
	ActionQuote  ActionType = "quote"
	ActionIgnore ActionType = "ignore"
	ActionBlock  ActionType = "block"
	ActionPost   ActionType = "post"
	ActionRepost ActionType = "repost"
)

// Action is one append-only audit entry. Every attempted action gets exactly
// one entry, failures included; rows are never updated or deleted.
type Action struct {
	ID             uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	ActionType     ActionType `json:"action_type" db:"action_type" gorm:"index:idx_actions_type_at;not null"`
	TargetTweetID  string     `json:"target_tweet_id" db:"target_tweet_id" gorm:"index"`
	TargetIDTweet  *uuid.UUID `json:"target_id_tweet" db:"target_id_tweet" gorm:"type:uuid"`
	TargetUsername string     `json:"target_username" db:"target_username"`
	Success        bool       `json:"success" db:"success" gorm:"not null"`
	ResultTweetID  string     `json:"result_tweet_id" db:"result_tweet_id"`
	Metadata       string     `json:"metadata" db:"metadata" gorm:"type:text"` // JSON blob
	ErrorMessage   string     `json:"error_message" db:"error_message"`
	PerformedAt    time.Time  `json:"performed_at" db:"performed_at" gorm:"index:idx_actions_type_at,sort:desc;not null"`
}

// TableName sets the table name for the Action model
func (Action) TableName() string {
	return "actions"
}
