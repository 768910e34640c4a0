package models

import (
	"time"
)

// BlockedReason explains why an author was permanently suppressed
type BlockedReason string

const (
	BlockedExcessiveMentions BlockedReason = "excessive_ignored_mentions"
	BlockedSpam              BlockedReason = "spam"
	BlockedManual            BlockedReason = "manual"
)

// BlockedUser represents an author whose tweets are permanently excluded from
// unscoped queries. Blocking is one-way: this core defines no unblock.
type BlockedUser struct {
	Username        string        `json:"username" db:"username" gorm:"primaryKey"`
	Reason          BlockedReason `json:"reason" db:"reason" gorm:"not null"`
	BlockedAt       time.Time     `json:"blocked_at" db:"blocked_at" gorm:"index:idx_blocked_users_at,sort:desc;not null"`
	TotalSeen       int           `json:"total_seen" db:"total_seen" gorm:"default:0"`
	IgnoredMentions int           `json:"ignored_mentions" db:"ignored_mentions" gorm:"default:0"`
}

// TableName sets the table name for the BlockedUser model
func (BlockedUser) TableName() string {
	return "blocked_users"
}
