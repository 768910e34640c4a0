package store

import (
	"fmt"

	"tweet-agent/internal/models"

	"gorm.io/gorm/clause"
)

// IsBlocked reports whether an author is in the blocked-user registry
func (s *TweetStore) IsBlocked(username string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BlockedUser{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check blocked state for @%s: %w", username, err)
	}
	return count > 0, nil
}

// BlockedUsernames returns all blocked usernames
func (s *TweetStore) BlockedUsernames() ([]string, error) {
	var usernames []string
	err := s.db.Model(&models.BlockedUser{}).
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	return usernames, nil
}

// BlockUser inserts a blocked-user record. Blocking is one-way and
// idempotent: if the author is already blocked nothing changes and the
// return value is false. The unique key on username makes concurrent
// blockers of the same author converge on a single row.
func (s *TweetStore) BlockUser(blocked *models.BlockedUser) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(blocked)
	if result.Error != nil {
		return false, fmt.Errorf("failed to block @%s: %w", blocked.Username, result.Error)
	}
	return result.RowsAffected > 0, nil
}
