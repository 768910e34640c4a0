package store

import (
	"fmt"
	"time"

	"tweet-agent/internal/models"

	"github.com/google/uuid"
)

// LogAction appends an entry to the audit trail. Entries are never updated
// or deleted. Callers are expected to log and swallow a returned error:
// audit unavailability must never fail the operation being recorded.
func (s *TweetStore) LogAction(action *models.Action) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	if action.PerformedAt.IsZero() {
		action.PerformedAt = time.Now().UTC()
	}
	if err := s.db.Create(action).Error; err != nil {
		return fmt.Errorf("failed to log %s action: %w", action.ActionType, err)
	}
	return nil
}

// RecentActions returns the latest audit entries of one type, newest first.
func (s *TweetStore) RecentActions(actionType models.ActionType, limit int) ([]models.Action, error) {
	var actions []models.Action
	err := s.db.
		Where("action_type = ?", actionType).
		Order("performed_at DESC").
		Limit(limit).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s actions: %w", actionType, err)
	}
	return actions, nil
}
