package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	"tweet-agent/internal/models"
	"tweet-agent/internal/store"
	"tweet-agent/internal/twitter"
)

// MentionsService handles mention ingestion and the abuse-filtered
// unanswered-mentions query
type MentionsService struct {
	store  *store.TweetStore
	source Source
	config FilterConfig
}

// FilterConfig holds the tunables of the abuse filter
type FilterConfig struct {
	BufferMultiplier int // candidate buffer size as a multiple of the requested limit
	BlockThreshold   int // lifetime ignored mentions before an author is blocked
}

// DefaultFilterConfig returns default configuration for the abuse filter
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		BufferMultiplier: 3,
		BlockThreshold:   10,
	}
}

// NewMentionsService creates a new MentionsService
func NewMentionsService(tweetStore *store.TweetStore, source Source, config FilterConfig) *MentionsService {
	return &MentionsService{
		store:  tweetStore,
		source: source,
		config: config,
	}
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentionedUsers pulls the @-handles out of a tweet's text
func extractMentionedUsers(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	users := make([]string, 0, len(matches))
	for _, m := range matches {
		users = append(users, "@"+m[1])
	}
	return users
}

// IngestAndListUnanswered fetches recent mentions from the platform, upserts
// them, and returns up to count unanswered mentions. With a username the
// result is scoped to that author and the abuse filter is bypassed (the
// caller explicitly asked for this author, so no dedup and no block check);
// unscoped results go through the per-author filter.
func (s *MentionsService) IngestAndListUnanswered(ctx context.Context, count int, username string) ([]models.TrackedTweet, error) {
	if count < 1 || count > 100 {
		return nil, fmt.Errorf("%w: count must be between 1 and 100", ErrValidation)
	}

	if username != "" {
		log.Printf("Getting %d unanswered mentions from @%s", count, username)
	} else {
		log.Printf("Getting %d unanswered mentions", count)
	}

	// Fetch a buffer beyond the requested count: some of what comes back is
	// already resolved or about to be filtered.
	if _, err := s.IngestRecent(ctx, count*2); err != nil {
		return nil, err
	}

	if username != "" {
		return s.store.UnansweredMentionsFromUser(username, count)
	}
	return s.selectUnresolved(count)
}

// IngestRecent fetches the latest mentions from the platform and upserts
// them, skipping (and logging) records that fail individually. Returns how
// many records were stored. Used by the listing path and the background
// poller; it never runs the abuse filter.
func (s *MentionsService) IngestRecent(ctx context.Context, count int) (int, error) {
	raw, err := s.source.ReadLastMentions(ctx, count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mentions: %w", err)
	}
	log.Printf("Fetched %d raw mentions from the platform", len(raw))

	stored := 0
	for _, tweet := range raw {
		if _, err := s.IngestMention(tweet); err != nil {
			// One bad record must not sink the batch
			log.Printf("Failed to store mention %s: %v", tweet.ID, err)
			continue
		}
		stored++
	}
	return stored, nil
}

// IngestMention upserts one raw mention, parsing the mentioned handles out
// of its text. Safe to call repeatedly for the same platform tweet id.
func (s *MentionsService) IngestMention(raw twitter.Tweet) (*models.TrackedTweet, error) {
	tracked := &models.TrackedTweet{
		TweetID:        raw.ID,
		Text:           raw.Text,
		AuthorUsername: raw.AuthorUsername,
		CreatedAt:      raw.CreatedAt,
		URL:            raw.URL,
		Kind:           models.KindMention,
		RetweetCount:   raw.RetweetCount,
		LikeCount:      raw.LikeCount,
		ReplyCount:     raw.ReplyCount,
		MentionedUsers: extractMentionedUsers(raw.Text),
	}
	return s.store.Upsert(tracked)
}

// selectUnresolved is the abuse filter. It reads a point-in-time buffer of
// unresolved mentions from non-blocked authors (newest first) and keeps the
// first mention per distinct author until limit authors are kept. Later
// mentions from an already-kept author are marked ignored as duplicates,
// which feeds the block threshold. The buffer read and the ignore writes are
// not one transaction, so overlapping calls can transiently select the same
// author twice; that weakness is accepted rather than papered over with
// in-process locking.
func (s *MentionsService) selectUnresolved(limit int) ([]models.TrackedTweet, error) {
	bufferLimit := limit * s.config.BufferMultiplier
	candidates, err := s.store.UnansweredMentionCandidates(bufferLimit)
	if err != nil {
		return nil, err
	}

	kept := make([]models.TrackedTweet, 0, limit)
	seenUsers := make(map[string]bool)
	ignoredCount := 0

	for _, mention := range candidates {
		username := mention.AuthorUsername

		if seenUsers[username] {
			// Duplicate from an author already in this batch
			if _, err := s.store.MarkIgnored(mention.IDTweet, models.IgnoredDuplicateUser); err != nil {
				log.Printf("Failed to ignore duplicate mention %s: %v", mention.IDTweet, err)
				continue
			}
			ignoredCount++
			log.Printf("Ignored duplicate mention %s from @%s", mention.IDTweet, username)

			s.checkAndBlockUser(username)
			continue
		}

		if len(kept) >= limit {
			// Not kept, not a duplicate of a kept author: left untouched
			// for a later batch.
			continue
		}

		kept = append(kept, mention)
		seenUsers[username] = true
	}

	log.Printf("Retrieved %d unanswered mentions (filtered %d duplicates)", len(kept), ignoredCount)
	return kept, nil
}

// checkAndBlockUser blocks an author once their lifetime ignored-mention
// count reaches the configured threshold. Blocking an already-blocked author
// is a no-op; a successful block is recorded in the audit trail.
func (s *MentionsService) checkAndBlockUser(username string) {
	ignored, err := s.store.CountIgnoredFrom(username)
	if err != nil {
		log.Printf("Failed to count ignored mentions from @%s: %v", username, err)
		return
	}
	if ignored < int64(s.config.BlockThreshold) {
		return
	}

	seen, err := s.store.CountSeenFrom(username)
	if err != nil {
		log.Printf("Failed to count mentions from @%s: %v", username, err)
	}

	newlyBlocked, err := s.store.BlockUser(&models.BlockedUser{
		Username:        username,
		Reason:          models.BlockedExcessiveMentions,
		BlockedAt:       time.Now().UTC(),
		TotalSeen:       int(seen),
		IgnoredMentions: int(ignored),
	})
	if err != nil {
		log.Printf("Failed to block @%s: %v", username, err)
		return
	}
	if !newlyBlocked {
		return
	}

	log.Printf("❌ Blocked @%s after %d ignored mentions", username, ignored)

	metadata, _ := json.Marshal(map[string]interface{}{
		"reason":        models.BlockedExcessiveMentions,
		"ignored_count": ignored,
	})
	if err := s.store.LogAction(&models.Action{
		ActionType:     models.ActionBlock,
		TargetUsername: username,
		Success:        true,
		Metadata:       string(metadata),
	}); err != nil {
		log.Printf("Failed to log block action for @%s: %v", username, err)
	}
}
