package worker

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"tweet-agent/internal/services"
	"tweet-agent/internal/twitter"
)

// Service manages the agent's background workers: the websocket mention
// stream consumer and the periodic ingest poller. Both only ingest; the
// abuse filter runs on the query path.
type Service struct {
	mentions     *services.MentionsService
	stream       *twitter.StreamConsumer
	pollInterval time.Duration
	pollCount    int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	running      bool
	mu           sync.RWMutex
}

// Config holds background worker configuration
type Config struct {
	StreamURL    string        // websocket mention stream; empty disables the consumer
	PollInterval time.Duration // how often the poller ingests recent mentions
	PollCount    int           // how many mentions each poll fetches
}

// LoadConfig loads worker configuration from environment variables
func LoadConfig() *Config {
	interval := 5 * time.Minute
	if raw := os.Getenv("AGENT_POLL_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		}
	}
	count := 20
	if raw := os.Getenv("AGENT_POLL_COUNT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}
	return &Config{
		StreamURL:    os.Getenv("TWITTER_STREAM_URL"),
		PollInterval: interval,
		PollCount:    count,
	}
}

// NewService creates a new worker service
func NewService(mentions *services.MentionsService, config *Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		mentions:     mentions,
		pollInterval: config.PollInterval,
		pollCount:    config.PollCount,
		ctx:          ctx,
		cancel:       cancel,
	}

	if config.StreamURL != "" {
		s.stream = twitter.NewStreamConsumer(config.StreamURL, s.handleStreamMention)
	}

	return s
}

// handleStreamMention ingests one mention read from the stream
func (s *Service) handleStreamMention(ctx context.Context, tweet twitter.Tweet) {
	if _, err := s.mentions.IngestMention(tweet); err != nil {
		log.Printf("Failed to store streamed mention %s: %v", tweet.ID, err)
	}
}

// Start starts all background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil // Already running
	}

	log.Println("Starting background workers...")

	if s.stream != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.stream.StartConsuming(s.ctx); err != nil && s.ctx.Err() == nil {
				log.Printf("Mention stream consumer stopped: %v", err)
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPoller()
	}()

	s.running = true
	log.Println("✅ Background workers started")

	return nil
}

// runPoller periodically ingests recent mentions so state stays warm
// between API calls
func (s *Service) runPoller() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stored, err := s.mentions.IngestRecent(s.ctx, s.pollCount)
			if err != nil {
				log.Printf("Mention poll failed: %v", err)
				continue
			}
			log.Printf("Mention poll stored %d records", stored)
		case <-s.ctx.Done():
			return
		}
	}
}

// Stop stops all background workers
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return // Not running
	}

	log.Println("Stopping background workers...")

	s.cancel()
	s.wg.Wait()

	s.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
