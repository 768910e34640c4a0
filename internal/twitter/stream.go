package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// MentionHandler receives each mention tweet read from the stream.
// Handler failures are per-item: the consumer logs and keeps reading.
type MentionHandler func(ctx context.Context, tweet Tweet)

// StreamConsumer consumes the gateway's websocket mention stream so new
// mentions reach the store without waiting for the next poll cycle.
type StreamConsumer struct {
	streamURL string
	handler   MentionHandler
	dialer    *websocket.Dialer
}

// StreamEvent is one event from the gateway mention stream
type StreamEvent struct {
	Kind    string `json:"kind"` // "mention" is the only kind we act on
	Mention *Tweet `json:"mention,omitempty"`
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(streamURL string, handler MentionHandler) *StreamConsumer {
	return &StreamConsumer{
		streamURL: streamURL,
		handler:   handler,
		dialer:    websocket.DefaultDialer,
	}
}

// StartConsuming connects to the mention stream and reconnects on failure
// until the context is cancelled.
func (sc *StreamConsumer) StartConsuming(ctx context.Context) error {
	log.Printf("Connecting to mention stream: %s", sc.streamURL)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := sc.connectAndConsume(ctx); err != nil {
				log.Printf("Mention stream connection error: %v. Reconnecting in 10 seconds...", err)

				select {
				case <-time.After(10 * time.Second):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// connectAndConsume handles a single connection to the mention stream
func (sc *StreamConsumer) connectAndConsume(ctx context.Context) error {
	conn, _, err := sc.dialer.DialContext(ctx, sc.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to mention stream: %w", err)
	}
	defer conn.Close()

	log.Println("Successfully connected to mention stream")

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					log.Printf("Failed to send ping: %v", err)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			_, message, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("failed to read message: %w", err)
			}

			if err := sc.processStreamMessage(ctx, message); err != nil {
				log.Printf("Error processing stream message: %v", err)
				// Continue processing other messages even if one fails
			}
		}
	}
}

// processStreamMessage processes a single message from the stream
func (sc *StreamConsumer) processStreamMessage(ctx context.Context, data []byte) error {
	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal stream event: %w", err)
	}

	if event.Kind != "mention" || event.Mention == nil {
		return nil
	}

	sc.handler(ctx, *event.Mention)
	return nil
}
