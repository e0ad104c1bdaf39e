// Package live folds server-pushed events into the post cache over a
// websocket connection, keeping interaction counters current while the
// client is open.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmarsh/picfeed-client/internal/domain"
)

const reconnectDelay = 5 * time.Second

// Subscriber maintains a connection to the picfeed event stream and merges
// pushed counter updates into the cache. Counter updates go through the
// cache's stats merge path, which never touches the viewer's own
// interaction flags.
type Subscriber struct {
	url    string
	cache  *domain.PostCache
	logger *slog.Logger
}

// NewSubscriber creates an event stream subscriber.
func NewSubscriber(streamURL string, cache *domain.PostCache, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		url:    streamURL,
		cache:  cache,
		logger: logger,
	}
}

// Start connects to the stream and processes events until the context is
// cancelled, reconnecting on transient errors.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Error("event stream error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
				}
			}
		}
	}
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to event stream", "url", s.url)

	var eventsReceived, statsApplied int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		event, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		eventsReceived++
		if s.handleEvent(event) {
			statsApplied++
		}

		if time.Since(lastStatsLog) >= 30*time.Second {
			s.logger.Info("event stream stats",
				"events_received", eventsReceived,
				"stats_applied", statsApplied,
			)
			lastStatsLog = time.Now()
		}
	}
}

// handleEvent applies one event to the cache, reporting whether it changed
// anything. Events for posts not currently cached are dropped.
func (s *Subscriber) handleEvent(event *streamEvent) bool {
	switch event.Kind {
	case "post.stats":
		if event.Stats == nil {
			return false
		}
		return s.cache.ApplyStats(domain.PostStats{
			PostID:       event.Stats.PostID,
			LikeCount:    event.Stats.LikeCount,
			ShareCount:   event.Stats.ShareCount,
			CommentCount: event.Stats.CommentCount,
		})

	case "post.deleted":
		if event.PostID == "" {
			return false
		}
		s.cache.InvalidatePost(event.PostID)
		return true

	default:
		return false
	}
}

type streamEvent struct {
	Kind   string        `json:"kind"`
	PostID string        `json:"postId,omitempty"`
	Stats  *statsPayload `json:"stats,omitempty"`
}

type statsPayload struct {
	PostID       string `json:"postId"`
	LikeCount    int    `json:"likeCount"`
	ShareCount   int    `json:"shareCount"`
	CommentCount int    `json:"commentCount"`
}

func parseEvent(data []byte) (*streamEvent, error) {
	var event streamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}
