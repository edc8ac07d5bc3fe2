package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"coursechat/internal/domain"
)

const sessionPrefix = "session:"

// SessionStore keeps conversation history in a Redis list per session,
// trimmed to the configured window and expired after the TTL
type SessionStore struct {
	client *Client
	window int
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(client *Client, window int, ttl time.Duration) (*SessionStore, error) {
	if window <= 0 {
		return nil, fmt.Errorf("history window must be positive, got %d", window)
	}
	return &SessionStore{client: client, window: window, ttl: ttl}, nil
}

// Create registers a new session and returns its ID. Nothing is written
// until the first exchange lands.
func (s *SessionStore) Create(_ context.Context) (string, error) {
	return "session_" + uuid.NewString(), nil
}

// Append records an exchange, evicting the oldest past the window
func (s *SessionStore) Append(ctx context.Context, sessionID string, exchange domain.Exchange) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	key := sessionPrefix + sessionID
	pipe := s.client.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// History returns the retained exchanges, oldest first. Unknown sessions
// yield an empty history.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	key := sessionPrefix + sessionID
	items, err := s.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	history := make([]domain.Exchange, 0, len(items))
	for _, item := range items {
		var exchange domain.Exchange
		if err := json.Unmarshal([]byte(item), &exchange); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange: %w", err)
		}
		history = append(history, exchange)
	}
	return history, nil
}

// Clear drops a session's history
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.rdb.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
