package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"coursechat/internal/domain"
)

// SessionStore keeps conversation history in process memory. Each
// session retains at most window exchanges; older ones are dropped.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Exchange
	window   int
	counter  int
}

// NewSessionStore creates an in-memory session store
func NewSessionStore(window int) (*SessionStore, error) {
	if window <= 0 {
		return nil, fmt.Errorf("history window must be positive, got %d", window)
	}
	return &SessionStore{
		sessions: make(map[string][]domain.Exchange),
		window:   window,
	}, nil
}

// Create registers a new empty session and returns its ID
func (s *SessionStore) Create(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	id := fmt.Sprintf("session_%d_%s", s.counter, uuid.NewString()[:8])
	s.sessions[id] = nil
	return id, nil
}

// Append records an exchange, evicting the oldest past the window
func (s *SessionStore) Append(_ context.Context, sessionID string, exchange domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], exchange)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	s.sessions[sessionID] = history
	return nil
}

// History returns the retained exchanges, oldest first. Unknown sessions
// yield an empty history.
func (s *SessionStore) History(_ context.Context, sessionID string) ([]domain.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	out := make([]domain.Exchange, len(history))
	copy(out, history)
	return out, nil
}

// Clear drops a session's history
func (s *SessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
