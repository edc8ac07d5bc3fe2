package domain

import "context"

// Exchange is one completed question/answer pair in a conversation
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SessionStore keeps a bounded rolling history of exchanges per session.
// Append trims from the front so the history never exceeds the configured
// window. Concurrent appends to the same session ID are unordered.
type SessionStore interface {
	// Create registers a new session and returns its identifier
	Create(ctx context.Context) (string, error)

	// Append records an exchange, evicting the oldest once the window is full
	Append(ctx context.Context, sessionID string, exchange Exchange) error

	// History returns the retained exchanges, oldest first
	History(ctx context.Context, sessionID string) ([]Exchange, error)

	// Clear removes a session and its history
	Clear(ctx context.Context, sessionID string) error
}
