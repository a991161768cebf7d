package conversation

import (
	"sync"
	"time"
)

// Session is the ephemeral state of one active flow in one chat. It is
// created when a flow entry point fires, mutated by each step handler, and
// destroyed on a terminal transition, an explicit cancel, or the inactivity
// timeout. At most one session exists per chat at a time.
type Session struct {
	ChatID    int64
	FlowID    string
	Step      State
	Scratch   map[string]any
	StartedAt time.Time
	UpdatedAt time.Time

	// mu serializes all event handling for this chat. Events for one chat
	// are processed strictly in arrival order; different chats proceed
	// concurrently.
	mu sync.Mutex
}

func newSession(chatID int64, flowID string, entry State) *Session {
	now := time.Now()
	return &Session{
		ChatID:    chatID,
		FlowID:    flowID,
		Step:      entry,
		Scratch:   make(map[string]any),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Put stores a scratch value accumulated by a step.
func (s *Session) Put(key string, value any) {
	s.Scratch[key] = value
}

// Value returns a scratch value and whether it is present.
func (s *Session) Value(key string) (any, bool) {
	v, ok := s.Scratch[key]
	return v, ok
}

// StringVal returns a scratch value as string, or "".
func (s *Session) StringVal(key string) string {
	if v, ok := s.Scratch[key].(string); ok {
		return v
	}
	return ""
}

// IntVal returns a scratch value as int, or 0.
func (s *Session) IntVal(key string) int {
	switch v := s.Scratch[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// FloatVal returns a scratch value as float64, or 0.
func (s *Session) FloatVal(key string) float64 {
	switch v := s.Scratch[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// TimeVal returns a scratch value as time.Time, or the zero time.
func (s *Session) TimeVal(key string) time.Time {
	if v, ok := s.Scratch[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
