package domain

import "time"

// Session tracks one ongoing conversation. The ID is opaque, generated at
// creation, and is the sole lookup key for the lifetime of the process.
type Session struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastActiveAt   time.Time      `json:"lastActiveAt"`
	EmotionalState EmotionalState `json:"emotionalState"`
	Turns          []Turn         `json:"turns,omitempty"`
}

// Turn is one exchange: the raw user message and the final merged reply.
// Turns are append-only and never mutated after being recorded.
type Turn struct {
	UserText       string         `json:"userText"`
	AssistantText  string         `json:"assistantText"`
	Timestamp      time.Time      `json:"timestamp"`
	EmotionalState EmotionalState `json:"emotionalState"`
}

// Clone returns a deep copy of the session so callers can never mutate
// store-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Turns != nil {
		out.Turns = make([]Turn, len(s.Turns))
		copy(out.Turns, s.Turns)
	}
	return &out
}

// Window returns the most recent n turns (all of them when n exceeds the
// history length). The result is a copy; the session is not aliased.
func (s *Session) Window(n int) []Turn {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.Turns)-start)
	copy(out, s.Turns[start:])
	return out
}

// Summary is the read-only view returned for session lookups.
type Summary struct {
	SessionID       string         `json:"sessionId"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastActiveAt    time.Time      `json:"lastActiveAt"`
	TurnCount       int            `json:"turnCount"`
	EmotionalState  EmotionalState `json:"emotionalState"`
	DurationMinutes int            `json:"durationMinutes"`
}

// Summarize builds a Summary from the session's current state.
func (s *Session) Summarize() Summary {
	return Summary{
		SessionID:       s.ID,
		CreatedAt:       s.CreatedAt,
		LastActiveAt:    s.LastActiveAt,
		TurnCount:       len(s.Turns),
		EmotionalState:  s.EmotionalState,
		DurationMinutes: int(s.LastActiveAt.Sub(s.CreatedAt).Minutes()),
	}
}
