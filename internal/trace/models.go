package trace

import "time"

// Session represents one conversation session (one successful initialization).
type Session struct {
	ID        string     `json:"id"`
	Metadata  string     `json:"metadata"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	TurnCount int        `json:"turn_count,omitempty"`
}

// Turn represents one interaction (one utterance through transcription →
// generation → synthesis).
type Turn struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   float64   `json:"duration_ms,omitempty"`
	Transcript   string    `json:"transcript,omitempty"`
	Reply        string    `json:"reply,omitempty"`
	EmotionCodes string    `json:"emotion_codes,omitempty"`
	Status       string    `json:"status"`
	SpanCount    int       `json:"span_count,omitempty"`
}

// Span represents an individual stage execution within a turn.
type Span struct {
	ID         string    `json:"id"`
	TurnID     string    `json:"turn_id"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Input      string    `json:"input,omitempty"`
	Output     string    `json:"output,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}
