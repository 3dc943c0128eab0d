package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const maxIOLen = 500

type traceMsg struct {
	kind string // "turn_create", "turn_update", "span"
	// turn fields
	turnID       string
	sessionID    string
	durationMs   float64
	transcript   string
	reply        string
	emotionCodes string
	status       string
	// span fields
	span Span
}

// Tracer writes trace data asynchronously via a buffered channel.
// All methods are nil-safe (no-op on nil receiver).
type Tracer struct {
	store     *Store
	sessionID string
	ch        chan traceMsg
	done      chan struct{}
}

// NewTracer creates a tracer bound to a session. Must call Close when done.
func NewTracer(store *Store, sessionID string) *Tracer {
	t := &Tracer{
		store:     store,
		sessionID: sessionID,
		ch:        make(chan traceMsg, 64),
		done:      make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for msg := range t.ch {
		t.handle(msg)
	}
}

func (t *Tracer) handle(m traceMsg) {
	var err error
	switch m.kind {
	case "turn_create":
		err = t.store.CreateTurn(m.turnID, m.sessionID)
	case "turn_update":
		err = t.store.UpdateTurn(m.turnID, m.durationMs, m.transcript, m.reply, m.emotionCodes, m.status)
	case "span":
		err = t.store.CreateSpan(m.span)
	default:
		return
	}
	if err != nil {
		slog.Warn("trace write failed", "kind", m.kind, "error", err)
	}
}

// StartTurn begins a new turn and returns its ID.
func (t *Tracer) StartTurn() string {
	if t == nil {
		return ""
	}
	id := uuid.NewString()
	t.ch <- traceMsg{kind: "turn_create", turnID: id, sessionID: t.sessionID}
	return id
}

// EndTurn finalizes a turn.
func (t *Tracer) EndTurn(turnID string, durationMs float64, transcript, reply, emotionCodes, status string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind:         "turn_update",
		turnID:       turnID,
		durationMs:   durationMs,
		transcript:   truncate(transcript, maxIOLen),
		reply:        truncate(reply, maxIOLen),
		emotionCodes: emotionCodes,
		status:       status,
	}
}

// RecordSpan records a completed span.
func (t *Tracer) RecordSpan(turnID, name string, startedAt time.Time, durationMs float64, input, output, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind: "span",
		span: Span{
			ID:         uuid.NewString(),
			TurnID:     turnID,
			Name:       name,
			StartedAt:  startedAt,
			DurationMs: durationMs,
			Input:      truncate(input, maxIOLen),
			Output:     truncate(output, maxIOLen),
			Status:     status,
			Error:      errMsg,
		},
	}
}

// Close drains pending writes and shuts down the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
