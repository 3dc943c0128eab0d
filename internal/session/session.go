// Package session owns the durable conversational context: the knowledge
// base, persona and dialogue thread the generation backend needs before any
// turn can run. One session exists per process; it is created by Initialize
// and destroyed only by process exit or re-initialization.
package session

import "errors"

// Status is the session lifecycle state.
type Status int32

const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Session holds the upstream identifiers of a ready conversation. While the
// manager reports StatusReady, PersonaID and ThreadID are non-empty and the
// persona is bound to KnowledgeID when one exists.
type Session struct {
	KnowledgeID string
	PersonaID   string
	ThreadID    string
}

// Credentials authenticate against the conversation backend.
type Credentials struct {
	APIKey string
}

var (
	// ErrInvalidCredentials means the credentials are absent or malformed;
	// no backend call was attempted.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthenticationFailed means the backend rejected the credentials
	// during the capability probe.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
