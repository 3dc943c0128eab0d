package session

import (
	"context"
	"io"
)

// PersonaConfig is the desired persona/assistant definition. The manager
// patches an existing persona whenever its instructions or knowledge binding
// drift from this configuration.
type PersonaConfig struct {
	Name         string
	Instructions string
	Model        string
	KnowledgeID  string // empty when no knowledge base is bound
}

// Persona is an existing persona definition as reported by the backend.
type Persona struct {
	ID           string
	Instructions string
	KnowledgeIDs []string
}

// StreamHandler receives the generation stream for one assistant turn.
// OnTurnStart fires when the backend begins a new message (clearing any
// residual accumulation); OnFragment fires once per delivered text fragment,
// in delivery order.
type StreamHandler struct {
	OnTurnStart func()
	OnFragment  func(fragment string)
}

// Backend is the conversation service surface the gateway depends on:
// credential probe, knowledge resources, persona registry, dialogue threads,
// streaming generation and transcription. Implementations are stateless
// wrappers around an authenticated client.
type Backend interface {
	// Verify performs a lightweight capability probe with the configured
	// credentials.
	Verify(ctx context.Context) error

	// FindKnowledgeBase returns the ID of the knowledge base with the given
	// name, or "" when none exists.
	FindKnowledgeBase(ctx context.Context, name string) (string, error)
	CreateKnowledgeBase(ctx context.Context, name string) (string, error)
	// UploadDocument uploads one reference document and blocks until the
	// backend finishes indexing it.
	UploadDocument(ctx context.Context, knowledgeID, filename string, r io.Reader) error

	// FindPersona returns the persona with the given name, or nil.
	FindPersona(ctx context.Context, name string) (*Persona, error)
	CreatePersona(ctx context.Context, cfg PersonaConfig) (string, error)
	UpdatePersona(ctx context.Context, id string, cfg PersonaConfig) error

	CreateThread(ctx context.Context) (string, error)
	AppendUserMessage(ctx context.Context, threadID, text string) error
	// StreamAssistantTurn runs one generation turn bound to the persona and
	// thread and blocks until the backend signals completion.
	StreamAssistantTurn(ctx context.Context, threadID, personaID, instructions string, h StreamHandler) error

	// Transcribe converts recorded audio to text, best effort.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}
