package pipeline

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/musicalia/avatar-gateway/internal/session"
)

// MockBackend mocks the session.Backend interface
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) FindKnowledgeBase(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) CreateKnowledgeBase(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UploadDocument(ctx context.Context, knowledgeID, filename string, r io.Reader) error {
	args := m.Called(ctx, knowledgeID, filename, r)
	return args.Error(0)
}

func (m *MockBackend) FindPersona(ctx context.Context, name string) (*session.Persona, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Persona), args.Error(1)
}

func (m *MockBackend) CreatePersona(ctx context.Context, cfg session.PersonaConfig) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) UpdatePersona(ctx context.Context, id string, cfg session.PersonaConfig) error {
	args := m.Called(ctx, id, cfg)
	return args.Error(0)
}

func (m *MockBackend) CreateThread(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) AppendUserMessage(ctx context.Context, threadID, text string) error {
	args := m.Called(ctx, threadID, text)
	return args.Error(0)
}

func (m *MockBackend) StreamAssistantTurn(ctx context.Context, threadID, personaID, instructions string, h session.StreamHandler) error {
	args := m.Called(ctx, threadID, personaID, instructions, h)
	return args.Error(0)
}

func (m *MockBackend) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	args := m.Called(ctx, audio, language)
	return args.String(0), args.Error(1)
}

// MockSynthesizer mocks the TTSSynthesizer interface
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) SynthesizeAudio(ctx context.Context, text string, opts TTSOptions) ([]byte, error) {
	args := m.Called(ctx, text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// stubSource serves a fixed session snapshot to the pipeline.
type stubSource struct {
	sess    session.Session
	backend session.Backend
	ready   bool
}

func (s stubSource) Snapshot() (session.Session, session.Backend, bool) {
	return s.sess, s.backend, s.ready
}
