package session

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// mockBackend mocks the Backend interface
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockBackend) FindKnowledgeBase(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) CreateKnowledgeBase(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) UploadDocument(ctx context.Context, knowledgeID, filename string, r io.Reader) error {
	args := m.Called(ctx, knowledgeID, filename, r)
	return args.Error(0)
}

func (m *mockBackend) FindPersona(ctx context.Context, name string) (*Persona, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Persona), args.Error(1)
}

func (m *mockBackend) CreatePersona(ctx context.Context, cfg PersonaConfig) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) UpdatePersona(ctx context.Context, id string, cfg PersonaConfig) error {
	args := m.Called(ctx, id, cfg)
	return args.Error(0)
}

func (m *mockBackend) CreateThread(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) AppendUserMessage(ctx context.Context, threadID, text string) error {
	args := m.Called(ctx, threadID, text)
	return args.Error(0)
}

func (m *mockBackend) StreamAssistantTurn(ctx context.Context, threadID, personaID, instructions string, h StreamHandler) error {
	args := m.Called(ctx, threadID, personaID, instructions, h)
	return args.Error(0)
}

func (m *mockBackend) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	args := m.Called(ctx, audio, language)
	return args.String(0), args.Error(1)
}
