package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicalia/avatar-gateway/internal/pipeline"
	"github.com/musicalia/avatar-gateway/internal/session"
	"github.com/musicalia/avatar-gateway/internal/ws"
)

// fakeBackend satisfies session.Backend with canned responses, enough to
// drive the full HTTP surface without the network.
type fakeBackend struct {
	verifyErr  error
	transcript string
	reply      string
}

func (f *fakeBackend) Verify(ctx context.Context) error { return f.verifyErr }

func (f *fakeBackend) FindKnowledgeBase(ctx context.Context, name string) (string, error) {
	return "vs_1", nil
}

func (f *fakeBackend) CreateKnowledgeBase(ctx context.Context, name string) (string, error) {
	return "vs_1", nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, knowledgeID, filename string, r io.Reader) error {
	return nil
}

func (f *fakeBackend) FindPersona(ctx context.Context, name string) (*session.Persona, error) {
	return nil, nil
}

func (f *fakeBackend) CreatePersona(ctx context.Context, cfg session.PersonaConfig) (string, error) {
	return "asst_1", nil
}

func (f *fakeBackend) UpdatePersona(ctx context.Context, id string, cfg session.PersonaConfig) error {
	return nil
}

func (f *fakeBackend) CreateThread(ctx context.Context) (string, error) { return "thread_1", nil }

func (f *fakeBackend) AppendUserMessage(ctx context.Context, threadID, text string) error {
	return nil
}

func (f *fakeBackend) StreamAssistantTurn(ctx context.Context, threadID, personaID, instructions string, h session.StreamHandler) error {
	h.OnTurnStart()
	h.OnFragment(f.reply)
	return nil
}

func (f *fakeBackend) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return f.transcript, nil
}

type fakeSynth struct{ audio []byte }

func (f *fakeSynth) SynthesizeAudio(ctx context.Context, text string, opts pipeline.TTSOptions) ([]byte, error) {
	return f.audio, nil
}

func newTestMux(t *testing.T, backend *fakeBackend) (*http.ServeMux, *session.Manager) {
	t.Helper()

	cfg := loadConfig()
	manager := session.NewManager(session.Config{
		KnowledgeName: cfg.knowledgeName,
		PersonaName:   cfg.personaName,
		Instructions:  cfg.personaInstructions,
		Model:         cfg.personaModel,
	}, func(creds session.Credentials) session.Backend { return backend })

	pipe := pipeline.New(pipeline.Config{
		Session:    manager,
		TTS:        pipeline.NewTTSRouter(map[string]pipeline.TTSSynthesizer{"edge": &fakeSynth{audio: []byte("mp3")}}, "edge"),
		TTSBackend: "edge",
		Language:   cfg.language,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{cfg: cfg, manager: manager, pipe: pipe, hub: ws.NewHub()})
	return mux, manager
}

func postJSON(mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleInitialize(t *testing.T) {
	t.Run("blank api key", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{})
		rec := postJSON(mux, "/api/initialize", map[string]string{"api_key": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{verifyErr: errors.New("incorrect api key provided")})
		rec := postJSON(mux, "/api/initialize", map[string]string{"api_key": "sk-bad"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		mux, manager := newTestMux(t, &fakeBackend{})
		rec := postJSON(mux, "/api/initialize", map[string]string{"api_key": "sk-test"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, session.StatusReady, manager.Status())
	})

	t.Run("malformed body", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{})
		req := httptest.NewRequest("POST", "/api/initialize", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleInteract(t *testing.T) {
	t.Run("before initialization", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{})
		req := httptest.NewRequest("POST", "/api/interact", bytes.NewReader([]byte("audio")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("empty payload", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{})
		req := httptest.NewRequest("POST", "/api/interact", bytes.NewReader(nil))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("full turn sets emotion header and audio body", func(t *testing.T) {
		backend := &fakeBackend{
			transcript: "Fala-me do fado.",
			reply:      "Que dia feliz! Depois veio a tristeza.",
		}
		mux, _ := newTestMux(t, backend)
		require.Equal(t, http.StatusOK, postJSON(mux, "/api/initialize", map[string]string{"api_key": "sk-test"}).Code)

		req := httptest.NewRequest("POST", "/api/interact", bytes.NewReader([]byte("opaque-audio")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1,2", rec.Header().Get("X-Musicalia-Emotion-Codes"))
		assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
		assert.Equal(t, []byte("mp3"), rec.Body.Bytes())
	})

	t.Run("empty transcript yields neutral code and no audio", func(t *testing.T) {
		mux, _ := newTestMux(t, &fakeBackend{transcript: ""})
		require.Equal(t, http.StatusOK, postJSON(mux, "/api/initialize", map[string]string{"api_key": "sk-test"}).Code)

		req := httptest.NewRequest("POST", "/api/interact", bytes.NewReader([]byte("silence")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-Musicalia-Emotion-Codes"))
		assert.Empty(t, rec.Body.Bytes())
	})
}

func TestTraceRoutesDisabled(t *testing.T) {
	mux, _ := newTestMux(t, &fakeBackend{})
	req := httptest.NewRequest("GET", "/api/traces/sessions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t, &fakeBackend{})
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
