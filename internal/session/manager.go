package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config fixes the expected upstream configuration the manager converges to.
type Config struct {
	KnowledgeName string
	// DocumentPath is the local reference document uploaded into a freshly
	// created knowledge base. A missing file is a warning, not a failure.
	DocumentPath string
	PersonaName  string
	Instructions string
	Model        string
}

// BackendFactory builds an authenticated backend from credentials. Injected
// so tests can substitute a fake without touching the network.
type BackendFactory func(creds Credentials) Backend

// Manager drives the session lifecycle. Initialize is single-flight: the
// init mutex serializes concurrent attempts so at most one setup sequence
// runs, and late callers observe the in-flight outcome instead of starting a
// redundant one.
type Manager struct {
	cfg        Config
	newBackend BackendFactory

	initMu sync.Mutex // serializes Initialize end to end

	stateMu sync.RWMutex // guards status, sess, backend
	status  Status
	sess    Session
	backend Backend
}

// NewManager creates an uninitialized manager.
func NewManager(cfg Config, factory BackendFactory) *Manager {
	return &Manager{cfg: cfg, newBackend: factory}
}

// Status reports the current lifecycle state without blocking on an
// in-flight initialization.
func (m *Manager) Status() Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.status
}

// Snapshot returns the session identifiers together with the backend that
// produced them, read under one lock so a re-initialization cannot pair one
// session's identifiers with another's backend. ok is false unless the
// session is Ready.
func (m *Manager) Snapshot() (Session, Backend, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.sess, m.backend, m.status == StatusReady
}

// Initialize establishes the conversation context: credential probe,
// knowledge base, persona, and a fresh dialogue thread. Idempotent when
// already Ready. Any backend error aborts the whole sequence and resets the
// session to empty; no partially initialized state is retained.
func (m *Manager) Initialize(ctx context.Context, creds Credentials) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.Status() == StatusReady {
		return nil
	}

	// Rejected before any state transition or backend call: blank
	// credentials never disturb a prior Failed/Uninitialized state.
	if strings.TrimSpace(creds.APIKey) == "" {
		return ErrInvalidCredentials
	}

	m.setState(StatusInitializing, Session{}, nil)

	backend := m.newBackend(creds)
	sess, err := m.converge(ctx, backend)
	if err != nil {
		m.setState(StatusFailed, Session{}, nil)
		return err
	}

	m.setState(StatusReady, sess, backend)
	slog.Info("session ready",
		"knowledge_id", sess.KnowledgeID,
		"persona_id", sess.PersonaID,
		"thread_id", sess.ThreadID,
	)
	return nil
}

func (m *Manager) setState(status Status, sess Session, backend Backend) {
	m.stateMu.Lock()
	m.status = status
	m.sess = sess
	m.backend = backend
	m.stateMu.Unlock()
}

// converge runs the setup sequence against the backend and returns the
// resulting identifiers.
func (m *Manager) converge(ctx context.Context, backend Backend) (Session, error) {
	var sess Session

	if err := backend.Verify(ctx); err != nil {
		return sess, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	knowledgeID, err := m.resolveKnowledge(ctx, backend)
	if err != nil {
		return sess, fmt.Errorf("knowledge base: %w", err)
	}
	sess.KnowledgeID = knowledgeID

	personaID, err := m.resolvePersona(ctx, backend, knowledgeID)
	if err != nil {
		return sess, fmt.Errorf("persona: %w", err)
	}
	sess.PersonaID = personaID

	// A fresh thread on every transition to Ready: prior dialogue history is
	// intentionally abandoned.
	threadID, err := backend.CreateThread(ctx)
	if err != nil {
		return sess, fmt.Errorf("thread: %w", err)
	}
	sess.ThreadID = threadID

	return sess, nil
}

// resolveKnowledge reuses the named knowledge base when it already exists,
// otherwise creates it and seeds it with the local reference document. A
// knowledge base with zero indexed documents is acceptable.
func (m *Manager) resolveKnowledge(ctx context.Context, backend Backend) (string, error) {
	id, err := backend.FindKnowledgeBase(ctx, m.cfg.KnowledgeName)
	if err != nil {
		return "", err
	}
	if id != "" {
		slog.Info("knowledge base found", "name", m.cfg.KnowledgeName, "id", id)
		return id, nil
	}

	id, err = backend.CreateKnowledgeBase(ctx, m.cfg.KnowledgeName)
	if err != nil {
		return "", err
	}
	slog.Info("knowledge base created", "name", m.cfg.KnowledgeName, "id", id)

	if m.cfg.DocumentPath == "" {
		return id, nil
	}
	f, err := os.Open(m.cfg.DocumentPath)
	if err != nil {
		slog.Warn("reference document missing, knowledge base left empty",
			"path", m.cfg.DocumentPath, "error", err)
		return id, nil
	}
	defer f.Close()

	if err := backend.UploadDocument(ctx, id, filepath.Base(m.cfg.DocumentPath), f); err != nil {
		return "", err
	}
	slog.Info("reference document indexed", "path", m.cfg.DocumentPath)
	return id, nil
}

// resolvePersona reuses the named persona, patching it when its instructions
// or knowledge binding drift from the expected configuration, otherwise
// creates it.
func (m *Manager) resolvePersona(ctx context.Context, backend Backend, knowledgeID string) (string, error) {
	cfg := PersonaConfig{
		Name:         m.cfg.PersonaName,
		Instructions: m.cfg.Instructions,
		Model:        m.cfg.Model,
		KnowledgeID:  knowledgeID,
	}

	existing, err := backend.FindPersona(ctx, m.cfg.PersonaName)
	if err != nil {
		return "", err
	}
	if existing == nil {
		id, err := backend.CreatePersona(ctx, cfg)
		if err != nil {
			return "", err
		}
		slog.Info("persona created", "name", m.cfg.PersonaName, "id", id)
		return id, nil
	}

	if personaDrifted(existing, cfg) {
		if err := backend.UpdatePersona(ctx, existing.ID, cfg); err != nil {
			return "", err
		}
		slog.Info("persona updated", "name", m.cfg.PersonaName, "id", existing.ID)
	} else {
		slog.Info("persona found", "name", m.cfg.PersonaName, "id", existing.ID)
	}
	return existing.ID, nil
}

func personaDrifted(existing *Persona, want PersonaConfig) bool {
	if strings.TrimSpace(existing.Instructions) != strings.TrimSpace(want.Instructions) {
		return true
	}
	if want.KnowledgeID == "" {
		return len(existing.KnowledgeIDs) != 0
	}
	for _, id := range existing.KnowledgeIDs {
		if id == want.KnowledgeID {
			return false
		}
	}
	return true
}
