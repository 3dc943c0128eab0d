package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/musicalia/avatar-gateway/internal/metrics"
	"github.com/musicalia/avatar-gateway/internal/pipeline"
	"github.com/musicalia/avatar-gateway/internal/session"
	"github.com/musicalia/avatar-gateway/internal/trace"
	"github.com/musicalia/avatar-gateway/internal/ws"
)

const (
	// maxUtteranceBytes caps one uploaded recording (a minute of 16-bit
	// 48 kHz stereo WAV fits comfortably).
	maxUtteranceBytes = 16 << 20

	// emotionHeader carries the ordered per-sentence emotion codes as
	// comma-separated small integers (0=neutral, 1=happy, 2=sad).
	emotionHeader = "X-Musicalia-Emotion-Codes"

	// defaultTraceSessionLimit is how many trace sessions are returned
	// when the caller omits the ?limit= query parameter.
	defaultTraceSessionLimit = 20
)

type deps struct {
	cfg        config
	manager    *session.Manager
	pipe       *pipeline.Pipeline
	hub        *ws.Hub
	traceStore *trace.Store
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	sem := make(chan struct{}, d.cfg.maxConcurrentTurns)

	mux.HandleFunc("/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /ws/events", d.hub)
	mux.HandleFunc("POST /api/initialize", d.handleInitialize)
	mux.HandleFunc("POST /api/interact", d.withAdmission(sem, d.handleInteract))
	registerTraceRoutes(mux, d.traceStore)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// withAdmission bounds concurrent turns; excess requests get 503 instead of
// queueing behind long synthesis calls.
func (d deps) withAdmission(sem chan struct{}, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			writeError(w, http.StatusServiceUnavailable, "at capacity")
			return
		}
		next(w, r)
	}
}

func (d deps) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	err := d.manager.Initialize(r.Context(), session.Credentials{APIKey: req.APIKey})
	switch {
	case err == nil:
		metrics.InitAttempts.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"message": "session ready"})
	case errors.Is(err, session.ErrInvalidCredentials):
		metrics.InitAttempts.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusBadRequest, "api key not provided")
	case errors.Is(err, session.ErrAuthenticationFailed):
		metrics.InitAttempts.WithLabelValues("auth_failed").Inc()
		slog.Error("initialization rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "api key rejected by backend")
	default:
		metrics.InitAttempts.WithLabelValues("error").Inc()
		slog.Error("initialization failed", "error", err)
		writeError(w, http.StatusInternalServerError, "initialization failed")
	}
}

// handleInteract accepts one recorded utterance and responds with the
// synthesized reply audio in the body and the ordered emotion codes in a
// header. Degenerate inputs produce an empty body with a neutral code.
func (d deps) handleInteract(w http.ResponseWriter, r *http.Request) {
	utterance, err := readUtterance(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := d.pipe.HandleTurn(r.Context(), utterance, d.hub.Publish)
	switch {
	case err == nil:
		w.Header().Set(emotionHeader, pipeline.FormatEmotionCodes(result.Emotions))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Audio)
	case errors.Is(err, pipeline.ErrSessionNotReady):
		writeError(w, http.StatusForbidden, "session not initialized, call /api/initialize first")
	default:
		slog.Error("interaction failed", "error", err)
		d.hub.Publish(pipeline.Event{Type: "error", Text: err.Error()})
		writeError(w, http.StatusInternalServerError, "interaction failed")
	}
}

// readUtterance extracts the audio payload: multipart field "file" when
// present, otherwise the raw request body.
func readUtterance(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUtteranceBytes)

	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("failed reading audio file")
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		return nil, errors.New("no audio payload provided")
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func registerTraceRoutes(mux *http.ServeMux, store *trace.Store) {
	mux.HandleFunc("GET /api/traces/sessions", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "tracing disabled")
			return
		}
		limit := queryInt(r, "limit", defaultTraceSessionLimit)
		offset := queryInt(r, "offset", 0)
		sessions, total, err := store.ListSessions(limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "total": total})
	})

	mux.HandleFunc("GET /api/traces/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "tracing disabled")
			return
		}
		sess, turns, err := store.GetSession(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": sess, "turns": turns})
	})

	mux.HandleFunc("GET /api/traces/sessions/{id}/turns/{turnId}", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "tracing disabled")
			return
		}
		turn, spans, err := store.GetTurn(r.PathValue("id"), r.PathValue("turnId"))
		if err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"turn": turn, "spans": spans})
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
