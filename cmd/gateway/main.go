package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/musicalia/avatar-gateway/internal/pipeline"
	"github.com/musicalia/avatar-gateway/internal/session"
	"github.com/musicalia/avatar-gateway/internal/trace"
	"github.com/musicalia/avatar-gateway/internal/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using process environment")
	}
	cfg := loadConfig()

	// Session lifecycle: credentials arrive later via /api/initialize.
	manager := session.NewManager(session.Config{
		KnowledgeName: cfg.knowledgeName,
		DocumentPath:  cfg.knowledgeDocPath,
		PersonaName:   cfg.personaName,
		Instructions:  cfg.personaInstructions,
		Model:         cfg.personaModel,
	}, session.NewOpenAIBackend)

	// TTS backends
	ttsHTTP := pipeline.NewPooledHTTPClient(cfg.ttsPoolSize, 60*time.Second)
	ttsBackends := map[string]pipeline.TTSSynthesizer{
		"edge": pipeline.NewEdgeSynthesizer(cfg.edgeSpeechURL, cfg.ttsVoice, ttsHTTP),
	}
	if cfg.elevenlabsAPIKey != "" {
		ttsBackends["elevenlabs"] = pipeline.NewElevenLabsSynthesizer(cfg.elevenlabsAPIKey, cfg.elevenlabsVoiceID, cfg.elevenlabsModelID, ttsHTTP)
	}
	ttsRouter := pipeline.NewTTSRouter(ttsBackends, "edge")

	// Trace store (optional)
	var tracer *trace.Tracer
	var traceStore *trace.Store
	if cfg.traceDBURL != "" {
		store, err := trace.Open(cfg.traceDBURL)
		if err != nil {
			slog.Warn("trace store unavailable, tracing disabled", "error", err)
		} else {
			traceStore = store
			sessionID := uuid.NewString()
			if err := store.CreateSession(sessionID, "gateway"); err != nil {
				slog.Warn("trace session create", "error", err)
			}
			tracer = trace.NewTracer(store, sessionID)
			defer tracer.Close()
			defer store.Close()
		}
	}

	hub := ws.NewHub()

	pipe := pipeline.New(pipeline.Config{
		Session:      manager,
		TTS:          ttsRouter,
		TTSBackend:   cfg.ttsBackend,
		TTSVoice:     cfg.ttsVoice,
		Language:     cfg.language,
		Instructions: cfg.runInstructions,
		Timeouts: pipeline.Timeouts{
			Transcribe: cfg.transcribeTimeout,
			Generate:   cfg.generateTimeout,
			Synthesize: cfg.synthesizeTimeout,
		},
		Tracer: tracer,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		cfg:        cfg,
		manager:    manager,
		pipe:       pipe,
		hub:        hub,
		traceStore: traceStore,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("gateway starting", "addr", addr, "tts_backend", cfg.ttsBackend, "max_concurrent", cfg.maxConcurrentTurns)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}
