package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/musicalia/avatar-gateway/internal/audio"
	"github.com/musicalia/avatar-gateway/internal/metrics"
	"github.com/musicalia/avatar-gateway/internal/session"
	"github.com/musicalia/avatar-gateway/internal/trace"
)

// SessionSource exposes the conversation session to the pipeline without
// blocking on an in-flight initialization. Identifiers and backend come from
// one consistent read.
type SessionSource interface {
	Snapshot() (session.Session, session.Backend, bool)
}

// Timeouts bounds each external call. Zero means no deadline.
type Timeouts struct {
	Transcribe time.Duration
	Generate   time.Duration
	Synthesize time.Duration
}

// Config holds pipeline configuration.
type Config struct {
	Session      SessionSource
	TTS          *TTSRouter
	TTSBackend   string
	TTSVoice     string
	Language     string // transcription language hint, e.g. "pt"
	Instructions string // per-run locale/persona-consistency instructions
	Timeouts     Timeouts
	Tracer       *trace.Tracer
}

// Pipeline runs one utterance through transcription → generation → scoring →
// synthesis. Stateless per invocation: all per-turn state lives in HandleTurn.
type Pipeline struct {
	cfg Config
}

// New creates a pipeline over the shared session and backends.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// TurnResult is one completed interaction: synthesized reply audio plus one
// emotion code per reply sentence, in sentence order. Emotions is never empty
// on success.
type TurnResult struct {
	Audio    []byte
	Emotions []Emotion
}

// Event is a pipeline notification broadcast to live observers.
type Event struct {
	Type     string  `json:"type"`
	Text     string  `json:"text,omitempty"`
	Sentence string  `json:"sentence,omitempty"`
	Emotion  int     `json:"emotion"`
	Codes    []int   `json:"codes,omitempty"`
	ASRMs    float64 `json:"asr_ms,omitempty"`
	LLMMs    float64 `json:"llm_ms,omitempty"`
	TTSMs    float64 `json:"tts_ms,omitempty"`
	TotalMs  float64 `json:"total_ms,omitempty"`
	Bytes    int     `json:"audio_bytes,omitempty"`
}

// EventCallback is invoked for each pipeline event. May be nil.
type EventCallback func(Event)

// HandleTurn processes one recorded utterance end to end. Degenerate inputs
// (empty transcript, reply that sanitizes to nothing) return an empty-audio
// result tagged Neutral rather than an error. Any collaborator failure
// aborts the turn without mutating session state and without returning
// partial audio.
func (p *Pipeline) HandleTurn(ctx context.Context, utterance []byte, onEvent EventCallback) (*TurnResult, error) {
	snap, backend, ready := p.cfg.Session.Snapshot()
	if !ready {
		return nil, ErrSessionNotReady
	}

	metrics.TurnsTotal.Inc()
	metrics.TurnsActive.Inc()
	defer metrics.TurnsActive.Dec()

	e2eStart := time.Now()
	turnID := p.cfg.Tracer.StartTurn()
	emit := func(ev Event) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	logUtterance(utterance)

	// Transcription
	asrStart := time.Now()
	transcript, err := p.transcribe(ctx, backend, utterance)
	asrMs := msSince(asrStart)
	p.span(turnID, "transcribe", asrStart, asrMs, fmt.Sprintf("audio_bytes=%d", len(utterance)), transcript, err)
	if err != nil {
		metrics.Errors.WithLabelValues("transcribe", "upstream").Inc()
		p.endTurn(turnID, e2eStart, "", "", "", "error")
		return nil, fmt.Errorf("interaction failed: %w", upstreamErr("transcribe", err))
	}

	if transcript == "" {
		metrics.EmptyTranscripts.Inc()
		slog.Info("transcription empty, returning neutral turn")
		p.endTurn(turnID, e2eStart, "", "", "0", "empty")
		emit(Event{Type: "emotions", Codes: []int{int(Neutral)}})
		return &TurnResult{Emotions: []Emotion{Neutral}}, nil
	}
	slog.Info("transcript", "text", transcript, "asr_ms", asrMs)
	emit(Event{Type: "transcript", Text: transcript, ASRMs: asrMs})

	// Generation: append the user turn, then stream the assistant reply into
	// a buffer owned by this turn.
	llmStart := time.Now()
	reply, err := p.generate(ctx, backend, snap, transcript, emit)
	llmMs := msSince(llmStart)
	p.span(turnID, "generate", llmStart, llmMs, transcript, reply, err)
	if err != nil {
		metrics.Errors.WithLabelValues("generate", "upstream").Inc()
		p.endTurn(turnID, e2eStart, transcript, "", "", "error")
		return nil, fmt.Errorf("interaction failed: %w", upstreamErr("generate", err))
	}
	metrics.StageDuration.WithLabelValues("generate").Observe(time.Since(llmStart).Seconds())

	speech := Sanitize(reply)
	if speech == "" {
		slog.Info("reply sanitized to empty text, returning neutral turn", "raw_len", len(reply))
		p.endTurn(turnID, e2eStart, transcript, reply, "0", "empty")
		emit(Event{Type: "emotions", Codes: []int{int(Neutral)}})
		return &TurnResult{Emotions: []Emotion{Neutral}}, nil
	}
	slog.Info("reply", "text", speech, "llm_ms", llmMs)
	emit(Event{Type: "reply", Text: speech, LLMMs: llmMs})

	// Per-sentence emotion scoring, in reply order.
	scored := ScoreSentences(speech)
	codes := make([]Emotion, 0, len(scored))
	for _, s := range scored {
		metrics.SentencesScored.WithLabelValues(s.Code.String()).Inc()
		emit(Event{Type: "sentence", Sentence: s.Text, Emotion: int(s.Code)})
		codes = append(codes, s.Code)
	}
	if len(codes) == 0 {
		codes = []Emotion{Neutral}
	}
	codeHeader := FormatEmotionCodes(codes)
	emit(Event{Type: "emotions", Codes: intCodes(codes)})

	// Synthesis: one blocking call over the whole sanitized reply; audio is
	// fully buffered before the response goes out.
	ttsStart := time.Now()
	ttsResult, err := p.synthesize(ctx, speech)
	ttsMs := msSince(ttsStart)
	out := ""
	if ttsResult != nil {
		out = fmt.Sprintf("audio_bytes=%d", len(ttsResult.Audio))
	}
	p.span(turnID, "synthesize", ttsStart, ttsMs, speech, out, err)
	if err != nil {
		metrics.Errors.WithLabelValues("synthesize", "upstream").Inc()
		p.endTurn(turnID, e2eStart, transcript, speech, codeHeader, "error")
		return nil, fmt.Errorf("interaction failed: %w", upstreamErr("synthesize", err))
	}
	metrics.SynthesizedBytes.Add(float64(len(ttsResult.Audio)))

	e2e := time.Since(e2eStart)
	metrics.E2EDuration.Observe(e2e.Seconds())
	slog.Info("turn done",
		"e2e_ms", e2e.Milliseconds(),
		"asr_ms", asrMs,
		"llm_ms", llmMs,
		"tts_ms", ttsMs,
		"sentences", len(scored),
		"emotion_codes", codeHeader,
	)
	emit(Event{
		Type:    "metrics",
		ASRMs:   asrMs,
		LLMMs:   llmMs,
		TTSMs:   ttsMs,
		TotalMs: float64(e2e.Milliseconds()),
		Bytes:   len(ttsResult.Audio),
	})

	p.endTurn(turnID, e2eStart, transcript, speech, codeHeader, "ok")
	return &TurnResult{Audio: ttsResult.Audio, Emotions: codes}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, backend session.Backend, utterance []byte) (string, error) {
	tctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Transcribe)
	defer cancel()

	start := time.Now()
	text, err := backend.Transcribe(tctx, utterance, p.cfg.Language)
	if err != nil {
		return "", err
	}
	metrics.StageDuration.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
	return strings.TrimSpace(text), nil
}

// generate appends the transcript as a user message and blocks until the
// assistant turn completes, returning the aggregated reply text.
func (p *Pipeline) generate(ctx context.Context, backend session.Backend, snap session.Session, transcript string, emit EventCallback) (string, error) {
	gctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Generate)
	defer cancel()

	if err := backend.AppendUserMessage(gctx, snap.ThreadID, transcript); err != nil {
		return "", err
	}

	var reply replyBuffer
	err := backend.StreamAssistantTurn(gctx, snap.ThreadID, snap.PersonaID, p.cfg.Instructions, session.StreamHandler{
		OnTurnStart: reply.Reset,
		OnFragment:  reply.Append,
	})
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

func (p *Pipeline) synthesize(ctx context.Context, text string) (*TTSResult, error) {
	sctx, cancel := withTimeout(ctx, p.cfg.Timeouts.Synthesize)
	defer cancel()
	return p.cfg.TTS.Synthesize(sctx, text, p.cfg.TTSBackend, TTSOptions{Voice: p.cfg.TTSVoice})
}

func (p *Pipeline) span(turnID, name string, start time.Time, durationMs float64, input, output string, err error) {
	if p.cfg.Tracer == nil {
		return
	}
	status, errMsg := "ok", ""
	if err != nil {
		status, errMsg = "error", err.Error()
	}
	p.cfg.Tracer.RecordSpan(turnID, name, start, durationMs, input, output, status, errMsg)
}

func (p *Pipeline) endTurn(turnID string, start time.Time, transcript, reply, codes, status string) {
	if p.cfg.Tracer == nil {
		return
	}
	p.cfg.Tracer.EndTurn(turnID, msSince(start), transcript, reply, codes, status)
}

// logUtterance logs the inbound payload, probing WAV parameters when the
// container is recognizable. The payload itself stays opaque to the pipeline.
func logUtterance(utterance []byte) {
	if info, err := audio.ProbeWAV(utterance); err == nil {
		slog.Info("utterance received",
			"bytes", len(utterance),
			"sample_rate", info.SampleRate,
			"channels", info.Channels,
			"duration_ms", info.Duration.Milliseconds(),
		)
		return
	}
	slog.Info("utterance received", "bytes", len(utterance))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Milliseconds())
}

func intCodes(codes []Emotion) []int {
	out := make([]int, len(codes))
	for i, c := range codes {
		out[i] = int(c)
	}
	return out
}
