package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "avatar_turns_active",
		Help: "Interaction turns currently in flight",
	})

	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avatar_turns_total",
		Help: "Total interaction turns processed",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "avatar_stage_duration_seconds",
		Help:    "Per-stage latency (transcribe, generate, synthesize)",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0},
	}, []string{"stage"})

	E2EDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "avatar_turn_duration_seconds",
		Help:    "End-to-end latency from utterance received to audio packaged",
		Buckets: []float64{0.5, 1.0, 2.0, 3.0, 5.0, 8.0, 13.0, 21.0},
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	EmptyTranscripts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avatar_empty_transcripts_total",
		Help: "Turns short-circuited on an empty transcription",
	})

	SentencesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_sentences_scored_total",
		Help: "Reply sentences scored, by emotion label",
	}, []string{"emotion"})

	SynthesizedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avatar_synthesized_audio_bytes_total",
		Help: "Total synthesized audio bytes returned to clients",
	})

	InitAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_session_init_total",
		Help: "Session initialization attempts by outcome",
	}, []string{"outcome"})
)
