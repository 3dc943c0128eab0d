package main

import (
	"os"
	"strconv"
	"time"

	"github.com/musicalia/avatar-gateway/internal/prompts"
)

type config struct {
	port                string
	language            string
	personaName         string
	personaModel        string
	personaInstructions string
	runInstructions     string
	knowledgeName       string
	knowledgeDocPath    string
	ttsBackend          string
	ttsVoice            string
	edgeSpeechURL       string
	elevenlabsAPIKey    string
	elevenlabsVoiceID   string
	elevenlabsModelID   string
	ttsPoolSize         int
	maxConcurrentTurns  int
	transcribeTimeout   time.Duration
	generateTimeout     time.Duration
	synthesizeTimeout   time.Duration
	traceDBURL          string
}

func loadConfig() config {
	return config{
		port:                envStr("GATEWAY_PORT", "5000"),
		language:            envStr("TRANSCRIPTION_LANGUAGE", "pt"),
		personaName:         envStr("PERSONA_NAME", "Musicalia"),
		personaModel:        envStr("PERSONA_MODEL", "gpt-4o-mini"),
		personaInstructions: envStr("PERSONA_INSTRUCTIONS", prompts.PersonaInstructions),
		runInstructions:     envStr("RUN_INSTRUCTIONS", prompts.RunInstructions),
		knowledgeName:       envStr("KNOWLEDGE_NAME", "Musicalia Fado Archive"),
		knowledgeDocPath:    envStr("KNOWLEDGE_DOC_PATH", "Info.pdf"),
		ttsBackend:          envStr("TTS_BACKEND", "edge"),
		ttsVoice:            envStr("TTS_VOICE", "pt-PT-RaquelNeural"),
		edgeSpeechURL:       envStr("EDGE_SPEECH_URL", "http://localhost:5100"),
		elevenlabsAPIKey:    envStr("ELEVENLABS_API_KEY", ""),
		elevenlabsVoiceID:   envStr("ELEVENLABS_VOICE_ID", ""),
		elevenlabsModelID:   envStr("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		ttsPoolSize:         envInt("TTS_POOL_SIZE", 10),
		maxConcurrentTurns:  envInt("MAX_CONCURRENT_TURNS", 4),
		transcribeTimeout:   envDur("TRANSCRIBE_TIMEOUT", 30*time.Second),
		generateTimeout:     envDur("GENERATE_TIMEOUT", 120*time.Second),
		synthesizeTimeout:   envDur("SYNTHESIZE_TIMEOUT", 60*time.Second),
		traceDBURL:          envStr("TRACE_DB_URL", ""),
	}
}

func envStr(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
