package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// uploadPollInterval paces the indexing poll after a document upload.
const uploadPollInterval = 2 * time.Second

// OpenAIBackend implements Backend on the OpenAI platform: whisper-1 for
// transcription, vector stores for knowledge, assistants for personas and
// threads/runs for dialogue.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend builds a backend from an API key.
func NewOpenAIBackend(creds Credentials) Backend {
	return &OpenAIBackend{client: openai.NewClient(option.WithAPIKey(creds.APIKey))}
}

// Verify lists models as a lightweight credential probe.
func (b *OpenAIBackend) Verify(ctx context.Context) error {
	if _, err := b.client.Models.List(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (b *OpenAIBackend) FindKnowledgeBase(ctx context.Context, name string) (string, error) {
	page, err := b.client.VectorStores.List(ctx, openai.VectorStoreListParams{})
	if err != nil {
		return "", fmt.Errorf("list vector stores: %w", err)
	}
	for _, vs := range page.Data {
		if vs.Name == name {
			return vs.ID, nil
		}
	}
	return "", nil
}

func (b *OpenAIBackend) CreateKnowledgeBase(ctx context.Context, name string) (string, error) {
	vs, err := b.client.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}
	return vs.ID, nil
}

// UploadDocument uploads one file into the vector store and polls until the
// backend reports indexing finished.
func (b *OpenAIBackend) UploadDocument(ctx context.Context, knowledgeID, filename string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	vsFile, err := b.client.VectorStores.Files.UploadAndPoll(ctx, knowledgeID, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(data), filename, "application/octet-stream"),
		Purpose: openai.FilePurposeAssistants,
	}, int(uploadPollInterval.Milliseconds()))
	if err != nil {
		return fmt.Errorf("upload to vector store: %w", err)
	}
	if vsFile.Status != "completed" {
		return fmt.Errorf("vector store indexing ended in state %q", vsFile.Status)
	}
	return nil
}

func (b *OpenAIBackend) FindPersona(ctx context.Context, name string) (*Persona, error) {
	page, err := b.client.Beta.Assistants.List(ctx, openai.BetaAssistantListParams{})
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	for _, a := range page.Data {
		if a.Name != name {
			continue
		}
		return &Persona{
			ID:           a.ID,
			Instructions: a.Instructions,
			KnowledgeIDs: a.ToolResources.FileSearch.VectorStoreIDs,
		}, nil
	}
	return nil, nil
}

func (b *OpenAIBackend) CreatePersona(ctx context.Context, cfg PersonaConfig) (string, error) {
	params := openai.BetaAssistantNewParams{
		Model:        cfg.Model,
		Name:         openai.String(cfg.Name),
		Instructions: openai.String(cfg.Instructions),
	}
	if cfg.KnowledgeID != "" {
		params.Tools = []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
		}
		params.ToolResources = openai.BetaAssistantNewParamsToolResources{
			FileSearch: openai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{cfg.KnowledgeID},
			},
		}
	}
	a, err := b.client.Beta.Assistants.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return a.ID, nil
}

func (b *OpenAIBackend) UpdatePersona(ctx context.Context, id string, cfg PersonaConfig) error {
	params := openai.BetaAssistantUpdateParams{
		Model:        openai.BetaAssistantUpdateParamsModel(cfg.Model),
		Instructions: openai.String(cfg.Instructions),
	}
	if cfg.KnowledgeID != "" {
		params.Tools = []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
		}
		params.ToolResources = openai.BetaAssistantUpdateParamsToolResources{
			FileSearch: openai.BetaAssistantUpdateParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{cfg.KnowledgeID},
			},
		}
	}
	if _, err := b.client.Beta.Assistants.Update(ctx, id, params); err != nil {
		return fmt.Errorf("update assistant: %w", err)
	}
	return nil
}

func (b *OpenAIBackend) CreateThread(ctx context.Context) (string, error) {
	thread, err := b.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

func (b *OpenAIBackend) AppendUserMessage(ctx context.Context, threadID, text string) error {
	_, err := b.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// StreamAssistantTurn drives one streaming run to completion, forwarding
// message-start and text-delta events to the handler.
func (b *OpenAIBackend) StreamAssistantTurn(ctx context.Context, threadID, personaID, instructions string, h StreamHandler) error {
	stream := b.client.Beta.Threads.Runs.NewStreaming(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID:  personaID,
		Instructions: openai.String(instructions),
	})
	defer stream.Close()

	for stream.Next() {
		evt := stream.Current()
		switch evt.Event {
		case "thread.message.created":
			if h.OnTurnStart != nil {
				h.OnTurnStart()
			}
		case "thread.message.delta":
			for _, part := range evt.Data.Delta.Content {
				if part.Type == "text" && h.OnFragment != nil {
					h.OnFragment(part.Text.Value)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("run stream: %w", err)
	}
	return nil
}

func (b *OpenAIBackend) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	}
	if language != "" {
		params.Language = openai.String(language)
	}
	resp, err := b.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}
