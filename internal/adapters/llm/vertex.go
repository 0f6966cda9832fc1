package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/voicenote/internal/domain"
)

type VertexClient struct {
	client    *genai.Client
	modelName string
}

type VertexOptions struct {
	ProjectID string
	Location  string
	Model     string
}

// NewVertexClient creates an LLMClient based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, opts VertexOptions) (*VertexClient, error) {
	if opts.ProjectID == "" || opts.Location == "" {
		return nil, fmt.Errorf("%w: VOICENOTE_GCP_PROJECT and VOICENOTE_GCP_LOCATION must be set", domain.ErrNotConfigured)
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  opts.ProjectID,
		Location: opts.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements domain.LLMClient using Vertex AI.
// The model is asked for a JSON response so the summary parser rarely needs its fallback.
func (v *VertexClient) Complete(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	temp := float32(summaryTemperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(summaryMaxTokens),
		ResponseMIMEType:  "application/json",
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: vertex generate content: %w", domain.ErrUpstream, err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("%w: vertex returned empty text", domain.ErrMalformedUpstream)
	}

	return text, nil
}
