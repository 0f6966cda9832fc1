package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/PabloGalante/voicenote/internal/domain"
)

const (
	summaryTemperature = 0.2
	summaryMaxTokens   = 800
)

// OpenAIClient implements domain.LLMClient on the OpenAI chat completions API.
type OpenAIClient struct {
	llm       llms.Model
	modelName string
}

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string // empty means api.openai.com
}

// NewOpenAIClient creates the chat client. An empty key is a configuration error.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = "gpt-4"
	}

	llmOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}

	model, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}

	return &OpenAIClient{llm: model, modelName: opts.Model}, nil
}

// Complete sends one system and one user message at a low temperature.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(summaryTemperature),
		llms.WithMaxTokens(summaryMaxTokens),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: openai %s: %w", domain.ErrUpstream, c.modelName, err)
	}

	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrMalformedUpstream)
	}
	return resp.Choices[0].Content, nil
}

// Model returns the model name.
func (c *OpenAIClient) Model() string {
	return c.modelName
}
