package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// DefaultPrompt asks the model to clean the transcript first, then summarize it, as one JSON object.
var DefaultPrompt = domain.PromptTemplate{
	System: "You are a helpful assistant that corrects transcripts and extracts summaries and action items.",
	User: `You will be given a transcript of spoken audio. First, correct any translation or grammar issues and return the cleaned, corrected transcript. Then, generate a short title, a concise summary paragraph, and an array of action items derived from the transcript. Respond ONLY with a single valid JSON object with the following keys:
- corrected_transcript: string
- title: string
- summary: string
- action_items: array of strings

Transcript:
` + domain.TranscriptPlaceholder + `

Make the corrected_transcript natural, preserve speaker content, and keep the meaning. Output only JSON.`,
}

type staticPrompt domain.PromptTemplate

func (p staticPrompt) SummaryPrompt() domain.PromptTemplate { return domain.PromptTemplate(p) }

// Service turns a transcript into a SummaryResult through the LLM port.
type Service struct {
	llm     domain.LLMClient
	prompts domain.PromptSource
}

// NewService builds the summary service. A nil llm means the provider key is
// missing; every call then fails with ErrNotConfigured. A nil prompts uses DefaultPrompt.
func NewService(llm domain.LLMClient, prompts domain.PromptSource) *Service {
	if prompts == nil {
		prompts = staticPrompt(DefaultPrompt)
	}
	return &Service{llm: llm, prompts: prompts}
}

// Generate sends the transcript to the model once. No retries happen here;
// the caller decides whether to try again.
func (s *Service) Generate(ctx context.Context, transcript string) (domain.SummaryResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.SummaryResult{}, fmt.Errorf("%w: transcript is required", domain.ErrValidation)
	}
	if s.llm == nil {
		return domain.SummaryResult{}, fmt.Errorf("%w: summary provider key is missing", domain.ErrNotConfigured)
	}

	log := observability.LoggerFromContext(ctx).With("transcript_len", len(transcript))
	start := time.Now()

	system, user := s.prompts.SummaryPrompt().Render(transcript)
	text, err := s.llm.Complete(ctx, system, user)
	if err != nil {
		log.Error("summary request failed", "error", err, "duration", time.Since(start))
		return domain.SummaryResult{}, upstreamError(err)
	}
	if strings.TrimSpace(text) == "" {
		log.Error("summary returned empty content")
		return domain.SummaryResult{}, fmt.Errorf("%w: empty completion", domain.ErrMalformedUpstream)
	}

	res, err := ParseResult(text)
	if err != nil {
		var perr *domain.UnparseableError
		if errors.As(err, &perr) {
			log.Error("failed to parse summary JSON", "raw", perr.Raw)
		} else {
			log.Error("summary payload rejected", "error", err)
		}
		return domain.SummaryResult{}, err
	}

	log.Info("summary generated",
		"complete", res.Complete(),
		"action_items", len(res.ActionItems),
		"duration", time.Since(start),
	)
	return res, nil
}

// upstreamError keeps classified adapter errors and marks everything else as ErrUpstream.
func upstreamError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotConfigured),
		errors.Is(err, domain.ErrUpstream),
		errors.Is(err, domain.ErrMalformedUpstream),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
}
