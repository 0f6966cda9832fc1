package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// DefaultSummaryTimeout bounds a summary call when the caller passes no timeout.
const DefaultSummaryTimeout = 10 * time.Second

var (
	// ErrNothingToSummarize is returned for blank transcripts. No request is made.
	ErrNothingToSummarize = errors.New("nothing to summarize")

	// ErrIncompleteSummary means the relay answered but title or summary was missing.
	ErrIncompleteSummary = errors.New("summary is missing title or summary")
)

// Summarizer makes one unbounded summary call. *Client implements it.
type Summarizer interface {
	GenerateSummary(ctx context.Context, transcript string) (domain.SummaryResult, error)
}

// SummaryClient bounds summary calls with a timeout and rejects incomplete results.
// It never retries on its own.
type SummaryClient struct {
	api Summarizer
}

func NewSummaryClient(api Summarizer) *SummaryClient {
	return &SummaryClient{api: api}
}

// Summarize returns a complete result, or an error and no partial data.
func (s *SummaryClient) Summarize(ctx context.Context, transcript string, timeout time.Duration) (domain.SummaryResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.SummaryResult{}, ErrNothingToSummarize
	}
	if timeout <= 0 {
		timeout = DefaultSummaryTimeout
	}

	res, err := withTimeout(ctx, timeout, func(ctx context.Context) (domain.SummaryResult, error) {
		return s.api.GenerateSummary(ctx, transcript)
	})
	if err != nil {
		return domain.SummaryResult{}, err
	}
	if !res.Complete() {
		return domain.SummaryResult{}, ErrIncompleteSummary
	}
	return res, nil
}
