package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// MockLLM answers with a deterministic summary built from the transcript.
// Used for local runs without a provider key and in handler tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(_ context.Context, _ string, user string) (string, error) {
	transcript := user
	if i := strings.LastIndex(user, "Transcript:\n"); i >= 0 {
		transcript = user[i+len("Transcript:\n"):]
		if j := strings.Index(transcript, "\n\n"); j >= 0 {
			transcript = transcript[:j]
		}
	}
	transcript = strings.TrimSpace(transcript)

	title := transcript
	if words := strings.Fields(transcript); len(words) > 5 {
		title = strings.Join(words[:5], " ")
	}

	out, err := json.Marshal(domain.SummaryResult{
		CorrectedTranscript: domain.Ptr(transcript),
		Title:               domain.Ptr(title),
		Summary:             domain.Ptr("Summary: " + transcript),
		ActionItems:         []string{},
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
