package summary_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/voicenote/internal/app/summary"
	"github.com/PabloGalante/voicenote/internal/domain"
)

type fakeLLM struct {
	reply     string
	err       error
	gotSystem string
	gotUser   string
	calls     int
}

func (f *fakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotUser = user
	return f.reply, f.err
}

func TestGenerateParsesCleanJSON(t *testing.T) {
	llm := &fakeLLM{reply: `{"corrected_transcript":"Buy milk.","title":"Errand","summary":"Get milk","action_items":["buy milk"]}`}
	svc := summary.NewService(llm, nil)

	res, err := svc.Generate(context.Background(), "buy milk")
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Equal(t, "Errand", *res.Title)
	assert.Equal(t, []string{"buy milk"}, res.ActionItems)

	assert.Equal(t, summary.DefaultPrompt.System, llm.gotSystem)
	assert.Contains(t, llm.gotUser, "Transcript:\nbuy milk\n")
	assert.NotContains(t, llm.gotUser, domain.TranscriptPlaceholder)
}

func TestGenerateRecoversEmbeddedJSON(t *testing.T) {
	llm := &fakeLLM{reply: "Sure! Here it is:\n```json\n{\"title\":\"T\",\"summary\":\"S\"}\n```"}
	res, err := summary.NewService(llm, nil).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "T", *res.Title)
	assert.Equal(t, []string{}, res.ActionItems)
}

func TestGenerateUnparseableKeepsRaw(t *testing.T) {
	raw := "I cannot help with that {not json}"
	_, err := summary.NewService(&fakeLLM{reply: raw}, nil).Generate(context.Background(), "hello")

	require.ErrorIs(t, err, domain.ErrUnparseable)
	var perr *domain.UnparseableError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, raw, perr.Raw)
}

func TestGenerateNoBracesIsUnparseable(t *testing.T) {
	_, err := summary.NewService(&fakeLLM{reply: "plain text"}, nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrUnparseable)
}

func TestGenerateNullIsMalformed(t *testing.T) {
	_, err := summary.NewService(&fakeLLM{reply: "null"}, nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrMalformedUpstream)
}

func TestGenerateEmptyCompletionIsMalformed(t *testing.T) {
	_, err := summary.NewService(&fakeLLM{reply: "   "}, nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrMalformedUpstream)
}

func TestGenerateValidatesBeforeCalling(t *testing.T) {
	llm := &fakeLLM{}
	_, err := summary.NewService(llm, nil).Generate(context.Background(), " \n ")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, llm.calls)
}

func TestGenerateWithoutProvider(t *testing.T) {
	_, err := summary.NewService(nil, nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestGenerateWrapsProviderFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := summary.NewService(&fakeLLM{err: boom}, nil).Generate(context.Background(), "hello")
	require.ErrorIs(t, err, domain.ErrUpstream)
	require.ErrorIs(t, err, boom)
}

type customPrompt struct{}

func (customPrompt) SummaryPrompt() domain.PromptTemplate {
	return domain.PromptTemplate{System: "be brief", User: "Summarize: " + domain.TranscriptPlaceholder}
}

func TestGenerateUsesPromptSource(t *testing.T) {
	llm := &fakeLLM{reply: `{"title":"t","summary":"s"}`}
	_, err := summary.NewService(llm, customPrompt{}).Generate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "be brief", llm.gotSystem)
	assert.True(t, strings.HasSuffix(llm.gotUser, "Summarize: abc"))
}

func TestParseResultKeepsIncomplete(t *testing.T) {
	res, err := summary.ParseResult(`{"summary":"only summary"}`)
	require.NoError(t, err)
	assert.False(t, res.Complete())
}
