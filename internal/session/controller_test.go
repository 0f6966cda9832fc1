package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/voicenote/internal/client"
	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/recorder"
	"github.com/PabloGalante/voicenote/internal/session"
)

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

type fakeSummarizer struct {
	mu       sync.Mutex
	calls    []string
	results  []domain.SummaryResult
	errs     []error
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	// block, when set, holds every call until closed.
	block chan struct{}
	// entered receives once per call after the call is counted.
	entered chan struct{}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript string, _ time.Duration) (domain.SummaryResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, transcript)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.SummaryResult{}, ctx.Err()
		}
	}

	if i < len(f.errs) && f.errs[i] != nil {
		return domain.SummaryResult{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return complete("Groceries", "Buy milk", ""), nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotes struct {
	mu    sync.Mutex
	saved []client.SaveNoteRequest
	err   error
	block chan struct{}
}

func (f *fakeNotes) SaveNote(_ context.Context, in client.SaveNoteRequest) (client.SaveNoteResponse, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return client.SaveNoteResponse{}, f.err
	}
	f.saved = append(f.saved, in)
	return client.SaveNoteResponse{Message: "Note saved successfully", NoteID: "note-1"}, nil
}

type fakeMeter struct {
	startErr error
	stopErr  error
	starts   int
	stops    int
}

func (m *fakeMeter) Start() error {
	m.starts++
	return m.startErr
}

func (m *fakeMeter) Stop() error {
	m.stops++
	return m.stopErr
}

func (m *fakeMeter) Level() float64 { return 0.5 }

type failingSource struct {
	recorder.TranscriptBuffer
	startErr error
	stopErr  error
	stops    int
}

func (s *failingSource) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	return s.TranscriptBuffer.Start(ctx)
}

func (s *failingSource) Stop() error {
	s.stops++
	_ = s.TranscriptBuffer.Stop()
	return s.stopErr
}

func complete(title, summary, corrected string) domain.SummaryResult {
	r := domain.SummaryResult{
		Title:       domain.Ptr(title),
		Summary:     domain.Ptr(summary),
		ActionItems: []string{"buy milk"},
	}
	if corrected != "" {
		r.CorrectedTranscript = domain.Ptr(corrected)
	}
	return r
}

type harness struct {
	ctl   *session.Controller
	src   *recorder.TranscriptBuffer
	sum   *fakeSummarizer
	notes *fakeNotes
}

func newHarness(t *testing.T, sum *fakeSummarizer, notes *fakeNotes) *harness {
	t.Helper()
	if sum == nil {
		sum = &fakeSummarizer{}
	}
	if notes == nil {
		notes = &fakeNotes{}
	}
	src := &recorder.TranscriptBuffer{}
	ctl, err := session.New(session.Config{
		Source:     src,
		Summarizer: sum,
		Notes:      notes,
		UserID:     "tester",
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	return &harness{ctl: ctl, src: src, sum: sum, notes: notes}
}

// record starts, speaks text and stops.
func (h *harness) record(t *testing.T, text string) error {
	t.Helper()
	require.NoError(t, h.ctl.Start(context.Background()))
	h.src.AppendFinal(text)
	return h.ctl.Stop(context.Background())
}

// ─────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := session.New(session.Config{})
	assert.Error(t, err)
}

func TestStopFromIdleIsNoop(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.ctl.Stop(context.Background()))
	assert.Equal(t, session.Idle, h.ctl.Snapshot().State)
	assert.Zero(t, h.sum.callCount())
}

func TestHappyPathToSaved(t *testing.T) {
	sum := &fakeSummarizer{results: []domain.SummaryResult{complete("Groceries", "Buy milk", "Buy milk.")}}
	h := newHarness(t, sum, nil)

	require.NoError(t, h.ctl.Start(context.Background()))
	h.src.AppendFinal("buy")
	h.src.SetVolatile("milk")
	snap := h.ctl.Snapshot()
	assert.Equal(t, session.Recording, snap.State)
	assert.Equal(t, "buy milk", snap.Transcript, "live text while recording")
	assert.Empty(t, snap.Title)

	require.NoError(t, h.ctl.Stop(context.Background()))
	snap = h.ctl.Snapshot()
	require.Equal(t, session.Reviewing, snap.State)
	assert.Equal(t, "Groceries", snap.Title)
	assert.Equal(t, "Buy milk", snap.Summary)
	assert.Equal(t, "buy milk", snap.RawTranscript)
	assert.Equal(t, "Buy milk.", snap.Transcript, "corrected text supersedes raw")
	assert.Equal(t, []string{"buy milk"}, snap.ActionItems)
	assert.Equal(t, []string{"buy milk"}, sum.calls)

	require.NoError(t, h.ctl.SetTitle("Shopping"))
	require.NoError(t, h.ctl.Save(context.Background()))

	snap = h.ctl.Snapshot()
	assert.Equal(t, session.Saved, snap.State)
	assert.Equal(t, "note-1", snap.NoteID)
	assert.Empty(t, snap.Transcript)
	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.Summary)
	assert.Zero(t, snap.Elapsed)

	require.Len(t, h.notes.saved, 1)
	got := h.notes.saved[0]
	assert.Equal(t, "Shopping", got.Title)
	assert.Equal(t, "buy milk", got.Transcript)
	require.NotNil(t, got.CorrectedTranscript)
	assert.Equal(t, "Buy milk.", *got.CorrectedTranscript)
	assert.Equal(t, "Buy milk", got.Summary)
	assert.Equal(t, "tester", got.UserID)

	// a saved session can record again
	require.NoError(t, h.ctl.Start(context.Background()))
	assert.Empty(t, h.ctl.Snapshot().NoteID)
}

func TestSaveOmitsMissingCorrectedTranscript(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.record(t, "buy milk"))
	require.NoError(t, h.ctl.Save(context.Background()))

	require.Len(t, h.notes.saved, 1)
	assert.Nil(t, h.notes.saved[0].CorrectedTranscript)
}

func TestSummaryFailureGoesToAwaitingRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		res  domain.SummaryResult
	}{
		{name: "timeout", err: client.ErrTimeout},
		{name: "transport", err: &client.APIError{StatusCode: 502, Message: "bad gateway"}},
		{name: "incomplete", res: domain.SummaryResult{Title: domain.Ptr("only a title")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := &fakeSummarizer{errs: []error{tc.err}, results: []domain.SummaryResult{tc.res}}
			h := newHarness(t, sum, nil)

			err := h.record(t, "call the bank")
			require.Error(t, err)

			snap := h.ctl.Snapshot()
			assert.Equal(t, session.AwaitingRetry, snap.State)
			assert.Empty(t, snap.Title, "no partial data on failure")
			assert.Empty(t, snap.Summary)
			assert.Equal(t, "call the bank", snap.RawTranscript)
			assert.Error(t, snap.LastError)
		})
	}
}

func TestRetryResubmitsSameTranscript(t *testing.T) {
	sum := &fakeSummarizer{errs: []error{client.ErrTimeout}}
	h := newHarness(t, sum, nil)

	require.Error(t, h.record(t, "call the bank"))

	h.src.AppendFinal("late text is ignored")
	require.NoError(t, h.ctl.Retry(context.Background()))

	assert.Equal(t, []string{"call the bank", "call the bank"}, sum.calls)
	assert.Equal(t, session.Reviewing, h.ctl.Snapshot().State)
	assert.NoError(t, h.ctl.Snapshot().LastError)
}

func TestRestartNeverResubmits(t *testing.T) {
	sum := &fakeSummarizer{errs: []error{client.ErrTimeout}}
	h := newHarness(t, sum, nil)
	require.Error(t, h.record(t, "call the bank"))

	require.NoError(t, h.ctl.Restart())

	snap := h.ctl.Snapshot()
	assert.Equal(t, session.Idle, snap.State)
	assert.Empty(t, snap.Transcript)
	assert.Zero(t, snap.Elapsed)
	assert.Equal(t, 1, sum.callCount())

	assert.ErrorIs(t, h.ctl.Restart(), session.ErrInvalidTransition)
	assert.ErrorIs(t, h.ctl.Retry(context.Background()), session.ErrInvalidTransition)
}

func TestEmptyTranscriptReturnsToIdle(t *testing.T) {
	sum := &fakeSummarizer{errs: []error{client.ErrNothingToSummarize}}
	h := newHarness(t, sum, nil)

	err := h.record(t, "")
	require.ErrorIs(t, err, client.ErrNothingToSummarize)
	assert.Equal(t, session.Idle, h.ctl.Snapshot().State)
}

func TestRetryWhileSummarizingIsRejected(t *testing.T) {
	sum := &fakeSummarizer{
		errs:    []error{client.ErrTimeout},
		entered: make(chan struct{}, 4),
	}
	h := newHarness(t, sum, nil)
	require.Error(t, h.record(t, "call the bank"))
	<-sum.entered

	sum.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- h.ctl.Retry(context.Background()) }()
	<-sum.entered

	assert.ErrorIs(t, h.ctl.Retry(context.Background()), session.ErrSummaryInFlight)
	assert.ErrorIs(t, h.ctl.Stop(context.Background()), session.ErrSummaryInFlight)
	assert.ErrorIs(t, h.ctl.Toggle(context.Background()), session.ErrSummaryInFlight)
	assert.ErrorIs(t, h.ctl.Start(context.Background()), session.ErrInvalidTransition)
	assert.Equal(t, session.Summarizing, h.ctl.Snapshot().State)

	close(sum.block)
	require.NoError(t, <-done)
	assert.Equal(t, 2, sum.callCount())
	assert.Equal(t, int32(1), sum.maxSeen.Load(), "never two calls in flight")
}

func TestToggle(t *testing.T) {
	h := newHarness(t, nil, nil)

	require.NoError(t, h.ctl.Toggle(context.Background()))
	assert.Equal(t, session.Recording, h.ctl.Snapshot().State)

	h.src.AppendFinal("hello")
	require.NoError(t, h.ctl.Toggle(context.Background()))
	assert.Equal(t, session.Reviewing, h.ctl.Snapshot().State)

	assert.ErrorIs(t, h.ctl.Toggle(context.Background()), session.ErrInvalidTransition)
	assert.Equal(t, 1, h.sum.callCount())
}

func TestStartWhileRecordingIsRejected(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.ctl.Start(context.Background()))
	assert.ErrorIs(t, h.ctl.Start(context.Background()), session.ErrInvalidTransition)
}

func TestSetTitleOnlyWhileReviewing(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.ErrorIs(t, h.ctl.SetTitle("x"), session.ErrInvalidTransition)

	require.NoError(t, h.record(t, "buy milk"))
	require.NoError(t, h.ctl.SetTitle(""))
	assert.Empty(t, h.ctl.Snapshot().Title, "empty title is preserved")
}

func TestSaveFailureStaysInReviewing(t *testing.T) {
	notes := &fakeNotes{err: &client.APIError{StatusCode: 500, Message: "boom"}}
	h := newHarness(t, nil, notes)
	require.NoError(t, h.record(t, "buy milk"))

	err := h.ctl.Save(context.Background())
	require.Error(t, err)

	snap := h.ctl.Snapshot()
	assert.Equal(t, session.Reviewing, snap.State)
	assert.Equal(t, "Groceries", snap.Title)
	assert.False(t, snap.Saving)

	notes.err = nil
	require.NoError(t, h.ctl.Save(context.Background()))
	assert.Equal(t, session.Saved, h.ctl.Snapshot().State)
}

func TestSecondSaveWhilePendingIsRejected(t *testing.T) {
	notes := &fakeNotes{block: make(chan struct{})}
	h := newHarness(t, nil, notes)
	require.NoError(t, h.record(t, "buy milk"))

	done := make(chan error, 1)
	go func() { done <- h.ctl.Save(context.Background()) }()

	require.Eventually(t, func() bool { return h.ctl.Snapshot().Saving }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.ctl.Save(context.Background()), session.ErrSaveInFlight)
	assert.ErrorIs(t, h.ctl.RequestDiscard(), session.ErrSaveInFlight)

	close(notes.block)
	require.NoError(t, <-done)
	assert.Len(t, notes.saved, 1)
}

func TestDiscardNeedsConfirmation(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.record(t, "buy milk"))

	assert.ErrorIs(t, h.ctl.ConfirmDiscard(), session.ErrInvalidTransition)
	assert.ErrorIs(t, h.ctl.CancelDiscard(), session.ErrInvalidTransition)

	require.NoError(t, h.ctl.RequestDiscard())
	assert.True(t, h.ctl.Snapshot().ConfirmingDiscard)
	assert.ErrorIs(t, h.ctl.Save(context.Background()), session.ErrInvalidTransition)

	require.NoError(t, h.ctl.CancelDiscard())
	snap := h.ctl.Snapshot()
	assert.Equal(t, session.Reviewing, snap.State)
	assert.Equal(t, "Groceries", snap.Title)

	require.NoError(t, h.ctl.RequestDiscard())
	require.NoError(t, h.ctl.ConfirmDiscard())

	snap = h.ctl.Snapshot()
	assert.Equal(t, session.Discarded, snap.State)
	assert.Empty(t, snap.Transcript)
	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.Summary)
	assert.False(t, snap.ConfirmingDiscard)
	assert.Zero(t, snap.Elapsed)
	assert.Empty(t, h.notes.saved)

	require.NoError(t, h.ctl.Start(context.Background()), "discarded is idle-like")
}

func TestStartReleasesSourceWhenMeterFails(t *testing.T) {
	src := &failingSource{}
	meter := &fakeMeter{startErr: errors.New("no microphone")}
	ctl, err := session.New(session.Config{
		Source:     src,
		Summarizer: &fakeSummarizer{},
		Notes:      &fakeNotes{},
		Meter:      meter,
	})
	require.NoError(t, err)

	require.Error(t, ctl.Start(context.Background()))
	assert.Equal(t, 1, src.stops)
	assert.Equal(t, session.Idle, ctl.Snapshot().State)
}

func TestStopReleasesOnEveryPath(t *testing.T) {
	srcErr := errors.New("recognizer stuck")
	src := &failingSource{stopErr: srcErr}
	meter := &fakeMeter{stopErr: errors.New("engine busy")}
	ctl, err := session.New(session.Config{
		Source:     src,
		Summarizer: &fakeSummarizer{},
		Notes:      &fakeNotes{},
		Meter:      meter,
	})
	require.NoError(t, err)

	require.NoError(t, ctl.Start(context.Background()))
	assert.Equal(t, 0.5, ctl.Snapshot().Level)
	src.AppendFinal("still summarized")

	err = ctl.Stop(context.Background())
	require.ErrorIs(t, err, srcErr)
	assert.Equal(t, 1, src.stops)
	assert.Equal(t, 1, meter.stops, "meter released even though the source failed")
	assert.Equal(t, session.Reviewing, ctl.Snapshot().State)
	assert.Zero(t, ctl.Snapshot().Level)
}

func TestElapsedFrozenOnStop(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := &recorder.TranscriptBuffer{}
	ctl, err := session.New(session.Config{
		Source:     src,
		Summarizer: &fakeSummarizer{},
		Notes:      &fakeNotes{},
		Stopwatch:  recorder.NewStopwatch(clock),
	})
	require.NoError(t, err)

	require.NoError(t, ctl.Start(context.Background()))
	now = now.Add(65 * time.Second)
	assert.Equal(t, 65*time.Second, ctl.Snapshot().Elapsed)

	src.AppendFinal("hi")
	require.NoError(t, ctl.Stop(context.Background()))
	now = now.Add(time.Hour)
	assert.Equal(t, 65*time.Second, ctl.Snapshot().Elapsed)
}

func TestOnChangeSeesTransitions(t *testing.T) {
	h := newHarness(t, nil, nil)

	var mu sync.Mutex
	var states []session.State
	h.ctl.OnChange(func(s session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if len(states) == 0 || states[len(states)-1] != s.State {
			states = append(states, s.State)
		}
	})

	require.NoError(t, h.record(t, "buy milk"))
	require.NoError(t, h.ctl.Save(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []session.State{
		session.Recording, session.Summarizing, session.Reviewing, session.Saved,
	}, states)
}

func TestOnChangeNotifiesEveryObserver(t *testing.T) {
	h := newHarness(t, nil, nil)

	var first, second []session.State
	h.ctl.OnChange(func(s session.Snapshot) { first = append(first, s.State) })
	h.ctl.OnChange(func(s session.Snapshot) { second = append(second, s.State) })

	require.NoError(t, h.ctl.Start(context.Background()))
	assert.Equal(t, []session.State{session.Recording}, first)
	assert.Equal(t, first, second)

	// observers registered from inside a callback take effect on the next change
	var late int
	h.ctl.OnChange(func(session.Snapshot) {
		h.ctl.OnChange(func(session.Snapshot) { late++ })
	})
	h.src.AppendFinal("hi")
	require.NoError(t, h.ctl.Stop(context.Background()))
	assert.Positive(t, late)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_retry", session.AwaitingRetry.String())
	assert.Equal(t, "state(42)", session.State(42).String())
	assert.True(t, session.Saved.Ready())
	assert.False(t, session.Reviewing.Ready())
}
