// Package session drives one recording from capture through summary and review
// to a saved or discarded note.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/PabloGalante/voicenote/internal/client"
	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
	"github.com/PabloGalante/voicenote/internal/recorder"
)

// Summarizer is satisfied by *client.SummaryClient.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, timeout time.Duration) (domain.SummaryResult, error)
}

// NoteSaver is satisfied by *client.Client.
type NoteSaver interface {
	SaveNote(ctx context.Context, in client.SaveNoteRequest) (client.SaveNoteResponse, error)
}

// LevelMeter is satisfied by *recorder.Meter.
type LevelMeter interface {
	Start() error
	Stop() error
	Level() float64
}

type Config struct {
	Source     recorder.TranscriptSource
	Summarizer Summarizer
	Notes      NoteSaver
	UserID     string

	// Optional.
	Meter     LevelMeter
	Stopwatch *recorder.Stopwatch
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	State State

	// Transcript is what the user sees: the corrected text when present, else the raw text.
	Transcript          string
	RawTranscript       string
	CorrectedTranscript string
	Title               string
	Summary             string
	ActionItems         []string

	Elapsed time.Duration
	Level   float64

	ConfirmingDiscard bool
	Saving            bool
	NoteID            string
	LastError         error
}

// Controller owns a RecordingSession. Its methods are safe for concurrent use;
// the lock is not held across summary or save calls.
type Controller struct {
	source     recorder.TranscriptSource
	summarizer Summarizer
	notes      NoteSaver
	meter      LevelMeter
	watch      *recorder.Stopwatch
	userID     string
	timeout    time.Duration
	log        *slog.Logger

	mu         sync.Mutex
	state      State
	raw        string
	corrected  string
	title      string
	summary    string
	items      []string
	confirming bool
	saving     bool
	noteID     string
	lastErr    error
	observers  []func(Snapshot)
}

func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("session: transcript source is required")
	case cfg.Summarizer == nil:
		return nil, errors.New("session: summarizer is required")
	case cfg.Notes == nil:
		return nil, errors.New("session: note saver is required")
	}

	c := &Controller{
		source:     cfg.Source,
		summarizer: cfg.Summarizer,
		notes:      cfg.Notes,
		meter:      cfg.Meter,
		watch:      cfg.Stopwatch,
		userID:     cfg.UserID,
		timeout:    cfg.Timeout,
		log:        cfg.Logger,
	}
	if c.watch == nil {
		c.watch = recorder.NewStopwatch(nil)
	}
	if c.timeout <= 0 {
		c.timeout = client.DefaultSummaryTimeout
	}
	if c.log == nil {
		c.log = observability.Logger()
	}
	c.log = c.log.With("component", "session")
	return c, nil
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs on the goroutine that caused the change and must not block.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ─────────────────────────────────────────────
// Recording
// ─────────────────────────────────────────────

// Start begins a recording from an idle-like state. If the source or the
// meter cannot be acquired, whatever was acquired is released and the state
// does not change.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Ready() {
		err := invalid(c.state, "start")
		c.mu.Unlock()
		return err
	}

	if err := c.source.Start(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.meter != nil {
		if err := c.meter.Start(); err != nil {
			err = errors.Join(err, c.source.Stop())
			c.mu.Unlock()
			return err
		}
	}

	c.clearLocked()
	c.watch.Reset()
	c.watch.Start()
	c.state = Recording
	c.mu.Unlock()

	c.log.Info("recording started")
	c.notify()
	return nil
}

// Stop ends the recording and summarizes the frozen transcript. It blocks
// until the summary call finishes. Stop from an idle-like state does nothing.
// Release errors are returned joined with any summary error.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == Recording:
	case c.state.Ready():
		c.mu.Unlock()
		return nil
	case c.state == Summarizing:
		c.mu.Unlock()
		return ErrSummaryInFlight
	default:
		err := invalid(c.state, "stop")
		c.mu.Unlock()
		return err
	}

	c.watch.Stop()
	releaseErr := c.releaseLocked()
	c.raw = c.source.Text()
	c.state = Summarizing
	transcript := c.raw
	c.mu.Unlock()

	if releaseErr != nil {
		c.log.Warn("releasing capture resources failed", "error", releaseErr)
	}
	c.log.Info("recording stopped", "chars", len(transcript))
	c.notify()

	return errors.Join(releaseErr, c.summarize(ctx, transcript))
}

// Toggle is the record control: it stops a recording and starts one from an
// idle-like state. It never starts a second concurrent recording.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	switch {
	case st == Recording:
		return c.Stop(ctx)
	case st.Ready():
		return c.Start(ctx)
	case st == Summarizing:
		return ErrSummaryInFlight
	default:
		return invalid(st, "toggle")
	}
}

// ─────────────────────────────────────────────
// Summary
// ─────────────────────────────────────────────

// Retry resubmits the same frozen transcript after a failed summary.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case AwaitingRetry:
	case Summarizing:
		c.mu.Unlock()
		return ErrSummaryInFlight
	default:
		err := invalid(c.state, "retry")
		c.mu.Unlock()
		return err
	}
	c.state = Summarizing
	c.lastErr = nil
	transcript := c.raw
	c.mu.Unlock()

	c.notify()
	return c.summarize(ctx, transcript)
}

// Restart abandons a failed summary and the transcript. Nothing is resubmitted.
func (c *Controller) Restart() error {
	c.mu.Lock()
	if c.state != AwaitingRetry {
		err := invalid(c.state, "restart")
		c.mu.Unlock()
		return err
	}
	c.clearLocked()
	c.watch.Reset()
	c.state = Idle
	c.mu.Unlock()

	c.notify()
	return nil
}

// summarize runs with the session in Summarizing. Only this call can move it
// out of Summarizing, so the result is always applied to the attempt that
// started it.
func (c *Controller) summarize(ctx context.Context, transcript string) error {
	res, err := c.summarizer.Summarize(ctx, transcript, c.timeout)
	if err == nil && !res.Complete() {
		err = client.ErrIncompleteSummary
	}

	c.mu.Lock()
	switch {
	case errors.Is(err, client.ErrNothingToSummarize):
		c.clearLocked()
		c.watch.Reset()
		c.state = Idle
		c.lastErr = err
	case err != nil:
		c.state = AwaitingRetry
		c.lastErr = err
	default:
		c.title = *res.Title
		c.summary = *res.Summary
		if corrected, ok := res.Corrected(); ok {
			c.corrected = corrected
		}
		c.items = append([]string(nil), res.ActionItems...)
		c.state = Reviewing
		c.lastErr = nil
	}
	state := c.state
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("summary failed", "state", state.String(), "error", err)
	} else {
		c.log.Info("summary ready", "action_items", len(res.ActionItems))
	}
	c.notify()
	return err
}

// ─────────────────────────────────────────────
// Review
// ─────────────────────────────────────────────

// SetTitle edits the title while reviewing. An empty title is kept as is.
func (c *Controller) SetTitle(title string) error {
	c.mu.Lock()
	if c.state != Reviewing {
		err := invalid(c.state, "set title")
		c.mu.Unlock()
		return err
	}
	c.title = title
	c.mu.Unlock()

	c.notify()
	return nil
}

// Save persists the reviewed note. On failure the session stays in Reviewing
// and the error is returned; on success the working buffers are cleared.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.saving:
		c.mu.Unlock()
		return ErrSaveInFlight
	case c.state != Reviewing || c.confirming:
		err := invalid(c.state, "save")
		c.mu.Unlock()
		return err
	}
	c.saving = true
	req := client.SaveNoteRequest{
		Title:      c.title,
		Transcript: c.raw,
		Summary:    c.summary,
		UserID:     c.userID,
	}
	if c.corrected != "" {
		req.CorrectedTranscript = domain.Ptr(c.corrected)
	}
	c.mu.Unlock()
	c.notify()

	resp, err := c.notes.SaveNote(ctx, req)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.lastErr = err
	} else {
		c.clearLocked()
		c.watch.Reset()
		c.noteID = resp.NoteID
		c.state = Saved
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("save failed", "error", err)
	} else {
		c.log.Info("note saved", "note_id", resp.NoteID)
	}
	c.notify()
	return err
}

// RequestDiscard asks for confirmation before dropping the reviewed note.
func (c *Controller) RequestDiscard() error {
	return c.setConfirming(true, "request discard")
}

func (c *Controller) CancelDiscard() error {
	return c.setConfirming(false, "cancel discard")
}

// ConfirmDiscard clears the transcript, title, summary and progress.
func (c *Controller) ConfirmDiscard() error {
	c.mu.Lock()
	if c.state != Reviewing || !c.confirming {
		err := invalid(c.state, "confirm discard")
		c.mu.Unlock()
		return err
	}
	c.clearLocked()
	c.watch.Reset()
	c.state = Discarded
	c.mu.Unlock()

	c.log.Info("note discarded")
	c.notify()
	return nil
}

func (c *Controller) setConfirming(want bool, action string) error {
	c.mu.Lock()
	switch {
	case c.saving:
		c.mu.Unlock()
		return ErrSaveInFlight
	case c.state != Reviewing || c.confirming == want:
		err := invalid(c.state, action)
		c.mu.Unlock()
		return err
	}
	c.confirming = want
	c.mu.Unlock()

	c.notify()
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// releaseLocked stops the source and the meter; both are attempted.
func (c *Controller) releaseLocked() error {
	err := c.source.Stop()
	if c.meter != nil {
		err = errors.Join(err, c.meter.Stop())
	}
	return err
}

func (c *Controller) clearLocked() {
	c.raw = ""
	c.corrected = ""
	c.title = ""
	c.summary = ""
	c.items = nil
	c.confirming = false
	c.noteID = ""
	c.lastErr = nil
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:               c.state,
		RawTranscript:       c.raw,
		CorrectedTranscript: c.corrected,
		Title:               c.title,
		Summary:             c.summary,
		ActionItems:         append([]string(nil), c.items...),
		Elapsed:             c.watch.Elapsed(),
		ConfirmingDiscard:   c.confirming,
		Saving:              c.saving,
		NoteID:              c.noteID,
		LastError:           c.lastErr,
	}
	if c.state == Recording {
		s.RawTranscript = c.source.Text()
		if c.meter != nil {
			s.Level = c.meter.Level()
		}
	}
	s.Transcript = s.RawTranscript
	if s.CorrectedTranscript != "" {
		s.Transcript = s.CorrectedTranscript
	}
	return s
}

func (c *Controller) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	obs := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, fn := range obs {
		fn(snap)
	}
}
