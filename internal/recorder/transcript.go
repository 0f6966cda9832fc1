package recorder

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrSourceRunning is returned by Start on a source that is already live.
var ErrSourceRunning = errors.New("transcript source already running")

// TranscriptSource is a push-based speech recognizer. Text is the finalized
// transcript plus the volatile tail; after Stop it no longer changes.
type TranscriptSource interface {
	Start(ctx context.Context) error
	Stop() error
	Text() string
}

// TranscriptBuffer accumulates recognizer output. Finalized segments are
// append-only; the volatile tail is replaced on every partial result.
// Writes outside Start..Stop are dropped.
type TranscriptBuffer struct {
	mu       sync.Mutex
	live     bool
	final    strings.Builder
	volatile string
}

// Start clears the buffer and begins accepting segments.
func (b *TranscriptBuffer) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.live {
		return ErrSourceRunning
	}
	b.final.Reset()
	b.volatile = ""
	b.live = true
	return nil
}

// Stop freezes the text, tail included.
func (b *TranscriptBuffer) Stop() error {
	b.mu.Lock()
	b.live = false
	b.mu.Unlock()
	return nil
}

// AppendFinal commits a segment and clears the volatile tail.
func (b *TranscriptBuffer) AppendFinal(segment string) {
	segment = strings.TrimSpace(segment)

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.live {
		return
	}
	b.volatile = ""
	if segment == "" {
		return
	}
	if b.final.Len() > 0 {
		b.final.WriteByte(' ')
	}
	b.final.WriteString(segment)
}

// SetVolatile replaces the not-yet-final tail.
func (b *TranscriptBuffer) SetVolatile(tail string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.live {
		b.volatile = strings.TrimSpace(tail)
	}
}

func (b *TranscriptBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.volatile == "":
		return b.final.String()
	case b.final.Len() == 0:
		return b.volatile
	default:
		return b.final.String() + " " + b.volatile
	}
}

// LineSource turns a line-oriented reader into a transcript source: every
// line is a finalized segment. Done closes when the reader is exhausted.
type LineSource struct {
	TranscriptBuffer

	r    io.Reader
	once sync.Once
	done chan struct{}
	err  error
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, done: make(chan struct{})}
}

// Start begins reading. A LineSource reads its reader once; later starts only reset the buffer.
func (s *LineSource) Start(ctx context.Context) error {
	if err := s.TranscriptBuffer.Start(ctx); err != nil {
		return err
	}
	s.once.Do(func() { go s.read() })
	return nil
}

// Done closes at end of input.
func (s *LineSource) Done() <-chan struct{} {
	return s.done
}

// Err reports the read error that ended the input, if any. Valid after Done closes.
func (s *LineSource) Err() error {
	<-s.done
	return s.err
}

func (s *LineSource) read() {
	defer close(s.done)

	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		s.AppendFinal(sc.Text())
	}
	s.err = sc.Err()
}
