package recorder

import (
	"sync"
	"time"
)

// Stopwatch measures recording time. It only advances between Start and Stop.
type Stopwatch struct {
	now func() time.Time

	mu      sync.Mutex
	running bool
	since   time.Time
	acc     time.Duration
}

// NewStopwatch uses now as its clock; nil means time.Now.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start resumes counting and reports false if it was already running.
func (s *Stopwatch) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	s.since = s.now()
	return true
}

// Stop freezes the elapsed time.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.acc += s.now().Sub(s.since)
	s.running = false
}

// Reset stops the stopwatch and zeroes it.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.acc = 0
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return s.acc
	}
	if d := s.now().Sub(s.since); d > 0 {
		return s.acc + d
	}
	return s.acc
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
