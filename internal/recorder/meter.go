// Package recorder holds the capture-side pieces of a recording: the input
// level meter, the elapsed-time stopwatch and the live transcript buffer.
package recorder

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

// levelGain scales RMS so normal speech lands in the upper half of [0,1].
const levelGain = 20

// ErrMeterRunning is returned by Meter.Start while the input is already tapped.
var ErrMeterRunning = errors.New("meter already running")

// Input is a PCM source, typically a microphone tap.
// Start delivers frames to fn on the input's own goroutine until Stop.
type Input interface {
	Start(fn func(samples []float32)) error
	Stop() error
}

// Level returns the RMS of samples scaled by levelGain and clamped to [0,1].
// An empty frame is silence.
func Level(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return math.Min(math.Max(rms*levelGain, 0), 1)
}

// Meter publishes the level of the latest frame from an Input.
// Level is lock-free so readers never wait on the audio goroutine.
type Meter struct {
	in Input

	mu      sync.Mutex
	running bool

	live  atomic.Bool   // frames are published only while set
	level atomic.Uint64 // math.Float64bits
}

func NewMeter(in Input) *Meter {
	return &Meter{in: in}
}

// Start taps the input. A failed tap leaves the meter stopped.
func (m *Meter) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrMeterRunning
	}
	m.level.Store(0)
	m.live.Store(true)
	if err := m.in.Start(m.publish); err != nil {
		m.live.Store(false)
		return err
	}
	m.running = true
	return nil
}

// Stop releases the input and drops the level to zero. Frames the input
// delivers during or after Stop are ignored. Stopping a stopped meter is a no-op.
func (m *Meter) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.live.Store(false)
	err := m.in.Stop()
	m.level.Store(0)
	return err
}

func (m *Meter) Level() float64 {
	return math.Float64frombits(m.level.Load())
}

func (m *Meter) publish(samples []float32) {
	if !m.live.Load() {
		return
	}
	m.level.Store(math.Float64bits(Level(samples)))
	// lost a race with Stop
	if !m.live.Load() {
		m.level.Store(0)
	}
}
