package session

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of one recording attempt.
type State int

const (
	Idle State = iota
	Recording
	Summarizing
	AwaitingRetry
	Reviewing
	Saved
	Discarded
)

var stateNames = [...]string{
	Idle:          "idle",
	Recording:     "recording",
	Summarizing:   "summarizing",
	AwaitingRetry: "awaiting_retry",
	Reviewing:     "reviewing",
	Saved:         "saved",
	Discarded:     "discarded",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Ready reports whether a new recording may start from s.
func (s State) Ready() bool {
	return s == Idle || s == Saved || s == Discarded
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSummaryInFlight   = errors.New("summary already in flight")
	ErrSaveInFlight      = errors.New("save already in flight")
)

func invalid(from State, action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}
