package client

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout means the timer won the race against the operation.
var ErrTimeout = errors.New("operation timed out")

// withTimeout runs op and a timer concurrently and returns whichever finishes first.
// The operation's context is cancelled when the timer fires, and a result
// arriving after that is dropped.
func withTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T

	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1) // buffered so a late sender never blocks

	go func() {
		v, err := op(opCtx)
		done <- result{v: v, err: err}
	}()

	timedOut := func() bool {
		return errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	}

	select {
	case r := <-done:
		if r.err != nil && timedOut() {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
		}
		return r.v, r.err
	case <-opCtx.Done():
		if timedOut() {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
		}
		return zero, ctx.Err()
	}
}
