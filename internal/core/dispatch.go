package core

import (
	"context"
	"time"
)

// Dispatch executes op inline, classifies its result and invokes exactly one
// matching callback. The outcome is also returned so callers that want the
// value without going through callbacks can have it.
func Dispatch[T any](ctx context.Context, op Operation[T], cb Callbacks[T]) Outcome[T] {
	out := Classify(op(ctx))
	cb.handle(out)
	return out
}

// Task is the completion handle for an asynchronous dispatch.
type Task[T any] struct {
	done    chan struct{}
	cancel  context.CancelFunc
	outcome Outcome[T]
}

// Done is closed once a terminal callback has fired.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Outcome returns the terminal outcome. Valid only after Done is closed;
// before that it reports Waiting.
func (t *Task[T]) Outcome() Outcome[T] {
	select {
	case <-t.done:
		return t.outcome
	default:
		return Outcome[T]{Kind: OutcomeWaiting}
	}
}

// Cancel cancels the operation's context. The dispatch still settles (with an
// error outcome) so Done is always eventually closed.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Wait blocks until the dispatch settles or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return Outcome[T]{Kind: OutcomeWaiting}, ctx.Err()
	}
}

// DispatchAsync executes op in its own goroutine and races completion against
// the optional timeout (timeout <= 0 means none). If the operation has not
// already settled when the race starts, OnWaiting is signaled once. Exactly one
// terminal callback fires: the classified result if it arrives in time,
// OnTimeout otherwise. A timed-out or canceled operation keeps running until it
// observes its context, but its result is discarded.
func DispatchAsync[T any](ctx context.Context, timeout time.Duration, op Operation[T], cb Callbacks[T]) *Task[T] {
	opCtx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel}

	settled := make(chan Outcome[T], 1)
	go func() {
		settled <- Classify(op(opCtx))
	}()

	go func() {
		defer close(t.done)
		defer cancel()

		select {
		case out := <-settled:
			t.outcome = out
			cb.handle(out)
			return
		default:
		}
		cb.waiting()

		var deadline <-chan time.Time
		if timeout > 0 {
			tm := time.NewTimer(timeout)
			defer tm.Stop()
			deadline = tm.C
		}

		select {
		case out := <-settled:
			t.outcome = out
			cb.handle(out)
		case <-deadline:
			t.outcome = Outcome[T]{Kind: OutcomeTimeout}
			if cb.OnTimeout != nil {
				cb.OnTimeout()
			}
		case <-opCtx.Done():
			t.outcome = Outcome[T]{Kind: OutcomeError, Err: opCtx.Err()}
			if cb.OnError != nil {
				cb.OnError(opCtx.Err())
			}
		}
	}()

	return t
}
