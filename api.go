// Package timedops provides keyed debounce and throttle primitives around
// arbitrary operations, with classified outcomes routed to optional callbacks.
//
// A Throttler admits at most one call per key per cooldown window; rejected
// calls fire OnThrottle and never execute. A Debouncer delays a key's
// operation until a quiet period passes without a newer call; superseded calls
// are silently discarded. Executed operations are classified as success, null,
// empty, error or timeout, and exactly one matching callback fires.
//
//	th := timedops.NewThrottler[int](500*time.Millisecond, nil)
//	th.Run(ctx, "search", fetch, timedops.Callbacks[int]{
//		OnSuccess:  func(n int) { render(n) },
//		OnThrottle: func() { /* dropped inside the window */ },
//	})
package timedops

import (
	"context"
	"time"

	"github.com/flutterfocus/timedops/internal/core"
	"go.uber.org/zap"
)

// Re-exported core types. The implementation lives in internal/core.
type (
	Outcome[T any]   = core.Outcome[T]
	OutcomeKind      = core.OutcomeKind
	Operation[T any] = core.Operation[T]
	Callbacks[T any] = core.Callbacks[T]
	Task[T any]      = core.Task[T]
	Throttler[T any] = core.Throttler[T]
	Debouncer[T any] = core.Debouncer[T]
	CallOption       = core.CallOption
)

const (
	OutcomeSuccess = core.OutcomeSuccess
	OutcomeNull    = core.OutcomeNull
	OutcomeEmpty   = core.OutcomeEmpty
	OutcomeError   = core.OutcomeError
	OutcomeTimeout = core.OutcomeTimeout
	OutcomeWaiting = core.OutcomeWaiting

	DefaultWindow = core.DefaultWindow
	DefaultQuiet  = core.DefaultQuiet
)

// NewThrottler creates a leading-edge throttler with the given default
// cooldown window (DefaultWindow when non-positive). logger may be nil.
func NewThrottler[T any](window time.Duration, logger *zap.Logger) *Throttler[T] {
	return core.NewThrottler[T](window, logger)
}

// NewDebouncer creates a debouncer with the given default quiet period
// (DefaultQuiet when non-positive). logger may be nil.
func NewDebouncer[T any](quiet time.Duration, logger *zap.Logger) *Debouncer[T] {
	return core.NewDebouncer[T](quiet, logger)
}

// Classify maps a raw operation result to an Outcome using the precedence
// error > null > empty > success.
func Classify[T any](v T, err error) Outcome[T] {
	return core.Classify(v, err)
}

// Dispatch runs op inline and routes its classified outcome to cb.
func Dispatch[T any](ctx context.Context, op Operation[T], cb Callbacks[T]) Outcome[T] {
	return core.Dispatch(ctx, op, cb)
}

// DispatchAsync runs op in its own goroutine, racing completion against the
// optional timeout (zero = none), and returns the task handle.
func DispatchAsync[T any](ctx context.Context, timeout time.Duration, op Operation[T], cb Callbacks[T]) *Task[T] {
	return core.DispatchAsync(ctx, timeout, op, cb)
}

// WithWindow overrides the throttle window for one call.
func WithWindow(d time.Duration) CallOption { return core.WithWindow(d) }

// WithQuiet overrides the debounce quiet period for one call.
func WithQuiet(d time.Duration) CallOption { return core.WithQuiet(d) }

// WithTimeout bounds one asynchronous call's pending time.
func WithTimeout(d time.Duration) CallOption { return core.WithTimeout(d) }
