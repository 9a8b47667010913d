package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Throttler rate-limits how often the operation behind a key may execute.
//
// This is a leading-edge/cooldown throttle: an admitted call runs immediately
// and opens a window starting at call time; further calls for the same key
// inside the window are rejected through OnThrottle, never queued. Once the
// window elapses the key's table entry is removed and the key is admitted
// again, even if a previously admitted asynchronous operation is still in
// flight. The two operations then run concurrently, with no cross-call
// cancellation.
//
// Keys are caller-chosen and process-wide per Throttler instance; distinct
// keys never affect each other.
type Throttler[T any] struct {
	table  *timerTable
	window time.Duration
	logger *zap.Logger
}

// NewThrottler creates a throttler with the given default cooldown window.
// A non-positive window falls back to DefaultWindow. The logger may be nil.
func NewThrottler[T any](window time.Duration, logger *zap.Logger) *Throttler[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Throttler[T]{
		table:  newTimerTable(),
		window: window,
		logger: logger,
	}
}

// Run executes op inline if the key's window is not active, classifying the
// result and firing exactly one callback. It reports whether the call was
// admitted; a rejected call fires OnThrottle and never touches op.
func (t *Throttler[T]) Run(ctx context.Context, callID string, op Operation[T], cb Callbacks[T], opts ...CallOption) bool {
	cfg := resolveCall(t.window, 0, opts)
	if !t.admit(callID, cfg.window) {
		t.logger.Debug("call throttled", zap.String("call_id", callID))
		cb.throttled()
		return false
	}
	Dispatch(ctx, op, cb)
	return true
}

// RunAsync is Run for deferred operations: an admitted call is dispatched in
// its own goroutine, racing completion against the optional per-call timeout
// (WithTimeout). The cooldown window still starts at call time, independent of
// how long the operation takes. Returns a nil task when the call is rejected.
func (t *Throttler[T]) RunAsync(ctx context.Context, callID string, op Operation[T], cb Callbacks[T], opts ...CallOption) (*Task[T], bool) {
	cfg := resolveCall(t.window, 0, opts)
	if !t.admit(callID, cfg.window) {
		t.logger.Debug("call throttled", zap.String("call_id", callID))
		cb.throttled()
		return nil, false
	}
	return DispatchAsync(ctx, cfg.timeout, op, cb), true
}

// admit checks the key's window and, when clear, opens a new one ending at
// now + window. The entry removes itself from the table when the window
// elapses.
func (t *Throttler[T]) admit(callID string, window time.Duration) bool {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()

	now := time.Now()
	if cur, ok := t.table.entries[callID]; ok {
		if cur.active(now) {
			return false
		}
		// Expired but its cleanup timer has not run yet; replace it.
		cur.timer.Stop()
	}

	e := &timerEntry{firesAt: now.Add(window)}
	e.timer = time.AfterFunc(window, func() {
		t.table.removeIf(callID, e)
	})
	t.table.entries[callID] = e
	return true
}

// Pending reports whether the key currently has an active cooldown window.
func (t *Throttler[T]) Pending(callID string) bool {
	return t.table.pending(callID)
}

// Close stops every window timer and clears the table. In-flight operations
// are unaffected. The throttler remains usable; all keys start clear.
func (t *Throttler[T]) Close() error {
	t.table.clear()
	return nil
}
