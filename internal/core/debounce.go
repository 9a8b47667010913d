package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Debouncer delays the operation behind a key until a quiet period elapses
// with no new call for that key.
//
// Every call cancels and replaces the key's pending timer, so only the most
// recent call made within any quiet period ever executes. Superseded calls are
// discarded before their operation is invoked and fire no callback at all.
type Debouncer[T any] struct {
	table  *timerTable
	quiet  time.Duration
	logger *zap.Logger
}

// NewDebouncer creates a debouncer with the given default quiet period.
// A non-positive duration falls back to DefaultQuiet. The logger may be nil.
func NewDebouncer[T any](quiet time.Duration, logger *zap.Logger) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer[T]{
		table:  newTimerTable(),
		quiet:  quiet,
		logger: logger,
	}
}

// Run schedules op to execute after the quiet period, replacing any pending
// call for the same key. When the timer fires the operation is dispatched
// inline in the timer's goroutine: classified, routed to exactly one callback,
// and the key's table entry removed.
//
// ctx must outlive the quiet period; canceling it before the timer fires
// prevents the pending operation from executing, same as supersession.
func (d *Debouncer[T]) Run(ctx context.Context, callID string, op Operation[T], cb Callbacks[T], opts ...CallOption) {
	cfg := resolveCall(0, d.quiet, opts)
	d.schedule(ctx, callID, cfg.quiet, func(fireCtx context.Context) {
		Dispatch(fireCtx, op, cb)
	})
}

// RunAsync schedules op like Run, but the eventual execution goes through the
// asynchronous dispatcher: OnWaiting can be signaled and WithTimeout bounds
// how long the fired operation may stay pending.
func (d *Debouncer[T]) RunAsync(ctx context.Context, callID string, op Operation[T], cb Callbacks[T], opts ...CallOption) {
	cfg := resolveCall(0, d.quiet, opts)
	d.schedule(ctx, callID, cfg.quiet, func(fireCtx context.Context) {
		DispatchAsync(fireCtx, cfg.timeout, op, cb)
	})
}

// schedule installs a fresh timer entry for the key, canceling any pending
// one. Two guards keep a superseded operation from ever running: the
// identity-checked table removal, and the per-entry context which is canceled
// the moment the entry is replaced.
func (d *Debouncer[T]) schedule(ctx context.Context, callID string, quiet time.Duration, fire func(context.Context)) {
	fireCtx, cancel := context.WithCancel(ctx)
	e := &timerEntry{firesAt: time.Now().Add(quiet), cancel: cancel}

	d.table.mu.Lock()
	defer d.table.mu.Unlock()
	if prev, ok := d.table.entries[callID]; ok {
		prev.timer.Stop()
		prev.cancel()
		d.logger.Debug("pending call superseded", zap.String("call_id", callID))
	}
	// The timer callback runs in its own goroutine, so starting it while the
	// lock is held cannot deadlock; removeIf simply waits its turn.
	e.timer = time.AfterFunc(quiet, func() {
		if !d.table.removeIf(callID, e) {
			return
		}
		if fireCtx.Err() != nil {
			return
		}
		fire(fireCtx)
	})
	d.table.entries[callID] = e
}

// Pending reports whether the key has a call waiting out its quiet period.
func (d *Debouncer[T]) Pending(callID string) bool {
	return d.table.pending(callID)
}

// Close cancels every pending call and clears the table. Canceled calls never
// execute and fire no callback. The debouncer remains usable.
func (d *Debouncer[T]) Close() error {
	d.table.clear()
	return nil
}
