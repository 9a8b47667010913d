package core_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flutterfocus/timedops/internal/core"
	"go.uber.org/zap"
)

// newTestLogger creates a test logger with minimal output
func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func TestClassify_ErrorTakesPrecedence(t *testing.T) {
	// Even with a result that would classify as null, a non-nil error wins.
	out := core.Classify[[]int](nil, errors.New("boom"))
	if out.Kind != core.OutcomeError {
		t.Errorf("expected error outcome, got %s", out.Kind)
	}
	if out.Err == nil {
		t.Errorf("expected error to be carried in the outcome")
	}
}

func TestClassify_Null(t *testing.T) {
	var p *int
	if out := core.Classify(p, nil); out.Kind != core.OutcomeNull {
		t.Errorf("nil pointer: expected null, got %s", out.Kind)
	}
	var m map[string]int
	if out := core.Classify(m, nil); out.Kind != core.OutcomeNull {
		t.Errorf("nil map: expected null, got %s", out.Kind)
	}
	var s []string
	if out := core.Classify(s, nil); out.Kind != core.OutcomeNull {
		t.Errorf("nil slice: expected null, got %s", out.Kind)
	}
}

func TestClassify_Empty(t *testing.T) {
	if out := core.Classify([]int{}, nil); out.Kind != core.OutcomeEmpty {
		t.Errorf("empty slice: expected empty, got %s", out.Kind)
	}
	if out := core.Classify("", nil); out.Kind != core.OutcomeEmpty {
		t.Errorf("empty string: expected empty, got %s", out.Kind)
	}
	if out := core.Classify(map[string]int{}, nil); out.Kind != core.OutcomeEmpty {
		t.Errorf("empty map: expected empty, got %s", out.Kind)
	}
}

func TestClassify_Success(t *testing.T) {
	out := core.Classify(42, nil)
	if out.Kind != core.OutcomeSuccess {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if out.Value != 42 {
		t.Errorf("expected value 42, got %d", out.Value)
	}

	// Scalar zero values are still successes, not null or empty.
	if out := core.Classify(0, nil); out.Kind != core.OutcomeSuccess {
		t.Errorf("zero int: expected success, got %s", out.Kind)
	}
	if out := core.Classify(struct{}{}, nil); out.Kind != core.OutcomeSuccess {
		t.Errorf("empty struct: expected success, got %s", out.Kind)
	}
}

func TestDispatch_ExactlyOneCallback(t *testing.T) {
	var fired int32
	cb := core.Callbacks[string]{
		OnSuccess: func(string) { atomic.AddInt32(&fired, 1) },
		OnError:   func(error) { atomic.AddInt32(&fired, 1) },
		OnNull:    func() { atomic.AddInt32(&fired, 1) },
		OnEmpty:   func() { atomic.AddInt32(&fired, 1) },
		OnTimeout: func() { atomic.AddInt32(&fired, 1) },
	}

	out := core.Dispatch(context.Background(), func(context.Context) (string, error) {
		return "result", nil
	}, cb)

	if out.Kind != core.OutcomeSuccess {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expected exactly 1 callback, got %d", got)
	}
}

func TestDispatch_NilCallbacksAreNoOps(t *testing.T) {
	// An error with no OnError supplied must be silently dropped, not panic.
	out := core.Dispatch(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("dropped")
	}, core.Callbacks[int]{})

	if out.Kind != core.OutcomeError {
		t.Errorf("expected error outcome, got %s", out.Kind)
	}
}

func TestDispatchAsync_Timeout(t *testing.T) {
	timedOut := make(chan struct{})
	var succeeded int32

	cb := core.Callbacks[int]{
		OnSuccess: func(int) { atomic.AddInt32(&succeeded, 1) },
		OnTimeout: func() { close(timedOut) },
	}

	task := core.DispatchAsync(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(2 * time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, cb)

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("OnTimeout never fired")
	}

	<-task.Done()
	if task.Outcome().Kind != core.OutcomeTimeout {
		t.Errorf("expected timeout outcome, got %s", task.Outcome().Kind)
	}
	if atomic.LoadInt32(&succeeded) != 0 {
		t.Errorf("OnSuccess fired for a timed-out operation")
	}
}

func TestDispatchAsync_WaitingBeforeCompletion(t *testing.T) {
	order := make(chan string, 2)
	cb := core.Callbacks[int]{
		OnWaiting: func() { order <- "waiting" },
		OnSuccess: func(int) { order <- "success" },
	}

	task := core.DispatchAsync(context.Background(), 0, func(ctx context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 7, nil
	}, cb)

	<-task.Done()
	if first := <-order; first != "waiting" {
		t.Errorf("expected waiting to be signaled first, got %q", first)
	}
	if second := <-order; second != "success" {
		t.Errorf("expected success after waiting, got %q", second)
	}
	if out := task.Outcome(); out.Kind != core.OutcomeSuccess || out.Value != 7 {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestDispatchAsync_CancelRoutesError(t *testing.T) {
	errCh := make(chan error, 1)
	cb := core.Callbacks[int]{
		OnSuccess: func(int) { t.Error("OnSuccess fired for a canceled operation") },
		OnError:   func(err error) { errCh <- err },
	}

	task := core.DispatchAsync(context.Background(), 0, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, cb)

	task.Cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnError never fired after cancel")
	}
	<-task.Done()
}

func TestTask_OutcomeBeforeDoneIsWaiting(t *testing.T) {
	release := make(chan struct{})
	task := core.DispatchAsync(context.Background(), 0, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}, core.Callbacks[int]{OnSuccess: func(int) {}})

	if task.Outcome().Kind != core.OutcomeWaiting {
		t.Errorf("expected waiting before completion, got %s", task.Outcome().Kind)
	}

	close(release)
	out, err := task.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != core.OutcomeSuccess {
		t.Errorf("expected success after completion, got %s", out.Kind)
	}
}
