package hook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/flutterfocus/timedops/internal/hook"
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

// upstream is a recording httptest target for hook deliveries.
type upstream struct {
	mu       sync.Mutex
	bodies   []string
	status   int
	received chan string
	srv      *httptest.Server
}

func newUpstream(status int) *upstream {
	u := &upstream{status: status, received: make(chan string, 16)}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		body := string(buf)

		u.mu.Lock()
		u.bodies = append(u.bodies, body)
		u.mu.Unlock()
		u.received <- body

		w.WriteHeader(u.status)
		if u.status == http.StatusOK {
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	return u
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.bodies)
}

func newTestService(t *testing.T) *hook.Service {
	logger := newTestLogger(t)
	t.Cleanup(func() { _ = logger.Sync() })

	svc := hook.NewService(hook.Options{
		DefaultWait:   50 * time.Millisecond,
		ClientTimeout: 2 * time.Second,
	}, logger)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// waitForStats polls until cond holds for the key's stats or the deadline hits.
func waitForStats(t *testing.T, svc *hook.Service, key string, cond func(*hook.Stats) bool) *hook.Stats {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := svc.Stats(key)
		if err == nil && cond(st) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	st, _ := svc.Stats(key)
	t.Fatalf("stats condition never met, last stats: %+v", st)
	return nil
}

func TestServiceSetRule_Validation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name string
		rule *hook.Rule
	}{
		{"missing mode", &hook.Rule{TargetURL: "http://example.com"}},
		{"invalid mode", &hook.Rule{Mode: "queue", TargetURL: "http://example.com"}},
		{"missing target", &hook.Rule{Mode: hook.ModeDebounce}},
		{"relative target", &hook.Rule{Mode: hook.ModeDebounce, TargetURL: "/hooks"}},
		{"bad scheme", &hook.Rule{Mode: hook.ModeThrottle, TargetURL: "ftp://example.com"}},
	}

	for _, tc := range cases {
		if err := svc.SetRule("key", tc.rule); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestServiceTrigger_UnknownKey(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Trigger(context.Background(), "missing", []byte("{}")); err != hook.ErrRuleNotFound {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestServiceTrigger_DebounceCollapsesBurst(t *testing.T) {
	up := newUpstream(http.StatusOK)
	defer up.srv.Close()

	svc := newTestService(t)
	if err := svc.SetRule("typing", &hook.Rule{
		Mode:      hook.ModeDebounce,
		Wait:      60 * time.Millisecond,
		TargetURL: up.srv.URL,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for _, payload := range []string{"one", "two", "three"} {
		if _, err := svc.Trigger(ctx, "typing", []byte(payload)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(15 * time.Millisecond)
	}

	// Only the last payload of the burst may arrive upstream.
	select {
	case body := <-up.received:
		if body != "three" {
			t.Errorf("expected last payload to be delivered, got %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced delivery never arrived")
	}

	// Give any stray superseded delivery time to show up.
	time.Sleep(120 * time.Millisecond)
	if n := up.count(); n != 1 {
		t.Errorf("expected exactly 1 upstream delivery, got %d", n)
	}

	st := waitForStats(t, svc, "typing", func(s *hook.Stats) bool { return s.Delivered == 1 })
	if st.Suppressed != 0 {
		t.Errorf("debounce supersession must not count as suppression, got %d", st.Suppressed)
	}
}

func TestServiceTrigger_ThrottleSuppressesWithinWindow(t *testing.T) {
	up := newUpstream(http.StatusOK)
	defer up.srv.Close()

	svc := newTestService(t)
	if err := svc.SetRule("events", &hook.Rule{
		Mode:      hook.ModeThrottle,
		Wait:      time.Second,
		TargetURL: up.srv.URL,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Trigger(ctx, "events", []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Trigger(ctx, "events", []byte("second")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case body := <-up.received:
		if body != "first" {
			t.Errorf("expected the first payload to be delivered, got %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("throttled delivery never arrived")
	}

	st := waitForStats(t, svc, "events", func(s *hook.Stats) bool {
		return s.Delivered == 1 && s.Suppressed == 1
	})
	if up.count() != 1 {
		t.Errorf("expected exactly 1 upstream delivery, got %d", up.count())
	}
	if st.LastOutcome != "success" {
		t.Errorf("expected last outcome success, got %q", st.LastOutcome)
	}
}

func TestServiceTrigger_UpstreamErrorRecorded(t *testing.T) {
	up := newUpstream(http.StatusInternalServerError)
	defer up.srv.Close()

	svc := newTestService(t)
	if err := svc.SetRule("failing", &hook.Rule{
		Mode:      hook.ModeThrottle,
		Wait:      10 * time.Millisecond,
		TargetURL: up.srv.URL,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Trigger(context.Background(), "failing", []byte("{}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := waitForStats(t, svc, "failing", func(s *hook.Stats) bool { return s.Errors == 1 })
	if st.Delivered != 0 {
		t.Errorf("failed delivery must not count as delivered, got %d", st.Delivered)
	}
	if st.LastOutcome != "error" {
		t.Errorf("expected last outcome error, got %q", st.LastOutcome)
	}
}

func TestServiceTrigger_NoContentRecordsNull(t *testing.T) {
	up := newUpstream(http.StatusNoContent)
	defer up.srv.Close()

	svc := newTestService(t)
	if err := svc.SetRule("silent", &hook.Rule{
		Mode:      hook.ModeThrottle,
		Wait:      10 * time.Millisecond,
		TargetURL: up.srv.URL,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Trigger(context.Background(), "silent", []byte("{}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := waitForStats(t, svc, "silent", func(s *hook.Stats) bool { return s.Nulls == 1 })
	if st.Delivered != 1 {
		t.Errorf("a 204 delivery still counts as delivered, got %d", st.Delivered)
	}
}

func TestServiceResetRule(t *testing.T) {
	svc := newTestService(t)

	rule := &hook.Rule{Mode: hook.ModeDebounce, TargetURL: "http://example.com/hook"}
	if err := svc.SetRule("key", rule); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ResetRule("key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Rule("key"); err != hook.ErrRuleNotFound {
		t.Errorf("expected ErrRuleNotFound after reset, got %v", err)
	}
	if err := svc.ResetRule("key"); err != hook.ErrRuleNotFound {
		t.Errorf("expected ErrRuleNotFound for double reset, got %v", err)
	}
}

func TestServiceClose_RejectsTriggers(t *testing.T) {
	logger := newTestLogger(t)
	defer logger.Sync()

	svc := hook.NewService(hook.Options{}, logger)
	if err := svc.SetRule("key", &hook.Rule{Mode: hook.ModeDebounce, TargetURL: "http://example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Ping(context.Background()); err != hook.ErrServiceClosed {
		t.Errorf("expected ErrServiceClosed from Ping, got %v", err)
	}
	if _, err := svc.Trigger(context.Background(), "key", nil); err != hook.ErrServiceClosed {
		t.Errorf("expected ErrServiceClosed from Trigger, got %v", err)
	}
}
