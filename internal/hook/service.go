package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/flutterfocus/timedops/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rule configures delivery for one hook key.
type Rule struct {
	Mode      string        `json:"mode"`       // debounce or throttle
	Wait      time.Duration `json:"wait"`       // quiet period / cooldown window
	Timeout   time.Duration `json:"timeout"`    // async delivery timeout, 0 = none
	TargetURL string        `json:"target_url"` // upstream endpoint
}

// Stats accumulates per-key delivery counters.
type Stats struct {
	Delivered      int64     `json:"delivered"`
	Suppressed     int64     `json:"suppressed"`
	Errors         int64     `json:"errors"`
	Timeouts       int64     `json:"timeouts"`
	Nulls          int64     `json:"nulls"`
	Empties        int64     `json:"empties"`
	LastOutcome    string    `json:"last_outcome"`
	LastDeliveryID string    `json:"last_delivery_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Options configures a Service.
type Options struct {
	DefaultWait    time.Duration // used when a rule has Wait <= 0
	DefaultTimeout time.Duration // used when a rule has Timeout == 0
	ClientTimeout  time.Duration // upstream HTTP client timeout
	MaxBodyBytes   int64         // cap on upstream response bodies
}

// Service relays hook payloads to upstream endpoints, debouncing or throttling
// per key according to the registered rule. Burst triggers collapse into one
// delivery (debounce) or are dropped inside the cooldown window (throttle);
// each executed delivery's outcome is classified and folded into the key's
// stats.
type Service struct {
	mu    sync.RWMutex
	rules map[string]*Rule
	stats map[string]*Stats

	throttler *core.Throttler[[]byte]
	debouncer *core.Debouncer[[]byte]

	client       *http.Client
	maxBodyBytes int64
	defaultWait  time.Duration
	defaultTO    time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// NewService creates a hook relay service.
func NewService(opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultWait <= 0 {
		opts.DefaultWait = core.DefaultWindow
	}
	if opts.ClientTimeout <= 0 {
		opts.ClientTimeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		rules:        make(map[string]*Rule),
		stats:        make(map[string]*Stats),
		throttler:    core.NewThrottler[[]byte](opts.DefaultWait, logger),
		debouncer:    core.NewDebouncer[[]byte](opts.DefaultWait, logger),
		client:       &http.Client{Timeout: opts.ClientTimeout},
		maxBodyBytes: opts.MaxBodyBytes,
		defaultWait:  opts.DefaultWait,
		defaultTO:    opts.DefaultTimeout,
		baseCtx:      ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// ValidateRule checks a rule for contract violations.
func (s *Service) ValidateRule(r *Rule) error {
	if r.Mode == "" {
		return errors.New(ErrModeRequired)
	}
	if r.Mode != ModeDebounce && r.Mode != ModeThrottle {
		return fmt.Errorf(ErrInvalidMode, r.Mode)
	}
	if r.TargetURL == "" {
		return errors.New(ErrTargetRequired)
	}
	u, err := url.Parse(r.TargetURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New(ErrInvalidTarget)
	}
	return nil
}

// SetRule registers or replaces the rule for a key.
func (s *Service) SetRule(key string, r *Rule) error {
	if err := s.ValidateRule(r); err != nil {
		return err
	}
	if r.Wait <= 0 {
		r.Wait = s.defaultWait
	}
	if r.Timeout == 0 {
		r.Timeout = s.defaultTO
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[key] = r
	if _, ok := s.stats[key]; !ok {
		s.stats[key] = &Stats{}
	}
	s.logger.Info("hook rule set",
		zap.String("key", key),
		zap.String("mode", r.Mode),
		zap.Duration("wait", r.Wait),
		zap.String("target", r.TargetURL),
	)
	return nil
}

// Rule returns the rule registered for a key.
func (s *Service) Rule(key string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[key]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

// Stats returns a copy of the key's delivery counters.
func (s *Service) Stats(key string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[key]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *st
	return &cp, nil
}

// ResetRule removes the rule and stats for a key.
func (s *Service) ResetRule(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[key]; !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, key)
	delete(s.stats, key)
	s.logger.Info("hook rule reset", zap.String("key", key))
	return nil
}

// Trigger requests delivery of payload for the key. Depending on the key's
// rule the delivery is debounced (only the last payload of a burst is sent) or
// throttled (payloads inside the cooldown window are dropped). The returned
// delivery ID identifies this trigger in logs and stats; for debounced keys it
// belongs to the payload that will be delivered only if no newer trigger
// supersedes it.
func (s *Service) Trigger(ctx context.Context, key string, payload []byte) (string, error) {
	if s.baseCtx.Err() != nil {
		return "", ErrServiceClosed
	}

	rule, err := s.Rule(key)
	if err != nil {
		return "", err
	}

	deliveryID := uuid.NewString()
	op := s.deliveryOp(key, deliveryID, rule.TargetURL, payload)
	cb := s.callbacks(key, deliveryID)

	// Deliveries outlive the triggering request, so they run on the service's
	// own context rather than ctx.
	switch rule.Mode {
	case ModeThrottle:
		s.throttler.RunAsync(s.baseCtx, key, op, cb,
			core.WithWindow(rule.Wait), core.WithTimeout(rule.Timeout))
	case ModeDebounce:
		s.debouncer.RunAsync(s.baseCtx, key, op, cb,
			core.WithQuiet(rule.Wait), core.WithTimeout(rule.Timeout))
	default:
		return "", fmt.Errorf(ErrInvalidMode, rule.Mode)
	}

	return deliveryID, nil
}

// deliveryOp builds the operation that posts the payload upstream. A 204
// response classifies as null, an empty 2xx body as empty, a non-2xx status as
// an error.
func (s *Service) deliveryOp(key, deliveryID, target string, payload []byte) core.Operation[[]byte] {
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build upstream request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Delivery-ID", deliveryID)
		req.Header.Set("X-Hook-Key", key)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("deliver hook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read upstream response: %w", err)
		}
		return body, nil
	}
}

// callbacks builds the callback set that records the delivery outcome.
func (s *Service) callbacks(key, deliveryID string) core.Callbacks[[]byte] {
	return core.Callbacks[[]byte]{
		OnSuccess: func(body []byte) {
			s.record(key, deliveryID, core.OutcomeSuccess)
			s.logger.Info("hook delivered",
				zap.String("key", key),
				zap.String("delivery_id", deliveryID),
				zap.Int("response_bytes", len(body)),
			)
		},
		OnNull: func() {
			s.record(key, deliveryID, core.OutcomeNull)
			s.logger.Info("hook delivered, no content",
				zap.String("key", key), zap.String("delivery_id", deliveryID))
		},
		OnEmpty: func() {
			s.record(key, deliveryID, core.OutcomeEmpty)
			s.logger.Info("hook delivered, empty response",
				zap.String("key", key), zap.String("delivery_id", deliveryID))
		},
		OnError: func(err error) {
			s.record(key, deliveryID, core.OutcomeError)
			s.logger.Error("hook delivery failed",
				zap.String("key", key), zap.String("delivery_id", deliveryID), zap.Error(err))
		},
		OnTimeout: func() {
			s.record(key, deliveryID, core.OutcomeTimeout)
			s.logger.Warn("hook delivery timed out",
				zap.String("key", key), zap.String("delivery_id", deliveryID))
		},
		OnThrottle: func() {
			s.recordSuppressed(key)
			s.logger.Debug("hook trigger suppressed by cooldown",
				zap.String("key", key), zap.String("delivery_id", deliveryID))
		},
		OnWaiting: func() {
			s.logger.Debug("hook delivery in flight",
				zap.String("key", key), zap.String("delivery_id", deliveryID))
		},
	}
}

// record folds one outcome into the key's stats.
func (s *Service) record(key, deliveryID string, kind core.OutcomeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[key]
	if !ok {
		// Rule was reset while a delivery was in flight; nothing to update.
		return
	}

	switch kind {
	case core.OutcomeSuccess:
		st.Delivered++
	case core.OutcomeNull:
		st.Delivered++
		st.Nulls++
	case core.OutcomeEmpty:
		st.Delivered++
		st.Empties++
	case core.OutcomeError:
		st.Errors++
	case core.OutcomeTimeout:
		st.Timeouts++
	}
	st.LastOutcome = kind.String()
	st.LastDeliveryID = deliveryID
	st.UpdatedAt = time.Now()
}

// recordSuppressed counts a trigger dropped inside a throttle window.
func (s *Service) recordSuppressed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[key]; ok {
		st.Suppressed++
		st.UpdatedAt = time.Now()
	}
}

// Ping reports whether the service can accept triggers.
func (s *Service) Ping(ctx context.Context) error {
	if s.baseCtx.Err() != nil {
		return ErrServiceClosed
	}
	return nil
}

// Close cancels pending and in-flight deliveries and rejects further triggers.
func (s *Service) Close() error {
	s.cancel()
	s.debouncer.Close()
	s.throttler.Close()
	return nil
}
