package core

import "time"

const (
	// DefaultWindow is the throttle cooldown used when none is configured.
	DefaultWindow = time.Second
	// DefaultQuiet is the debounce quiet period used when none is configured.
	DefaultQuiet = time.Second
)

// callConfig carries the per-call overrides resolved by the controllers.
type callConfig struct {
	window  time.Duration
	quiet   time.Duration
	timeout time.Duration
}

// CallOption overrides a single call's timing parameters.
type CallOption func(*callConfig)

// WithWindow sets the throttle cooldown window for one call. Non-positive
// values are ignored.
func WithWindow(d time.Duration) CallOption {
	return func(c *callConfig) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithQuiet sets the debounce quiet period for one call. Non-positive values
// are ignored.
func WithQuiet(d time.Duration) CallOption {
	return func(c *callConfig) {
		if d > 0 {
			c.quiet = d
		}
	}
}

// WithTimeout bounds how long an asynchronous dispatch may stay pending before
// OnTimeout fires. Zero means no timeout. Synchronous dispatch ignores it.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func resolveCall(window, quiet time.Duration, opts []CallOption) callConfig {
	cfg := callConfig{window: window, quiet: quiet}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
