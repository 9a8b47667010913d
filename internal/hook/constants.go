package hook

import "errors"

// Delivery modes
const (
	ModeDebounce = "debounce"
	ModeThrottle = "throttle"
)

// Health status constants
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// Validation error messages
const (
	ErrModeRequired     = "mode is required"
	ErrInvalidMode      = "invalid mode: %s"
	ErrTargetRequired   = "target_url is required"
	ErrInvalidTarget    = "target_url must be an absolute http(s) URL"
	ErrRuleNotFoundMsg  = "rule not found"
	ErrServiceClosedMsg = "service is closed"
)

// Custom error types
var (
	ErrRuleNotFound  = errors.New(ErrRuleNotFoundMsg)
	ErrServiceClosed = errors.New(ErrServiceClosedMsg)
)
