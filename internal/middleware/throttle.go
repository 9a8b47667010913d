package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/flutterfocus/timedops/internal/core"
	"go.uber.org/zap"
)

// ThrottleMiddleware returns an HTTP middleware that drops bursts of requests
// per client. Each client key gets a leading-edge cooldown window: the first
// request inside a window passes through, further requests are answered with
// 429 Too Many Requests until the window elapses.
//
// The client key is extracted using the provided keyExtractor function
// (e.g. IP address, user ID header).
func ThrottleMiddleware(window time.Duration, keyExtractor func(*http.Request) string, logger *zap.Logger) func(http.Handler) http.Handler {
	th := core.NewThrottler[struct{}](window, logger)
	retryAfter := strconv.Itoa(int(window.Seconds()) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)

			admitted := th.Run(r.Context(), key,
				func(context.Context) (struct{}, error) { return struct{}{}, nil },
				core.Callbacks[struct{}]{})

			if !admitted {
				logger.Debug("request throttled", zap.String("key", key))
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte("too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyExtractor extracts the client IP address from the request.
// It checks for X-Forwarded-For header first (for proxied requests),
// then falls back to RemoteAddr.
func IPKeyExtractor(r *http.Request) string {
	// Check for X-Forwarded-For header (set by proxies)
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		return forwardedFor
	}

	// Fall back to remote address
	return r.RemoteAddr
}

// UserIDKeyExtractor returns a key extractor that uses a custom header for user
// identification, falling back to the client IP when the header is absent.
func UserIDKeyExtractor(headerName string) func(*http.Request) string {
	return func(r *http.Request) string {
		if userID := r.Header.Get(headerName); userID != "" {
			return userID
		}
		return IPKeyExtractor(r)
	}
}

// PathKeyExtractor returns a key extractor that combines the request path with
// the IP, allowing different windows for different endpoints.
func PathKeyExtractor(r *http.Request) string {
	return r.RemoteAddr + ":" + r.URL.Path
}
