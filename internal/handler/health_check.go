package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flutterfocus/timedops/internal/hook"
	"go.uber.org/zap"
)

type HealthCheckHandler struct {
	service *hook.Service
	logger  *zap.Logger
	started time.Time
}

func NewHealthCheckHandler(service *hook.Service, logger *zap.Logger) *HealthCheckHandler {
	return &HealthCheckHandler{
		service: service,
		logger:  logger,
		started: time.Now(),
	}
}

// HealthCheck returns a health check handler
func (h *HealthCheckHandler) HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status": hook.HealthStatusHealthy,
			"time":   time.Now().Format(time.RFC3339),
			"uptime": time.Since(h.started).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := h.service.Ping(r.Context()); err != nil {
			status["status"] = hook.HealthStatusUnhealthy
			status["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(status)
	}
}

// Ping verifies the service can accept triggers, for non-HTTP health checks.
func (h *HealthCheckHandler) Ping(ctx context.Context) error {
	return h.service.Ping(ctx)
}
