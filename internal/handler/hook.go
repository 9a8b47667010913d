package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/flutterfocus/timedops/internal/hook"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetRequest represents a hook rule registration request
type SetRequest struct {
	Key  string     `json:"key"`
	Rule RuleConfig `json:"rule"`
}

// RuleConfig is the wire form of a hook rule
type RuleConfig struct {
	Mode      string `json:"mode"`       // debounce, throttle
	WaitMS    int64  `json:"wait_ms"`    // quiet period / cooldown window
	TimeoutMS int64  `json:"timeout_ms"` // async delivery timeout, 0 = none
	TargetURL string `json:"target_url"`
}

// TriggerResponse represents a trigger acknowledgement
type TriggerResponse struct {
	Key        string `json:"key"`
	DeliveryID string `json:"delivery_id"`
	Accepted   bool   `json:"accepted"`
}

// StatusResponse represents the status of a hook key
type StatusResponse struct {
	Key   string      `json:"key"`
	Rule  RuleConfig  `json:"rule"`
	Stats *hook.Stats `json:"stats"`
}

// HookHandler handles hook rule and trigger operations
type HookHandler struct {
	service *hook.Service
	logger  *zap.Logger
	maxBody int64
}

// NewHookHandler creates a new hook handler
func NewHookHandler(service *hook.Service, logger *zap.Logger) *HookHandler {
	return &HookHandler{
		service: service,
		logger:  logger,
		maxBody: 1 << 20,
	}
}

// Set handles POST /hooks/set - register or replace a hook rule
func (h *HookHandler) Set() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Key == "" {
			h.writeError(w, http.StatusBadRequest, "key is required")
			return
		}

		rule := &hook.Rule{
			Mode:      req.Rule.Mode,
			Wait:      time.Duration(req.Rule.WaitMS) * time.Millisecond,
			Timeout:   time.Duration(req.Rule.TimeoutMS) * time.Millisecond,
			TargetURL: req.Rule.TargetURL,
		}
		if err := h.service.SetRule(req.Key, rule); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.writeJSON(w, http.StatusOK, map[string]string{
			"message": "hook rule configured",
			"key":     req.Key,
		})
	}
}

// Trigger handles POST /hooks/trigger/{key} - request a delivery
func (h *HookHandler) Trigger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]

		payload, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "failed to read payload")
			return
		}

		deliveryID, err := h.service.Trigger(r.Context(), key, payload)
		if err != nil {
			if errors.Is(err, hook.ErrRuleNotFound) {
				h.writeError(w, http.StatusNotFound, err.Error())
				return
			}
			h.logger.Error("trigger failed", zap.String("key", key), zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		h.writeJSON(w, http.StatusAccepted, TriggerResponse{
			Key:        key,
			DeliveryID: deliveryID,
			Accepted:   true,
		})
	}
}

// Status handles GET /hooks/status/{key} - rule and delivery stats
func (h *HookHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]

		rule, err := h.service.Rule(key)
		if err != nil {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		stats, err := h.service.Stats(key)
		if err != nil {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}

		h.writeJSON(w, http.StatusOK, StatusResponse{
			Key: key,
			Rule: RuleConfig{
				Mode:      rule.Mode,
				WaitMS:    rule.Wait.Milliseconds(),
				TimeoutMS: rule.Timeout.Milliseconds(),
				TargetURL: rule.TargetURL,
			},
			Stats: stats,
		})
	}
}

// Reset handles DELETE /hooks/reset/{key} - remove a rule and its stats
func (h *HookHandler) Reset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]

		if err := h.service.ResetRule(key); err != nil {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}

		h.writeJSON(w, http.StatusOK, map[string]string{
			"message": "hook rule reset",
			"key":     key,
		})
	}
}

// writeJSON writes a JSON response
func (h *HookHandler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response
func (h *HookHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, map[string]string{"error": message})
}
