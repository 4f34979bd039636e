package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the bot's runtime status for the dashboard.
type StatusHandler struct {
	mode      string
	policy    string
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode, policy string, startedAt time.Time) *StatusHandler {
	return &StatusHandler{mode: mode, policy: policy, startedAt: startedAt}
}

// GetStatus responds with the current mode, selector policy, and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":            h.mode,
		"selector_policy": h.policy,
		"uptime_seconds":  int64(time.Since(h.startedAt).Seconds()),
	})
}
