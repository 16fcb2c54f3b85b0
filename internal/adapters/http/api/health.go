// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ReadinessProvider reports whether the process should receive traffic.
type ReadinessProvider interface {
	Ready() bool
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	readiness ReadinessProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(readiness ReadinessProvider) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// HandleLive handles GET /health/live. It succeeds whenever the process can
// answer, independent of readiness.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK)
}

// HandleReady handles GET /health/ready: 200 once ready, 503 before.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.readiness == nil || !h.readiness.Ready() {
		writeStatus(w, http.StatusServiceUnavailable)
		return
	}
	writeStatus(w, http.StatusOK)
}
