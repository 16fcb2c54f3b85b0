package api

import (
	"net/http"

	"github.com/okian/hearth/pkg/metrics"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	manager *metrics.Manager
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(manager *metrics.Manager) *MetricsHandler {
	return &MetricsHandler{manager: manager}
}

// HandleMetrics handles GET /metrics. A resource collection pass runs
// synchronously before the registry is serialized.
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.manager.Collect()
	h.manager.Handler().ServeHTTP(w, r)
}
