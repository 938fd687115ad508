package handlers

import (
	"net/http"
	"time"

	"trendwatch/internal/core"
)

// HealthHandler reports service liveness and the registered features
type HealthHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       *core.Database
	version  string
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(logger *core.Logger, registry *core.Registry, db *core.Database, version string) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		registry: registry,
		db:       db,
		version:  version,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string               `json:"status"`
	Service  string               `json:"service"`
	Version  string               `json:"version"`
	Database string               `json:"database,omitempty"`
	Features []core.FeatureStatus `json:"features"`
}

// HealthCheckHandler provides a health check endpoint
func (h *HealthHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Service:  "trendwatch",
		Version:  h.version,
		Features: h.registry.GetFeatureStatus(),
	}

	status := http.StatusOK
	if h.db != nil {
		resp.Database = "ok"
		if err := h.db.PingWithTimeout(2 * time.Second); err != nil {
			h.logger.WithContext(r.Context()).Error("Database health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	core.WriteJSON(w, status, resp)
}
