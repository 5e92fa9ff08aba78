package rest

import (
	"net/http"
	"time"

	"github.com/confirmly/risk-engine/internal/domain/port"
)

const serviceName = "risk-engine"

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	artifacts port.ArtifactStore
	startTime time.Time
}

// NewHealthHandler creates a health handler backed by the artifact store.
func NewHealthHandler(artifacts port.ArtifactStore) *HealthHandler {
	return &HealthHandler{
		artifacts: artifacts,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON body for liveness checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON body for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).String(),
	})
}

// Readyz handles readiness probe requests. The service is ready as long as
// artifacts are resolvable; a fallback model still serves traffic, so it is
// reported without failing the probe.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	artifacts := h.artifacts.Load(r.Context())

	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status:  "ready",
		Service: serviceName,
		Checks: map[string]string{
			"model": string(artifacts.Status),
		},
	})
}
