package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/confirmly/risk-engine/internal/application/dto"
	"github.com/confirmly/risk-engine/internal/domain/port"
)

// OrderScorer is the slice of the scoring use case the handler needs.
type OrderScorer interface {
	Execute(ctx context.Context, req dto.ScoreOrderRequest) (dto.ScoreResponse, error)
}

// ArtifactReloader re-reads model artifacts from disk.
type ArtifactReloader interface {
	Reload(ctx context.Context) *port.Artifacts
}

// ScoreHandler serves the scoring and model management endpoints.
type ScoreHandler struct {
	scorer   OrderScorer
	reloader ArtifactReloader
	logger   *slog.Logger
}

// NewScoreHandler creates the handler.
func NewScoreHandler(scorer OrderScorer, reloader ArtifactReloader, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scorer: scorer, reloader: reloader, logger: logger}
}

// Score handles POST /score.
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.scorer.Execute(r.Context(), req)
	if err != nil {
		h.logger.Error("scoring failed",
			slog.String("error", err.Error()),
			slog.String("request_id", RequestIDFrom(r.Context())),
		)
		writeError(w, r, http.StatusInternalServerError, "scoring failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ReloadModel handles POST /model/reload. It swaps in whatever is currently
// on disk and reports the resulting artifact status.
func (h *ScoreHandler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	artifacts := h.reloader.Reload(r.Context())

	h.logger.Info("model reloaded",
		slog.String("status", string(artifacts.Status)),
		slog.String("path", artifacts.Path),
		slog.String("request_id", RequestIDFrom(r.Context())),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":        string(artifacts.Status),
		"reason":        artifacts.Reason,
		"schemaVersion": artifacts.SchemaVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":     message,
		"requestId": RequestIDFrom(r.Context()),
	})
}
