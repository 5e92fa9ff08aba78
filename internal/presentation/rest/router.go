package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter assembles the HTTP surface: probes and metrics stay open, the
// scoring and model endpoints sit behind API-key auth.
func NewRouter(score *ScoreHandler, health *HealthHandler, metrics http.Handler, apiKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover(logger))
	r.Use(Logging(logger))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(apiKey))
		r.Post("/score", score.Score)
		r.Post("/model/reload", score.ReloadModel)
	})

	return r
}
