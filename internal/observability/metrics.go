package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for the /metrics endpoint.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	return provider, promhttp.Handler(), nil
}

// Scoring request outcomes used as metric label values.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeScored   = "scored"
	OutcomeFailed   = "failed"
)

// ScoringMetrics are the scoring-path collectors. FallbackActive in
// particular is the operator's signal that a fallback artifact is silently
// producing non-informative scores in production.
type ScoringMetrics struct {
	Requests       *prometheus.CounterVec
	FallbackServed prometheus.Counter
	FallbackActive prometheus.Gauge
}

// NewScoringMetrics registers the scoring collectors with the given registry.
func NewScoringMetrics(reg prometheus.Registerer) *ScoringMetrics {
	factory := promauto.With(reg)
	return &ScoringMetrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_scoring_requests_total",
			Help: "Scoring requests by outcome.",
		}, []string{"outcome"}),
		FallbackServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_scoring_fallback_served_total",
			Help: "Scores produced by the fallback artifact pair.",
		}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_fallback_active",
			Help: "1 when the serving artifacts are the untrained fallback pair.",
		}),
	}
}
