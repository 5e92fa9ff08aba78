package port

import (
	"context"
	"time"

	"github.com/confirmly/risk-engine/internal/domain/model"
)

// ResultCache defines the caching port. It is a pure side-effect accelerator:
// implementations must degrade any backing-store failure to a miss and never
// surface errors to the scoring path.
type ResultCache interface {
	// Get returns the cached flat value for a key, or ok=false on miss or on
	// any backing-store failure.
	Get(ctx context.Context, key string) (value map[string]float64, ok bool)

	// Set stores a flat value under a key with the given TTL. Failures are
	// absorbed by the implementation.
	Set(ctx context.Context, key string, value map[string]float64, ttl time.Duration)
}

// Classifier is the capability set the training pipeline and scoring service
// require of a model, independent of which boosting family implements it.
type Classifier interface {
	// Fit trains on X/y, using evalX/evalY as the held-out validation split
	// for the patience-bounded early-stopping rule.
	Fit(X [][]float64, y []int, evalX [][]float64, evalY []int) error

	// PredictProba returns class probabilities for one scaled feature vector,
	// ordered (P(unconfirmed), P(confirmed)) when two classes are known.
	PredictProba(x []float64) []float64

	// Classes reports how many distinct classes the model knows about. An
	// untrained or degenerate model may report fewer than two.
	Classes() int

	// Score returns accuracy on a labeled set.
	Score(X [][]float64, y []int) float64
}

// FeatureScaler normalizes raw feature vectors using statistics fit once at
// training time. A scaler must only ever be applied alongside the model it
// was fit with.
type FeatureScaler interface {
	Fit(X [][]float64)
	Transform(x []float64) []float64
	TransformBatch(X [][]float64) [][]float64
}

// ArtifactStatus tags where a served artifact pair came from.
type ArtifactStatus string

const (
	// ArtifactLoaded means a trained pair was deserialized from storage.
	ArtifactLoaded ArtifactStatus = "loaded"
	// ArtifactFallback means the untrained baseline pair was substituted.
	ArtifactFallback ArtifactStatus = "fallback"
)

// Artifacts is a matched model/scaler pair plus its provenance. The pair is
// immutable once constructed; retraining produces a new pair that replaces
// the reference atomically.
type Artifacts struct {
	Model         Classifier
	Scaler        FeatureScaler
	Status        ArtifactStatus
	Reason        string // populated when Status is ArtifactFallback
	SchemaVersion string
	Path          string
}

// ArtifactStore loads and saves trained artifact pairs. Load never fails:
// when no valid pair exists it substitutes the fallback pair, tagged as such,
// so the service stays available with degraded scores.
type ArtifactStore interface {
	// Load returns the current artifact pair, lazily loading on first use.
	Load(ctx context.Context) *Artifacts

	// Reload discards the cached pair and re-runs the load policy, enabling
	// zero-downtime model updates.
	Reload(ctx context.Context) *Artifacts

	// Save persists a matched pair under the path convention so serving can
	// locate both deterministically.
	Save(ctx context.Context, mdl Classifier, scaler FeatureScaler, path string) error
}

// TrainingDataSource supplies historical orders with resolved outcomes.
type TrainingDataSource interface {
	FetchLabeledOrders(ctx context.Context) ([]model.LabeledOrder, error)
}

// ExperimentTracker is the narrow run-scoped tracking interface the pipeline
// logs metrics and models to. The tracking server is external configuration.
type ExperimentTracker interface {
	StartRun(ctx context.Context, runName string) (runID string, err error)
	LogMetric(ctx context.Context, runID, key string, value float64) error
	LogModel(ctx context.Context, runID, tag string) error
	EndRun(ctx context.Context, runID string, succeeded bool) error
}

// EventPublisher publishes domain events to the messaging infrastructure.
type EventPublisher interface {
	Publish(ctx context.Context, events ...any) error
}
