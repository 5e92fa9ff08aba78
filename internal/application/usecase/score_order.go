package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/confirmly/risk-engine/internal/application/dto"
	"github.com/confirmly/risk-engine/internal/domain/event"
	"github.com/confirmly/risk-engine/internal/domain/model"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/observability"
)

// PlaceholderConfidence is the fixed confidence returned with every fresh
// score. It is a known placeholder, not a model-derived quantity; turning it
// into one needs product guidance first.
const PlaceholderConfidence = 0.8

// NeutralRiskScore is returned when the model cannot distinguish classes.
const NeutralRiskScore = 50.0

const (
	scoreKeyPrefix   = "score:"
	featureKeyPrefix = "features:"
)

// ScoreOrder is the use case scoring a single order for RTO risk:
// fingerprint -> cache lookup -> feature extraction -> scale -> inference ->
// cache write-through. It is stateless per request and safe to call
// concurrently.
type ScoreOrder struct {
	extractor *service.FeatureExtractor
	cache     port.ResultCache
	artifacts port.ArtifactStore
	publisher port.EventPublisher
	metrics   *observability.ScoringMetrics
	logger    *slog.Logger
	cacheTTL  time.Duration
}

// NewScoreOrder wires the scoring use case from explicitly constructed
// collaborators; process-wide lifetime is the composition root's concern.
func NewScoreOrder(
	extractor *service.FeatureExtractor,
	cache port.ResultCache,
	artifacts port.ArtifactStore,
	publisher port.EventPublisher,
	metrics *observability.ScoringMetrics,
	logger *slog.Logger,
	cacheTTL time.Duration,
) *ScoreOrder {
	return &ScoreOrder{
		extractor: extractor,
		cache:     cache,
		artifacts: artifacts,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Execute scores one order. Any extraction or inference failure is reported
// as a scoring failure and never leaves a partial value in the cache.
func (uc *ScoreOrder) Execute(ctx context.Context, req dto.ScoreOrderRequest) (dto.ScoreResponse, error) {
	order := req.ToOrder()
	fingerprint := Fingerprint(order.Email, order.Phone, order.Amount)

	if cached, ok := uc.cache.Get(ctx, scoreKeyPrefix+fingerprint); ok {
		uc.metrics.Requests.WithLabelValues(observability.OutcomeCacheHit).Inc()
		score := cached["riskScore"]
		return dto.ScoreResponse{
			RiskScore:   score,
			Confidence:  cached["confidence"],
			RiskBand:    model.RiskBandFromScore(score),
			ModelStatus: "cached",
		}, nil
	}

	features, err := uc.lookupFeatures(ctx, fingerprint, order)
	if err != nil {
		uc.metrics.Requests.WithLabelValues(observability.OutcomeFailed).Inc()
		return dto.ScoreResponse{}, fmt.Errorf("scoring order: %w", err)
	}

	artifacts := uc.artifacts.Load(ctx)
	if artifacts.Status == port.ArtifactFallback {
		uc.metrics.FallbackActive.Set(1)
		uc.metrics.FallbackServed.Inc()
	} else {
		uc.metrics.FallbackActive.Set(0)
	}

	scaled := artifacts.Scaler.Transform(features.Values())
	proba := artifacts.Model.PredictProba(scaled)

	riskScore := NeutralRiskScore
	if len(proba) > 1 {
		riskScore = model.ClampScore((1 - proba[1]) * 100)
	}

	result := dto.ScoreResponse{
		RiskScore:   riskScore,
		Confidence:  PlaceholderConfidence,
		RiskBand:    model.RiskBandFromScore(riskScore),
		ModelStatus: string(artifacts.Status),
	}

	uc.cache.Set(ctx, scoreKeyPrefix+fingerprint, map[string]float64{
		"riskScore":  result.RiskScore,
		"confidence": result.Confidence,
	}, uc.cacheTTL)

	uc.metrics.Requests.WithLabelValues(observability.OutcomeScored).Inc()

	scored := event.NewOrderScored(fingerprint, result.RiskScore, result.RiskBand, result.ModelStatus)
	if err := uc.publisher.Publish(ctx, scored); err != nil {
		uc.logger.Warn("failed to publish order scored event", "error", err)
	}

	return result, nil
}

// lookupFeatures reuses a cached feature vector for the fingerprint when one
// exists, otherwise extracts and caches it. Feature extraction is cheap; the
// cache entry mainly spares re-extraction for repeated near-miss requests.
func (uc *ScoreOrder) lookupFeatures(ctx context.Context, fingerprint string, order model.Order) (model.FeatureVector, error) {
	if cached, ok := uc.cache.Get(ctx, featureKeyPrefix+fingerprint); ok && len(cached) == uc.extractor.Schema().Len() {
		v := model.NewFeatureVector(uc.extractor.Schema())
		usable := true
		for name, value := range cached {
			// A name outside the schema means the entry predates a schema
			// change; fall through to fresh extraction.
			if err := v.Set(name, value); err != nil {
				usable = false
				break
			}
		}
		if usable {
			return v, nil
		}
	}

	features, err := uc.extractor.Extract(order)
	if err != nil {
		return model.FeatureVector{}, err
	}
	uc.cache.Set(ctx, featureKeyPrefix+fingerprint, features.Map(), uc.cacheTTL)
	return features, nil
}
