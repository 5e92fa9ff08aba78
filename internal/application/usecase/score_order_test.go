package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confirmly/risk-engine/internal/application/dto"
	"github.com/confirmly/risk-engine/internal/application/usecase"
	"github.com/confirmly/risk-engine/internal/domain/model"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/ml"
	"github.com/confirmly/risk-engine/internal/observability"
)

// --- Mock implementations ---

type mockCache struct {
	entries map[string]map[string]float64
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]map[string]float64)}
}

func (m *mockCache) Get(_ context.Context, key string) (map[string]float64, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *mockCache) Set(_ context.Context, key string, value map[string]float64, _ time.Duration) {
	m.sets++
	m.entries[key] = value
}

type stubModel struct {
	proba    []float64
	predicts int
}

func (s *stubModel) Fit(_ [][]float64, _ []int, _ [][]float64, _ []int) error { return nil }

func (s *stubModel) PredictProba(_ []float64) []float64 {
	s.predicts++
	return s.proba
}

func (s *stubModel) Classes() int { return len(s.proba) }

func (s *stubModel) Score(_ [][]float64, _ []int) float64 { return 0 }

type mockArtifactStore struct {
	artifacts *port.Artifacts
	loads     int
	saves     int
	savedPath string
	saveFunc  func(ctx context.Context, mdl port.Classifier, scaler port.FeatureScaler, path string) error
}

func (m *mockArtifactStore) Load(_ context.Context) *port.Artifacts {
	m.loads++
	return m.artifacts
}

func (m *mockArtifactStore) Reload(_ context.Context) *port.Artifacts { return m.artifacts }

func (m *mockArtifactStore) Save(ctx context.Context, mdl port.Classifier, scaler port.FeatureScaler, path string) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, mdl, scaler, path)
	}
	m.saves++
	m.savedPath = path
	return nil
}

type mockPublisher struct {
	published   []any
	publishFunc func(ctx context.Context, events ...any) error
}

func (m *mockPublisher) Publish(ctx context.Context, events ...any) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, events...)
	}
	m.published = append(m.published, events...)
	return nil
}

// --- Tests ---

func testMetrics() *observability.ScoringMetrics {
	return observability.NewScoringMetrics(prometheus.NewRegistry())
}

func scoreRequest() dto.ScoreOrderRequest {
	return dto.ScoreOrderRequest{
		Amount:      decimal.NewFromInt(1200),
		Currency:    "INR",
		PaymentMode: model.PaymentModeCOD,
		Customer: dto.CustomerPayload{
			Name:    "Test User",
			Pincode: "400001",
			Country: "IN",
		},
		Email:    "a@b.com",
		Phone:    "9876543210",
		Platform: model.PlatformShopify,
	}
}

func loadedArtifacts(mdl port.Classifier) *port.Artifacts {
	return &port.Artifacts{
		Model:         mdl,
		Scaler:        ml.IdentityScaler{},
		Status:        port.ArtifactLoaded,
		SchemaVersion: service.SchemaVersion,
	}
}

func TestScoreOrder_Execute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("scores with a loaded model and caches the result", func(t *testing.T) {
		cache := newMockCache()
		mdl := &stubModel{proba: []float64{0.3, 0.7}}
		store := &mockArtifactStore{artifacts: loadedArtifacts(mdl)}
		publisher := &mockPublisher{}

		uc := usecase.NewScoreOrder(service.NewFeatureExtractor(), cache, store, publisher, testMetrics(), logger, time.Hour)

		resp, err := uc.Execute(context.Background(), scoreRequest())
		require.NoError(t, err)

		assert.InDelta(t, 30.0, resp.RiskScore, 1e-9)
		assert.Equal(t, usecase.PlaceholderConfidence, resp.Confidence)
		assert.Equal(t, model.RiskBandLow, resp.RiskBand)
		assert.Equal(t, string(port.ArtifactLoaded), resp.ModelStatus)

		req := scoreRequest()
		fingerprint := usecase.Fingerprint(req.Email, req.Phone, req.Amount)
		cached, ok := cache.Get(context.Background(), "score:"+fingerprint)
		require.True(t, ok)
		assert.InDelta(t, 30.0, cached["riskScore"], 1e-9)
		assert.InDelta(t, usecase.PlaceholderConfidence, cached["confidence"], 1e-9)

		require.Len(t, publisher.published, 1)
	})

	t.Run("cache hit skips inference and returns the cached pair", func(t *testing.T) {
		cache := newMockCache()
		req := scoreRequest()
		fingerprint := usecase.Fingerprint(req.Email, req.Phone, req.Amount)
		cache.entries["score:"+fingerprint] = map[string]float64{
			"riskScore":  82.5,
			"confidence": 0.8,
		}

		mdl := &stubModel{proba: []float64{0.9, 0.1}}
		store := &mockArtifactStore{artifacts: loadedArtifacts(mdl)}
		publisher := &mockPublisher{}

		uc := usecase.NewScoreOrder(service.NewFeatureExtractor(), cache, store, publisher, testMetrics(), logger, time.Hour)

		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)

		assert.InDelta(t, 82.5, resp.RiskScore, 1e-9)
		assert.Equal(t, model.RiskBandHigh, resp.RiskBand)
		assert.Equal(t, "cached", resp.ModelStatus)
		assert.Zero(t, mdl.predicts)
		assert.Zero(t, store.loads)
		assert.Empty(t, publisher.published)
	})

	t.Run("fallback artifacts yield the neutral score", func(t *testing.T) {
		cache := newMockCache()
		store := &mockArtifactStore{artifacts: &port.Artifacts{
			Model:         &ml.FallbackClassifier{},
			Scaler:        ml.IdentityScaler{},
			Status:        port.ArtifactFallback,
			Reason:        "no artifacts on disk",
			SchemaVersion: service.SchemaVersion,
		}}

		uc := usecase.NewScoreOrder(service.NewFeatureExtractor(), cache, store, &mockPublisher{}, testMetrics(), logger, time.Hour)

		resp, err := uc.Execute(context.Background(), scoreRequest())
		require.NoError(t, err)

		assert.Equal(t, usecase.NeutralRiskScore, resp.RiskScore)
		assert.Equal(t, usecase.PlaceholderConfidence, resp.Confidence)
		assert.Equal(t, model.RiskBandMedium, resp.RiskBand)
		assert.Equal(t, string(port.ArtifactFallback), resp.ModelStatus)
	})

	t.Run("extraction failure does not populate the cache", func(t *testing.T) {
		cache := newMockCache()
		store := &mockArtifactStore{artifacts: loadedArtifacts(&stubModel{proba: []float64{0.5, 0.5}})}

		req := scoreRequest()
		req.Amount = decimal.NewFromInt(-10)

		uc := usecase.NewScoreOrder(service.NewFeatureExtractor(), cache, store, &mockPublisher{}, testMetrics(), logger, time.Hour)

		_, err := uc.Execute(context.Background(), req)
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrNegativeAmount)
		assert.Zero(t, cache.sets)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		cache := newMockCache()
		store := &mockArtifactStore{artifacts: loadedArtifacts(&stubModel{proba: []float64{0.4, 0.6}})}
		publisher := &mockPublisher{
			publishFunc: func(_ context.Context, _ ...any) error {
				return errors.New("broker down")
			},
		}

		uc := usecase.NewScoreOrder(service.NewFeatureExtractor(), cache, store, publisher, testMetrics(), logger, time.Hour)

		resp, err := uc.Execute(context.Background(), scoreRequest())
		require.NoError(t, err)
		assert.InDelta(t, 40.0, resp.RiskScore, 1e-9)
	})

	t.Run("reuses a cached feature vector", func(t *testing.T) {
		cache := newMockCache()
		extractor := service.NewFeatureExtractor()

		req := scoreRequest()
		fingerprint := usecase.Fingerprint(req.Email, req.Phone, req.Amount)
		features, err := extractor.Extract(req.ToOrder())
		require.NoError(t, err)
		cache.entries["features:"+fingerprint] = features.Map()

		mdl := &stubModel{proba: []float64{0.2, 0.8}}
		store := &mockArtifactStore{artifacts: loadedArtifacts(mdl)}

		uc := usecase.NewScoreOrder(extractor, cache, store, &mockPublisher{}, testMetrics(), logger, time.Hour)

		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.InDelta(t, 20.0, resp.RiskScore, 1e-9)
		assert.Equal(t, 1, mdl.predicts)
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("is stable for identical inputs", func(t *testing.T) {
		a := usecase.Fingerprint("a@b.com", "9876543210", decimal.NewFromInt(100))
		b := usecase.Fingerprint("a@b.com", "9876543210", decimal.NewFromInt(100))
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("differs when any field differs", func(t *testing.T) {
		base := usecase.Fingerprint("a@b.com", "9876543210", decimal.NewFromInt(100))
		assert.NotEqual(t, base, usecase.Fingerprint("x@b.com", "9876543210", decimal.NewFromInt(100)))
		assert.NotEqual(t, base, usecase.Fingerprint("a@b.com", "9876543211", decimal.NewFromInt(100)))
		assert.NotEqual(t, base, usecase.Fingerprint("a@b.com", "9876543210", decimal.NewFromInt(101)))
	})

	t.Run("field boundaries cannot collide", func(t *testing.T) {
		// Concatenation "ab"+"c" vs "a"+"bc" must hash differently.
		a := usecase.Fingerprint("ab", "c", decimal.NewFromInt(1))
		b := usecase.Fingerprint("a", "bc", decimal.NewFromInt(1))
		assert.NotEqual(t, a, b)
	})
}
