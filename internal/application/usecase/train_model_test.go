package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confirmly/risk-engine/internal/application/usecase"
	"github.com/confirmly/risk-engine/internal/domain/event"
	"github.com/confirmly/risk-engine/internal/domain/model"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/ml"
)

type mockTrainingSource struct {
	orders []model.LabeledOrder
	err    error
	calls  int
}

func (m *mockTrainingSource) FetchLabeledOrders(_ context.Context) ([]model.LabeledOrder, error) {
	m.calls++
	return m.orders, m.err
}

type mockTracker struct {
	runID        string
	startErr     error
	metrics      map[string]float64
	modelTag     string
	ended        bool
	endSucceeded bool
}

func (m *mockTracker) StartRun(_ context.Context, _ string) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}
	return m.runID, nil
}

func (m *mockTracker) LogMetric(_ context.Context, _, key string, value float64) error {
	if m.metrics == nil {
		m.metrics = make(map[string]float64)
	}
	m.metrics[key] = value
	return nil
}

func (m *mockTracker) LogModel(_ context.Context, _, tag string) error {
	m.modelTag = tag
	return nil
}

func (m *mockTracker) EndRun(_ context.Context, _ string, succeeded bool) error {
	m.ended = true
	m.endSucceeded = succeeded
	return nil
}

// labeledOrders builds a separable corpus: confirmed orders are prepaid with
// full contact details, unconfirmed ones are sparse COD orders.
func labeledOrders(n int) []model.LabeledOrder {
	orders := make([]model.LabeledOrder, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			orders = append(orders, model.LabeledOrder{
				Order: model.Order{
					Amount:      decimal.NewFromInt(int64(200 + i)),
					Currency:    "INR",
					PaymentMode: model.PaymentModePrepaid,
					Customer: model.Customer{
						Name:    fmt.Sprintf("Customer %d", i),
						Address: "Full address",
						Pincode: "400001",
						Country: "IN",
					},
					Email:    fmt.Sprintf("c%d@example.com", i),
					Phone:    "9876543210",
					Platform: model.PlatformShopify,
				},
				Status: model.StatusConfirmed,
			})
			continue
		}
		orders = append(orders, model.LabeledOrder{
			Order: model.Order{
				Amount:      decimal.NewFromInt(int64(4000 + i)),
				Currency:    "INR",
				PaymentMode: model.PaymentModeCOD,
				Platform:    model.PlatformAPI,
			},
			Status: model.StatusCanceled,
		})
	}
	return orders
}

func trainConfig() usecase.TrainingConfig {
	return usecase.DefaultTrainingConfig("./models/risk_model.json")
}

func TestTrainModel_Execute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	extractor := service.NewFeatureExtractor()

	t.Run("trains, tracks and persists on a sufficient corpus", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(200)}
		store := &mockArtifactStore{}
		tracker := &mockTracker{runID: "run-123"}
		publisher := &mockPublisher{}

		uc := usecase.NewTrainModel(source, store, tracker, publisher, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.NoError(t, err)

		assert.Equal(t, usecase.OutcomeSuccess, report.Outcome)
		assert.Equal(t, 200, report.Samples)
		assert.Zero(t, report.Dropped)
		assert.Greater(t, report.TrainAccuracy, 0.9)
		assert.Greater(t, report.TestAccuracy, 0.9)
		assert.Equal(t, "run-123", report.RunID)
		assert.Equal(t, "./models/risk_model.json", report.ModelPath)

		assert.Equal(t, 1, store.saves)
		assert.Contains(t, tracker.metrics, "train_accuracy")
		assert.Contains(t, tracker.metrics, "test_accuracy")
		assert.Equal(t, ml.ModelTypeDepthwise, tracker.modelTag)
		assert.True(t, tracker.ended)
		assert.True(t, tracker.endSucceeded)

		require.Len(t, publisher.published, 1)
		trained, ok := publisher.published[0].(event.ModelTrained)
		require.True(t, ok)
		assert.Equal(t, "run-123", trained.RunID)
		assert.Equal(t, service.SchemaVersion, trained.SchemaVersion)
	})

	t.Run("output path overrides the configured path", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(200)}
		store := &mockArtifactStore{}

		uc := usecase.NewTrainModel(source, store, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeLeafwise, "/tmp/custom.json")
		require.NoError(t, err)

		assert.Equal(t, usecase.OutcomeSuccess, report.Outcome)
		assert.Equal(t, "/tmp/custom.json", report.ModelPath)
		assert.Equal(t, "/tmp/custom.json", store.savedPath)
	})

	t.Run("skips below the minimum sample count without saving", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(40)}
		store := &mockArtifactStore{}

		uc := usecase.NewTrainModel(source, store, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.NoError(t, err)

		assert.Equal(t, usecase.OutcomeSkipped, report.Outcome)
		assert.Equal(t, 40, report.Samples)
		assert.Zero(t, store.saves)
	})

	t.Run("rejects an unknown model type before touching the source", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(200)}

		uc := usecase.NewTrainModel(source, &mockArtifactStore{}, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), "randomforest", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ml.ErrUnsupportedModelType)
		assert.Equal(t, usecase.OutcomeFailed, report.Outcome)
		assert.Zero(t, source.calls)
	})

	t.Run("source failure fails the run", func(t *testing.T) {
		source := &mockTrainingSource{err: errors.New("mongo down")}

		uc := usecase.NewTrainModel(source, &mockArtifactStore{}, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.Error(t, err)
		assert.Equal(t, usecase.OutcomeFailed, report.Outcome)
	})

	t.Run("save failure fails the run", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(200)}
		store := &mockArtifactStore{
			saveFunc: func(_ context.Context, _ port.Classifier, _ port.FeatureScaler, _ string) error {
				return errors.New("disk full")
			},
		}

		uc := usecase.NewTrainModel(source, store, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.Error(t, err)
		assert.Equal(t, usecase.OutcomeFailed, report.Outcome)
	})

	t.Run("rows the extractor rejects are dropped and counted", func(t *testing.T) {
		orders := labeledOrders(200)
		orders[3].Order.Amount = decimal.NewFromInt(-1)
		source := &mockTrainingSource{orders: orders}
		store := &mockArtifactStore{}

		uc := usecase.NewTrainModel(source, store, &mockTracker{}, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.NoError(t, err)

		assert.Equal(t, usecase.OutcomeSuccess, report.Outcome)
		assert.Equal(t, 199, report.Samples)
		assert.Equal(t, 1, report.Dropped)
	})

	t.Run("tracker failure degrades to an empty run id", func(t *testing.T) {
		source := &mockTrainingSource{orders: labeledOrders(200)}
		tracker := &mockTracker{startErr: errors.New("mlflow down")}

		uc := usecase.NewTrainModel(source, &mockArtifactStore{}, tracker, &mockPublisher{}, extractor, logger, trainConfig())

		report, err := uc.Execute(context.Background(), ml.ModelTypeDepthwise, "")
		require.NoError(t, err)

		assert.Equal(t, usecase.OutcomeSuccess, report.Outcome)
		assert.Empty(t, report.RunID)
	})
}
