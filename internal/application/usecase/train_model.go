package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/confirmly/risk-engine/internal/domain/event"
	"github.com/confirmly/risk-engine/internal/domain/model"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/ml"
)

// Outcome is the terminal state of a training run. Skipped is a distinct
// outcome, not an error: callers must be able to tell "nothing to train on"
// apart from "training crashed".
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// TrainingConfig are the pipeline knobs. Defaults reproduce a run exactly:
// the split seed is fixed and the scaler is fit on the train split only.
type TrainingConfig struct {
	MinSamples         int
	TestFraction       float64
	ValidationFraction float64
	Seed               int64
	ModelPath          string
}

// DefaultTrainingConfig returns the standard pipeline configuration.
func DefaultTrainingConfig(modelPath string) TrainingConfig {
	return TrainingConfig{
		MinSamples:         100,
		TestFraction:       0.2,
		ValidationFraction: 0.1,
		Seed:               42,
		ModelPath:          modelPath,
	}
}

// Report summarizes a finished training run.
type Report struct {
	Outcome       Outcome
	ModelType     string
	Samples       int
	Dropped       int
	TrainAccuracy float64
	TestAccuracy  float64
	RunID         string
	ModelPath     string
}

// TrainModel is the offline batch use case: extract labeled history, build
// the feature matrix, split and scale, fit with early stopping, evaluate,
// log to the experiment tracker, and persist the artifact pair. It is
// single-flight; concurrent runs against the same output path must be
// serialized externally.
type TrainModel struct {
	source    port.TrainingDataSource
	store     port.ArtifactStore
	tracker   port.ExperimentTracker
	publisher port.EventPublisher
	extractor *service.FeatureExtractor
	logger    *slog.Logger
	cfg       TrainingConfig
}

// NewTrainModel wires the training pipeline.
func NewTrainModel(
	source port.TrainingDataSource,
	store port.ArtifactStore,
	tracker port.ExperimentTracker,
	publisher port.EventPublisher,
	extractor *service.FeatureExtractor,
	logger *slog.Logger,
	cfg TrainingConfig,
) *TrainModel {
	return &TrainModel{
		source:    source,
		store:     store,
		tracker:   tracker,
		publisher: publisher,
		extractor: extractor,
		logger:    logger,
		cfg:       cfg,
	}
}

// Execute runs the pipeline for the given model type. An unsupported model
// type is rejected before any data is touched. outputPath overrides the
// configured model path when non-empty.
func (uc *TrainModel) Execute(ctx context.Context, modelType, outputPath string) (Report, error) {
	classifier, err := ml.NewClassifier(modelType)
	if err != nil {
		return Report{Outcome: OutcomeFailed, ModelType: modelType}, err
	}

	modelPath := uc.cfg.ModelPath
	if outputPath != "" {
		modelPath = outputPath
	}
	report := Report{Outcome: OutcomeFailed, ModelType: modelType, ModelPath: modelPath}

	uc.logger.Info("extracting training data")
	orders, err := uc.source.FetchLabeledOrders(ctx)
	if err != nil {
		return report, fmt.Errorf("extracting training data: %w", err)
	}

	X, y, dropped := uc.buildMatrix(orders)
	report.Samples = len(X)
	report.Dropped = dropped
	uc.logger.Info("extracted samples", "count", len(X), "dropped", dropped)

	if len(X) < uc.cfg.MinSamples {
		uc.logger.Warn("insufficient training data, skipping run",
			"samples", len(X), "min_samples", uc.cfg.MinSamples)
		report.Outcome = OutcomeSkipped
		return report, nil
	}

	trainX, testX, trainY, testY := ml.StratifiedSplit(X, y, uc.cfg.TestFraction, uc.cfg.Seed)

	scaler := ml.NewStandardScaler()
	scaler.Fit(trainX)
	trainScaled := scaler.TransformBatch(trainX)
	testScaled := scaler.TransformBatch(testX)

	// Early stopping validates on a slice carved from the training split so
	// the held-out test split never leaks into fitting.
	fitX, valX, fitY, valY := ml.StratifiedSplit(trainScaled, trainY, uc.cfg.ValidationFraction, uc.cfg.Seed)

	uc.logger.Info("fitting model", "model_type", modelType,
		"train_samples", len(fitX), "validation_samples", len(valX))
	if err := classifier.Fit(fitX, fitY, valX, valY); err != nil {
		return report, fmt.Errorf("fitting %s model: %w", modelType, err)
	}

	report.TrainAccuracy = classifier.Score(trainScaled, trainY)
	report.TestAccuracy = classifier.Score(testScaled, testY)
	uc.logger.Info("model evaluated",
		"train_accuracy", report.TrainAccuracy,
		"test_accuracy", report.TestAccuracy,
		"rounds", len(classifier.Trees))

	report.RunID = uc.track(ctx, modelType, report)

	if err := uc.store.Save(ctx, classifier, scaler, modelPath); err != nil {
		return report, fmt.Errorf("persisting artifacts: %w", err)
	}
	uc.logger.Info("artifacts persisted", "model_path", modelPath)

	trained := event.NewModelTrained(report.RunID, modelType, modelPath, service.SchemaVersion, report.TestAccuracy)
	if err := uc.publisher.Publish(ctx, trained); err != nil {
		uc.logger.Warn("failed to publish model trained event", "error", err)
	}

	report.Outcome = OutcomeSuccess
	return report, nil
}

// buildMatrix extracts features for every labeled order, mapping status to
// the binary label. Rows the extractor rejects are dropped and counted.
func (uc *TrainModel) buildMatrix(orders []model.LabeledOrder) (X [][]float64, y []int, dropped int) {
	for _, labeled := range orders {
		features, err := uc.extractor.Extract(labeled.Order)
		if err != nil {
			dropped++
			continue
		}
		label := 0
		if labeled.Status == model.StatusConfirmed {
			label = 1
		}
		X = append(X, features.Values())
		y = append(y, label)
	}
	return X, y, dropped
}

// track logs run metrics and the model reference to the experiment tracker.
// Tracking failures degrade to warnings; they do not fail a run that has a
// perfectly good model to persist.
func (uc *TrainModel) track(ctx context.Context, modelType string, report Report) string {
	runID, err := uc.tracker.StartRun(ctx, "risk-"+modelType)
	if err != nil {
		uc.logger.Warn("failed to start tracking run", "error", err)
		return ""
	}
	if err := uc.tracker.LogMetric(ctx, runID, "train_accuracy", report.TrainAccuracy); err != nil {
		uc.logger.Warn("failed to log metric", "metric", "train_accuracy", "error", err)
	}
	if err := uc.tracker.LogMetric(ctx, runID, "test_accuracy", report.TestAccuracy); err != nil {
		uc.logger.Warn("failed to log metric", "metric", "test_accuracy", "error", err)
	}
	if err := uc.tracker.LogModel(ctx, runID, modelType); err != nil {
		uc.logger.Warn("failed to log model", "error", err)
	}
	if err := uc.tracker.EndRun(ctx, runID, true); err != nil {
		uc.logger.Warn("failed to end tracking run", "error", err)
	}
	return runID
}
