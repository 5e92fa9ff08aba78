package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/confirmly/risk-engine/internal/application/usecase"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/infrastructure/artifact"
	"github.com/confirmly/risk-engine/internal/infrastructure/config"
	"github.com/confirmly/risk-engine/internal/infrastructure/messaging"
	infmongo "github.com/confirmly/risk-engine/internal/infrastructure/mongo"
	"github.com/confirmly/risk-engine/internal/infrastructure/tracking"
	"github.com/confirmly/risk-engine/internal/ml"
	"github.com/confirmly/risk-engine/internal/observability"
)

const (
	exitOK      = 0
	exitSkipped = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	modelType := flag.String("model", ml.ModelTypeDepthwise, "model type: depthwise or leafwise")
	output := flag.String("output", "", "model output path (defaults to MODEL_PATH)")
	flag.Parse()

	if *modelType != ml.ModelTypeDepthwise && *modelType != ml.ModelTypeLeafwise {
		fmt.Fprintf(os.Stderr, "unknown model type %q\n", *modelType)
		flag.Usage()
		return exitUsage
	}

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: "json",
	})
	slog.SetDefault(logger)

	logger.Info("starting training run",
		"model_type", *modelType,
		"mongo_uri", cfg.MongoURI,
	)

	ctx := context.Background()

	// Connect to MongoDB.
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		return exitSkipped
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongodb disconnect error", "error", err)
		}
	}()

	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Error("mongodb ping failed", "error", err)
		return exitSkipped
	}
	logger.Info("connected to mongodb")

	// Wire the pipeline.
	source := infmongo.NewOrderSource(client.Database("confirmly"), logger)
	store := artifact.NewFileStore(cfg.ModelPath, service.SchemaVersion, logger)
	extractor := service.NewFeatureExtractor()

	var tracker port.ExperimentTracker
	if cfg.MLflowTrackingURI != "" {
		tracker = tracking.NewMLflowTracker(cfg.MLflowTrackingURI, cfg.MLflowExperimentName, logger)
	} else {
		logger.Info("no tracking server configured, experiment tracking disabled")
		tracker = tracking.NoopTracker{}
	}

	var publisher port.EventPublisher
	if cfg.KafkaBroker != "" {
		kafkaPublisher := messaging.NewKafkaPublisher([]string{cfg.KafkaBroker}, cfg.EventTopic, logger)
		defer func() { _ = kafkaPublisher.Close() }() //nolint:errcheck
		publisher = kafkaPublisher
	} else {
		publisher = messaging.NoopPublisher{}
	}

	trainCfg := usecase.DefaultTrainingConfig(cfg.ModelPath)

	pipeline := usecase.NewTrainModel(source, store, tracker, publisher, extractor, logger, trainCfg)

	report, err := pipeline.Execute(ctx, *modelType, *output)
	if err != nil {
		if errors.Is(err, ml.ErrUnsupportedModelType) {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
		logger.Error("training failed", "error", err, "outcome", string(report.Outcome))
		return exitSkipped
	}

	if report.Outcome == usecase.OutcomeSkipped {
		logger.Warn("training skipped",
			"samples", report.Samples,
			"min_samples", trainCfg.MinSamples,
		)
		return exitSkipped
	}

	logger.Info("training complete",
		"model_type", report.ModelType,
		"samples", report.Samples,
		"train_accuracy", report.TrainAccuracy,
		"test_accuracy", report.TestAccuracy,
		"model_path", report.ModelPath,
		"run_id", report.RunID,
	)
	return exitOK
}
