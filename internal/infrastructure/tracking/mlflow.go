package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MLflowTracker implements port.ExperimentTracker against the MLflow REST
// API. Only the narrow run-scoped surface the pipeline needs is wired:
// experiment lookup/creation, run creation, metric logging, a model tag, and
// run termination.
type MLflowTracker struct {
	baseURL    string
	experiment string
	client     *http.Client
	logger     *slog.Logger
}

// NewMLflowTracker creates a tracker for the named experiment on the given
// tracking server.
func NewMLflowTracker(trackingURI, experiment string, logger *slog.Logger) *MLflowTracker {
	return &MLflowTracker{
		baseURL:    strings.TrimRight(trackingURI, "/"),
		experiment: experiment,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// StartRun resolves (or creates) the experiment and opens a run in it.
func (t *MLflowTracker) StartRun(ctx context.Context, runName string) (string, error) {
	experimentID, err := t.experimentID(ctx)
	if err != nil {
		return "", err
	}

	var resp struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	err = t.post(ctx, "/api/2.0/mlflow/runs/create", map[string]any{
		"experiment_id": experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return resp.Run.Info.RunID, nil
}

// LogMetric records one metric value on a run.
func (t *MLflowTracker) LogMetric(ctx context.Context, runID, key string, value float64) error {
	return t.post(ctx, "/api/2.0/mlflow/runs/log-metric", map[string]any{
		"run_id":    runID,
		"key":       key,
		"value":     value,
		"timestamp": time.Now().UnixMilli(),
		"step":      0,
	}, nil)
}

// LogModel tags the run with the persisted model reference.
func (t *MLflowTracker) LogModel(ctx context.Context, runID, tag string) error {
	return t.post(ctx, "/api/2.0/mlflow/runs/set-tag", map[string]any{
		"run_id": runID,
		"key":    "model",
		"value":  tag,
	}, nil)
}

// EndRun terminates a run with FINISHED or FAILED status.
func (t *MLflowTracker) EndRun(ctx context.Context, runID string, succeeded bool) error {
	status := "FINISHED"
	if !succeeded {
		status = "FAILED"
	}
	return t.post(ctx, "/api/2.0/mlflow/runs/update", map[string]any{
		"run_id":   runID,
		"status":   status,
		"end_time": time.Now().UnixMilli(),
	}, nil)
}

// experimentID fetches the experiment by name, creating it when absent.
func (t *MLflowTracker) experimentID(ctx context.Context) (string, error) {
	endpoint := t.baseURL + "/api/2.0/mlflow/experiments/get-by-name?experiment_name=" +
		url.QueryEscape(t.experiment)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("looking up experiment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var body struct {
			Experiment struct {
				ExperimentID string `json:"experiment_id"`
			} `json:"experiment"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("decoding experiment: %w", err)
		}
		return body.Experiment.ExperimentID, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	err = t.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]any{
		"name": t.experiment,
	}, &created)
	if err != nil {
		return "", fmt.Errorf("creating experiment: %w", err)
	}
	return created.ExperimentID, nil
}

func (t *MLflowTracker) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mlflow %s returned %d: %s", path, resp.StatusCode, string(detail))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NoopTracker discards all tracking calls, for deployments without a
// tracking server configured.
type NoopTracker struct{}

// StartRun returns an empty run ID.
func (NoopTracker) StartRun(_ context.Context, _ string) (string, error) { return "", nil }

// LogMetric discards the metric.
func (NoopTracker) LogMetric(_ context.Context, _, _ string, _ float64) error { return nil }

// LogModel discards the tag.
func (NoopTracker) LogModel(_ context.Context, _, _ string) error { return nil }

// EndRun does nothing.
func (NoopTracker) EndRun(_ context.Context, _ string, _ bool) error { return nil }
