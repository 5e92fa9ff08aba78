package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/ml"
)

// FileStore implements port.ArtifactStore on two co-located JSON files per
// version: the model envelope and its scaler envelope. The current pair is
// held behind an atomic pointer so readers in flight during a Reload see
// either the old or the new pair, never a partially initialized one.
type FileStore struct {
	modelPath     string
	schemaVersion string
	logger        *slog.Logger

	current atomic.Pointer[port.Artifacts]
	loadMu  sync.Mutex
}

// NewFileStore creates a store for the given model path. schemaVersion is
// the feature schema the serving path extracts under; artifacts fit under a
// different schema are rejected at load.
func NewFileStore(modelPath, schemaVersion string, logger *slog.Logger) *FileStore {
	return &FileStore{modelPath: modelPath, schemaVersion: schemaVersion, logger: logger}
}

// ScalerPath derives the scaler file path from a model path by suffix
// substitution: risk_model.json -> risk_model_scaler.json.
func ScalerPath(modelPath string) string {
	if strings.HasSuffix(modelPath, ".json") {
		return strings.TrimSuffix(modelPath, ".json") + "_scaler.json"
	}
	return modelPath + "_scaler"
}

type modelEnvelope struct {
	SchemaVersion string               `json:"schema_version"`
	ModelType     string               `json:"model_type"`
	SavedAt       time.Time            `json:"saved_at"`
	Model         *ml.GradientBoosting `json:"model"`
}

type scalerEnvelope struct {
	SchemaVersion string             `json:"schema_version"`
	SavedAt       time.Time          `json:"saved_at"`
	Scaler        *ml.StandardScaler `json:"scaler"`
}

// Load returns the current artifact pair, loading from disk on first use.
func (s *FileStore) Load(ctx context.Context) *port.Artifacts {
	if current := s.current.Load(); current != nil {
		return current
	}
	return s.Reload(ctx)
}

// Reload discards any cached pair, re-runs the load policy, and swaps the
// result in atomically.
func (s *FileStore) Reload(_ context.Context) *port.Artifacts {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	artifacts := s.loadFromDisk()
	s.current.Store(artifacts)
	return artifacts
}

// Save persists a matched model/scaler pair under the path convention. Both
// files are written to temp names and renamed so a crash mid-save cannot
// leave a half-written artifact where serving will find it.
func (s *FileStore) Save(_ context.Context, mdl port.Classifier, scaler port.FeatureScaler, path string) error {
	boosted, ok := mdl.(*ml.GradientBoosting)
	if !ok {
		return fmt.Errorf("unsupported model implementation %T", mdl)
	}
	standard, ok := scaler.(*ml.StandardScaler)
	if !ok {
		return fmt.Errorf("unsupported scaler implementation %T", scaler)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	now := time.Now().UTC()
	if err := writeJSON(path, modelEnvelope{
		SchemaVersion: s.schemaVersion,
		ModelType:     string(boosted.Growth),
		SavedAt:       now,
		Model:         boosted,
	}); err != nil {
		return fmt.Errorf("writing model artifact: %w", err)
	}
	if err := writeJSON(ScalerPath(path), scalerEnvelope{
		SchemaVersion: s.schemaVersion,
		SavedAt:       now,
		Scaler:        standard,
	}); err != nil {
		return fmt.Errorf("writing scaler artifact: %w", err)
	}
	return nil
}

func (s *FileStore) loadFromDisk() *port.Artifacts {
	modelBytes, err := os.ReadFile(s.modelPath)
	if err != nil {
		return s.fallback(fmt.Sprintf("model artifact unreadable: %v", err))
	}
	var mdl modelEnvelope
	if err := json.Unmarshal(modelBytes, &mdl); err != nil || mdl.Model == nil {
		return s.fallback(fmt.Sprintf("model artifact corrupt: %v", err))
	}

	scalerBytes, err := os.ReadFile(ScalerPath(s.modelPath))
	if err != nil {
		return s.fallback(fmt.Sprintf("scaler artifact unreadable: %v", err))
	}
	var scl scalerEnvelope
	if err := json.Unmarshal(scalerBytes, &scl); err != nil || scl.Scaler == nil {
		return s.fallback(fmt.Sprintf("scaler artifact corrupt: %v", err))
	}

	// The pair must match each other and the serving schema; scaler
	// statistics from a different model version must never be applied.
	if mdl.SchemaVersion != scl.SchemaVersion {
		return s.fallback(fmt.Sprintf("artifact pair mismatch: model schema %s, scaler schema %s",
			mdl.SchemaVersion, scl.SchemaVersion))
	}
	if mdl.SchemaVersion != s.schemaVersion {
		return s.fallback(fmt.Sprintf("artifact schema %s does not match serving schema %s",
			mdl.SchemaVersion, s.schemaVersion))
	}

	s.logger.Info("artifacts loaded",
		"model_path", s.modelPath,
		"model_type", mdl.ModelType,
		"schema_version", mdl.SchemaVersion)
	return &port.Artifacts{
		Model:         mdl.Model,
		Scaler:        scl.Scaler,
		Status:        port.ArtifactLoaded,
		SchemaVersion: mdl.SchemaVersion,
		Path:          s.modelPath,
	}
}

// fallback builds the untrained baseline pair. The substitution is loud on
// purpose: a fallback serving constant scores in production is a correctness
// hazard the operator must be able to detect.
func (s *FileStore) fallback(reason string) *port.Artifacts {
	s.logger.Warn("substituting fallback artifacts", "reason", reason, "model_path", s.modelPath)
	return &port.Artifacts{
		Model:         ml.FallbackClassifier{},
		Scaler:        ml.IdentityScaler{},
		Status:        port.ArtifactFallback,
		Reason:        reason,
		SchemaVersion: s.schemaVersion,
		Path:          s.modelPath,
	}
}

func writeJSON(path string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
