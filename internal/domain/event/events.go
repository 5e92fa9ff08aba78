package event

import (
	"time"

	"github.com/google/uuid"
)

// OrderScored is emitted after a successful online scoring pass (cache hits
// do not re-emit).
type OrderScored struct {
	EventID     uuid.UUID `json:"event_id"`
	Fingerprint string    `json:"fingerprint"`
	RiskScore   float64   `json:"risk_score"`
	RiskBand    string    `json:"risk_band"`
	ModelStatus string    `json:"model_status"`
	ScoredAt    time.Time `json:"scored_at"`
}

// NewOrderScored creates an OrderScored event.
func NewOrderScored(fingerprint string, riskScore float64, riskBand, modelStatus string) OrderScored {
	return OrderScored{
		EventID:     uuid.New(),
		Fingerprint: fingerprint,
		RiskScore:   riskScore,
		RiskBand:    riskBand,
		ModelStatus: modelStatus,
		ScoredAt:    time.Now().UTC(),
	}
}

// EventType returns the canonical event name.
func (e OrderScored) EventType() string { return "risk.order.scored" }

// ModelTrained is emitted when a training run persists a new artifact pair.
// Serving instances can react by reloading their artifacts.
type ModelTrained struct {
	EventID       uuid.UUID `json:"event_id"`
	RunID         string    `json:"run_id"`
	ModelType     string    `json:"model_type"`
	ModelPath     string    `json:"model_path"`
	SchemaVersion string    `json:"schema_version"`
	TestAccuracy  float64   `json:"test_accuracy"`
	TrainedAt     time.Time `json:"trained_at"`
}

// NewModelTrained creates a ModelTrained event.
func NewModelTrained(runID, modelType, modelPath, schemaVersion string, testAccuracy float64) ModelTrained {
	return ModelTrained{
		EventID:       uuid.New(),
		RunID:         runID,
		ModelType:     modelType,
		ModelPath:     modelPath,
		SchemaVersion: schemaVersion,
		TestAccuracy:  testAccuracy,
		TrainedAt:     time.Now().UTC(),
	}
}

// EventType returns the canonical event name.
func (e ModelTrained) EventType() string { return "risk.model.trained" }
