package ml

import "math"

// StandardScaler normalizes columns to zero mean and unit variance using
// statistics fit once on the training split. Exported fields make the fitted
// statistics serializable alongside the model they belong to.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation. Zero-variance columns
// get a unit deviation so transformation stays defined.
func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for _, row := range X {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
}

// Transform returns the normalized copy of one vector. An unfitted scaler
// passes values through unchanged.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(s.Mean) != len(x) {
		copy(out, x)
		return out
	}
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformBatch transforms each row independently.
func (s *StandardScaler) TransformBatch(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}

// IdentityScaler passes vectors through untouched. It is the scaler half of
// the fallback artifact pair.
type IdentityScaler struct{}

// Fit is a no-op.
func (IdentityScaler) Fit(_ [][]float64) {}

// Transform returns an unmodified copy.
func (IdentityScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}

// TransformBatch returns unmodified copies.
func (s IdentityScaler) TransformBatch(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
