package ml

import "errors"

// FallbackClassifier is the untrained baseline substituted when no valid
// trained artifact can be loaded. It reports a single class, which the
// scoring layer maps to the neutral score, keeping the service available
// with degraded output instead of failing.
type FallbackClassifier struct{}

// Fit rejects training; the fallback exists only to serve.
func (FallbackClassifier) Fit(_ [][]float64, _ []int, _ [][]float64, _ []int) error {
	return errors.New("fallback classifier is not trainable")
}

// PredictProba returns a one-element distribution regardless of input.
func (FallbackClassifier) PredictProba(_ []float64) []float64 { return []float64{1} }

// Classes reports a single class.
func (FallbackClassifier) Classes() int { return 1 }

// Score is always zero; the fallback carries no learned signal.
func (FallbackClassifier) Score(_ [][]float64, _ []int) float64 { return 0 }
