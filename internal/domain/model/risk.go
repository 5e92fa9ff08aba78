package model

// Risk bands for a 0-100 risk score, used by callers to gate cash-on-delivery.
const (
	RiskBandLow    = "low"
	RiskBandMedium = "medium"
	RiskBandHigh   = "high"
)

// RiskBandFromScore buckets a risk score: low < 40, medium < 70, high >= 70.
func RiskBandFromScore(score float64) string {
	switch {
	case score < 40:
		return RiskBandLow
	case score < 70:
		return RiskBandMedium
	default:
		return RiskBandHigh
	}
}

// ClampScore bounds a risk score to the [0, 100] contract.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
