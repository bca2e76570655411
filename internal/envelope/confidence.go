package envelope

import "archgraph/internal/confidence"

// ScoreToTier maps a 0..1 score to a tier using the same bands as
// connection confidence.
func ScoreToTier(score float64) ConfidenceTier {
	switch confidence.BandOf(score) {
	case confidence.BandHigh:
		return TierHigh
	case confidence.BandMedium:
		return TierMedium
	}
	return TierLow
}

// downgrade lowers a tier by one step.
func downgrade(t ConfidenceTier) ConfidenceTier {
	switch t {
	case TierHigh:
		return TierMedium
	case TierMedium:
		return TierLow
	}
	return t
}
