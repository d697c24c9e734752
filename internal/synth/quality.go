package synth

import (
	"stockintel/internal/models"
)

// PointsPerSource is the completeness credit per contributing provider.
const PointsPerSource = 20

// DataQuality builds the completeness record for a report. The score is
// min(20 × contributing sources, 100) — a completeness heuristic counting
// providers, NOT a confidence interval, and it must not be read as one.
func DataQuality(sources, missing, warnings []string) models.DataQuality {
	score := PointsPerSource * len(sources)
	if score > 100 {
		score = 100
	}

	return models.DataQuality{
		Sources:        sources,
		MissingSources: missing,
		Score:          score,
		Warnings:       warnings,
	}
}

// Range52 computes the 52-week range view from the current price and the
// provider-reported bounds. Returns nil when either bound is absent.
func Range52(current float64, high, low *float64) *models.Range52Week {
	if high == nil || low == nil || *high <= 0 || *low <= 0 || current <= 0 {
		return nil
	}

	return &models.Range52Week{
		High:        *high,
		Low:         *low,
		FromHighPct: (current - *high) / *high * 100,
		FromLowPct:  (current - *low) / *low * 100,
	}
}
