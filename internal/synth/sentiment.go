// Package synth turns a composite record into derived verdicts: sentiment,
// risk, and a technical summary. Everything here is pure and deterministic —
// no I/O, no clock, no randomness.
package synth

import (
	"stockintel/internal/models"
)

// Sentiment label thresholds on the composite score.
const (
	BullishThreshold = 20.0
	BearishThreshold = -20.0
)

// Sentiment combines the available fragments into one verdict. The composite
// score is the mean of fragment scores; a source that was unreachable simply
// has no fragment and is excluded from the mean. Fragments with zero evidence
// are still included — their score is a valid observation of genuinely
// neutral evidence. The mean of zero fragments is defined as 0, not NaN.
func Sentiment(fragments []models.SentimentFragment, maxHeadlines int) models.SentimentVerdict {
	verdict := models.SentimentVerdict{
		Label:     models.SentimentNeutral,
		Fragments: fragments,
	}

	if len(fragments) > 0 {
		sum := 0.0
		for _, f := range fragments {
			sum += f.Score
			verdict.TotalEvidence += f.Evidence
		}
		verdict.Score = sum / float64(len(fragments))
	}

	switch {
	case verdict.Score > BullishThreshold:
		verdict.Label = models.SentimentBullish
	case verdict.Score < BearishThreshold:
		verdict.Label = models.SentimentBearish
	}

	for _, f := range fragments {
		for _, h := range f.Headlines {
			if maxHeadlines > 0 && len(verdict.TopHeadlines) >= maxHeadlines {
				return verdict
			}
			verdict.TopHeadlines = append(verdict.TopHeadlines, h)
		}
	}

	return verdict
}
