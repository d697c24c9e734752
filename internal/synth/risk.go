package synth

import (
	"fmt"
	"math"

	"stockintel/internal/models"
)

// Risk factor weights. These are preserved heuristics from the product, not
// empirically tuned values — treat them as configuration, not domain truth.
const (
	WeightVolatility = 0.25
	WeightLiquidity  = 0.20
	WeightMarketCap  = 0.25
	WeightNews       = 0.15
	WeightTechnical  = 0.15
)

// Market-cap tier cutoffs in dollars.
const (
	MicroCapCutoff = 300e6
	SmallCapCutoff = 2e9
	MidCapCutoff   = 10e9
)

// Risk computes the weighted risk score from five factors, each normalized
// to 0-100 before weighting. A factor whose inputs are absent contributes
// zero; the gap is reported separately so the aggregated report can surface
// it as a data-quality warning rather than a risk warning. Warnings are
// deterministic: exactly one per triggered threshold.
func Risk(rec *models.CompositeRecord, sentimentScore float64) (models.RiskAssessment, []string) {
	var factors models.RiskFactors
	var warnings []string
	var gaps []string

	quote := rec.Quote

	// Volatility: min(10 × intraday-range-percent, 100)
	if quote != nil && quote.High != nil && quote.Low != nil && *quote.Low > 0 {
		rangePct := (*quote.High - *quote.Low) / *quote.Low * 100
		factors.Volatility = math.Min(10*rangePct, 100)
		if factors.Volatility >= 50 {
			warnings = append(warnings, fmt.Sprintf("High intraday volatility (%.1f%% range)", rangePct))
		}
	} else {
		gaps = append(gaps, "Intraday range unavailable - volatility factor contributes zero")
	}

	// Liquidity, inverted: low relative volume = high risk. A volume exactly
	// at half the average is not strictly below it and scores 40, not 80.
	if quote != nil && quote.Volume != nil && quote.AvgVolume != nil && *quote.AvgVolume > 0 {
		ratio := float64(*quote.Volume) / float64(*quote.AvgVolume)
		switch {
		case ratio < 0.5:
			factors.Liquidity = 80
			warnings = append(warnings, "Volume under half of average - thin liquidity")
		case ratio < 1.0:
			factors.Liquidity = 40
			warnings = append(warnings, "Volume below average")
		default:
			factors.Liquidity = 20
		}
	} else {
		gaps = append(gaps, "Volume data unavailable - liquidity factor contributes zero")
	}

	// Market-cap tier
	if rec.Fundamentals != nil && rec.Fundamentals.MarketCap != nil {
		mc := *rec.Fundamentals.MarketCap
		switch {
		case mc < MicroCapCutoff:
			factors.MarketCap = 90
			warnings = append(warnings, "Micro-cap - elevated volatility and failure risk")
		case mc < SmallCapCutoff:
			factors.MarketCap = 60
			warnings = append(warnings, "Small-cap - above-average volatility risk")
		case mc < MidCapCutoff:
			factors.MarketCap = 40
		default:
			factors.MarketCap = 20
		}
	} else {
		gaps = append(gaps, "Market cap unavailable - market-cap factor contributes zero")
	}

	// News volatility: magnitude of the composite sentiment, direction-blind
	factors.News = math.Min(math.Abs(sentimentScore), 100)
	if factors.News >= 50 {
		warnings = append(warnings, "Strong sentiment swing - headline-driven price risk")
	}

	// Technical extremity from RSI
	if rec.Technicals != nil && rec.Technicals.RSI != nil {
		rsi := *rec.Technicals.RSI
		switch {
		case rsi > 70:
			factors.Technical = 70
			warnings = append(warnings, fmt.Sprintf("RSI overbought (%.1f)", rsi))
		case rsi < 30:
			factors.Technical = 50
			warnings = append(warnings, fmt.Sprintf("RSI oversold (%.1f)", rsi))
		default:
			factors.Technical = 20
		}
	} else {
		gaps = append(gaps, "RSI unavailable - technical factor contributes zero")
	}

	weighted := factors.Volatility*WeightVolatility +
		factors.Liquidity*WeightLiquidity +
		factors.MarketCap*WeightMarketCap +
		factors.News*WeightNews +
		factors.Technical*WeightTechnical

	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.RiskAssessment{
		Score:    score,
		Level:    riskLevel(score),
		Factors:  factors,
		Warnings: warnings,
	}, gaps
}

// riskLevel maps a 0-100 score to its band. Bounds are inclusive on the
// upper edge of each band: a score of exactly 20 is LOW.
func riskLevel(score int) models.RiskLevel {
	switch {
	case score <= 20:
		return models.RiskLow
	case score <= 40:
		return models.RiskModerate
	case score <= 60:
		return models.RiskHigh
	case score <= 80:
		return models.RiskVeryHigh
	default:
		return models.RiskExtreme
	}
}
