package synth

import (
	"fmt"

	"stockintel/internal/models"
)

// Technical summarizes the indicator set against the current price. Signals
// are emitted in a fixed order so the summary is reproducible regardless of
// which providers answered first.
func Technical(quote *models.Quote, ind *models.TechnicalIndicators) models.TechnicalSummary {
	summary := models.TechnicalSummary{Trend: models.TrendNeutral}
	if ind == nil {
		return summary
	}

	var price float64
	if quote != nil {
		price = quote.Current
	}

	if price > 0 && ind.SMA20 != nil && ind.SMA50 != nil && ind.SMA200 != nil {
		summary.Trend = determineTrend(price, *ind.SMA20, *ind.SMA50, *ind.SMA200)
		switch summary.Trend {
		case models.TrendBullish:
			summary.Signals = append(summary.Signals, "Price above 200-day SMA with positive momentum")
		case models.TrendBearish:
			summary.Signals = append(summary.Signals, "Price below 200-day SMA with negative momentum")
		}
	}

	if ind.RSI != nil {
		summary.RSIState = classifyRSI(*ind.RSI)
		switch summary.RSIState {
		case "overbought":
			summary.Signals = append(summary.Signals, fmt.Sprintf("RSI %.1f - overbought", *ind.RSI))
		case "oversold":
			summary.Signals = append(summary.Signals, fmt.Sprintf("RSI %.1f - oversold", *ind.RSI))
		}
	}

	if ind.MACD != nil {
		if ind.MACD.Histogram > 0 {
			summary.Signals = append(summary.Signals, "MACD histogram positive - bullish momentum")
		} else if ind.MACD.Histogram < 0 {
			summary.Signals = append(summary.Signals, "MACD histogram negative - bearish momentum")
		}
	}

	if price > 0 && ind.Bollinger != nil {
		if price > ind.Bollinger.Upper {
			summary.Signals = append(summary.Signals, "Price above upper Bollinger band")
		} else if price < ind.Bollinger.Lower {
			summary.Signals = append(summary.Signals, "Price below lower Bollinger band")
		}
	}

	if ind.Stochastic != nil {
		if ind.Stochastic.K > 80 {
			summary.Signals = append(summary.Signals, "Stochastic %K above 80 - overbought")
		} else if ind.Stochastic.K < 20 {
			summary.Signals = append(summary.Signals, "Stochastic %K below 20 - oversold")
		}
	}

	if ind.ADX != nil && *ind.ADX > 25 {
		summary.Signals = append(summary.Signals, fmt.Sprintf("ADX %.1f - trending market", *ind.ADX))
	}

	return summary
}

// determineTrend classifies the overall trend from the moving averages.
func determineTrend(price, sma20, sma50, sma200 float64) models.TrendType {
	// BULLISH: price > SMA200 AND SMA20 > SMA50
	if price > sma200 && sma20 > sma50 {
		return models.TrendBullish
	}

	// BEARISH: price < SMA200 AND SMA20 < SMA50
	if price < sma200 && sma20 < sma50 {
		return models.TrendBearish
	}

	return models.TrendNeutral
}

// classifyRSI classifies an RSI value
func classifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}
