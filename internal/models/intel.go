// Package models defines data structures for stockintel
package models

import (
	"time"
)

// AssetClass classifies the instrument a report covers.
type AssetClass string

const (
	AssetStock      AssetClass = "STOCK"
	AssetPennyStock AssetClass = "PENNY_STOCK"
	AssetCrypto     AssetClass = "CRYPTO"
	AssetETF        AssetClass = "ETF"
)

// Quote holds a current price snapshot for one symbol.
// ChangePercent is always derived from Current and PreviousClose when both are
// present — provider-reported percentages are discarded to avoid drift between
// the percentage and the raw price fields.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Current       float64   `json:"current"`
	Open          *float64  `json:"open"`
	High          *float64  `json:"high"`
	Low           *float64  `json:"low"`
	PreviousClose *float64  `json:"previous_close"`
	ChangePercent *float64  `json:"change_percent"`
	Volume        *int64    `json:"volume"`
	AvgVolume     *int64    `json:"avg_volume"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source,omitempty"`
}

// DeriveChangePercent recomputes ChangePercent from the raw price fields.
// It clears any provider-supplied value when the inputs are unavailable.
func (q *Quote) DeriveChangePercent() {
	if q.PreviousClose == nil || *q.PreviousClose == 0 {
		q.ChangePercent = nil
		return
	}
	pct := (q.Current - *q.PreviousClose) / *q.PreviousClose * 100
	q.ChangePercent = &pct
}

// Fundamentals contains fundamental data for an equity. Every field is
// nullable: nil means the provider did not report it, never zero.
type Fundamentals struct {
	Name          string   `json:"name,omitempty"`
	Type          string   `json:"type,omitempty"` // provider-reported instrument type, advisory
	MarketCap     *float64 `json:"market_cap"`
	PE            *float64 `json:"pe_ratio"`
	ForwardPE     *float64 `json:"forward_pe"`
	EPS           *float64 `json:"eps"`
	DividendYield *float64 `json:"dividend_yield"` // whole-number percent, e.g. 2.5 = 2.5%
	Beta          *float64 `json:"beta"`
	ProfitMargin  *float64 `json:"profit_margin"`  // whole-number percent
	RevenueGrowth *float64 `json:"revenue_growth"` // whole-number percent, YoY
	High52Week    *float64 `json:"high_52_week"`
	Low52Week     *float64 `json:"low_52_week"`
	AvgVolume     *float64 `json:"avg_volume,omitempty"` // shares per day
	Source        string   `json:"source,omitempty"`
}

// MACD holds the MACD line, its signal line, and the histogram.
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands holds the three band values. Invariant: Lower <= Middle <= Upper.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Stochastic holds the %K and %D oscillator values.
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// TechnicalIndicators holds the indicator set for one symbol. Any field may
// be absent when the indicator provider did not report it.
type TechnicalIndicators struct {
	RSI        *float64        `json:"rsi"` // 0-100
	MACD       *MACD           `json:"macd"`
	SMA20      *float64        `json:"sma_20"`
	SMA50      *float64        `json:"sma_50"`
	SMA200     *float64        `json:"sma_200"`
	EMA20      *float64        `json:"ema_20"`
	EMA50      *float64        `json:"ema_50"`
	Bollinger  *BollingerBands `json:"bollinger"`
	Stochastic *Stochastic     `json:"stochastic"`
	ADX        *float64        `json:"adx"`
	OBV        *float64        `json:"obv"`
	VWAP       *float64        `json:"vwap"`
	ATR        *float64        `json:"atr"`
}

// SentimentFragment is one provider's normalized sentiment contribution:
// a score in [-100, 100] plus the evidence count that produced it. A fragment
// with zero evidence is still a valid observation (genuinely neutral evidence);
// an unreachable source contributes no fragment at all.
type SentimentFragment struct {
	Source    string   `json:"source"` // news, social, insider, community
	Score     float64  `json:"score"`
	Evidence  int      `json:"evidence"`
	Headlines []string `json:"headlines,omitempty"`
}

// SentimentLabel is the overall sentiment verdict label.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "BULLISH"
	SentimentBearish SentimentLabel = "BEARISH"
	SentimentNeutral SentimentLabel = "NEUTRAL"
)

// SentimentVerdict is the synthesized sentiment view across all fragments.
// Score is the mean of available fragment scores; absent fragments are
// excluded from the mean, not treated as zero.
type SentimentVerdict struct {
	Label         SentimentLabel      `json:"label"`
	Score         float64             `json:"score"`
	TotalEvidence int                 `json:"total_evidence"`
	Fragments     []SentimentFragment `json:"fragments"`
	TopHeadlines  []string            `json:"top_headlines,omitempty"`
}

// RiskLevel is one of the five fixed risk bands.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
)

// RiskFactors is the per-factor breakdown, each normalized to 0-100 before
// weighting.
type RiskFactors struct {
	Volatility float64 `json:"volatility"`
	Liquidity  float64 `json:"liquidity"`
	MarketCap  float64 `json:"market_cap"`
	News       float64 `json:"news"`
	Technical  float64 `json:"technical"`
}

// RiskAssessment is the synthesized risk view: a 0-100 score, its band, the
// factor breakdown, and one warning per triggered threshold.
type RiskAssessment struct {
	Score    int         `json:"score"`
	Level    RiskLevel   `json:"level"`
	Factors  RiskFactors `json:"factors"`
	Warnings []string    `json:"warnings"`
}

// TrendType classifies the price trend from moving averages.
type TrendType string

const (
	TrendBullish TrendType = "BULLISH"
	TrendBearish TrendType = "BEARISH"
	TrendNeutral TrendType = "NEUTRAL"
)

// TechnicalSummary is the synthesized technical view.
type TechnicalSummary struct {
	Trend    TrendType `json:"trend"`
	RSIState string    `json:"rsi_state,omitempty"` // overbought, oversold, neutral
	Signals  []string  `json:"signals,omitempty"`
}

// Range52Week holds the 52-week range with distance from each bound.
type Range52Week struct {
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	FromHighPct float64 `json:"from_high_pct"` // negative = below the high
	FromLowPct  float64 `json:"from_low_pct"`
}

// DataQuality records which providers contributed to a report.
// Score is a completeness heuristic — min(20 × contributing sources, 100) —
// NOT a statistical confidence measure, and must not be read as one.
type DataQuality struct {
	Sources        []string `json:"sources"`
	MissingSources []string `json:"missing_sources,omitempty"`
	Score          int      `json:"score"`
	Warnings       []string `json:"warnings,omitempty"`
}

// CompositeRecord is the merged, provider-agnostic view of all fields
// available for one symbol after aggregation. It is immutable after the
// aggregator returns it and is consumed once by the synthesizer.
type CompositeRecord struct {
	Symbol       string
	Class        AssetClass
	Quote        *Quote
	Fundamentals *Fundamentals
	Technicals   *TechnicalIndicators
	Fragments    []SentimentFragment
	Sources      []string
	Missing      []string
	Warnings     []string
}

// CryptoMarket is the crypto provider's combined contribution: a quote, the
// market-cap/range fields folded into Fundamentals, and the community
// sentiment fragment when the provider reports one.
type CryptoMarket struct {
	Quote        *Quote
	Fundamentals *Fundamentals
	Community    *SentimentFragment
}

// IntelligenceReport is the finished per-symbol report returned to callers.
type IntelligenceReport struct {
	ID           string               `json:"id"`
	Symbol       string               `json:"symbol"`
	Class        AssetClass           `json:"asset_class"`
	Quote        *Quote               `json:"quote"`
	Fundamentals *Fundamentals        `json:"fundamentals,omitempty"`
	Technicals   *TechnicalIndicators `json:"technicals,omitempty"`
	Technical    TechnicalSummary     `json:"technical_summary"`
	Sentiment    SentimentVerdict     `json:"sentiment"`
	Risk         RiskAssessment       `json:"risk"`
	Range52W     *Range52Week         `json:"range_52_week,omitempty"`
	DataQuality  DataQuality          `json:"data_quality"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
