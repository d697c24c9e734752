package synth

import (
	"strings"
	"testing"

	"stockintel/internal/models"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

// Worked example: wide intraday range, volume at exactly half the average,
// micro-cap, moderate sentiment, overbought RSI.
func TestRisk_WorkedExample(t *testing.T) {
	rec := &models.CompositeRecord{
		Quote: &models.Quote{
			Current:   100,
			High:      f64(105),
			Low:       f64(95),
			Volume:    i64(500_000),
			AvgVolume: i64(1_000_000),
		},
		Fundamentals: &models.Fundamentals{MarketCap: f64(250e6)},
		Technicals:   &models.TechnicalIndicators{RSI: f64(75)},
	}

	risk, gaps := Risk(rec, 30)

	if risk.Factors.Volatility != 100 {
		t.Errorf("volatility factor = %.1f, want 100", risk.Factors.Volatility)
	}
	// Volume exactly at half the average is not strictly below it
	if risk.Factors.Liquidity != 40 {
		t.Errorf("liquidity factor = %.1f, want 40", risk.Factors.Liquidity)
	}
	if risk.Factors.MarketCap != 90 {
		t.Errorf("market-cap factor = %.1f, want 90", risk.Factors.MarketCap)
	}
	if risk.Factors.News != 30 {
		t.Errorf("news factor = %.1f, want 30", risk.Factors.News)
	}
	if risk.Factors.Technical != 70 {
		t.Errorf("technical factor = %.1f, want 70", risk.Factors.Technical)
	}

	// 100*0.25 + 40*0.20 + 90*0.25 + 30*0.15 + 70*0.15 = 70.5, rounds to 71
	if risk.Score != 71 {
		t.Errorf("score = %d, want 71", risk.Score)
	}
	if risk.Level != models.RiskVeryHigh {
		t.Errorf("level = %s, want VERY_HIGH", risk.Level)
	}
	if len(gaps) != 0 {
		t.Errorf("no factor inputs were missing, got gaps: %v", gaps)
	}
	if len(risk.Warnings) != 4 {
		t.Errorf("expected 4 threshold warnings, got %d: %v", len(risk.Warnings), risk.Warnings)
	}
}

func TestRisk_NegativeSentimentIsDirectionBlind(t *testing.T) {
	rec := &models.CompositeRecord{Quote: &models.Quote{Current: 10}}

	riskNeg, _ := Risk(rec, -60)
	riskPos, _ := Risk(rec, 60)

	if riskNeg.Factors.News != 60 || riskPos.Factors.News != 60 {
		t.Errorf("news factor must use sentiment magnitude: neg=%.1f pos=%.1f",
			riskNeg.Factors.News, riskPos.Factors.News)
	}
}

func TestRisk_MissingInputsReportGaps(t *testing.T) {
	rec := &models.CompositeRecord{Quote: &models.Quote{Current: 10}}

	risk, gaps := Risk(rec, 0)

	// Volatility, liquidity, market cap, and RSI are all absent
	if len(gaps) != 4 {
		t.Fatalf("expected 4 gaps, got %d: %v", len(gaps), gaps)
	}
	if risk.Factors.Volatility != 0 || risk.Factors.Liquidity != 0 ||
		risk.Factors.MarketCap != 0 || risk.Factors.Technical != 0 {
		t.Error("absent factors must contribute zero")
	}
	if risk.Level != models.RiskLow {
		t.Errorf("all-zero factors should score LOW, got %s", risk.Level)
	}
}

func TestRisk_ThinLiquidityWarning(t *testing.T) {
	rec := &models.CompositeRecord{
		Quote: &models.Quote{
			Current:   10,
			Volume:    i64(100_000),
			AvgVolume: i64(1_000_000),
		},
	}

	risk, _ := Risk(rec, 0)

	if risk.Factors.Liquidity != 80 {
		t.Errorf("liquidity factor = %.1f, want 80", risk.Factors.Liquidity)
	}
	found := false
	for _, w := range risk.Warnings {
		if strings.Contains(w, "thin liquidity") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected thin-liquidity warning, got %v", risk.Warnings)
	}
}

func TestRisk_MarketCapTiers(t *testing.T) {
	tests := []struct {
		marketCap float64
		factor    float64
	}{
		{100e6, 90}, // micro
		{1e9, 60},   // small
		{5e9, 40},   // mid
		{50e9, 20},  // large
	}

	for _, tt := range tests {
		rec := &models.CompositeRecord{
			Quote:        &models.Quote{Current: 10},
			Fundamentals: &models.Fundamentals{MarketCap: f64(tt.marketCap)},
		}
		risk, _ := Risk(rec, 0)
		if risk.Factors.MarketCap != tt.factor {
			t.Errorf("market cap %.0f: factor = %.1f, want %.1f", tt.marketCap, risk.Factors.MarketCap, tt.factor)
		}
	}
}

func TestRiskLevel_BandBoundaries(t *testing.T) {
	tests := []struct {
		score int
		level models.RiskLevel
	}{
		{0, models.RiskLow},
		{20, models.RiskLow},
		{21, models.RiskModerate},
		{40, models.RiskModerate},
		{41, models.RiskHigh},
		{60, models.RiskHigh},
		{61, models.RiskVeryHigh},
		{80, models.RiskVeryHigh},
		{81, models.RiskExtreme},
		{100, models.RiskExtreme},
	}

	for _, tt := range tests {
		if got := riskLevel(tt.score); got != tt.level {
			t.Errorf("riskLevel(%d) = %s, want %s", tt.score, got, tt.level)
		}
	}
}

func TestRisk_OversoldRSI(t *testing.T) {
	rec := &models.CompositeRecord{
		Quote:      &models.Quote{Current: 10},
		Technicals: &models.TechnicalIndicators{RSI: f64(25)},
	}

	risk, _ := Risk(rec, 0)
	if risk.Factors.Technical != 50 {
		t.Errorf("oversold RSI factor = %.1f, want 50", risk.Factors.Technical)
	}
}
