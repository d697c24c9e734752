package intel

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockintel/internal/models"
)

func newTestService(agg *Aggregator, opts ...ServiceOption) *Service {
	s := NewService(agg, opts...)
	s.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "test-report-id" }
	return s
}

func TestGetIntelligence_FullReport(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	fh.fund = func(ctx context.Context, symbol string) (*models.Fundamentals, error) {
		return &models.Fundamentals{
			MarketCap:  f64(5e9),
			High52Week: f64(120),
			Low52Week:  f64(80),
			Source:     "finnhub",
		}, nil
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	report, err := svc.GetIntelligence(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}

	if report.Symbol != "AAPL" {
		t.Errorf("symbol = %s, want normalized AAPL", report.Symbol)
	}
	if report.ID != "test-report-id" {
		t.Errorf("id = %s", report.ID)
	}
	if report.Class != models.AssetStock {
		t.Errorf("class = %s, want STOCK", report.Class)
	}
	if report.Quote == nil || report.Quote.Current != 100 {
		t.Fatalf("quote = %+v", report.Quote)
	}

	// Sentiment is the mean of news 30, social -20, insider 10
	if report.Sentiment.Score != 20.0/3.0 {
		t.Errorf("sentiment score = %.4f, want %.4f", report.Sentiment.Score, 20.0/3.0)
	}
	if report.Sentiment.Label != models.SentimentNeutral {
		t.Errorf("sentiment label = %s, want NEUTRAL", report.Sentiment.Label)
	}
	if report.Sentiment.TotalEvidence != 16 {
		t.Errorf("total evidence = %d, want 16", report.Sentiment.TotalEvidence)
	}

	if report.Range52W == nil {
		t.Fatal("expected 52-week range")
	}
	if report.Range52W.High != 120 || report.Range52W.Low != 80 {
		t.Errorf("range = %+v", report.Range52W)
	}

	// Six contributions at 20 points each, capped at 100
	if report.DataQuality.Score != 100 {
		t.Errorf("quality score = %d, want 100", report.DataQuality.Score)
	}
	if !report.GeneratedAt.Equal(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("generated at = %v", report.GeneratedAt)
	}
}

func TestGetIntelligence_NotFoundWhenNoQuote(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	fh.quote = func(ctx context.Context, symbol string) (*models.Quote, error) {
		return nil, errors.New("finnhub down")
	}
	av.quote = func(ctx context.Context, symbol string) (*models.Quote, error) {
		return nil, errors.New("alphavantage down")
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	_, err := svc.GetIntelligence(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected NotFoundError")
	}
	if !models.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}

	var nf *models.NotFoundError
	errors.As(err, &nf)
	if nf.Symbol != "NOPE" {
		t.Errorf("symbol = %s, want NOPE", nf.Symbol)
	}
	if len(nf.Warnings) == 0 {
		t.Error("NotFoundError should carry the aggregation warnings")
	}
}

func TestGetIntelligence_PartialFailureStillReports(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	ma.news = func(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
		return nil, errors.New("quota exhausted")
	}
	av.indicators = func(ctx context.Context, symbol string) (*models.TechnicalIndicators, error) {
		return nil, errors.New("throttled")
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	report, err := svc.GetIntelligence(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("partial failure must still produce a report: %v", err)
	}

	// quote, fundamentals, social, insider = 4 contributions
	if report.DataQuality.Score != 80 {
		t.Errorf("quality score = %d, want 80", report.DataQuality.Score)
	}
	if len(report.DataQuality.MissingSources) != 2 {
		t.Errorf("missing = %v, want 2 entries", report.DataQuality.MissingSources)
	}
	// Aggregation warnings plus the RSI synthesis gap
	if len(report.DataQuality.Warnings) < 3 {
		t.Errorf("warnings = %v, want provider warnings plus factor gaps", report.DataQuality.Warnings)
	}
}

func TestGetIntelligence_EmptySymbol(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	if _, err := svc.GetIntelligence(context.Background(), "  "); !models.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for blank symbol, got %v", err)
	}
}

func TestGetIntelligence_PennyStockClassification(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	fh.quote = func(ctx context.Context, symbol string) (*models.Quote, error) {
		return quoteFrom("finnhub", 2.50), nil
	}
	fh.fund = func(ctx context.Context, symbol string) (*models.Fundamentals, error) {
		return &models.Fundamentals{MarketCap: f64(150e6), Source: "finnhub"}, nil
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	report, err := svc.GetIntelligence(context.Background(), "PNNY")
	if err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}
	if report.Class != models.AssetPennyStock {
		t.Errorf("class = %s, want PENNY_STOCK", report.Class)
	}
}

func TestGetIntelligence_CheapLargeCapIsNotPenny(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	fh.quote = func(ctx context.Context, symbol string) (*models.Quote, error) {
		return quoteFrom("finnhub", 3.00), nil
	}
	fh.fund = func(ctx context.Context, symbol string) (*models.Fundamentals, error) {
		return &models.Fundamentals{MarketCap: f64(40e9), Source: "finnhub"}, nil
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	report, err := svc.GetIntelligence(context.Background(), "BIGC")
	if err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}
	if report.Class != models.AssetStock {
		t.Errorf("class = %s, want STOCK (large cap despite low price)", report.Class)
	}
}

func TestGetIntelligence_ETFClassification(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	fh.fund = func(ctx context.Context, symbol string) (*models.Fundamentals, error) {
		return &models.Fundamentals{Type: "ETF", Source: "finnhub"}, nil
	}
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	report, err := svc.GetIntelligence(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}
	if report.Class != models.AssetETF {
		t.Errorf("class = %s, want ETF", report.Class)
	}
}

func TestGetIntelligence_CryptoRouting(t *testing.T) {
	cg := &mockCoinGecko{
		market: func(ctx context.Context, id string) (*models.CryptoMarket, error) {
			if id != "bitcoin" {
				t.Errorf("coin id = %s, want bitcoin", id)
			}
			return &models.CryptoMarket{
				Quote:        &models.Quote{Current: 50000, Source: "coingecko"},
				Fundamentals: &models.Fundamentals{MarketCap: f64(1e12), Source: "coingecko"},
				Community:    &models.SentimentFragment{Source: "community", Score: 30},
			}, nil
		},
	}
	st := &mockStocktwits{
		social: func(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
			return &models.SentimentFragment{Source: "social", Score: 50, Evidence: 9}, nil
		},
	}
	svc := newTestService(newTestAggregator(nil, nil, nil, st, cg))

	report, err := svc.GetIntelligence(context.Background(), "btc")
	if err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}

	if report.Class != models.AssetCrypto {
		t.Errorf("class = %s, want CRYPTO", report.Class)
	}
	if report.Symbol != "BTC" {
		t.Errorf("symbol = %s, want BTC", report.Symbol)
	}
	// Mean of community 30 and social 50
	if report.Sentiment.Score != 40 {
		t.Errorf("sentiment = %.1f, want 40", report.Sentiment.Score)
	}
	if report.Sentiment.Label != models.SentimentBullish {
		t.Errorf("label = %s, want BULLISH", report.Sentiment.Label)
	}
}

func TestGetIntelligence_CustomCryptoSymbol(t *testing.T) {
	var gotID string
	cg := &mockCoinGecko{
		market: func(ctx context.Context, id string) (*models.CryptoMarket, error) {
			gotID = id
			return &models.CryptoMarket{Quote: &models.Quote{Current: 1.5, Source: "coingecko"}}, nil
		},
	}
	st := &mockStocktwits{
		social: func(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
			return &models.SentimentFragment{Source: "social"}, nil
		},
	}
	svc := newTestService(
		newTestAggregator(nil, nil, nil, st, cg),
		WithCryptoSymbols([]string{"PEPE:pepe-token"}),
	)

	if _, err := svc.GetIntelligence(context.Background(), "PEPE"); err != nil {
		t.Fatalf("GetIntelligence failed: %v", err)
	}
	if gotID != "pepe-token" {
		t.Errorf("coin id = %s, want pepe-token", gotID)
	}
}

func TestGetIntelligence_RepeatCallsAgreeExceptID(t *testing.T) {
	fh, av, ma, st := fullEquityMocks()
	svc := newTestService(newTestAggregator(fh, av, ma, st, nil))

	first, err := svc.GetIntelligence(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.GetIntelligence(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first.Risk.Score != second.Risk.Score || first.Risk.Level != second.Risk.Level {
		t.Error("risk must be stable across calls with unchanged inputs")
	}
	if first.Sentiment.Score != second.Sentiment.Score {
		t.Error("sentiment must be stable across calls")
	}
	if first.DataQuality.Score != second.DataQuality.Score {
		t.Error("quality must be stable across calls")
	}
}
