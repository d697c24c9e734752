package intel

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
	"stockintel/internal/synth"
)

// PennyStockPrice is the share-price ceiling for penny-stock classification.
const PennyStockPrice = 5.0

// defaultCryptoIDs maps common crypto tickers to provider-native coin ids.
// Config entries of the form "SYM:id" extend or override this map.
var defaultCryptoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"DOT":  "polkadot",
	"LTC":  "litecoin",
	"AVAX": "avalanche-2",
	"LINK": "chainlink",
}

// Service produces per-symbol intelligence reports: it runs the aggregator,
// classifies the asset, and hands the composite to the synthesizer. Reports
// are not cached; every call reflects current provider state.
type Service struct {
	agg          *Aggregator
	logger       *common.Logger
	maxHeadlines int
	cryptoIDs    map[string]string
	now          func() time.Time // injectable clock for testing
	newID        func() string
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMaxHeadlines bounds the headline list on the sentiment verdict
func WithMaxHeadlines(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxHeadlines = n
		}
	}
}

// WithCryptoSymbols extends the crypto ticker map. Entries are either a bare
// ticker already in the built-in map, or "SYM:coin-id".
func WithCryptoSymbols(entries []string) ServiceOption {
	return func(s *Service) {
		for _, e := range entries {
			sym, id, ok := strings.Cut(e, ":")
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if sym == "" {
				continue
			}
			if ok {
				s.cryptoIDs[sym] = strings.TrimSpace(id)
			} else if _, known := s.cryptoIDs[sym]; !known {
				s.cryptoIDs[sym] = strings.ToLower(sym)
			}
		}
	}
}

// NewService creates the intelligence service over an aggregator.
func NewService(agg *Aggregator, opts ...ServiceOption) *Service {
	s := &Service{
		agg:          agg,
		logger:       common.NewSilentLogger(),
		maxHeadlines: 5,
		cryptoIDs:    make(map[string]string, len(defaultCryptoIDs)),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for sym, id := range defaultCryptoIDs {
		s.cryptoIDs[sym] = id
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetIntelligence aggregates all configured providers for one symbol and
// synthesizes the report. Provider failures degrade the report rather than
// fail it; only a symbol with no usable quote from any source returns
// a NotFoundError.
func (s *Service) GetIntelligence(ctx context.Context, symbol string) (*models.IntelligenceReport, error) {
	norm := strings.ToUpper(strings.TrimSpace(symbol))
	if norm == "" {
		return nil, &models.NotFoundError{Symbol: symbol}
	}

	start := s.now()

	var rec *models.CompositeRecord
	var err error
	if coinID, isCrypto := s.cryptoIDs[norm]; isCrypto {
		rec, err = s.agg.AggregateCrypto(ctx, norm, coinID)
	} else {
		rec, err = s.agg.AggregateEquity(ctx, norm)
	}
	if err != nil {
		return nil, err
	}

	if rec.Quote == nil {
		s.logger.Warn().Str("symbol", norm).Strs("warnings", rec.Warnings).Msg("No quote from any source")
		return nil, &models.NotFoundError{Symbol: norm, Warnings: rec.Warnings}
	}

	rec.Class = s.classify(rec)

	verdict := synth.Sentiment(rec.Fragments, s.maxHeadlines)
	risk, gaps := synth.Risk(rec, verdict.Score)

	var high, low *float64
	if rec.Fundamentals != nil {
		high, low = rec.Fundamentals.High52Week, rec.Fundamentals.Low52Week
	}

	report := &models.IntelligenceReport{
		ID:           s.newID(),
		Symbol:       norm,
		Class:        rec.Class,
		Quote:        rec.Quote,
		Fundamentals: rec.Fundamentals,
		Technicals:   rec.Technicals,
		Technical:    synth.Technical(rec.Quote, rec.Technicals),
		Sentiment:    verdict,
		Risk:         risk,
		Range52W:     synth.Range52(rec.Quote.Current, high, low),
		DataQuality:  synth.DataQuality(rec.Sources, rec.Missing, append(rec.Warnings, gaps...)),
		GeneratedAt:  s.now().UTC(),
	}

	s.logger.Info().
		Str("symbol", norm).
		Str("class", string(report.Class)).
		Int("risk_score", report.Risk.Score).
		Str("risk_level", string(report.Risk.Level)).
		Str("sentiment", string(report.Sentiment.Label)).
		Int("quality", report.DataQuality.Score).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Intelligence report generated")

	return report, nil
}

// classify assigns the final asset class. The provider-reported instrument
// type is advisory only; the composite view decides.
func (s *Service) classify(rec *models.CompositeRecord) models.AssetClass {
	if rec.Class == models.AssetCrypto {
		return models.AssetCrypto
	}

	if rec.Fundamentals != nil {
		if strings.Contains(strings.ToUpper(rec.Fundamentals.Type), "ETF") {
			return models.AssetETF
		}
		if rec.Quote.Current < PennyStockPrice &&
			rec.Fundamentals.MarketCap != nil && *rec.Fundamentals.MarketCap < synth.MicroCapCutoff {
			return models.AssetPennyStock
		}
	}

	return models.AssetStock
}

// Ensure Service implements IntelligenceService
var _ interfaces.IntelligenceService = (*Service)(nil)
