// Package intel aggregates external market-data providers for one symbol
// and synthesizes the finished intelligence report.
package intel

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

// Aggregator fans out to the providers relevant to an asset class, collects
// whichever responses arrive, and merges them into one composite record.
// Partial failure is the expected case: failed providers become data-quality
// warnings, and only total quote unavailability leaves Quote nil.
type Aggregator struct {
	finnhub      interfaces.FinnhubClient
	alphavantage interfaces.AlphaVantageClient
	marketaux    interfaces.MarketauxClient
	stocktwits   interfaces.StocktwitsClient
	coingecko    interfaces.CoinGeckoClient

	providerTimeout time.Duration
	logger          *common.Logger
}

// NewAggregator creates an aggregator over the configured provider adapters.
// Any adapter may be nil; its contribution is then recorded as missing.
func NewAggregator(
	finnhub interfaces.FinnhubClient,
	alphavantage interfaces.AlphaVantageClient,
	marketaux interfaces.MarketauxClient,
	stocktwits interfaces.StocktwitsClient,
	coingecko interfaces.CoinGeckoClient,
	providerTimeout time.Duration,
	logger *common.Logger,
) *Aggregator {
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Aggregator{
		finnhub:         finnhub,
		alphavantage:    alphavantage,
		marketaux:       marketaux,
		stocktwits:      stocktwits,
		coingecko:       coingecko,
		providerTimeout: providerTimeout,
		logger:          logger,
	}
}

// callCtx bounds one provider call by its timeout share. A caller-supplied
// deadline tighter than the per-provider ceiling wins automatically.
func (a *Aggregator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.providerTimeout)
}

// equityResults holds each provider goroutine's slot. Every goroutine writes
// only its own fields, so no locking is needed; the merge happens after Wait.
type equityResults struct {
	quote    *models.Quote
	quoteErr error

	fallbackUsed bool

	fund    *models.Fundamentals
	fundErr error

	techs    *models.TechnicalIndicators
	techsErr error

	news    *models.SentimentFragment
	newsErr error

	social    *models.SentimentFragment
	socialErr error

	insider    *models.SentimentFragment
	insiderErr error
}

// AggregateEquity fans out to the equity provider set. The merge is fixed by
// provider priority, not by arrival order: the primary quote source wins over
// the fallback whenever it produced a nonzero price, and sentiment fragments
// are appended in a fixed source order so the composite is reproducible
// regardless of network jitter.
func (a *Aggregator) AggregateEquity(ctx context.Context, symbol string) (*models.CompositeRecord, error) {
	res := &equityResults{}
	g, gctx := errgroup.WithContext(ctx)

	// Quote: primary with sequential fallback. The fallback is only consulted
	// on total failure of the primary, never raced against it.
	g.Go(func() error {
		cctx, cancel := a.callCtx(gctx)
		defer cancel()

		if a.finnhub != nil {
			quote, err := a.finnhub.GetQuote(cctx, symbol)
			if err == nil && quote != nil && quote.Current > 0 {
				res.quote = quote
				return nil
			}
			res.quoteErr = err
			a.logger.Warn().Str("symbol", symbol).Err(err).Msg("Primary quote source failed, trying fallback")
		}

		if a.alphavantage == nil {
			return nil
		}

		fctx, fcancel := a.callCtx(gctx)
		defer fcancel()

		quote, err := a.alphavantage.GetQuote(fctx, symbol)
		if err == nil && quote != nil && quote.Current > 0 {
			res.quote = quote
			res.fallbackUsed = true
			return nil
		}
		if res.quoteErr == nil {
			res.quoteErr = err
		} else if err != nil {
			res.quoteErr = fmt.Errorf("%v; fallback: %v", res.quoteErr, err)
		}
		return nil
	})

	g.Go(func() error {
		if a.finnhub == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.fund, res.fundErr = a.finnhub.GetFundamentals(cctx, symbol)
		return nil
	})

	g.Go(func() error {
		if a.alphavantage == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.techs, res.techsErr = a.alphavantage.GetIndicators(cctx, symbol)
		return nil
	})

	g.Go(func() error {
		if a.marketaux == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.news, res.newsErr = a.marketaux.GetNewsSentiment(cctx, symbol)
		return nil
	})

	g.Go(func() error {
		if a.stocktwits == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.social, res.socialErr = a.stocktwits.GetSocialSentiment(cctx, symbol)
		return nil
	})

	g.Go(func() error {
		if a.finnhub == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.insider, res.insiderErr = a.finnhub.GetInsiderSentiment(cctx, symbol)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return a.mergeEquity(symbol, res), nil
}

// mergeEquity builds the composite record in a fixed field order.
func (a *Aggregator) mergeEquity(symbol string, res *equityResults) *models.CompositeRecord {
	rec := &models.CompositeRecord{Symbol: symbol}

	if res.quote != nil {
		rec.Quote = res.quote
		if res.fallbackUsed {
			rec.Sources = append(rec.Sources, "quote:alphavantage")
			rec.Warnings = append(rec.Warnings, "finnhub: primary quote unavailable, using alphavantage fallback")
		} else {
			rec.Sources = append(rec.Sources, "quote:finnhub")
		}
	} else {
		rec.Missing = append(rec.Missing, "quote:finnhub", "quote:alphavantage")
		rec.Warnings = append(rec.Warnings, warnText("quote", "finnhub+alphavantage", res.quoteErr))
	}

	if res.fund != nil {
		rec.Fundamentals = res.fund
		rec.Sources = append(rec.Sources, "fundamentals:finnhub")
	} else {
		rec.Missing = append(rec.Missing, "fundamentals:finnhub")
		rec.Warnings = append(rec.Warnings, warnText("fundamentals", "finnhub", res.fundErr))
	}

	// Fill the quote's average volume from fundamentals when the quote
	// source didn't report one — the liquidity factor needs both.
	if rec.Quote != nil && rec.Quote.AvgVolume == nil && rec.Fundamentals != nil && rec.Fundamentals.AvgVolume != nil {
		av := int64(*rec.Fundamentals.AvgVolume)
		rec.Quote.AvgVolume = &av
	}

	if res.techs != nil {
		rec.Technicals = res.techs
		rec.Sources = append(rec.Sources, "technicals:alphavantage")
	} else {
		rec.Missing = append(rec.Missing, "technicals:alphavantage")
		rec.Warnings = append(rec.Warnings, warnText("technicals", "alphavantage", res.techsErr))
	}

	// Sentiment fragments are additive, appended in fixed source order
	if res.news != nil {
		rec.Fragments = append(rec.Fragments, *res.news)
		rec.Sources = append(rec.Sources, "news:marketaux")
	} else {
		rec.Missing = append(rec.Missing, "news:marketaux")
		rec.Warnings = append(rec.Warnings, warnText("news sentiment", "marketaux", res.newsErr))
	}

	if res.social != nil {
		rec.Fragments = append(rec.Fragments, *res.social)
		rec.Sources = append(rec.Sources, "social:stocktwits")
	} else {
		rec.Missing = append(rec.Missing, "social:stocktwits")
		rec.Warnings = append(rec.Warnings, warnText("social sentiment", "stocktwits", res.socialErr))
	}

	if res.insider != nil {
		rec.Fragments = append(rec.Fragments, *res.insider)
		rec.Sources = append(rec.Sources, "insider:finnhub")
	} else {
		rec.Missing = append(rec.Missing, "insider:finnhub")
		rec.Warnings = append(rec.Warnings, warnText("insider sentiment", "finnhub", res.insiderErr))
	}

	return rec
}

// cryptoResults mirrors equityResults for the crypto provider set.
type cryptoResults struct {
	market    *models.CryptoMarket
	marketErr error

	social    *models.SentimentFragment
	socialErr error
}

// AggregateCrypto fans out to the crypto provider set. id is the
// provider-native coin id; symbol is the caller's ticker, used for the
// social stream lookup.
func (a *Aggregator) AggregateCrypto(ctx context.Context, symbol, id string) (*models.CompositeRecord, error) {
	res := &cryptoResults{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.coingecko == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		res.market, res.marketErr = a.coingecko.GetMarket(cctx, id)
		return nil
	})

	g.Go(func() error {
		if a.stocktwits == nil {
			return nil
		}
		cctx, cancel := a.callCtx(gctx)
		defer cancel()
		// StockTwits tags crypto streams as SYMBOL.X
		res.social, res.socialErr = a.stocktwits.GetSocialSentiment(cctx, symbol+".X")
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &models.CompositeRecord{Symbol: symbol, Class: models.AssetCrypto}

	if res.market != nil && res.market.Quote != nil {
		quote := res.market.Quote
		quote.Symbol = symbol
		rec.Quote = quote
		rec.Sources = append(rec.Sources, "quote:coingecko")

		if res.market.Fundamentals != nil {
			rec.Fundamentals = res.market.Fundamentals
			rec.Sources = append(rec.Sources, "fundamentals:coingecko")
		}
		if res.market.Community != nil {
			rec.Fragments = append(rec.Fragments, *res.market.Community)
			rec.Sources = append(rec.Sources, "community:coingecko")
		}
	} else {
		rec.Missing = append(rec.Missing, "quote:coingecko")
		rec.Warnings = append(rec.Warnings, warnText("quote", "coingecko", res.marketErr))
	}

	if res.social != nil {
		rec.Fragments = append(rec.Fragments, *res.social)
		rec.Sources = append(rec.Sources, "social:stocktwits")
	} else {
		rec.Missing = append(rec.Missing, "social:stocktwits")
		rec.Warnings = append(rec.Warnings, warnText("social sentiment", "stocktwits", res.socialErr))
	}

	return rec, nil
}

// warnText formats a missing-source warning, deterministic given the error.
func warnText(category, provider string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s: %s unavailable", provider, category)
	}
	return fmt.Sprintf("%s: %s unavailable: %v", provider, category, err)
}
