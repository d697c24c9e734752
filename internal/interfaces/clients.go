// Package interfaces defines client and service contracts for stockintel
package interfaces

import (
	"context"

	"stockintel/internal/models"
)

// FinnhubClient is the primary equity data source: quotes, fundamentals,
// and insider sentiment.
type FinnhubClient interface {
	// GetQuote retrieves the current price snapshot
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetFundamentals retrieves fundamental metrics and the company profile
	GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)

	// GetInsiderSentiment retrieves the insider-transaction sentiment fragment
	GetInsiderSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error)
}

// AlphaVantageClient is the technical-indicator source and the fallback
// quote source for equities.
type AlphaVantageClient interface {
	// GetQuote retrieves the current price snapshot (fallback path)
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetIndicators retrieves the technical indicator set
	GetIndicators(ctx context.Context, symbol string) (*models.TechnicalIndicators, error)
}

// MarketauxClient is the news sentiment source.
type MarketauxClient interface {
	// GetNewsSentiment retrieves the news sentiment fragment with headlines
	GetNewsSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error)
}

// StocktwitsClient is the social sentiment source.
type StocktwitsClient interface {
	// GetSocialSentiment retrieves the social sentiment fragment
	GetSocialSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error)
}

// CoinGeckoClient is the crypto market data source.
type CoinGeckoClient interface {
	// GetMarket retrieves the market snapshot for a coin id (provider-native,
	// lowercase — e.g. "bitcoin")
	GetMarket(ctx context.Context, id string) (*models.CryptoMarket, error)
}
