// Package app wires configuration, clients, and services into one composition
// root shared by every binary.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stockintel/internal/clients/alphavantage"
	"stockintel/internal/clients/coingecko"
	"stockintel/internal/clients/finnhub"
	"stockintel/internal/clients/marketaux"
	"stockintel/internal/clients/rest"
	"stockintel/internal/clients/stocktwits"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/services/intel"
)

// App holds all initialized clients and services.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Intel       interfaces.IntelligenceService
	StartupTime time.Time

	restClients []*rest.Client
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, provider clients, and the
// intelligence service. configPath may be empty, in which case the default
// resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Config resolution: explicit path, STOCKINTEL_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("STOCKINTEL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockintel.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockintel.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	a := &App{
		Config:      config,
		Logger:      logger,
		StartupTime: startupStart,
	}

	// Keyed providers fail fast at startup; a missing key at request time
	// would only surface as silent partial reports.
	finnhubKey, err := common.RequireAPIKey("finnhub", config.Clients.Finnhub.APIKey)
	if err != nil {
		return nil, err
	}
	alphaKey, err := common.RequireAPIKey("alphavantage", config.Clients.AlphaVantage.APIKey)
	if err != nil {
		return nil, err
	}
	marketauxKey, err := common.RequireAPIKey("marketaux", config.Clients.Marketaux.APIKey)
	if err != nil {
		return nil, err
	}

	finnhubClient := finnhub.NewClient(
		a.newRestClient("finnhub", &config.Clients.Finnhub),
		finnhubKey,
		finnhub.WithLogger(logger),
	)
	alphaClient := alphavantage.NewClient(
		a.newRestClient("alphavantage", &config.Clients.AlphaVantage),
		alphaKey,
		alphavantage.WithLogger(logger),
	)
	marketauxClient := marketaux.NewClient(
		a.newRestClient("marketaux", &config.Clients.Marketaux),
		marketauxKey,
		marketaux.WithLogger(logger),
	)

	// StockTwits and CoinGecko serve their public endpoints without keys
	stocktwitsClient := stocktwits.NewClient(
		a.newRestClient("stocktwits", &config.Clients.Stocktwits),
		stocktwits.WithLogger(logger),
	)
	coingeckoClient := coingecko.NewClient(
		a.newRestClient("coingecko", &config.Clients.CoinGecko),
		coingecko.WithLogger(logger),
	)

	aggregator := intel.NewAggregator(
		finnhubClient,
		alphaClient,
		marketauxClient,
		stocktwitsClient,
		coingeckoClient,
		config.Intel.GetProviderTimeout(),
		logger,
	)

	a.Intel = intel.NewService(aggregator,
		intel.WithLogger(logger),
		intel.WithMaxHeadlines(config.Intel.MaxHeadlines),
		intel.WithCryptoSymbols(config.Intel.CryptoSymbols),
	)

	logger.Info().
		Str("environment", config.Environment).
		Int("providers", len(a.restClients)).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")

	return a, nil
}

// newRestClient builds the rate-limited HTTP client for one provider and
// registers it for the stats endpoint.
func (a *App) newRestClient(provider string, cfg *common.ProviderConfig) *rest.Client {
	rc := rest.NewClient(provider, cfg.BaseURL,
		rest.WithLogger(a.Logger),
		rest.WithRateInterval(cfg.GetRateInterval()),
		rest.WithRetry(cfg.MaxRetries, cfg.GetRetryDelay()),
		rest.WithTimeout(cfg.GetTimeout()),
		rest.WithDailyQuota(cfg.DailyQuota),
	)
	a.restClients = append(a.restClients, rc)
	return rc
}

// ProviderStats snapshots the call bookkeeping of every provider client.
func (a *App) ProviderStats() []rest.Stats {
	stats := make([]rest.Stats, 0, len(a.restClients))
	for _, rc := range a.restClients {
		stats = append(stats, rc.Stats())
	}
	return stats
}

// Close releases application resources.
func (a *App) Close() {
	a.Logger.Info().Msg("Application shutdown complete")
}
