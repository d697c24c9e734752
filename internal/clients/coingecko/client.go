// Package coingecko provides the crypto market data adapter.
// The public API requires no key; coin ids use provider-native lowercase
// form ("bitcoin", not "BTC").
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"stockintel/internal/clients/rest"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

// Client implements the CoinGeckoClient interface
type Client struct {
	rest   *rest.Client
	logger *common.Logger
	now    func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new CoinGecko adapter on top of a rate-limited client
func NewClient(rc *rest.Client, opts ...ClientOption) *Client {
	c := &Client{
		rest:   rc,
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// optNum returns the float at path, or nil when missing or non-numeric.
func optNum(body []byte, path string) *float64 {
	r := gjson.GetBytes(body, path)
	if !r.Exists() || r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

// GetMarket retrieves the market snapshot for a coin id. The previous close
// is derived from the 24h change so the report's change percent reproduces
// the provider's figure from raw prices.
func (c *Client) GetMarket(ctx context.Context, id string) (*models.CryptoMarket, error) {
	path := fmt.Sprintf("/coins/%s", url.PathEscape(id))
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "true")
	params.Set("developer_data", "false")

	body, err := c.rest.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	price := optNum(body, "market_data.current_price.usd")
	if price == nil || *price <= 0 {
		return nil, fmt.Errorf("coingecko: no market data for %s", id)
	}

	quote := &models.Quote{
		Symbol:    id,
		Current:   *price,
		High:      optNum(body, "market_data.high_24h.usd"),
		Low:       optNum(body, "market_data.low_24h.usd"),
		Timestamp: c.now(),
		Source:    "coingecko",
	}
	if v := optNum(body, "market_data.total_volume.usd"); v != nil && *v >= 0 {
		vol := int64(*v)
		quote.Volume = &vol
	}
	if changePct := optNum(body, "market_data.price_change_percentage_24h"); changePct != nil && *changePct > -100 {
		prev := *price / (1 + *changePct/100)
		quote.PreviousClose = &prev
	}
	quote.DeriveChangePercent()

	market := &models.CryptoMarket{Quote: quote}

	name := gjson.GetBytes(body, "name").String()
	if mc := optNum(body, "market_data.market_cap.usd"); mc != nil || name != "" {
		market.Fundamentals = &models.Fundamentals{
			Name:      name,
			MarketCap: mc,
			Source:    "coingecko",
		}
	}

	up := optNum(body, "sentiment_votes_up_percentage")
	down := optNum(body, "sentiment_votes_down_percentage")
	if up != nil && down != nil {
		market.Community = &models.SentimentFragment{
			Source: "community",
			Score:  *up - *down,
		}
	}

	return market, nil
}

// Ensure Client implements CoinGeckoClient
var _ interfaces.CoinGeckoClient = (*Client)(nil)
