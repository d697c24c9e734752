// Package finnhub provides the primary equity data adapter: quotes,
// fundamentals, and insider sentiment.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"stockintel/internal/clients/rest"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func ptr(f *flexFloat64) *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// Client implements the FinnhubClient interface
type Client struct {
	rest   *rest.Client
	apiKey string
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Finnhub adapter on top of a rate-limited client
func NewClient(rc *rest.Client, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		rest:   rc,
		apiKey: apiKey,
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) params() url.Values {
	v := url.Values{}
	v.Set("token", c.apiKey)
	return v
}

// quoteResponse is the /quote payload. Finnhub returns all zeros for unknown
// symbols rather than a 404.
type quoteResponse struct {
	Current       *flexFloat64 `json:"c"`
	Open          *flexFloat64 `json:"o"`
	High          *flexFloat64 `json:"h"`
	Low           *flexFloat64 `json:"l"`
	PreviousClose *flexFloat64 `json:"pc"`
	Volume        *flexFloat64 `json:"v"`
	Timestamp     int64        `json:"t"`
}

// GetQuote retrieves the current price snapshot for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := c.params()
	params.Set("symbol", symbol)

	body, err := c.rest.Get(ctx, "/quote", params)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}

	current := ptr(resp.Current)
	if current == nil || *current <= 0 {
		return nil, fmt.Errorf("finnhub: no quote data for %s", symbol)
	}

	quote := &models.Quote{
		Symbol:        symbol,
		Current:       *current,
		Open:          ptr(resp.Open),
		High:          ptr(resp.High),
		Low:           ptr(resp.Low),
		PreviousClose: ptr(resp.PreviousClose),
		Timestamp:     c.now(),
		Source:        "finnhub",
	}
	if v := ptr(resp.Volume); v != nil && *v >= 0 {
		vol := int64(*v)
		quote.Volume = &vol
	}
	if resp.Timestamp > 0 {
		quote.Timestamp = time.Unix(resp.Timestamp, 0).UTC()
	}
	quote.DeriveChangePercent()

	return quote, nil
}

// metricResponse is the /stock/metric payload. Every metric is optional and
// may be null — absence means "provider did not report", not zero.
type metricResponse struct {
	Metric struct {
		MarketCapitalization *flexFloat64 `json:"marketCapitalization"` // millions USD
		PETTM                *flexFloat64 `json:"peTTM"`
		ForwardPE            *flexFloat64 `json:"forwardPE"`
		EPSTTM               *flexFloat64 `json:"epsTTM"`
		DividendYieldTTM     *flexFloat64 `json:"currentDividendYieldTTM"` // whole-number percent
		Beta                 *flexFloat64 `json:"beta"`
		NetProfitMarginTTM   *flexFloat64 `json:"netProfitMarginTTM"`  // whole-number percent
		RevenueGrowthTTMYoy  *flexFloat64 `json:"revenueGrowthTTMYoy"` // whole-number percent
		High52Week           *flexFloat64 `json:"52WeekHigh"`
		Low52Week            *flexFloat64 `json:"52WeekLow"`
		AvgVolume10Day       *flexFloat64 `json:"10DayAverageTradingVolume"` // millions of shares
	} `json:"metric"`
}

// profileResponse is the /stock/profile2 payload.
type profileResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// GetFundamentals retrieves fundamental metrics plus the company profile.
// A profile failure is tolerated — the metrics alone still produce a record.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	params := c.params()
	params.Set("symbol", symbol)
	params.Set("metric", "all")

	body, err := c.rest.Get(ctx, "/stock/metric", params)
	if err != nil {
		return nil, err
	}

	var resp metricResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}

	m := resp.Metric
	fund := &models.Fundamentals{
		PE:            ptr(m.PETTM),
		ForwardPE:     ptr(m.ForwardPE),
		EPS:           ptr(m.EPSTTM),
		DividendYield: ptr(m.DividendYieldTTM),
		Beta:          ptr(m.Beta),
		ProfitMargin:  ptr(m.NetProfitMarginTTM),
		RevenueGrowth: ptr(m.RevenueGrowthTTMYoy),
		High52Week:    ptr(m.High52Week),
		Low52Week:     ptr(m.Low52Week),
		Source:        "finnhub",
	}

	// Finnhub reports market cap in millions of dollars and average volume in
	// millions of shares — normalize both to whole units
	if mc := ptr(m.MarketCapitalization); mc != nil {
		dollars := *mc * 1e6
		fund.MarketCap = &dollars
	}
	if av := ptr(m.AvgVolume10Day); av != nil && *av > 0 {
		shares := *av * 1e6
		fund.AvgVolume = &shares
	}

	profileParams := c.params()
	profileParams.Set("symbol", symbol)
	if profileBody, perr := c.rest.Get(ctx, "/stock/profile2", profileParams); perr == nil {
		var profile profileResponse
		if err := json.Unmarshal(profileBody, &profile); err == nil {
			fund.Name = profile.Name
			fund.Type = profile.Type
		}
	} else {
		c.logger.Debug().Str("symbol", symbol).Err(perr).Msg("Finnhub profile unavailable")
	}

	return fund, nil
}

// insiderResponse is the /stock/insider-sentiment payload. MSPR is already
// normalized to [-100, 100] by the provider.
type insiderResponse struct {
	Data []struct {
		Change *flexFloat64 `json:"change"`
		MSPR   *flexFloat64 `json:"mspr"`
	} `json:"data"`
}

// GetInsiderSentiment retrieves the insider-transaction sentiment fragment
// over the trailing six months. An empty data set is genuine neutral
// evidence, not an error.
func (c *Client) GetInsiderSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
	to := c.now()
	from := to.AddDate(0, -6, 0)

	params := c.params()
	params.Set("symbol", symbol)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	body, err := c.rest.Get(ctx, "/stock/insider-sentiment", params)
	if err != nil {
		return nil, err
	}

	var resp insiderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode insider sentiment: %w", err)
	}

	fragment := &models.SentimentFragment{Source: "insider"}
	if len(resp.Data) == 0 {
		return fragment, nil
	}

	sum := 0.0
	for _, d := range resp.Data {
		if v := ptr(d.MSPR); v != nil {
			sum += *v
		}
	}
	score := sum / float64(len(resp.Data))
	fragment.Score = math.Max(-100, math.Min(100, score))
	fragment.Evidence = len(resp.Data)

	return fragment, nil
}

// Ensure Client implements FinnhubClient
var _ interfaces.FinnhubClient = (*Client)(nil)
