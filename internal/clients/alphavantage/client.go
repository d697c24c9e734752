// Package alphavantage provides the technical-indicator adapter and the
// fallback equity quote source.
//
// Alpha Vantage responses are maps keyed by display strings ("Global Quote",
// "05. price", "Technical Analysis: RSI") with every number stringified, so
// all extraction goes through gjson rather than struct tags.
package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"stockintel/internal/clients/rest"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

// Client implements the AlphaVantageClient interface
type Client struct {
	rest   *rest.Client
	apiKey string
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

// NewClient creates a new Alpha Vantage adapter on top of a rate-limited client
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

func (c *Client) query(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	return c.rest.Get(ctx, "", params)
}

// numField parses a stringified numeric field; returns nil when the key is
// missing, empty, or not a number.
func numField(result gjson.Result, key string) *float64 {
	field := result.Get(key)
	if !field.Exists() {
		return nil
	}
	s := strings.TrimSpace(strings.TrimSuffix(field.String(), "%"))
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// GetQuote retrieves the GLOBAL_QUOTE snapshot. Used only as the fallback
// when the primary quote source fails.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)

	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	gq := gjson.GetBytes(body, "Global Quote")
	if !gq.Exists() || len(gq.Map()) == 0 {
		// Throttling notes and unknown symbols both come back as 200s with
		// no quote object
		return nil, fmt.Errorf("alphavantage: no quote data for %s", symbol)
	}

	price := numField(gq, `05\. price`)
	if price == nil || *price <= 0 {
		return nil, fmt.Errorf("alphavantage: no price for %s", symbol)
	}

	quote := &models.Quote{
		Symbol:        symbol,
		Current:       *price,
		Open:          numField(gq, `02\. open`),
		High:          numField(gq, `03\. high`),
		Low:           numField(gq, `04\. low`),
		PreviousClose: numField(gq, `08\. previous close`),
		Timestamp:     c.now(),
		Source:        "alphavantage",
	}
	if v := numField(gq, `06\. volume`); v != nil && *v >= 0 {
		vol := int64(*v)
		quote.Volume = &vol
	}
	quote.DeriveChangePercent()

	return quote, nil
}

// latestEntry returns the value under the most recent date key of a
// "Technical Analysis: X" map. Date keys sort lexicographically.
func latestEntry(body []byte, section string) (gjson.Result, bool) {
	analysis := gjson.GetBytes(body, escapeKey(section))
	if !analysis.Exists() {
		return gjson.Result{}, false
	}

	var bestKey string
	var best gjson.Result
	analysis.ForEach(func(key, value gjson.Result) bool {
		if k := key.String(); k > bestKey {
			bestKey = k
			best = value
		}
		return true
	})
	return best, bestKey != ""
}

// escapeKey escapes gjson path metacharacters in a literal JSON key.
func escapeKey(key string) string {
	key = strings.ReplaceAll(key, ".", `\.`)
	key = strings.ReplaceAll(key, "*", `\*`)
	key = strings.ReplaceAll(key, "?", `\?`)
	return key
}

// indicator issues one indicator function call and returns the latest entry.
func (c *Client) indicator(ctx context.Context, symbol, function string, extra url.Values) (gjson.Result, bool) {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("interval", "daily")
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	body, err := c.query(ctx, params)
	if err != nil {
		c.logger.Debug().Str("symbol", symbol).Str("function", function).Err(err).Msg("Indicator unavailable")
		return gjson.Result{}, false
	}

	entry, ok := latestEntry(body, "Technical Analysis: "+function)
	if !ok {
		c.logger.Debug().Str("symbol", symbol).Str("function", function).Msg("Indicator response empty")
	}
	return entry, ok
}

func periodParams(period int, seriesType bool) url.Values {
	v := url.Values{}
	v.Set("time_period", strconv.Itoa(period))
	if seriesType {
		v.Set("series_type", "close")
	}
	return v
}

// GetIndicators retrieves the technical indicator set. Each indicator is an
// independent provider call; any individual failure leaves that field absent
// rather than failing the set. Only a result with no indicators at all is an
// error, so the aggregator can mark the provider's contribution fully absent.
func (c *Client) GetIndicators(ctx context.Context, symbol string) (*models.TechnicalIndicators, error) {
	ind := &models.TechnicalIndicators{}
	got := 0

	if entry, ok := c.indicator(ctx, symbol, "RSI", periodParams(14, true)); ok {
		if v := numField(entry, "RSI"); v != nil {
			ind.RSI = v
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "MACD", url.Values{"series_type": []string{"close"}}); ok {
		value := numField(entry, "MACD")
		signal := numField(entry, "MACD_Signal")
		hist := numField(entry, "MACD_Hist")
		if value != nil && signal != nil && hist != nil {
			ind.MACD = &models.MACD{Value: *value, Signal: *signal, Histogram: *hist}
			got++
		}
	}

	for _, sma := range []struct {
		period int
		field  **float64
	}{
		{20, &ind.SMA20},
		{50, &ind.SMA50},
		{200, &ind.SMA200},
	} {
		if entry, ok := c.indicator(ctx, symbol, "SMA", periodParams(sma.period, true)); ok {
			if v := numField(entry, "SMA"); v != nil {
				*sma.field = v
				got++
			}
		}
	}

	for _, ema := range []struct {
		period int
		field  **float64
	}{
		{20, &ind.EMA20},
		{50, &ind.EMA50},
	} {
		if entry, ok := c.indicator(ctx, symbol, "EMA", periodParams(ema.period, true)); ok {
			if v := numField(entry, "EMA"); v != nil {
				*ema.field = v
				got++
			}
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "BBANDS", periodParams(20, true)); ok {
		upper := numField(entry, "Real Upper Band")
		middle := numField(entry, "Real Middle Band")
		lower := numField(entry, "Real Lower Band")
		// Bands violating lower <= middle <= upper are dropped as malformed
		if upper != nil && middle != nil && lower != nil && *lower <= *middle && *middle <= *upper {
			ind.Bollinger = &models.BollingerBands{Upper: *upper, Middle: *middle, Lower: *lower}
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "STOCH", nil); ok {
		k := numField(entry, "SlowK")
		d := numField(entry, "SlowD")
		if k != nil && d != nil {
			ind.Stochastic = &models.Stochastic{K: *k, D: *d}
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "ADX", periodParams(14, false)); ok {
		if v := numField(entry, "ADX"); v != nil {
			ind.ADX = v
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "OBV", nil); ok {
		if v := numField(entry, "OBV"); v != nil {
			ind.OBV = v
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "VWAP", nil); ok {
		if v := numField(entry, "VWAP"); v != nil {
			ind.VWAP = v
			got++
		}
	}

	if entry, ok := c.indicator(ctx, symbol, "ATR", periodParams(14, false)); ok {
		if v := numField(entry, "ATR"); v != nil {
			ind.ATR = v
			got++
		}
	}

	if got == 0 {
		return nil, fmt.Errorf("alphavantage: no indicators available for %s", symbol)
	}

	return ind, nil
}

// Ensure Client implements AlphaVantageClient
var _ interfaces.AlphaVantageClient = (*Client)(nil)
