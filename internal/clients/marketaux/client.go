// Package marketaux provides the news sentiment adapter
package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"stockintel/internal/clients/rest"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

const maxHeadlines = 10

// Client implements the MarketauxClient interface
type Client struct {
	rest   *rest.Client
	apiKey string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Marketaux adapter on top of a rate-limited client
func NewClient(rc *rest.Client, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		rest:   rc,
		apiKey: apiKey,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// newsResponse is the /news/all payload. Entity sentiment scores are in
// [-1, 1] and normalized to [-100, 100] at this boundary.
type newsResponse struct {
	Data []struct {
		Title    string `json:"title"`
		Entities []struct {
			Symbol         string   `json:"symbol"`
			SentimentScore *float64 `json:"sentiment_score"`
		} `json:"entities"`
	} `json:"data"`
}

// GetNewsSentiment retrieves the news sentiment fragment for a symbol.
// Articles without a sentiment score for the symbol still count as headlines
// but contribute no score. Zero matching articles is genuine neutral
// evidence, not an error.
func (c *Client) GetNewsSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
	params := url.Values{}
	params.Set("api_token", c.apiKey)
	params.Set("symbols", symbol)
	params.Set("filter_entities", "true")
	params.Set("language", "en")

	body, err := c.rest.Get(ctx, "/news/all", params)
	if err != nil {
		return nil, err
	}

	var resp newsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode news: %w", err)
	}

	fragment := &models.SentimentFragment{Source: "news"}

	var sum float64
	var scored int
	for _, article := range resp.Data {
		matched := false
		for _, entity := range article.Entities {
			if !strings.EqualFold(entity.Symbol, symbol) {
				continue
			}
			matched = true
			if entity.SentimentScore != nil {
				sum += *entity.SentimentScore * 100
				scored++
			}
		}
		if matched {
			fragment.Evidence++
			if article.Title != "" && len(fragment.Headlines) < maxHeadlines {
				fragment.Headlines = append(fragment.Headlines, article.Title)
			}
		}
	}

	if scored > 0 {
		score := sum / float64(scored)
		fragment.Score = math.Max(-100, math.Min(100, score))
	}

	return fragment, nil
}

// Ensure Client implements MarketauxClient
var _ interfaces.MarketauxClient = (*Client)(nil)
