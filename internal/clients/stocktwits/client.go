// Package stocktwits provides the social sentiment adapter.
// The StockTwits streams endpoint is public — no API key is required.
package stocktwits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"stockintel/internal/clients/rest"
	"stockintel/internal/common"
	"stockintel/internal/interfaces"
	"stockintel/internal/models"
)

// Client implements the StocktwitsClient interface
type Client struct {
	rest   *rest.Client
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

// NewClient creates a new StockTwits adapter on top of a rate-limited client
func NewClient(rc *rest.Client, opts ...ClientOption) *Client {
	c := &Client{
		rest:   rc,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// streamResponse is the /streams/symbol payload. Message sentiment is
// optional — most messages carry none.
type streamResponse struct {
	Messages []struct {
		Entities struct {
			Sentiment *struct {
				Basic string `json:"basic"` // "Bullish" or "Bearish"
			} `json:"sentiment"`
		} `json:"entities"`
	} `json:"messages"`
}

// GetSocialSentiment retrieves the social sentiment fragment for a symbol.
// Score is the bull/bear balance of tagged messages scaled to [-100, 100];
// untagged messages are ignored. A stream with no tagged messages is genuine
// neutral evidence.
func (c *Client) GetSocialSentiment(ctx context.Context, symbol string) (*models.SentimentFragment, error) {
	path := fmt.Sprintf("/streams/symbol/%s.json", url.PathEscape(symbol))

	body, err := c.rest.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var resp streamResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stream: %w", err)
	}

	var bullish, bearish int
	for _, msg := range resp.Messages {
		s := msg.Entities.Sentiment
		if s == nil {
			continue
		}
		switch strings.ToLower(s.Basic) {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}

	fragment := &models.SentimentFragment{
		Source:   "social",
		Evidence: bullish + bearish,
	}
	if fragment.Evidence > 0 {
		fragment.Score = float64(bullish-bearish) / float64(fragment.Evidence) * 100
	}

	return fragment, nil
}

// Ensure Client implements StocktwitsClient
var _ interfaces.StocktwitsClient = (*Client)(nil)
