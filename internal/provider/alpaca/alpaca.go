// Package alpaca adapts the Alpaca Market Data API to the bars.Client
// interface. Provider errors are classified into the two failure kinds the
// batch fetcher absorbs: data errors (the API rejected the symbol or range)
// and connectivity errors (transport failures, rate limits, server errors).
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

const (
	defaultFeed       = "iex"
	defaultRetryLimit = 3
	defaultRetryDelay = time.Second
)

// Client fetches bars from Alpaca. It implements bars.Client.
type Client struct {
	md *marketdata.Client

	feed       string
	baseURL    string
	retryLimit int
	retryDelay time.Duration
	httpClient *http.Client
}

var _ bars.Client = (*Client)(nil)

// New creates a Client authenticated with the given API key pair.
func New(key, secret string, opts ...Option) *Client {
	c := &Client{
		feed:       defaultFeed,
		retryLimit: defaultRetryLimit,
		retryDelay: defaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	c.md = marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     key,
		APISecret:  secret,
		BaseURL:    c.baseURL,
		RetryLimit: c.retryLimit,
		RetryDelay: c.retryDelay,
		HTTPClient: c.httpClient,
	})
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithFeed selects the data feed ("iex" or "sip"). SIP requires a paid
// subscription.
func WithFeed(feed string) Option {
	return func(c *Client) { c.feed = feed }
}

// WithBaseURL overrides the data API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how often and how long to wait when the API rate limits us.
func WithRetry(limit int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryLimit = limit
		c.retryDelay = delay
	}
}

// Source returns the provider identifier.
func (c *Client) Source() string { return "alpaca" }

// Bars fetches bars for one symbol over the window. An empty result is a
// success with zero bars, not an error.
func (c *Client) Bars(ctx context.Context, symbol string, w bars.Window, iv bars.Interval) ([]bars.Bar, error) {
	// The SDK does not take a context; honor cancellation before the call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf, err := timeFrame(iv)
	if err != nil {
		return nil, err
	}

	raw, err := c.md.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     w.Start,
		End:       w.End,
		Feed:      marketdata.Feed(c.feed),
	})
	if err != nil {
		return nil, classify(symbol, err)
	}

	out := make([]bars.Bar, 0, len(raw))
	for _, b := range raw {
		out = append(out, bars.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  b.Timestamp,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}
	return out, nil
}

func timeFrame(iv bars.Interval) (marketdata.TimeFrame, error) {
	switch iv {
	case bars.Interval1Min:
		return marketdata.OneMin, nil
	case bars.Interval5Min:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case bars.Interval15Min:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case bars.Interval1Day:
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", iv)
	}
}

// classify maps a GetBars failure onto the absorbed error kinds. 429 and 5xx
// responses are transient, as are transport-level failures; any other API
// rejection means there is no data to get for this symbol and range. Errors
// outside those kinds pass through and abort the batch.
func classify(symbol string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *marketdata.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
			return fmt.Errorf("alpaca: %s: %w: %s", symbol, bars.ErrUnavailable, apiErr.Message)
		case apiErr.StatusCode >= 400:
			return fmt.Errorf("alpaca: %s: %w: %s", symbol, bars.ErrNoData, apiErr.Message)
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("alpaca: %s: %w: %v", symbol, bars.ErrUnavailable, err)
	}

	return fmt.Errorf("alpaca: get bars for %s: %w", symbol, err)
}
