// Package bars defines the OHLCV bar model and the batch fetcher that
// retrieves one trading session of intraday bars for a set of symbols.
package bars

import (
	"context"
	"errors"
	"time"
)

// Interval is the bar aggregation granularity requested from a provider.
type Interval string

const (
	Interval1Min  Interval = "1Min"
	Interval5Min  Interval = "5Min"
	Interval15Min Interval = "15Min"
	Interval1Day  Interval = "1Day"
)

// Regular US equity session bounds, expressed in naive local time. Timezone
// and holiday handling are intentionally simplified: the window is built in
// the date's own location, not the exchange's.
const (
	sessionOpenHour   = 9
	sessionOpenMinute = 30
	sessionCloseHour  = 16
)

// Bar is one OHLCV observation for one symbol at one timestamp.
type Bar struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     uint64    `json:"volume"`
	TradeCount uint64    `json:"tradeCount,omitempty"`
	VWAP       float64   `json:"vwap,omitempty"`
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// SessionWindow returns the regular trading session for the calendar date of
// t: 09:30 to 16:00. Any time-of-day component of t is ignored.
func SessionWindow(t time.Time) Window {
	y, m, d := t.Date()
	return Window{
		Start: time.Date(y, m, d, sessionOpenHour, sessionOpenMinute, 0, 0, t.Location()),
		End:   time.Date(y, m, d, sessionCloseHour, 0, 0, 0, t.Location()),
	}
}

var (
	// ErrNoData signals that the provider has no bars for the symbol and
	// window (unknown symbol, delisted, or no trading activity).
	ErrNoData = errors.New("no bar data")

	// ErrUnavailable signals that the provider could not be reached or
	// answered with a transient failure (network error, timeout, rate limit,
	// server error).
	ErrUnavailable = errors.New("provider unavailable")
)

// Client retrieves bars for a single symbol over a window. Implementations
// report expected failures by wrapping ErrNoData or ErrUnavailable; the batch
// fetcher treats every other error as fatal.
type Client interface {
	Bars(ctx context.Context, symbol string, w Window, iv Interval) ([]Bar, error)
}
