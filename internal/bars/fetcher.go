package bars

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
)

const dateFormat = "2006-01-02"

// Fetcher retrieves one session of bars for a whole symbol set through a
// Client, isolating expected per-symbol failures so one bad symbol does not
// abort the batch.
type Fetcher struct {
	client  Client
	workers int
	now     func() time.Time
}

// NewFetcher creates a Fetcher with the given options applied. The default
// fetches one symbol at a time, in input order.
func NewFetcher(client Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		workers: 1,
		now:     time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithWorkers sets how many symbols are fetched in parallel. Values below 1
// are ignored.
func WithWorkers(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// withNow overrides the clock used to resolve the default session date.
func withNow(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// PreviousSessionBars fetches 5-minute bars for the previous calendar day's
// regular session. The previous day is plain calendar arithmetic, not an
// exchange calendar: a Monday run targets Sunday and yields empty results.
func (f *Fetcher) PreviousSessionBars(ctx context.Context, syms []string) (map[string][]Bar, error) {
	return f.SessionBars(ctx, syms, f.now().AddDate(0, 0, -1))
}

// SessionBars fetches 5-minute bars for every symbol over date's regular
// session. The result always carries one key per input symbol: symbols the
// provider had no data for, or was unreachable for, map to an empty slice.
// Any client error outside those two kinds aborts the batch with no partial
// results.
func (f *Fetcher) SessionBars(ctx context.Context, syms []string, date time.Time) (map[string][]Bar, error) {
	if len(syms) == 0 {
		return nil, apperror.New(apperror.InvalidInput, "no symbols provided")
	}

	w := SessionWindow(date)

	results := make([][]Bar, len(syms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, sym := range syms {
		g.Go(func() error {
			b, err := f.client.Bars(gctx, sym, w, Interval5Min)
			switch {
			case err == nil:
				results[i] = b
			case errors.Is(err, ErrNoData) || errors.Is(err, ErrUnavailable):
				slog.Warn("no bars for symbol", "symbol", sym,
					"date", w.Start.Format(dateFormat), "error", err)
				results[i] = []Bar{}
			default:
				return fmt.Errorf("fetch bars for %s: %w", sym, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]Bar, len(syms))
	for i, sym := range syms {
		out[sym] = results[i]
	}
	return out, nil
}
