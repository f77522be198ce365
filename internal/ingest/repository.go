package ingest

import (
	"context"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

// RosterSource produces the symbol universe for a run.
type RosterSource interface {
	FetchSymbols(ctx context.Context) ([]string, error)
}

// BarRepository persists fetched bars.
type BarRepository interface {
	SaveBars(ctx context.Context, in []bars.Bar) (int64, error)
}

// RosterRepository persists universe snapshots.
type RosterRepository interface {
	SaveSnapshot(ctx context.Context, date time.Time, symbols []string) (int64, error)
	LatestSnapshot(ctx context.Context) ([]string, error)
}

// RunRepository persists run history.
type RunRepository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	LatestByDate(ctx context.Context, date time.Time) (*Run, error)
}
