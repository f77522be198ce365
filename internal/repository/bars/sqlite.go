package bars

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveBars inserts bars in batches, skipping rows already stored for the same
// (symbol, ts). It returns the number of newly inserted rows, which makes a
// rerun over an already ingested session a visible no-op.
func (r *Repository) SaveBars(ctx context.Context, in []domain.Bar) (int64, error) {
	if len(in) == 0 {
		return 0, nil
	}

	const batchSize = 500
	var total int64

	for i := 0; i < len(in); i += batchSize {
		batch := in[i:min(i+batchSize, len(in))]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*9)
		for j, b := range batch {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args,
				b.Symbol, b.Timestamp.UTC().Format(time.RFC3339),
				b.Open, b.High, b.Low, b.Close,
				int64(b.Volume), int64(b.TradeCount), b.VWAP,
			)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			"INSERT OR IGNORE INTO bars (symbol, ts, open, high, low, close, volume, trade_count, vwap) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("save bars: %w", err)
		}

		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

// ListBars returns the stored bars for symbol within the half-open window
// [from, to), in chronological order.
func (r *Repository) ListBars(ctx context.Context, symbol string, from, to time.Time) ([]domain.Bar, error) {
	const query = `SELECT symbol, ts, open, high, low, close, volume, trade_count, vwap
		FROM bars
		WHERE symbol = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC`

	rows, err := r.db.QueryContext(ctx, query,
		symbol,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list bars: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var tsStr string
		var volume, tradeCount int64
		if err := rows.Scan(&b.Symbol, &tsStr, &b.Open, &b.High, &b.Low, &b.Close, &volume, &tradeCount, &b.VWAP); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp, _ = time.Parse(time.RFC3339, tsStr)
		b.Volume = uint64(volume)
		b.TradeCount = uint64(tradeCount)
		out = append(out, b)
	}

	return out, rows.Err()
}

// CountWindow returns how many bars are stored within [from, to) across all
// symbols.
func (r *Repository) CountWindow(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM bars WHERE ts >= ? AND ts < ?`

	var n int64
	err := r.db.QueryRowContext(ctx, query,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bars: %w", err)
	}
	return n, nil
}
