package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
)

const dateFormat = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveSnapshot stores the symbol universe observed on date. Saving the same
// universe for the same date twice is a no-op.
func (r *Repository) SaveSnapshot(ctx context.Context, date time.Time, symbols []string) (int64, error) {
	if len(symbols) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(symbols))
	args := make([]any, 0, len(symbols)*2)
	for i, sym := range symbols {
		placeholders[i] = "(?, ?)"
		args = append(args, date.Format(dateFormat), sym)
	}

	query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
		"INSERT OR IGNORE INTO roster_symbols (snapshot_date, symbol) VALUES %s",
		strings.Join(placeholders, ", "),
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("save roster snapshot: %w", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}

// LatestSnapshot returns the most recently stored universe, sorted ascending.
func (r *Repository) LatestSnapshot(ctx context.Context) ([]string, error) {
	const query = `SELECT symbol FROM roster_symbols
		WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM roster_symbols)
		ORDER BY symbol ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("latest roster snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(symbols) == 0 {
		return nil, apperror.New(apperror.NotFound, "no roster snapshot stored")
	}
	return symbols, nil
}
