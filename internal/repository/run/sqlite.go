package run

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/apperror"
	"github.com/Cole-Dylewski/market-data-pipeline/internal/ingest"
)

const dateFormat = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, run *ingest.Run) error {
	const query = `INSERT INTO runs (session_date, status, symbols_count, bars_count)
		VALUES (?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		run.SessionDate.Format(dateFormat), string(run.Status),
		run.SymbolsCount, run.BarsCount,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	run.ID, _ = res.LastInsertId()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, run *ingest.Run) error {
	const query = `UPDATE runs SET status = ?, error = ?, symbols_count = ?, bars_count = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		string(run.Status), run.Error, run.SymbolsCount, run.BarsCount, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	run.UpdatedAt = time.Now().UTC()
	return nil
}

// LatestByDate returns the most recent run recorded for a session date.
func (r *Repository) LatestByDate(ctx context.Context, date time.Time) (*ingest.Run, error) {
	const query = `SELECT id, session_date, status, symbols_count, bars_count,
		error, created_at, updated_at
		FROM runs WHERE session_date = ?
		ORDER BY id DESC LIMIT 1`

	run := &ingest.Run{}
	var dateStr, status, createdStr, updatedStr string
	var dbErr sql.NullString

	err := r.db.QueryRowContext(ctx, query, date.Format(dateFormat)).Scan(
		&run.ID, &dateStr, &status,
		&run.SymbolsCount, &run.BarsCount,
		&dbErr, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.New(apperror.NotFound, "no run for date")
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}

	run.Status = ingest.Status(status)
	if dbErr.Valid {
		run.Error = dbErr.String
	}
	run.SessionDate, _ = time.Parse(dateFormat, dateStr)
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	run.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return run, nil
}
