// Package export writes fetched bars to per-run files. Savers exist for CSV,
// JSON and Parquet; the ingest service picks one from configuration.
package export

import (
	"fmt"
	"strings"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

// Saver persists one batch of bars to a file.
type Saver interface {
	Save(in []bars.Bar, path string) error
	Extension() string
}

// NewSaver returns the saver for format. The empty string and "none" disable
// exporting and yield a nil Saver.
func NewSaver(format string) (Saver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "none":
		return nil, nil
	case "csv":
		return CSVSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use: csv, json, parquet, none)", format)
	}
}
