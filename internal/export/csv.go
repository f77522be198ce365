package export

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

// CSVSaver writes bars as CSV with a header row. Columns match the bars table
// so exported files load straight into external tooling.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(in []bars.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"symbol", "ts", "open", "high", "low", "close", "volume", "trade_count", "vwap"}); err != nil {
		return err
	}
	for _, b := range in {
		if err := w.Write([]string{
			b.Symbol,
			b.Timestamp.UTC().Format(time.RFC3339),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			strconv.FormatUint(b.Volume, 10),
			strconv.FormatUint(b.TradeCount, 10),
			floatStr(b.VWAP),
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
