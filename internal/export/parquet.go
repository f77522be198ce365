package export

import (
	"github.com/parquet-go/parquet-go"

	"github.com/Cole-Dylewski/market-data-pipeline/internal/bars"
)

// parquetRow is the on-disk schema: millisecond timestamps and the short
// column names used by market-data flat files.
type parquetRow struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"t"`
	Open       float64 `parquet:"o"`
	High       float64 `parquet:"h"`
	Low        float64 `parquet:"l"`
	Close      float64 `parquet:"c"`
	Volume     int64   `parquet:"v"`
	VWAP       float64 `parquet:"vw,optional"`
	TradeCount int64   `parquet:"n,optional"`
}

// ParquetSaver writes bars as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(in []bars.Bar, path string) error {
	rows := make([]parquetRow, len(in))
	for i, b := range in {
		rows[i] = parquetRow{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     int64(b.Volume),
			VWAP:       b.VWAP,
			TradeCount: int64(b.TradeCount),
		}
	}
	return parquet.WriteFile(path, rows)
}
