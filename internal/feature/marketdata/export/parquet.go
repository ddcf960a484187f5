// Package export writes stored bars to Parquet files and optionally ships them to object storage.
package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// ContentType is the media type used for uploaded files.
const ContentType = "application/vnd.apache.parquet"

// PriceScale is the number of fractional digits kept for prices, matching numeric(10,2).
const PriceScale = 2

// BarRow is the on-disk layout of a bar. Prices are DECIMAL(10,2) columns
// holding the unscaled value (cents).
type BarRow struct {
	Symbol      string `parquet:"symbol,dict"`
	TimestampMs int64  `parquet:"timestamp_ms"` // Unix milliseconds, UTC
	Open        int64  `parquet:"open,decimal(2:10)"`
	High        int64  `parquet:"high,decimal(2:10)"`
	Low         int64  `parquet:"low,decimal(2:10)"`
	Close       int64  `parquet:"close,decimal(2:10)"`
	Volume      int64  `parquet:"volume"`
}

// Bar converts the row back to a bar.
func (r BarRow) Bar() entity.Bar {
	return entity.Bar{
		Symbol:    r.Symbol,
		Timestamp: time.UnixMilli(r.TimestampMs).UTC(),
		Open:      fromUnscaled(r.Open),
		High:      fromUnscaled(r.High),
		Low:       fromUnscaled(r.Low),
		Close:     fromUnscaled(r.Close),
		Volume:    r.Volume,
	}
}

func unscaled(d decimal.Decimal) int64 {
	return d.Round(PriceScale).Shift(PriceScale).IntPart()
}

func fromUnscaled(v int64) decimal.Decimal {
	return decimal.New(v, -PriceScale)
}

// ToRows converts bars into rows, keeping their order.
func ToRows(bars []entity.Bar) []BarRow {
	rows := make([]BarRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, BarRow{
			Symbol:      b.Symbol,
			TimestampMs: b.Timestamp.UTC().UnixMilli(),
			Open:        unscaled(b.Open),
			High:        unscaled(b.High),
			Low:         unscaled(b.Low),
			Close:       unscaled(b.Close),
			Volume:      b.Volume,
		})
	}
	return rows
}

// Write encodes rows to w as a zstd-compressed Parquet file.
func Write(w io.Writer, rows []BarRow) error {
	pw := parquet.NewGenericWriter[BarRow](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile creates path and writes rows to it.
func WriteFile(path string, rows []BarRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, rows)
}

// ReadFile decodes every row of a file written by WriteFile.
func ReadFile(path string) ([]BarRow, error) {
	return parquet.ReadFile[BarRow](path)
}
