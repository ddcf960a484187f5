// Package entity defines the domain models for the marketdata feature.
package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept for stored prices.
const PriceScale = 2

// MaxSymbolLength is the longest ticker accepted by the store.
const MaxSymbolLength = 10

// Bar represents one OHLCV (Open, High, Low, Close, Volume) record
// for a stock symbol at a point in time.
type Bar struct {
	Symbol    string          // Upper-cased ticker (e.g., "SPY")
	Timestamp time.Time       // Start of the bar, always UTC
	Open      decimal.Decimal // Opening price
	High      decimal.Decimal // Highest price during the bar
	Low       decimal.Decimal // Lowest price during the bar
	Close     decimal.Decimal // Closing price
	Volume    int64           // Traded volume, 0 when the provider has none
}

// Normalize returns a copy of the bar with the symbol upper-cased, the timestamp
// converted to UTC and prices rounded to PriceScale.
func (b Bar) Normalize() Bar {
	b.Symbol = NormalizeSymbol(b.Symbol)
	b.Timestamp = b.Timestamp.UTC()
	b.Open = b.Open.Round(PriceScale)
	b.High = b.High.Round(PriceScale)
	b.Low = b.Low.Round(PriceScale)
	b.Close = b.Close.Round(PriceScale)
	if b.Volume < 0 {
		b.Volume = 0
	}
	return b
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// BarQuery selects stored bars. Nil dates leave that side of the range open;
// a Limit of 0 returns every matching bar.
type BarQuery struct {
	Symbol    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// IngestRequest asks for bars of one symbol to be fetched and stored.
type IngestRequest struct {
	Symbol    string
	StartDate time.Time
	EndDate   *time.Time // nil means today
	Interval  string     // empty means DefaultInterval
}

// IngestResult reports how many bars the provider returned and how many of
// them were new to the store.
type IngestResult struct {
	Symbol  string
	Fetched int
	Stored  int
}
