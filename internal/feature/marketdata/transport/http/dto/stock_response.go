// Package dto はmarketdata APIのリクエストパラメータとレスポンスDTOを定義します。
package dto

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// BarResponse は1本分の株価データです。価格は文字列の10進数で返します。
type BarResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// StockPriceListResponse は GET /stocks/{symbol} のレスポンスです。
type StockPriceListResponse struct {
	Symbol string        `json:"symbol"`
	Data   []BarResponse `json:"data"`
	Count  int           `json:"count"`
}

// NewStockPriceListResponse converts bars, keeping their order.
func NewStockPriceListResponse(symbol string, bars []entity.Bar) StockPriceListResponse {
	data := make([]BarResponse, 0, len(bars))
	for _, b := range bars {
		data = append(data, BarResponse{
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return StockPriceListResponse{Symbol: symbol, Data: data, Count: len(data)}
}

// FetchResponse は POST /stocks/{symbol}/fetch のレスポンスです。
type FetchResponse struct {
	Message       string `json:"message"`
	Symbol        string `json:"symbol"`
	RecordsStored int    `json:"records_stored"`
	TotalFetched  int    `json:"total_fetched"`
}

// NewFetchResponse builds the summary returned after an ingest.
func NewFetchResponse(res entity.IngestResult) FetchResponse {
	return FetchResponse{
		Message:       fmt.Sprintf("Fetched and stored %d records for %s", res.Stored, res.Symbol),
		Symbol:        res.Symbol,
		RecordsStored: res.Stored,
		TotalFetched:  res.Fetched,
	}
}

// AvailableDatesResponse は GET /available-dates のレスポンスです。symbol は未指定時 null です。
type AvailableDatesResponse struct {
	Symbol *string      `json:"symbol"`
	Dates  []types.Date `json:"dates"`
	Count  int          `json:"count"`
}

// NewAvailableDatesResponse converts store dates into calendar dates.
func NewAvailableDatesResponse(symbol string, dates []time.Time) AvailableDatesResponse {
	out := AvailableDatesResponse{Dates: toDates(dates), Count: len(dates)}
	if symbol != "" {
		out.Symbol = &symbol
	}
	return out
}

func toDates(ts []time.Time) []types.Date {
	out := make([]types.Date, 0, len(ts))
	for _, t := range ts {
		out = append(out, types.Date{Time: entity.StartOfDay(t)})
	}
	return out
}

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
