package dto

import (
	"time"

	"github.com/oapi-codegen/runtime/types"
)

// GetStockPricesParams は GET /stocks/{symbol} のクエリパラメータです。
type GetStockPricesParams struct {
	StartDate *types.Date `form:"start_date,omitempty"`
	EndDate   *types.Date `form:"end_date,omitempty"`
	Limit     *int        `form:"limit,omitempty"`
}

// FetchStockDataParams は POST /stocks/{symbol}/fetch のクエリパラメータです。
type FetchStockDataParams struct {
	StartDate types.Date  `form:"start_date"`
	EndDate   *types.Date `form:"end_date,omitempty"`
	Interval  *string     `form:"interval,omitempty"`
}

// GetOptionsChainParams は GET /options/{underlying_symbol} のクエリパラメータです。
type GetOptionsChainParams struct {
	Timestamp      *time.Time  `form:"timestamp,omitempty"`
	ExpirationDate *types.Date `form:"expiration_date,omitempty"`
}

// GetAvailableDatesParams は GET /available-dates のクエリパラメータです。
type GetAvailableDatesParams struct {
	Symbol *string `form:"symbol,omitempty"`
}

// DatePtr returns the time of d, or nil.
func DatePtr(d *types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
