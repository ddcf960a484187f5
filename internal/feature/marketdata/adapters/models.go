package adapters

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// StockPriceModel is the gorm row for one stored bar.
type StockPriceModel struct {
	ID        uint64          `gorm:"primaryKey"`
	Symbol    string          `gorm:"size:10;not null;index;uniqueIndex:uq_stock_prices_symbol_timestamp,priority:1;index:idx_stock_prices_symbol_timestamp,priority:1"`
	Timestamp time.Time       `gorm:"column:timestamp;not null;index;uniqueIndex:uq_stock_prices_symbol_timestamp,priority:2;index:idx_stock_prices_symbol_timestamp,priority:2"`
	Open      decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	High      decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Low       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Close     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Volume    int64           `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (StockPriceModel) TableName() string {
	return "stock_prices"
}

// OptionsChainModel mirrors entity.OptionContract. Chains are served live, so
// nothing writes this table yet.
type OptionsChainModel struct {
	ID                uint64           `gorm:"primaryKey"`
	UnderlyingSymbol  string           `gorm:"size:10;not null;index;uniqueIndex:uq_options_chains_unique,priority:1;index:idx_options_chains_underlying_timestamp,priority:1"`
	Timestamp         time.Time        `gorm:"column:timestamp;not null;index;uniqueIndex:uq_options_chains_unique,priority:2;index:idx_options_chains_underlying_timestamp,priority:2"`
	ExpirationDate    datatypes.Date   `gorm:"not null;index;uniqueIndex:uq_options_chains_unique,priority:3;index:idx_options_chains_expiration_strike,priority:1"`
	Strike            decimal.Decimal  `gorm:"type:numeric(10,2);not null;uniqueIndex:uq_options_chains_unique,priority:4;index:idx_options_chains_expiration_strike,priority:2"`
	OptionType        string           `gorm:"size:1;not null;uniqueIndex:uq_options_chains_unique,priority:5;check:chk_option_type,option_type IN ('C', 'P')"`
	Bid               *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Ask               *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Last              *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Volume            *int64
	OpenInterest      *int64
	ImpliedVolatility *decimal.Decimal `gorm:"type:numeric(6,4)"`
	Delta             *decimal.Decimal `gorm:"type:numeric(8,6)"`
	Gamma             *decimal.Decimal `gorm:"type:numeric(10,8)"`
	Theta             *decimal.Decimal `gorm:"type:numeric(10,6)"`
	Vega              *decimal.Decimal `gorm:"type:numeric(10,6)"`
	UnderlyingPrice   decimal.Decimal  `gorm:"type:numeric(10,2);not null"`
	CreatedAt         time.Time
}

func (OptionsChainModel) TableName() string {
	return "options_chains"
}

// MarketEventModel stores earnings, dividends, splits and similar dated events.
type MarketEventModel struct {
	ID          uint64         `gorm:"primaryKey"`
	Symbol      string         `gorm:"size:10;not null;index;index:idx_market_events_symbol_date,priority:1"`
	EventDate   datatypes.Date `gorm:"not null;index;index:idx_market_events_symbol_date,priority:2"`
	EventType   string         `gorm:"size:50;not null"`
	Description *string        `gorm:"type:text"`
	CreatedAt   time.Time
}

func (MarketEventModel) TableName() string {
	return "market_events"
}

// TrackedSymbolModel is a ticker the batch ingest job refreshes when no explicit list is given.
type TrackedSymbolModel struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:10;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TrackedSymbolModel) TableName() string {
	return "tracked_symbols"
}

// Models lists every table owned by the marketdata feature, in migration order.
func Models() []any {
	return []any{&StockPriceModel{}, &OptionsChainModel{}, &MarketEventModel{}, &TrackedSymbolModel{}}
}

func toStockPriceModel(b entity.Bar) StockPriceModel {
	return StockPriceModel{
		Symbol:    b.Symbol,
		Timestamp: b.Timestamp,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

func (m StockPriceModel) toEntity() entity.Bar {
	return entity.Bar{
		Symbol:    m.Symbol,
		Timestamp: m.Timestamp.UTC(),
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
		Volume:    m.Volume,
	}
}
