package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType distinguishes calls from puts. The values match the
// single-character codes stored in the options_chains table.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// OptionContract is one strike/expiration/type row of an options chain snapshot.
// Greeks and implied volatility are whatever the provider reported; nil means
// the provider did not supply a value.
type OptionContract struct {
	UnderlyingSymbol  string
	Timestamp         time.Time
	ExpirationDate    time.Time
	Strike            decimal.Decimal
	OptionType        OptionType
	Bid               *decimal.Decimal
	Ask               *decimal.Decimal
	Last              *decimal.Decimal
	Volume            *int64
	OpenInterest      *int64
	ImpliedVolatility *decimal.Decimal
	Delta             *decimal.Decimal
	Gamma             *decimal.Decimal
	Theta             *decimal.Decimal
	Vega              *decimal.Decimal
	UnderlyingPrice   decimal.Decimal
}

// ExpirationFailure records an expiration whose chain could not be fetched.
type ExpirationFailure struct {
	Expiration time.Time
	Reason     string
}

// ChainSnapshot is the result of a live options-chain fetch. Failures lists the
// expirations that were skipped; the remaining contracts are still usable.
type ChainSnapshot struct {
	UnderlyingSymbol string
	UnderlyingPrice  decimal.Decimal
	Timestamp        time.Time
	Expirations      []time.Time
	Contracts        []OptionContract
	Failures         []ExpirationFailure
}

// Partial reports whether at least one expiration failed.
func (s *ChainSnapshot) Partial() bool {
	return len(s.Failures) > 0
}
