package dto

import (
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// OptionsChainItem は1契約分のオプションデータです。プロバイダが返さない値は null になります。
type OptionsChainItem struct {
	ExpirationDate    types.Date       `json:"expiration_date"`
	Strike            decimal.Decimal  `json:"strike"`
	OptionType        string           `json:"option_type"` // "C" or "P"
	Bid               *decimal.Decimal `json:"bid"`
	Ask               *decimal.Decimal `json:"ask"`
	Last              *decimal.Decimal `json:"last"`
	Volume            *int64           `json:"volume"`
	OpenInterest      *int64           `json:"open_interest"`
	ImpliedVolatility *decimal.Decimal `json:"implied_volatility"`
	Delta             *decimal.Decimal `json:"delta"`
	Gamma             *decimal.Decimal `json:"gamma"`
	Theta             *decimal.Decimal `json:"theta"`
	Vega              *decimal.Decimal `json:"vega"`
}

// ExpirationFailure は取得に失敗した満期日とその理由です。
type ExpirationFailure struct {
	ExpirationDate types.Date `json:"expiration_date"`
	Error          string     `json:"error"`
}

// OptionsChainResponse は GET /options/{underlying_symbol} のレスポンスです。
type OptionsChainResponse struct {
	UnderlyingSymbol string              `json:"underlying_symbol"`
	UnderlyingPrice  decimal.Decimal     `json:"underlying_price"`
	Timestamp        time.Time           `json:"timestamp"`
	Expirations      []types.Date        `json:"expirations"`
	Chains           []OptionsChainItem  `json:"chains"`
	Count            int                 `json:"count"`
	Failures         []ExpirationFailure `json:"failures"`
}

// NewOptionsChainResponse converts a chain snapshot. Slices are never null.
func NewOptionsChainResponse(s *entity.ChainSnapshot) OptionsChainResponse {
	chains := make([]OptionsChainItem, 0, len(s.Contracts))
	for _, c := range s.Contracts {
		chains = append(chains, OptionsChainItem{
			ExpirationDate:    types.Date{Time: entity.StartOfDay(c.ExpirationDate)},
			Strike:            c.Strike,
			OptionType:        string(c.OptionType),
			Bid:               c.Bid,
			Ask:               c.Ask,
			Last:              c.Last,
			Volume:            c.Volume,
			OpenInterest:      c.OpenInterest,
			ImpliedVolatility: c.ImpliedVolatility,
			Delta:             c.Delta,
			Gamma:             c.Gamma,
			Theta:             c.Theta,
			Vega:              c.Vega,
		})
	}

	failures := make([]ExpirationFailure, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, ExpirationFailure{
			ExpirationDate: types.Date{Time: entity.StartOfDay(f.Expiration)},
			Error:          f.Reason,
		})
	}

	return OptionsChainResponse{
		UnderlyingSymbol: s.UnderlyingSymbol,
		UnderlyingPrice:  s.UnderlyingPrice,
		Timestamp:        s.Timestamp.UTC(),
		Expirations:      toDates(s.Expirations),
		Chains:           chains,
		Count:            len(chains),
		Failures:         failures,
	}
}
