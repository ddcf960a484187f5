package dto

// ExpirationResponse represents the /options/expiration endpoint.
type ExpirationResponse struct {
	ErrorEnvelope
	Dates []string `json:"dates"`
}

// OptionsChainResponse represents the /options/chain endpoint.
type OptionsChainResponse struct {
	ErrorEnvelope
	Calls []OptionQuote `json:"calls"`
	Puts  []OptionQuote `json:"puts"`
}

// OptionQuote is a single contract. Numeric fields are nil when the provider
// has no value for them.
type OptionQuote struct {
	ContractName      string   `json:"contract_name"`
	OptionID          string   `json:"option_id"`
	LastTradeDate     string   `json:"last_trade_date"`
	Strike            float64  `json:"strike"`
	LastPrice         *float64 `json:"last_price"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"open_interest"`
	ImpliedVolatility *float64 `json:"implied_volatility"`
	InTheMoney        bool     `json:"in_the_money"`
}

// PriceResponse represents the /price endpoint.
type PriceResponse struct {
	ErrorEnvelope
	Price string `json:"price"`
}
