// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// ErrorEnvelope is the common shape of a Twelve Data error body.
// Twelve Data reports most failures with HTTP 200 and status "error".
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsError reports whether the body describes a failed request.
func (e ErrorEnvelope) IsError() bool {
	return e.Status == "error"
}

// TimeSeriesResponse represents the JSON response from the Twelve Data time_series endpoint.
type TimeSeriesResponse struct {
	ErrorEnvelope
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []TimeSeriesValue `json:"values"`
}

// TimeSeriesValue is one bar. Every field arrives as a string; volume may be
// missing for indices and some exchanges.
type TimeSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume,omitempty"`
}
