// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"
	"time"

	"hawkiz_backend/internal/app/config"
	"hawkiz_backend/internal/feature/marketdata/adapters/guarded"
	"hawkiz_backend/internal/feature/marketdata/adapters/polygon"
	"hawkiz_backend/internal/feature/marketdata/adapters/twelvedata"
	"hawkiz_backend/internal/feature/marketdata/usecase"
	infrahttp "hawkiz_backend/internal/platform/http"
	"hawkiz_backend/internal/shared/ratelimiter"
)

// NewMarket creates the provider selected by DATA_PROVIDER, wrapped with the
// timeout, per-symbol concurrency, rate and circuit-breaker guards.
func NewMarket(s *config.Settings) (usecase.MarketRepository, error) {
	if s.ProviderAPIKey() == "" {
		slog.Warn("market data provider API key is not set", "provider", s.DataProvider)
	}

	var market usecase.MarketRepository
	switch s.DataProvider {
	case config.ProviderTwelveData:
		cfg := twelvedata.Config{
			APIKey:  s.TwelveDataAPIKey,
			BaseURL: s.TwelveDataBaseURL,
			Timeout: s.Provider.Timeout,
		}
		market = twelvedata.NewTwelveDataMarket(cfg, infrahttp.NewHTTPClient(s.Provider.Timeout))
	case config.ProviderPolygon:
		market = polygon.NewMarket(s.PolygonAPIKey)
	default:
		return nil, fmt.Errorf("unsupported data provider %q", s.DataProvider)
	}

	limiter := ratelimiter.NewRateLimiter(s.Provider.RatePerMinute, time.Minute)
	return guarded.New(market, guarded.Config{
		Provider:             s.DataProvider,
		Timeout:              s.Provider.Timeout,
		MaxInFlightPerSymbol: s.Provider.MaxInFlightPerSymbol,
		ConsecutiveFailures:  s.Provider.BreakerFailures,
		OpenTimeout:          s.Provider.BreakerOpenTimeout,
	}, limiter), nil
}
