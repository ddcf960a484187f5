// Package polygon implements the market repository on top of the Polygon.io REST client.
package polygon

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

// ProviderName identifies Polygon in errors and metrics.
const ProviderName = "polygon"

// maxExpirationScan bounds how many distinct expirations ListExpirations collects
// before it stops paging through the chain snapshot.
const maxExpirationScan = 20

const aggsPageLimit = 50000

type span struct {
	multiplier int
	timespan   models.Timespan
}

var spans = map[entity.Interval]span{
	entity.Interval1Min:   {1, models.Minute},
	entity.Interval5Min:   {5, models.Minute},
	entity.Interval15Min:  {15, models.Minute},
	entity.Interval30Min:  {30, models.Minute},
	entity.Interval1Hour:  {1, models.Hour},
	entity.Interval1Day:   {1, models.Day},
	entity.Interval1Week:  {1, models.Week},
	entity.Interval1Month: {1, models.Month},
}

// Market fetches bars, option chains and prices from Polygon.io.
type Market struct {
	client *polygon.Client
	now    func() time.Time
}

var _ usecase.MarketRepository = (*Market)(nil)

func NewMarket(apiKey string) *Market {
	return &Market{client: polygon.New(apiKey), now: time.Now}
}

func (m *Market) GetBars(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error) {
	sp, ok := spans[interval]
	if !ok {
		return nil, domain.NewValidationError("interval", "unsupported interval %q", interval)
	}
	r := entity.NewDayRange(start, end, m.now())

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: sp.multiplier,
		Timespan:   sp.timespan,
		From:       models.Millis(r.Start),
		To:         models.Millis(r.End.Add(-time.Millisecond)),
	}.WithAdjusted(true).WithOrder(models.Asc).WithLimit(aggsPageLimit)

	iter := m.client.ListAggs(ctx, params)
	bars := make([]entity.Bar, 0)
	for iter.Next() {
		b := aggToBar(symbol, iter.Item())
		if r.Contains(b.Timestamp) {
			bars = append(bars, b)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}
	return bars, nil
}

// ListExpirations walks the chain snapshot, which is ordered by OCC ticker and
// therefore by expiration, and returns the distinct expirations it sees.
func (m *Market) ListExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	iter := m.client.ListOptionsChainSnapshot(ctx, &models.ListOptionsChainParams{UnderlyingAsset: symbol})

	out := make([]time.Time, 0)
	seen := make(map[time.Time]struct{})
	for iter.Next() {
		d := entity.StartOfDay(time.Time(iter.Item().Details.ExpirationDate))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
		if len(out) >= maxExpirationScan {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}
	return out, nil
}

func (m *Market) GetChain(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
	exp := models.Date(entity.StartOfDay(expiration))
	iter := m.client.ListOptionsChainSnapshot(ctx, &models.ListOptionsChainParams{
		UnderlyingAsset:  symbol,
		ExpirationDateEQ: &exp,
	})

	out := make([]entity.OptionContract, 0)
	for iter.Next() {
		c, ok := snapshotToContract(symbol, iter.Item())
		if ok {
			out = append(out, c)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, domain.NewProviderError(ProviderName, err)
	}
	return out, nil
}

// GetPrice returns the previous session close, the latest price available on
// every Polygon plan.
func (m *Market) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	res, err := m.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{Ticker: symbol})
	if err != nil {
		return decimal.Zero, domain.NewProviderError(ProviderName, err)
	}
	if len(res.Results) == 0 {
		return decimal.Zero, domain.NewProviderError(ProviderName, fmt.Errorf("no price available for %s", symbol))
	}
	return decimal.NewFromFloat(res.Results[0].Close), nil
}

func aggToBar(symbol string, a models.Agg) entity.Bar {
	vol := int64(0)
	if a.Volume > 0 {
		vol = int64(a.Volume)
	}
	return entity.Bar{
		Symbol:    symbol,
		Timestamp: time.Time(a.Timestamp).UTC(),
		Open:      decimal.NewFromFloat(a.Open),
		High:      decimal.NewFromFloat(a.High),
		Low:       decimal.NewFromFloat(a.Low),
		Close:     decimal.NewFromFloat(a.Close),
		Volume:    vol,
	}
}

func snapshotToContract(symbol string, s models.OptionContractSnapshot) (entity.OptionContract, bool) {
	var typ entity.OptionType
	switch s.Details.ContractType {
	case "call":
		typ = entity.Call
	case "put":
		typ = entity.Put
	default:
		return entity.OptionContract{}, false
	}

	// 数値はomitemptyでゼロと欠損が区別できないため、ブロック単位の有無で判定する
	g := s.Greeks
	hasQuote := !time.Time(s.LastQuote.LastUpdated).IsZero() || s.LastQuote.Bid != 0 || s.LastQuote.Ask != 0
	hasDay := !time.Time(s.Day.LastUpdated).IsZero() || s.Day.Close != 0 || s.Day.Volume != 0
	hasGreeks := g.Delta != 0 || g.Gamma != 0 || g.Theta != 0 || g.Vega != 0

	return entity.OptionContract{
		UnderlyingSymbol:  symbol,
		ExpirationDate:    entity.StartOfDay(time.Time(s.Details.ExpirationDate)),
		Strike:            decimal.NewFromFloat(s.Details.StrikePrice),
		OptionType:        typ,
		Bid:               optional(hasQuote, s.LastQuote.Bid),
		Ask:               optional(hasQuote, s.LastQuote.Ask),
		Last:              optional(hasDay, s.Day.Close),
		Volume:            optionalInt(hasDay, s.Day.Volume),
		OpenInterest:      optionalInt(true, s.OpenInterest),
		ImpliedVolatility: optional(hasGreeks || s.ImpliedVolatility != 0, s.ImpliedVolatility),
		Delta:             optional(hasGreeks, g.Delta),
		Gamma:             optional(hasGreeks, g.Gamma),
		Theta:             optional(hasGreeks, g.Theta),
		Vega:              optional(hasGreeks, g.Vega),
		UnderlyingPrice:   decimal.NewFromFloat(s.UnderlyingAsset.Price),
	}, true
}

func optional(present bool, f float64) *decimal.Decimal {
	if !present {
		return nil
	}
	d := decimal.NewFromFloat(f)
	return &d
}

func optionalInt(present bool, f float64) *int64 {
	if !present {
		return nil
	}
	n := int64(f)
	return &n
}
