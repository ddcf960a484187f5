package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/adapters/twelvedata/dto"
	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

// ProviderName はエラーやメトリクスで使うプロバイダー名です。
const ProviderName = "twelvedata"

// maxOutputSize はtime_seriesが1回で返す最大件数です。
const maxOutputSize = 5000

// noDataMessage を含むエラーは「データなし」であり失敗ではありません。
const noDataMessage = "No data is available"

var intervals = map[entity.Interval]string{
	entity.Interval1Min:   "1min",
	entity.Interval5Min:   "5min",
	entity.Interval15Min:  "15min",
	entity.Interval30Min:  "30min",
	entity.Interval1Hour:  "1h",
	entity.Interval1Day:   "1day",
	entity.Interval1Week:  "1week",
	entity.Interval1Month: "1month",
}

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg      Config
	client   *http.Client
	now      func() time.Time
	pageSize int
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &TwelveDataMarket{cfg: cfg, client: client, now: time.Now, pageSize: maxOutputSize}
}

// GetBars はTwelve Data APIから時系列データを取得し、指定期間（UTCの日単位、終了日を含む）のバーを昇順で返します。
func (t *TwelveDataMarket) GetBars(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error) {
	wire, ok := intervals[interval]
	if !ok {
		return nil, domain.NewValidationError("interval", "unsupported interval %q", interval)
	}
	r := entity.NewDayRange(start, end, t.now())

	bars := []entity.Bar{}
	from := r.Start.Format(time.DateOnly)
	for {
		page, err := t.timeSeries(ctx, symbol, wire, from, r.End)
		if err != nil {
			if isNoData(err) {
				break
			}
			return nil, err
		}

		var last time.Time
		for _, v := range page {
			b, err := toBar(symbol, v)
			if err != nil {
				return nil, domain.NewProviderError(ProviderName, err)
			}
			last = b.Timestamp
			if !r.Contains(b.Timestamp) {
				continue
			}
			bars = append(bars, b)
		}

		// 上限いっぱいなら続きがある。最後の時刻の直後から次のページを取得する
		if len(page) < t.pageSize || !last.Before(r.End) {
			break
		}
		next := last.Add(time.Second).Format(time.DateTime)
		if next <= from {
			return nil, domain.NewProviderError(ProviderName, fmt.Errorf("time_series paging stalled at %s", from))
		}
		from = next
	}
	if len(bars) == 0 {
		slog.Info("provider returned no bars", "symbol", symbol, "interval", interval)
	}
	return bars, nil
}

// timeSeries は昇順のtime_seriesを1ページ取得します。
func (t *TwelveDataMarket) timeSeries(ctx context.Context, symbol, interval, from string, end time.Time) ([]dto.TimeSeriesValue, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start_date", from)
	// end_date はその日を含まないため翌日を指定する
	q.Set("end_date", end.Format(time.DateOnly))
	q.Set("outputsize", strconv.Itoa(t.pageSize))
	q.Set("timezone", "UTC")
	q.Set("order", "asc")

	var body dto.TimeSeriesResponse
	if err := t.get(ctx, "/time_series", q, &body); err != nil {
		return nil, err
	}
	return body.Values, nil
}

// ListExpirations はオプションの満期日を昇順で返します。
func (t *TwelveDataMarket) ListExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var body dto.ExpirationResponse
	if err := t.get(ctx, "/options/expiration", q, &body); err != nil {
		if isNoData(err) {
			return []time.Time{}, nil
		}
		return nil, err
	}

	out := make([]time.Time, 0, len(body.Dates))
	for _, s := range body.Dates {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, domain.NewProviderError(ProviderName, fmt.Errorf("parse expiration %q: %w", s, err))
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// GetChain は1つの満期日のコールとプットを返します。グリークスは提供されないためnilです。
func (t *TwelveDataMarket) GetChain(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("expiration_date", expiration.Format(time.DateOnly))

	var body dto.OptionsChainResponse
	if err := t.get(ctx, "/options/chain", q, &body); err != nil {
		if isNoData(err) {
			return []entity.OptionContract{}, nil
		}
		return nil, err
	}

	out := make([]entity.OptionContract, 0, len(body.Calls)+len(body.Puts))
	for _, c := range body.Calls {
		out = append(out, toContract(symbol, expiration, entity.Call, c))
	}
	for _, p := range body.Puts {
		out = append(out, toContract(symbol, expiration, entity.Put, p))
	}
	return out, nil
}

// GetPrice は最新の取引価格を返します。
func (t *TwelveDataMarket) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var body dto.PriceResponse
	if err := t.get(ctx, "/price", q, &body); err != nil {
		return decimal.Zero, err
	}
	p, err := decimal.NewFromString(body.Price)
	if err != nil {
		return decimal.Zero, domain.NewProviderError(ProviderName, fmt.Errorf("parse price %q: %w", body.Price, err))
	}
	return p, nil
}

// get はGETリクエストを送信し、レスポンスをoutにデコードします。
// 失敗はすべてProviderErrorとして返します。
func (t *TwelveDataMarket) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("apikey", t.cfg.APIKey)
	u := fmt.Sprintf("%s%s?%s", strings.TrimRight(t.cfg.BaseURL, "/"), path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.NewProviderError(ProviderName, err)
	}

	res, err := t.client.Do(req)
	if err != nil {
		return domain.NewProviderError(ProviderName, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.NewProviderError(ProviderName, err)
	}

	// Twelve Data はHTTP 200でもエラー本文を返すことがある
	var env dto.ErrorEnvelope
	_ = json.Unmarshal(raw, &env)
	if env.IsError() {
		return domain.NewProviderError(ProviderName, errors.New(env.Message))
	}
	if res.StatusCode >= 400 {
		return domain.NewProviderError(ProviderName, fmt.Errorf("twelvedata http %d", res.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewProviderError(ProviderName, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func isNoData(err error) bool {
	return err != nil && strings.Contains(err.Error(), noDataMessage)
}

func toBar(symbol string, v dto.TimeSeriesValue) (entity.Bar, error) {
	ts, err := time.ParseInLocation(time.DateTime, v.Datetime, time.UTC)
	if err != nil {
		ts, err = time.ParseInLocation(time.DateOnly, v.Datetime, time.UTC)
		if err != nil {
			return entity.Bar{}, fmt.Errorf("parse time %q: %w", v.Datetime, err)
		}
	}
	prices := make([]decimal.Decimal, 4)
	for i, f := range []struct{ name, raw string }{
		{"open", v.Open}, {"high", v.High}, {"low", v.Low}, {"close", v.Close},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return entity.Bar{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		prices[i] = d
	}
	return entity.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    parseVolume(v.Volume),
	}, nil
}

// parseVolume は欠損・NaN・不正な出来高を0として扱います。
func parseVolume(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}

func toContract(symbol string, expiration time.Time, typ entity.OptionType, q dto.OptionQuote) entity.OptionContract {
	return entity.OptionContract{
		UnderlyingSymbol:  symbol,
		ExpirationDate:    entity.StartOfDay(expiration),
		Strike:            decimal.NewFromFloat(q.Strike),
		OptionType:        typ,
		Bid:               decimalPtr(q.Bid),
		Ask:               decimalPtr(q.Ask),
		Last:              decimalPtr(q.LastPrice),
		Volume:            q.Volume,
		OpenInterest:      q.OpenInterest,
		ImpliedVolatility: decimalPtr(q.ImpliedVolatility),
	}
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil || math.IsNaN(*f) {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
