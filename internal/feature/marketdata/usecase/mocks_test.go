package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// mockMarketRepository はMarketRepositoryインターフェースのモック実装です。
type mockMarketRepository struct {
	GetBarsFunc         func(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error)
	ListExpirationsFunc func(ctx context.Context, symbol string) ([]time.Time, error)
	GetChainFunc        func(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error)
	GetPriceFunc        func(ctx context.Context, symbol string) (decimal.Decimal, error)

	mu            sync.Mutex
	GetBarsCalls  int
	GetChainCalls []time.Time
}

func (m *mockMarketRepository) GetBars(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error) {
	m.mu.Lock()
	m.GetBarsCalls++
	m.mu.Unlock()
	if m.GetBarsFunc != nil {
		return m.GetBarsFunc(ctx, symbol, start, end, interval)
	}
	return nil, errors.New("GetBarsFunc is not implemented")
}

func (m *mockMarketRepository) ListExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	if m.ListExpirationsFunc != nil {
		return m.ListExpirationsFunc(ctx, symbol)
	}
	return nil, errors.New("ListExpirationsFunc is not implemented")
}

func (m *mockMarketRepository) GetChain(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
	m.mu.Lock()
	m.GetChainCalls = append(m.GetChainCalls, expiration)
	m.mu.Unlock()
	if m.GetChainFunc != nil {
		return m.GetChainFunc(ctx, symbol, expiration)
	}
	return nil, errors.New("GetChainFunc is not implemented")
}

func (m *mockMarketRepository) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if m.GetPriceFunc != nil {
		return m.GetPriceFunc(ctx, symbol)
	}
	return decimal.Zero, errors.New("GetPriceFunc is not implemented")
}

// mockBarRepository はBarRepositoryインターフェースのモック実装です。
type mockBarRepository struct {
	UpsertBarsFunc         func(ctx context.Context, symbol string, bars []entity.Bar) (int, error)
	FindBarsFunc           func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error)
	ListAvailableDatesFunc func(ctx context.Context, symbol string) ([]time.Time, error)
	UpsertBarsCalls        int
}

func (m *mockBarRepository) UpsertBars(ctx context.Context, symbol string, bars []entity.Bar) (int, error) {
	m.UpsertBarsCalls++
	if m.UpsertBarsFunc != nil {
		return m.UpsertBarsFunc(ctx, symbol, bars)
	}
	return 0, errors.New("UpsertBarsFunc is not implemented")
}

func (m *mockBarRepository) FindBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
	if m.FindBarsFunc != nil {
		return m.FindBarsFunc(ctx, q)
	}
	return nil, errors.New("FindBarsFunc is not implemented")
}

func (m *mockBarRepository) ListAvailableDates(ctx context.Context, symbol string) ([]time.Time, error) {
	if m.ListAvailableDatesFunc != nil {
		return m.ListAvailableDatesFunc(ctx, symbol)
	}
	return nil, errors.New("ListAvailableDatesFunc is not implemented")
}

// memoryBarRepository は (symbol, timestamp) をキーにしたインメモリのBarRepositoryです。
type memoryBarRepository struct {
	rows map[string]map[time.Time]entity.Bar
}

func newMemoryBarRepository() *memoryBarRepository {
	return &memoryBarRepository{rows: map[string]map[time.Time]entity.Bar{}}
}

func (m *memoryBarRepository) UpsertBars(_ context.Context, symbol string, bars []entity.Bar) (int, error) {
	if m.rows[symbol] == nil {
		m.rows[symbol] = map[time.Time]entity.Bar{}
	}
	inserted := 0
	for _, b := range bars {
		if _, ok := m.rows[symbol][b.Timestamp]; !ok {
			inserted++
		}
		m.rows[symbol][b.Timestamp] = b
	}
	return inserted, nil
}

func (m *memoryBarRepository) FindBars(context.Context, entity.BarQuery) ([]entity.Bar, error) {
	return nil, nil
}

func (m *memoryBarRepository) ListAvailableDates(context.Context, string) ([]time.Time, error) {
	return nil, nil
}

// mockRecorder はRecorderの呼び出しを記録します。
type mockRecorder struct {
	ingests        int
	providerErrors []string
	chainFailures  int
}

func (r *mockRecorder) ObserveIngest(string, int, int) { r.ingests++ }
func (r *mockRecorder) ObserveProviderError(op string) { r.providerErrors = append(r.providerErrors, op) }
func (r *mockRecorder) ObserveChainFailure(string)     { r.chainFailures++ }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
