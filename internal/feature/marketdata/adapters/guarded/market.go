// Package guarded wraps a market repository with the resource limits every
// outbound provider call must respect: a per-call timeout, a bound on in-flight
// calls per symbol, a global request rate and a circuit breaker.
package guarded

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
	"hawkiz_backend/internal/shared/ratelimiter"
)

// Config controls the guards. Zero values disable the corresponding guard.
type Config struct {
	Provider             string
	Timeout              time.Duration
	MaxInFlightPerSymbol int64
	// ConsecutiveFailures trips the breaker; OpenTimeout is how long it stays open.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Market is a usecase.MarketRepository decorator.
type Market struct {
	next    usecase.MarketRepository
	cfg     Config
	limiter ratelimiter.RateLimiterInterface
	breaker *gobreaker.CircuitBreaker

	mu    sync.Mutex
	slots map[string]*slot
}

// slot is a per-symbol semaphore; refs counts callers holding or waiting on it
// so idle symbols can be dropped from the map.
type slot struct {
	sem  *semaphore.Weighted
	refs int
}

var _ usecase.MarketRepository = (*Market)(nil)

// New wraps next. limiter may be nil.
func New(next usecase.MarketRepository, cfg Config, limiter ratelimiter.RateLimiterInterface) *Market {
	m := &Market{next: next, cfg: cfg, limiter: limiter, slots: make(map[string]*slot)}
	if cfg.ConsecutiveFailures > 0 {
		m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    cfg.Provider,
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			// Validation errors and cancellations say nothing about provider health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, domain.ErrValidation) || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("provider circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return m
}

func (m *Market) GetBars(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error) {
	return call(ctx, m, symbol, func(ctx context.Context) ([]entity.Bar, error) {
		return m.next.GetBars(ctx, symbol, start, end, interval)
	})
}

func (m *Market) ListExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return call(ctx, m, symbol, func(ctx context.Context) ([]time.Time, error) {
		return m.next.ListExpirations(ctx, symbol)
	})
}

func (m *Market) GetChain(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
	return call(ctx, m, symbol, func(ctx context.Context) ([]entity.OptionContract, error) {
		return m.next.GetChain(ctx, symbol, expiration)
	})
}

func (m *Market) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return call(ctx, m, symbol, func(ctx context.Context) (decimal.Decimal, error) {
		return m.next.GetPrice(ctx, symbol)
	})
}

// acquire takes one in-flight slot for symbol. The returned func releases it.
func (m *Market) acquire(ctx context.Context, symbol string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[symbol]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(m.cfg.MaxInFlightPerSymbol)}
		m.slots[symbol] = s
	}
	s.refs++
	m.mu.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		m.unref(symbol, s)
		return nil, err
	}
	return func() {
		s.sem.Release(1)
		m.unref(symbol, s)
	}, nil
}

func (m *Market) unref(symbol string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, symbol)
	}
}

func call[T any](ctx context.Context, m *Market, symbol string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if m.cfg.MaxInFlightPerSymbol > 0 {
		release, err := m.acquire(ctx, symbol)
		if err != nil {
			return zero, err
		}
		defer release()
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	if m.breaker == nil {
		return fn(ctx)
	}

	out, err := m.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domain.NewProviderError(m.cfg.Provider, err)
		}
		return zero, err
	}
	return out.(T), nil
}
