// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

// CachingBarRepository decorates a BarRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingBarRepository struct {
	inner     usecase.BarRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ usecase.BarRepository = (*CachingBarRepository)(nil)

// NewCachingBarRepository decorates a BarRepository with Redis caching.
// If ttl is 0 or negative, entries live until the next US market close.
// If namespace is empty, it uses "marketdata". A nil rdb disables caching.
func NewCachingBarRepository(rdb *redis.Client, ttl time.Duration, inner usecase.BarRepository, namespace string) *CachingBarRepository {
	if namespace == "" {
		namespace = "marketdata"
	}
	return &CachingBarRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// UpsertBars writes through to the inner repository and bumps the symbol's
// cache generation so every earlier entry, including one a concurrent reader
// is about to store, is no longer looked up.
func (c *CachingBarRepository) UpsertBars(ctx context.Context, symbol string, bars []entity.Bar) (int, error) {
	n, err := c.inner.UpsertBars(ctx, symbol, bars)
	if err != nil {
		return 0, err
	}
	// Exit early if Redis is not configured or nothing was written
	if c.rdb == nil || len(bars) == 0 {
		return n, nil
	}

	for _, key := range []string{c.genKey(symbol), c.genKey("")} {
		if err := c.rdb.Incr(ctx, key).Err(); err != nil {
			slog.Warn("failed to bump cache generation", "key", key, "error", err)
		}
	}

	// 旧世代のエントリはTTLでも消えるが、ここで掃除しておく (best effort)
	if err := c.deleteByPattern(ctx, c.barsKeyPrefix(symbol)+"*"); err != nil {
		slog.Warn("failed to invalidate bar cache", "symbol", symbol, "error", err)
	}
	return n, nil
}

// FindBars retrieves bars, checking cache first then falling back to the database.
func (c *CachingBarRepository) FindBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
	return cached(ctx, c, q.Symbol, func(gen int64) string { return c.barsKey(q, gen) }, func() ([]entity.Bar, error) {
		return c.inner.FindBars(ctx, q)
	})
}

// ListAvailableDates retrieves the date list, checking cache first.
func (c *CachingBarRepository) ListAvailableDates(ctx context.Context, symbol string) ([]time.Time, error) {
	return cached(ctx, c, symbol, func(gen int64) string { return c.datesKey(symbol, gen) }, func() ([]time.Time, error) {
		return c.inner.ListAvailableDates(ctx, symbol)
	})
}

// cached reads the generation before loading so a snapshot taken before a
// concurrent UpsertBars is stored under a key that is no longer read.
func cached[T any](ctx context.Context, c *CachingBarRepository, symbol string, keyFor func(gen int64) string, load func() (T, error)) (T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	gen, err := c.generation(ctx, symbol)
	if err != nil {
		slog.Warn("failed to read cache generation", "symbol", symbol, "error", err)
		return load()
	}
	key := keyFor(gen)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiry()).Err()
	}
	return out, nil
}

func (c *CachingBarRepository) expiry() time.Duration {
	if c.ttl > 0 {
		return c.ttl
	}
	return TimeUntilMarketClose(c.now())
}

// generation returns the current cache generation for symbol ("" is the all-symbols list).
func (c *CachingBarRepository) generation(ctx context.Context, symbol string) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(symbol)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CachingBarRepository) genKey(symbol string) string {
	return fmt.Sprintf("%s:gen:%s", c.namespace, symbolOrAll(symbol))
}

// barsKey generates a cache key for a specific query.
func (c *CachingBarRepository) barsKey(q entity.BarQuery, gen int64) string {
	return fmt.Sprintf("%s%d:%s:%s:%d",
		c.barsKeyPrefix(q.Symbol),
		gen,
		dateOrDash(q.StartDate),
		dateOrDash(q.EndDate),
		q.Limit,
	)
}

// barsKeyPrefix generates a prefix for invalidating every query of a symbol.
func (c *CachingBarRepository) barsKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:bars:%s:", c.namespace, safe(symbol))
}

func (c *CachingBarRepository) datesKey(symbol string, gen int64) string {
	return fmt.Sprintf("%s:dates:%s:%d", c.namespace, symbolOrAll(symbol), gen)
}

func symbolOrAll(symbol string) string {
	if symbol == "" {
		return "_all"
	}
	return safe(symbol)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingBarRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return entity.StartOfDay(*t).Format(time.DateOnly)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
