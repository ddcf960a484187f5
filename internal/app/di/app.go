package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hawkiz_backend/internal/app/config"
	"hawkiz_backend/internal/feature/marketdata/adapters"
	"hawkiz_backend/internal/feature/marketdata/transport/handler"
	"hawkiz_backend/internal/feature/marketdata/usecase"
	"hawkiz_backend/internal/platform/cache"
	infradb "hawkiz_backend/internal/platform/db"
	"hawkiz_backend/internal/platform/metrics"
	infraredis "hawkiz_backend/internal/platform/redis"
)

// App holds the wired components shared by the server and the CLIs.
type App struct {
	DB      *gorm.DB
	Redis   *redis.Client // nil when caching is disabled
	Metrics *metrics.Metrics

	BarRepo usecase.BarRepository
	Market  usecase.MarketRepository
	Symbols SymbolLister

	Bars    *usecase.BarsUsecase
	Ingest  *usecase.IngestUsecase
	Options *usecase.OptionsUsecase

	StockHandler   *handler.StockHandler
	OptionsHandler *handler.OptionsHandler
}

// SymbolLister returns the tickers tracked by the batch ingest job.
type SymbolLister interface {
	ListActiveSymbols(ctx context.Context) ([]string, error)
}

// NewApp opens the database and Redis, selects the provider and wires the usecases.
func NewApp(ctx context.Context, s *config.Settings) (*App, error) {
	db, err := infradb.OpenDB(infradb.Config{
		URL:            s.DatabaseURL,
		RunMigrations:  s.RunMigrations,
		ConnectTimeout: s.DBConnectTimeout,
	}, adapters.Models()...)
	if err != nil {
		return nil, err
	}

	// Redis（任意）。接続できなければキャッシュなしで動作する
	rdb, err := infraredis.NewRedisClient(ctx, s.RedisURL)
	switch {
	case errors.Is(err, infraredis.ErrNotConfigured):
		slog.Info("REDIS_URL not set, running without cache")
	case err != nil:
		slog.Warn("Redis unavailable, running without cache", "error", err)
	}

	market, err := NewMarket(s)
	if err != nil {
		closeDB(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	m := metrics.New()
	return newApp(db, rdb, m, market, s), nil
}

func newApp(db *gorm.DB, rdb *redis.Client, m *metrics.Metrics, market usecase.MarketRepository, s *config.Settings) *App {
	bars := NewBarRepository(db, rdb, s)

	a := &App{DB: db, Redis: rdb, Metrics: m, BarRepo: bars, Market: market}
	a.Symbols = adapters.NewSymbolRepository(db)
	a.Bars = usecase.NewBarsUsecase(bars)
	a.Ingest = usecase.NewIngestUsecase(market, bars, m)
	a.Options = usecase.NewOptionsUsecase(market, m)
	a.StockHandler = handler.NewStockHandler(a.Bars, a.Ingest)
	a.OptionsHandler = handler.NewOptionsHandler(a.Options)
	return a
}

// NewBarRepository returns the gorm repository, wrapped with the Redis cache when rdb is set.
func NewBarRepository(db *gorm.DB, rdb *redis.Client, s *config.Settings) usecase.BarRepository {
	repo := adapters.NewBarRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingBarRepository(rdb, s.CacheTTL, repo, "marketdata")
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	closeDB(a.DB)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
