// Package router はHTTPルーティングを組み立てます。
package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	marketdatahandler "hawkiz_backend/internal/feature/marketdata/transport/handler"
	"hawkiz_backend/internal/platform/http/handler"
	"hawkiz_backend/internal/platform/http/middleware"
	"hawkiz_backend/internal/platform/metrics"
)

// Options configure the engine. Zero values disable the optional parts.
type Options struct {
	Prefix      string // e.g. /api/v1/market-data
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	DB          handler.Pinger
}

func NewRouter(opts Options, stock *marketdatahandler.StockHandler, options *marketdatahandler.OptionsHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(opts.Logger), middleware.Recovery(opts.Logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// 導通確認用
	r.GET("/", handler.Root)
	for _, p := range []string{"/health", "/healthz"} {
		r.GET(p, handler.Health)
		r.HEAD(p, handler.Health)
	}
	r.GET("/readyz", handler.Readiness(opts.DB))

	api := r.Group(opts.Prefix)
	{
		api.GET("/stocks/:symbol", stock.GetStockPrices)
		api.POST("/stocks/:symbol/fetch", stock.FetchStockData)
		api.GET("/options/:underlying_symbol", options.GetOptionsChain)
		api.GET("/available-dates", stock.GetAvailableDates)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodHead},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
