package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"hawkiz_backend/internal/app/config"
	"hawkiz_backend/internal/app/di"
	"hawkiz_backend/internal/app/router"
	"hawkiz_backend/internal/platform/http/handler"
	"hawkiz_backend/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	s, err := config.Load(".env")
	if err != nil {
		return err
	}
	log := logger.Setup(s.Env, s.LogLevel)
	if s.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, s)
	if err != nil {
		return err
	}
	defer app.Close()

	var ready handler.Pinger
	if sqlDB, err := app.DB.DB(); err == nil {
		ready = sqlDB
	}

	// ルータ生成
	r := router.NewRouter(router.Options{
		Prefix:      s.MarketDataPrefix(),
		CORSOrigins: s.CORSOrigins,
		Logger:      log,
		Metrics:     app.Metrics,
		DB:          ready,
	}, app.StockHandler, app.OptionsHandler)

	srv := &http.Server{
		Addr:              s.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.HTTPAddr, "provider", s.DataProvider, "prefix", s.MarketDataPrefix())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
