// Command ingest fetches bars for a list of symbols and stores them.
// Without -symbols it refreshes every active row of tracked_symbols.
//
//	ingest [-symbols SPY,QQQ] -start 2024-01-01 [-end 2024-01-31] [-interval 1d]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hawkiz_backend/internal/app/config"
	"hawkiz_backend/internal/app/di"
	"hawkiz_backend/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	symbols  []string
	start    time.Time
	end      *time.Time
	interval string
	timeout  time.Duration
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	symbols := fs.String("symbols", "", "comma separated symbols, e.g. SPY,QQQ (default: tracked symbols)")
	start := fs.String("start", "", "start date (YYYY-MM-DD, required)")
	end := fs.String("end", "", "end date (YYYY-MM-DD, default today)")
	interval := fs.String("interval", "1d", "bar interval: 1m,5m,15m,30m,1h,1d,1wk,1mo")
	timeout := fs.Duration("timeout", 30*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var opts options
	for _, s := range strings.Split(*symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.symbols = append(opts.symbols, s)
		}
	}
	if *start == "" {
		return options{}, errors.New("-start is required")
	}
	t, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return options{}, fmt.Errorf("invalid -start: %w", err)
	}
	opts.start = t
	if *end != "" {
		e, err := time.Parse(time.DateOnly, *end)
		if err != nil {
			return options{}, fmt.Errorf("invalid -end: %w", err)
		}
		opts.end = &e
	}
	opts.interval = *interval
	opts.timeout = *timeout
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	s, err := config.Load(".env")
	if err != nil {
		return err
	}
	logger.Setup(s.Env, s.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	app, err := di.NewApp(ctx, s)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(opts.symbols) == 0 {
		opts.symbols, err = app.Symbols.ListActiveSymbols(ctx)
		if err != nil {
			return fmt.Errorf("failed to load symbols: %w", err)
		}
		if len(opts.symbols) == 0 {
			return errors.New("no symbols given and tracked_symbols has no active rows")
		}
	}

	results, err := app.Ingest.IngestAll(ctx, opts.symbols, opts.start, opts.end, opts.interval)
	for _, r := range results {
		slog.Info("ingest ok", "symbol", r.Symbol, "fetched", r.Fetched, "stored", r.Stored)
	}
	if err != nil {
		return fmt.Errorf("%d of %d symbols failed: %w", len(opts.symbols)-len(results), len(opts.symbols), err)
	}
	return nil
}
