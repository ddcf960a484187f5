// Command export writes stored bars of one symbol to a Parquet file and,
// when S3_ENDPOINT is set, uploads it to object storage.
//
//	export -symbol SPY [-start 2024-01-01] [-end 2024-12-31] [-out SPY.parquet]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hawkiz_backend/internal/app/config"
	"hawkiz_backend/internal/feature/marketdata/adapters"
	"hawkiz_backend/internal/feature/marketdata/export"
	infradb "hawkiz_backend/internal/platform/db"
	"hawkiz_backend/internal/platform/logger"
	"hawkiz_backend/internal/platform/objectstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func parseDate(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return &t, nil
}

func run(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	symbol := fs.String("symbol", "", "symbol to export (required)")
	start := fs.String("start", "", "first day (YYYY-MM-DD)")
	end := fs.String("end", "", "last day (YYYY-MM-DD)")
	out := fs.String("out", "", "output file (default EXPORT_DIR/<SYMBOL>.parquet)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" {
		return errors.New("-symbol is required")
	}
	startDate, err := parseDate("start", *start)
	if err != nil {
		return err
	}
	endDate, err := parseDate("end", *end)
	if err != nil {
		return err
	}

	s, err := config.Load(".env")
	if err != nil {
		return err
	}
	logger.Setup(s.Env, s.LogLevel)

	db, err := infradb.OpenDB(infradb.Config{URL: s.DatabaseURL, ConnectTimeout: s.DBConnectTimeout})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	name := strings.ToUpper(*symbol) + ".parquet"
	path := *out
	if path == "" {
		path = filepath.Join(s.Export.Dir, name)
	}

	var uploader export.Uploader
	if s.Export.S3Endpoint != "" {
		store, err := objectstore.New(objectstore.Config{
			Endpoint:  s.Export.S3Endpoint,
			AccessKey: s.Export.S3AccessKey,
			SecretKey: s.Export.S3SecretKey,
			Bucket:    s.Export.S3Bucket,
			Region:    s.Export.S3Region,
			UseSSL:    s.Export.S3UseSSL,
		})
		if err != nil {
			return err
		}
		uploader = store
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := export.NewExporter(adapters.NewBarRepository(db), uploader).Export(ctx, export.Request{
		Symbol:    *symbol,
		StartDate: startDate,
		EndDate:   endDate,
		Path:      path,
		Key:       "bars/" + name,
	})
	if err != nil {
		return err
	}
	slog.Info("export finished", "rows", res.Rows, "path", res.Path, "uploaded", res.Uploaded)
	return nil
}
