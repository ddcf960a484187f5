package export

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// BarReader is the read side of the bar store.
type BarReader interface {
	FindBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error)
}

// Uploader ships a local file to object storage.
type Uploader interface {
	UploadFile(ctx context.Context, key, path, contentType string) (int64, error)
}

// Request selects the bars to export. Key is only used when an uploader is configured.
type Request struct {
	Symbol    string
	StartDate *time.Time
	EndDate   *time.Time
	Path      string
	Key       string
}

// Result describes a finished export.
type Result struct {
	Rows     int
	Path     string
	Uploaded bool
}

// Exporter writes stored bars, oldest first, to a Parquet file.
type Exporter struct {
	bars     BarReader
	uploader Uploader
}

// NewExporter creates an Exporter. uploader may be nil.
func NewExporter(bars BarReader, uploader Uploader) *Exporter {
	return &Exporter{bars: bars, uploader: uploader}
}

// Export reads the requested bars, writes them to req.Path and uploads the file when possible.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	symbol := entity.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return Result{}, domain.NewValidationError("symbol", "must not be empty")
	}
	if req.Path == "" {
		return Result{}, domain.NewValidationError("path", "must not be empty")
	}

	bars, err := e.bars.FindBars(ctx, entity.BarQuery{Symbol: symbol, StartDate: req.StartDate, EndDate: req.EndDate})
	if err != nil {
		return Result{}, err
	}
	// ストアは新しい順に返すため、時系列順に並べ直す
	slices.Reverse(bars)

	if err := WriteFile(req.Path, ToRows(bars)); err != nil {
		return Result{}, fmt.Errorf("export %s: %w", symbol, err)
	}
	res := Result{Rows: len(bars), Path: req.Path}
	slog.Info("bars exported", "symbol", symbol, "rows", res.Rows, "path", req.Path)

	if e.uploader == nil || req.Key == "" {
		return res, nil
	}
	if _, err := e.uploader.UploadFile(ctx, req.Key, req.Path, ContentType); err != nil {
		return res, fmt.Errorf("upload %s: %w", symbol, err)
	}
	res.Uploaded = true
	return res, nil
}
