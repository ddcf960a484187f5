package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// MarketRepository は外部の株価データプロバイダーを抽象化するインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	// GetBars は start から end（nil の場合は今日）までのバーを取得します。データがない場合は空スライスを返します。
	GetBars(ctx context.Context, symbol string, start time.Time, end *time.Time, interval entity.Interval) ([]entity.Bar, error)
	// ListExpirations は銘柄のオプション満期日を昇順で返します。
	ListExpirations(ctx context.Context, symbol string) ([]time.Time, error)
	// GetChain は1つの満期日のオプションチェーンを返します。
	GetChain(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error)
	// GetPrice は原資産の現在価格を返します。
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// IngestUsecase は外部APIからバーを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market   MarketRepository
	bars     BarRepository
	recorder Recorder
}

// NewIngestUsecase は新しい IngestUsecase を作成します。recorder は nil でも構いません。
func NewIngestUsecase(market MarketRepository, bars BarRepository, recorder Recorder) *IngestUsecase {
	return &IngestUsecase{market: market, bars: bars, recorder: recorderOrNoop(recorder)}
}

// Ingest は1銘柄のバーを取得して保存し、取得件数と新規保存件数を返します。
// プロバイダーとストアのエラーはそのまま呼び出し元に返します（リトライはしません）。
func (iu *IngestUsecase) Ingest(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error) {
	symbol, err := validateSymbol(req.Symbol)
	if err != nil {
		return entity.IngestResult{}, err
	}
	interval, err := entity.ParseInterval(req.Interval)
	if err != nil {
		return entity.IngestResult{}, domain.NewValidationError("interval", "%v", err)
	}
	if req.StartDate.IsZero() {
		return entity.IngestResult{}, domain.NewValidationError("start_date", "is required")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return entity.IngestResult{}, domain.NewValidationError("end_date", "must not be before start_date")
	}

	bars, err := iu.market.GetBars(ctx, symbol, req.StartDate, req.EndDate, interval)
	if err != nil {
		iu.recorder.ObserveProviderError("bars")
		return entity.IngestResult{}, err
	}

	// 取得したデータに銘柄コードを設定して正規化
	for i := range bars {
		bars[i].Symbol = symbol
		bars[i] = bars[i].Normalize()
	}

	stored, err := iu.bars.UpsertBars(ctx, symbol, bars)
	if err != nil {
		return entity.IngestResult{}, err
	}

	iu.recorder.ObserveIngest(symbol, len(bars), stored)
	slog.Info("ingested bars",
		"symbol", symbol,
		"interval", interval,
		"fetched", len(bars),
		"stored", stored,
	)
	return entity.IngestResult{Symbol: symbol, Fetched: len(bars), Stored: stored}, nil
}

// IngestAll は複数銘柄を順番に取得・保存します。
// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の銘柄へ進みます。
// 成功した銘柄の結果と、失敗した銘柄のエラーをまとめて返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string, start time.Time, end *time.Time, interval string) ([]entity.IngestResult, error) {
	results := make([]entity.IngestResult, 0, len(symbols))
	var errs []error
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := iu.Ingest(ctx, entity.IngestRequest{
			Symbol:    s,
			StartDate: start,
			EndDate:   end,
			Interval:  interval,
		})
		if err != nil {
			slog.Error("failed to ingest bars", "symbol", s, "interval", interval, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
