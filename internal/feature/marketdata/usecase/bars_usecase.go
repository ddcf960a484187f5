// Package usecase は株価データ（バー）とオプションチェーンのビジネスロジックを実装します。
package usecase

import (
	"context"
	"time"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// MaxLimit は1回のクエリで返却するバーの最大件数です。
const MaxLimit = 10000

// BarRepository はバーデータの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type BarRepository interface {
	// UpsertBars は (symbol, timestamp) をキーにバーを挿入または更新し、新規挿入件数を返します。
	UpsertBars(ctx context.Context, symbol string, bars []entity.Bar) (int, error)
	// FindBars は条件に一致するバーを新しい順に返します。
	FindBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error)
	// ListAvailableDates は保存済みの日付（UTC）を重複なしで降順に返します。
	ListAvailableDates(ctx context.Context, symbol string) ([]time.Time, error)
}

// BarsUsecase は保存済みバーの参照ユースケースです。
type BarsUsecase struct {
	bars BarRepository
}

// NewBarsUsecase は新しい BarsUsecase を作成します。
func NewBarsUsecase(bars BarRepository) *BarsUsecase {
	return &BarsUsecase{bars: bars}
}

// GetBars は指定された銘柄のバーを新しい順に取得します。
// 開始日はその日の0時から、終了日はその日の終わりまでを含みます。
func (u *BarsUsecase) GetBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
	symbol, err := validateSymbol(q.Symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = symbol

	if q.Limit < 0 || q.Limit > MaxLimit {
		return nil, domain.NewValidationError("limit", "must be between 1 and %d", MaxLimit)
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return nil, domain.NewValidationError("end_date", "must not be before start_date")
	}

	return u.bars.FindBars(ctx, q)
}

// GetAvailableDates は保存済みデータの日付一覧を返します。symbol が空の場合は全銘柄が対象です。
func (u *BarsUsecase) GetAvailableDates(ctx context.Context, symbol string) ([]time.Time, error) {
	if symbol != "" {
		s, err := validateSymbol(symbol)
		if err != nil {
			return nil, err
		}
		symbol = s
	}
	return u.bars.ListAvailableDates(ctx, symbol)
}
