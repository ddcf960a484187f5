package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// MaxChainExpirations は満期日が指定されなかった場合に取得する満期日の上限です。
const MaxChainExpirations = 5

// OptionsUsecase はオプションチェーンのライブ取得ユースケースです。
// 取得結果は保存しません。
type OptionsUsecase struct {
	market   MarketRepository
	recorder Recorder
	now      func() time.Time
}

// NewOptionsUsecase は新しい OptionsUsecase を作成します。
func NewOptionsUsecase(market MarketRepository, recorder Recorder) *OptionsUsecase {
	return &OptionsUsecase{market: market, recorder: recorderOrNoop(recorder), now: time.Now}
}

// GetChain は銘柄のオプションチェーンを取得します。
//
// expiration が nil の場合は、プロバイダーが返す満期日のうち先頭 MaxChainExpirations 件を取得します。
// 満期日ごとの取得エラーは結果の Failures に記録し、残りの満期日の取得を続けます。
// 満期日が1件もない場合は空のチェーンを返します（エラーではありません）。
func (u *OptionsUsecase) GetChain(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error) {
	symbol, err := validateSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var targets []time.Time
	if expiration != nil {
		targets = []time.Time{entity.StartOfDay(*expiration)}
	} else {
		listed, err := u.market.ListExpirations(ctx, symbol)
		if err != nil {
			u.recorder.ObserveProviderError("expirations")
			return nil, err
		}
		if len(listed) == 0 {
			slog.Warn("no options data available", "symbol", symbol)
		}
		if len(listed) > MaxChainExpirations {
			listed = listed[:MaxChainExpirations]
		}
		targets = listed
	}

	snapshot := &entity.ChainSnapshot{
		UnderlyingSymbol: symbol,
		Timestamp:        u.now().UTC(),
		Contracts:        []entity.OptionContract{},
		Expirations:      []time.Time{},
	}

	for _, exp := range targets {
		contracts, err := u.market.GetChain(ctx, symbol, exp)
		if err != nil {
			// キャンセルされた場合は部分結果を返さずに中断する
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("failed to fetch options chain for expiration",
				"symbol", symbol,
				"expiration", exp.Format(time.DateOnly),
				"error", err,
			)
			u.recorder.ObserveChainFailure(symbol)
			snapshot.Failures = append(snapshot.Failures, entity.ExpirationFailure{
				Expiration: exp,
				Reason:     err.Error(),
			})
			continue
		}
		snapshot.Contracts = append(snapshot.Contracts, contracts...)
	}

	price, err := u.market.GetPrice(ctx, symbol)
	if err != nil {
		u.recorder.ObserveProviderError("price")
		return nil, err
	}
	snapshot.UnderlyingPrice = price

	seen := make(map[time.Time]struct{})
	for i := range snapshot.Contracts {
		c := &snapshot.Contracts[i]
		c.UnderlyingSymbol = symbol
		c.Timestamp = snapshot.Timestamp
		if c.UnderlyingPrice.IsZero() {
			c.UnderlyingPrice = price
		}
		d := entity.StartOfDay(c.ExpirationDate)
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			snapshot.Expirations = append(snapshot.Expirations, d)
		}
	}
	sort.Slice(snapshot.Expirations, func(i, j int) bool {
		return snapshot.Expirations[i].Before(snapshot.Expirations[j])
	})

	return snapshot, nil
}
