package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

func expirations(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = date(2024, 6, 7).AddDate(0, 0, 7*i)
	}
	return out
}

func contractsFor(exp time.Time) []entity.OptionContract {
	bid := price("1.10")
	return []entity.OptionContract{
		{ExpirationDate: exp, Strike: price("500"), OptionType: entity.Call, Bid: &bid},
		{ExpirationDate: exp, Strike: price("500"), OptionType: entity.Put, UnderlyingPrice: price("501.00")},
	}
}

// TestOptionsUsecase_GetChain はGetChainメソッドの満期日選択と部分失敗の扱いを検証します。
func TestOptionsUsecase_GetChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		expiration       *time.Time
		listed           []time.Time
		failOn           map[time.Time]bool
		wantChainCalls   int
		wantContracts    int
		wantExpirations  int
		wantFailures     int
		wantChainFailure int
	}{
		{
			name:            "success: caps at the first five expirations",
			listed:          expirations(8),
			wantChainCalls:  5,
			wantContracts:   10,
			wantExpirations: 5,
		},
		{
			name:             "success: one failing expiration out of five",
			listed:           expirations(5),
			failOn:           map[time.Time]bool{expirations(5)[2]: true},
			wantChainCalls:   5,
			wantContracts:    8,
			wantExpirations:  4,
			wantFailures:     1,
			wantChainFailure: 1,
		},
		{
			name:            "success: no listed expirations yields an empty chain",
			listed:          []time.Time{},
			wantChainCalls:  0,
			wantContracts:   0,
			wantExpirations: 0,
		},
		{
			name: "success: explicit expiration skips the listing",
			expiration: func() *time.Time {
				d := time.Date(2024, 6, 21, 15, 30, 0, 0, time.UTC)
				return &d
			}(),
			wantChainCalls:  1,
			wantContracts:   2,
			wantExpirations: 1,
		},
		{
			name:             "success: every expiration fails",
			listed:           expirations(2),
			failOn:           map[time.Time]bool{expirations(2)[0]: true, expirations(2)[1]: true},
			wantChainCalls:   2,
			wantContracts:    0,
			wantExpirations:  0,
			wantFailures:     2,
			wantChainFailure: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			market := &mockMarketRepository{
				ListExpirationsFunc: func(ctx context.Context, symbol string) ([]time.Time, error) {
					if tt.expiration != nil {
						t.Error("ListExpirations should not be called")
					}
					return tt.listed, nil
				},
				GetChainFunc: func(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
					if tt.failOn[expiration] {
						return nil, domain.NewProviderError("twelvedata", errors.New("chain unavailable"))
					}
					return contractsFor(expiration), nil
				},
				GetPriceFunc: func(ctx context.Context, symbol string) (decimal.Decimal, error) {
					return price("502.35"), nil
				},
			}
			rec := &mockRecorder{}
			uc := usecase.NewOptionsUsecase(market, rec)

			snap, err := uc.GetChain(context.Background(), "spy", tt.expiration)

			require.NoError(t, err)
			assert.Equal(t, "SPY", snap.UnderlyingSymbol)
			assert.True(t, snap.UnderlyingPrice.Equal(price("502.35")))
			assert.Len(t, market.GetChainCalls, tt.wantChainCalls)
			assert.Len(t, snap.Contracts, tt.wantContracts)
			assert.Len(t, snap.Expirations, tt.wantExpirations)
			assert.Len(t, snap.Failures, tt.wantFailures)
			assert.Equal(t, tt.wantFailures > 0, snap.Partial())
			assert.Equal(t, tt.wantChainFailure, rec.chainFailures)
			for i := 1; i < len(snap.Expirations); i++ {
				assert.True(t, snap.Expirations[i-1].Before(snap.Expirations[i]), "expirations must be ascending")
			}
			for _, c := range snap.Contracts {
				assert.Equal(t, "SPY", c.UnderlyingSymbol)
				assert.False(t, c.UnderlyingPrice.IsZero())
			}
		})
	}
}

// TestOptionsUsecase_GetChain_UnderlyingPrice は契約ごとの原資産価格が欠けている場合だけ補完されることを検証します。
func TestOptionsUsecase_GetChain_UnderlyingPrice(t *testing.T) {
	t.Parallel()

	exp := date(2024, 6, 21)
	market := &mockMarketRepository{
		GetChainFunc: func(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
			return contractsFor(expiration), nil
		},
		GetPriceFunc: func(ctx context.Context, symbol string) (decimal.Decimal, error) {
			return price("502.35"), nil
		},
	}
	uc := usecase.NewOptionsUsecase(market, nil)

	snap, err := uc.GetChain(context.Background(), "SPY", &exp)
	require.NoError(t, err)
	require.Len(t, snap.Contracts, 2)
	assert.Equal(t, "502.35", snap.Contracts[0].UnderlyingPrice.StringFixed(2))
	assert.Equal(t, "501.00", snap.Contracts[1].UnderlyingPrice.StringFixed(2))
	assert.Equal(t, []time.Time{exp}, snap.Expirations)
}

// TestOptionsUsecase_GetChain_Failures は呼び出し全体が失敗するケースを検証します。
func TestOptionsUsecase_GetChain_Failures(t *testing.T) {
	t.Parallel()

	t.Run("failure: listing expirations fails", func(t *testing.T) {
		t.Parallel()
		market := &mockMarketRepository{
			ListExpirationsFunc: func(ctx context.Context, symbol string) ([]time.Time, error) {
				return nil, domain.NewProviderError("twelvedata", errors.New("rate limit exceeded"))
			},
		}
		rec := &mockRecorder{}
		_, err := usecase.NewOptionsUsecase(market, rec).GetChain(context.Background(), "SPY", nil)
		assert.ErrorIs(t, err, domain.ErrProvider)
		assert.Equal(t, []string{"expirations"}, rec.providerErrors)
	})

	t.Run("failure: underlying price fails", func(t *testing.T) {
		t.Parallel()
		market := &mockMarketRepository{
			ListExpirationsFunc: func(ctx context.Context, symbol string) ([]time.Time, error) {
				return expirations(1), nil
			},
			GetChainFunc: func(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
				return contractsFor(expiration), nil
			},
			GetPriceFunc: func(ctx context.Context, symbol string) (decimal.Decimal, error) {
				return decimal.Zero, domain.NewProviderError("twelvedata", errors.New("price unavailable"))
			},
		}
		_, err := usecase.NewOptionsUsecase(market, nil).GetChain(context.Background(), "SPY", nil)
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("failure: invalid symbol", func(t *testing.T) {
		t.Parallel()
		_, err := usecase.NewOptionsUsecase(&mockMarketRepository{}, nil).GetChain(context.Background(), "  ", nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("failure: canceled context stops the loop", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		market := &mockMarketRepository{
			ListExpirationsFunc: func(ctx context.Context, symbol string) ([]time.Time, error) {
				return expirations(5), nil
			},
			GetChainFunc: func(ctx context.Context, symbol string, expiration time.Time) ([]entity.OptionContract, error) {
				cancel()
				return nil, ctx.Err()
			},
		}
		_, err := usecase.NewOptionsUsecase(market, nil).GetChain(ctx, "SPY", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, market.GetChainCalls, 1)
	})
}
