package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/transport/handler"
)

func newOptionsRouter(uc *mockOptionsUsecase) *gin.Engine {
	r := gin.New()
	r.GET("/options/:underlying_symbol", handler.NewOptionsHandler(uc).GetOptionsChain)
	return r
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestOptionsHandler_GetOptionsChain(t *testing.T) {
	t.Parallel()

	exp := day(2024, 6, 21)
	vol := int64(1500)
	snapshot := &entity.ChainSnapshot{
		UnderlyingSymbol: "SPY",
		UnderlyingPrice:  decimal.RequireFromString("502.35"),
		Timestamp:        time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC),
		Expirations:      []time.Time{exp},
		Contracts: []entity.OptionContract{{
			UnderlyingSymbol: "SPY",
			ExpirationDate:   exp,
			Strike:           decimal.RequireFromString("500"),
			OptionType:       entity.Call,
			Bid:              decPtr("12.4"),
			Ask:              decPtr("12.6"),
			Volume:           &vol,
			Delta:            decPtr("0.52"),
		}},
		Failures: []entity.ExpirationFailure{{Expiration: day(2024, 6, 28), Reason: "upstream timeout"}},
	}

	tests := []struct {
		name           string
		url            string
		mockGetChain   func(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: partial chain reports failures",
			url:  "/options/spy?expiration_date=2024-06-21&timestamp=2024-06-03T14:30:00Z",
			mockGetChain: func(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error) {
				assert.Equal(t, "SPY", symbol)
				require.NotNil(t, expiration)
				assert.Equal(t, exp, *expiration)
				return snapshot, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{
				"underlying_symbol":"SPY","underlying_price":"502.35","timestamp":"2024-06-03T14:30:00Z",
				"expirations":["2024-06-21"],
				"chains":[{"expiration_date":"2024-06-21","strike":"500","option_type":"C",
					"bid":"12.4","ask":"12.6","last":null,"volume":1500,"open_interest":null,
					"implied_volatility":null,"delta":"0.52","gamma":null,"theta":null,"vega":null}],
				"count":1,
				"failures":[{"expiration_date":"2024-06-28","error":"upstream timeout"}]
			}`,
		},
		{
			name: "success: no expirations listed",
			url:  "/options/QQQ",
			mockGetChain: func(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error) {
				assert.Nil(t, expiration)
				return &entity.ChainSnapshot{UnderlyingSymbol: "QQQ", UnderlyingPrice: decimal.RequireFromString("440.1"), Timestamp: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"underlying_symbol":"QQQ","underlying_price":"440.1","timestamp":"2024-06-03T00:00:00Z",
				"expirations":[],"chains":[],"count":0,"failures":[]}`,
		},
		{
			name: "failure: provider error",
			url:  "/options/SPY",
			mockGetChain: func(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error) {
				return nil, domain.NewProviderError("twelvedata", errors.New("You have run out of API credits for the current minute."))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"Error retrieving options chain: You have run out of API credits for the current minute.","code":"provider_error"}`,
		},
		{
			name:           "failure: malformed timestamp",
			url:            "/options/SPY?timestamp=yesterday",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := &mockOptionsUsecase{GetChainFunc: tt.mockGetChain}
			if uc.GetChainFunc == nil {
				uc.GetChainFunc = func(context.Context, string, *time.Time) (*entity.ChainSnapshot, error) {
					t.Fatal("usecase must not be called")
					return nil, nil
				}
			}
			w := httptest.NewRecorder()
			newOptionsRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}
