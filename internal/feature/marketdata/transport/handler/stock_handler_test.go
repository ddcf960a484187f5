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

func newStockRouter(bars *mockBarsUsecase, ingest *mockIngestUsecase) *gin.Engine {
	h := handler.NewStockHandler(bars, ingest)
	r := gin.New()
	r.GET("/stocks/:symbol", h.GetStockPrices)
	r.POST("/stocks/:symbol/fetch", h.FetchStockData)
	r.GET("/available-dates", h.GetAvailableDates)
	return r
}

// TestStockHandler_GetStockPrices はGetStockPricesのHTTPリクエスト/レスポンス処理をテストします。
func TestStockHandler_GetStockPrices(t *testing.T) {
	t.Parallel()

	spyBar := entity.Bar{
		Symbol:    "SPY",
		Timestamp: day(2024, 1, 2),
		Open:      decimal.RequireFromString("472.16"),
		High:      decimal.RequireFromString("473.67"),
		Low:       decimal.RequireFromString("470.49"),
		Close:     decimal.RequireFromString("472.65"),
		Volume:    123007793,
	}

	tests := []struct {
		name           string
		url            string
		mockGetBars    func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: all parameters specified",
			url:  "/stocks/spy?start_date=2024-01-01&end_date=2024-01-31&limit=10",
			mockGetBars: func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
				assert.Equal(t, "SPY", q.Symbol)
				require.NotNil(t, q.StartDate)
				assert.Equal(t, day(2024, 1, 1), *q.StartDate)
				require.NotNil(t, q.EndDate)
				assert.Equal(t, day(2024, 1, 31), *q.EndDate)
				assert.Equal(t, 10, q.Limit)
				return []entity.Bar{spyBar}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"symbol":"SPY","count":1,"data":[{"timestamp":"2024-01-02T00:00:00Z",` +
				`"open":"472.16","high":"473.67","low":"470.49","close":"472.65","volume":123007793}]}`,
		},
		{
			name: "success: empty result is not an error",
			url:  "/stocks/QQQ",
			mockGetBars: func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
				assert.Nil(t, q.StartDate)
				assert.Nil(t, q.EndDate)
				assert.Zero(t, q.Limit)
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"QQQ","data":[],"count":0}`,
		},
		{
			name:           "failure: limit above maximum",
			url:            "/stocks/SPY?limit=10001",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Error retrieving stock prices: invalid limit: must be between 1 and 10000","code":"validation_error"}`,
		},
		{
			name:           "failure: limit zero",
			url:            "/stocks/SPY?limit=0",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Error retrieving stock prices: invalid limit: must be between 1 and 10000","code":"validation_error"}`,
		},
		{
			name: "failure: store error",
			url:  "/stocks/SPY",
			mockGetBars: func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
				return nil, &domain.StoreError{Op: "find bars", Err: errors.New("connection reset")}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Error retrieving stock prices: find bars: connection reset","code":"store_error"}`,
		},
		{
			name: "failure: symbol too long",
			url:  "/stocks/ABCDEFGHIJK",
			mockGetBars: func(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
				return nil, domain.NewValidationError("symbol", "%q exceeds %d characters", q.Symbol, 10)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Error retrieving stock prices: invalid symbol: \"ABCDEFGHIJK\" exceeds 10 characters","code":"validation_error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bars := &mockBarsUsecase{GetBarsFunc: tt.mockGetBars}
			if bars.GetBarsFunc == nil {
				bars.GetBarsFunc = func(context.Context, entity.BarQuery) ([]entity.Bar, error) {
					t.Fatal("usecase must not be called")
					return nil, nil
				}
			}
			r := newStockRouter(bars, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestStockHandler_GetStockPrices_InvalidDate(t *testing.T) {
	t.Parallel()

	r := newStockRouter(&mockBarsUsecase{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/SPY?start_date=01-02-2024", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"validation_error"`)
	assert.Contains(t, w.Body.String(), "start_date")
}

// TestStockHandler_FetchStockData はFetchStockDataのHTTPリクエスト/レスポンス処理をテストします。
func TestStockHandler_FetchStockData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url            string
		mockIngest     func(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: first ingest stores every bar",
			url:  "/stocks/spy/fetch?start_date=2024-01-01&end_date=2024-01-05&interval=1d",
			mockIngest: func(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error) {
				assert.Equal(t, "SPY", req.Symbol)
				assert.Equal(t, day(2024, 1, 1), req.StartDate)
				require.NotNil(t, req.EndDate)
				assert.Equal(t, day(2024, 1, 5), *req.EndDate)
				assert.Equal(t, "1d", req.Interval)
				return entity.IngestResult{Symbol: "SPY", Fetched: 3, Stored: 3}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Fetched and stored 3 records for SPY","symbol":"SPY","records_stored":3,"total_fetched":3}`,
		},
		{
			name: "success: re-ingest stores nothing new",
			url:  "/stocks/SPY/fetch?start_date=2024-01-01",
			mockIngest: func(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error) {
				assert.Nil(t, req.EndDate)
				assert.Empty(t, req.Interval)
				return entity.IngestResult{Symbol: "SPY", Fetched: 3, Stored: 0}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Fetched and stored 0 records for SPY","symbol":"SPY","records_stored":0,"total_fetched":3}`,
		},
		{
			name: "failure: provider error is a bad gateway",
			url:  "/stocks/NOPE/fetch?start_date=2024-01-01",
			mockIngest: func(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error) {
				return entity.IngestResult{}, domain.NewProviderError("twelvedata", errors.New("**symbol** not found: NOPE"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"Error fetching stock data: **symbol** not found: NOPE","code":"provider_error"}`,
		},
		{
			name: "failure: store error",
			url:  "/stocks/SPY/fetch?start_date=2024-01-01",
			mockIngest: func(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error) {
				return entity.IngestResult{}, &domain.StoreError{Op: "upsert bars", Err: errors.New("deadlock")}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Error fetching stock data: upsert bars: deadlock","code":"store_error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newStockRouter(&mockBarsUsecase{}, &mockIngestUsecase{IngestFunc: tt.mockIngest})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestStockHandler_FetchStockData_MissingStartDate(t *testing.T) {
	t.Parallel()

	called := false
	r := newStockRouter(&mockBarsUsecase{}, &mockIngestUsecase{IngestFunc: func(context.Context, entity.IngestRequest) (entity.IngestResult, error) {
		called = true
		return entity.IngestResult{}, nil
	}})
	for _, url := range []string{"/stocks/SPY/fetch", "/stocks/SPY/fetch?start_date=", "/stocks/SPY/fetch?end_date=2024-01-31"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, url, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Contains(t, w.Body.String(), `"code":"validation_error"`, url)
		assert.Contains(t, w.Body.String(), "start_date", url)
	}
	assert.False(t, called)
}

// TestStockHandler_GetAvailableDates はGetAvailableDatesのレスポンス形式をテストします。
func TestStockHandler_GetAvailableDates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url            string
		wantSymbol     string
		dates          []time.Time
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: filtered by symbol",
			url:            "/available-dates?symbol=spy",
			wantSymbol:     "SPY",
			dates:          []time.Time{day(2024, 1, 3), day(2024, 1, 2)},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"SPY","dates":["2024-01-03","2024-01-02"],"count":2}`,
		},
		{
			name:           "success: all symbols",
			url:            "/available-dates",
			wantSymbol:     "",
			dates:          nil,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":null,"dates":[],"count":0}`,
		},
		{
			name:           "failure: store error",
			url:            "/available-dates",
			err:            &domain.StoreError{Op: "list dates", Err: errors.New("timeout")},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Error retrieving available dates: list dates: timeout","code":"store_error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bars := &mockBarsUsecase{GetAvailableDatesFunc: func(_ context.Context, symbol string) ([]time.Time, error) {
				assert.Equal(t, tt.wantSymbol, symbol)
				return tt.dates, tt.err
			}}
			r := newStockRouter(bars, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
