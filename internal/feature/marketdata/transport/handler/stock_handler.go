package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/transport/http/dto"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

// BarsUsecase は保存済みバーの参照ユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type BarsUsecase interface {
	GetBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error)
	GetAvailableDates(ctx context.Context, symbol string) ([]time.Time, error)
}

// IngestUsecase はプロバイダからの取得と保存を行うユースケースです。
type IngestUsecase interface {
	Ingest(ctx context.Context, req entity.IngestRequest) (entity.IngestResult, error)
}

// StockHandler は株価データのHTTPリクエストを処理します。
type StockHandler struct {
	bars   BarsUsecase
	ingest IngestUsecase
}

// NewStockHandler は StockHandler の新しいインスタンスを生成します。
func NewStockHandler(bars BarsUsecase, ingest IngestUsecase) *StockHandler {
	return &StockHandler{bars: bars, ingest: ingest}
}

// GetStockPrices は保存済みの株価データを新しい順に返します。
//
// エンドポイント例:
// GET /stocks/SPY?start_date=2024-01-01&end_date=2024-01-31&limit=100
func (h *StockHandler) GetStockPrices(c *gin.Context) {
	const action = "Error retrieving stock prices"
	symbol := entity.NormalizeSymbol(c.Param("symbol"))

	var p dto.GetStockPricesParams
	if err := bindQuery(c, "start_date", false, &p.StartDate); err != nil {
		writeError(c, action, err)
		return
	}
	if err := bindQuery(c, "end_date", false, &p.EndDate); err != nil {
		writeError(c, action, err)
		return
	}
	if err := bindQuery(c, "limit", false, &p.Limit); err != nil {
		writeError(c, action, err)
		return
	}

	q := entity.BarQuery{
		Symbol:    symbol,
		StartDate: dto.DatePtr(p.StartDate),
		EndDate:   dto.DatePtr(p.EndDate),
	}
	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > usecase.MaxLimit {
			writeError(c, action, domain.NewValidationError("limit", "must be between 1 and %d", usecase.MaxLimit))
			return
		}
		q.Limit = *p.Limit
	}

	bars, err := h.bars.GetBars(c.Request.Context(), q)
	if err != nil {
		writeError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStockPriceListResponse(symbol, bars))
}

// FetchStockData はプロバイダから株価データを取得して保存し、件数を返します。
//
// エンドポイント例:
// POST /stocks/SPY/fetch?start_date=2024-01-01&end_date=2024-01-31&interval=1d
func (h *StockHandler) FetchStockData(c *gin.Context) {
	const action = "Error fetching stock data"
	symbol := entity.NormalizeSymbol(c.Param("symbol"))

	var p dto.FetchStockDataParams
	if err := bindQuery(c, "start_date", true, &p.StartDate); err != nil {
		writeError(c, action, err)
		return
	}
	if err := bindQuery(c, "end_date", false, &p.EndDate); err != nil {
		writeError(c, action, err)
		return
	}
	if err := bindQuery(c, "interval", false, &p.Interval); err != nil {
		writeError(c, action, err)
		return
	}

	req := entity.IngestRequest{
		Symbol:    symbol,
		StartDate: p.StartDate.Time,
		EndDate:   dto.DatePtr(p.EndDate),
	}
	if p.Interval != nil {
		req.Interval = *p.Interval
	}

	res, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		writeError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFetchResponse(res))
}

// GetAvailableDates は保存済みデータの日付一覧を返します。
//
// エンドポイント例:
// GET /available-dates?symbol=SPY
func (h *StockHandler) GetAvailableDates(c *gin.Context) {
	const action = "Error retrieving available dates"

	var p dto.GetAvailableDatesParams
	if err := bindQuery(c, "symbol", false, &p.Symbol); err != nil {
		writeError(c, action, err)
		return
	}
	symbol := ""
	if p.Symbol != nil {
		symbol = entity.NormalizeSymbol(*p.Symbol)
	}

	dates, err := h.bars.GetAvailableDates(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAvailableDatesResponse(symbol, dates))
}
