package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/transport/http/dto"
)

// OptionsUsecase はオプションチェーン取得のユースケースです。
type OptionsUsecase interface {
	GetChain(ctx context.Context, symbol string, expiration *time.Time) (*entity.ChainSnapshot, error)
}

// OptionsHandler はオプションチェーンのHTTPリクエストを処理します。
type OptionsHandler struct {
	uc OptionsUsecase
}

// NewOptionsHandler は OptionsHandler の新しいインスタンスを生成します。
func NewOptionsHandler(uc OptionsUsecase) *OptionsHandler {
	return &OptionsHandler{uc: uc}
}

// GetOptionsChain はライブのオプションチェーンを返します。
// timestamp は形式のみ検証し、値は使用しません（履歴データは保持していないため）。
//
// エンドポイント例:
// GET /options/SPY?expiration_date=2024-06-21
func (h *OptionsHandler) GetOptionsChain(c *gin.Context) {
	const action = "Error retrieving options chain"
	symbol := entity.NormalizeSymbol(c.Param("underlying_symbol"))

	var p dto.GetOptionsChainParams
	if err := bindQuery(c, "timestamp", false, &p.Timestamp); err != nil {
		writeError(c, action, err)
		return
	}
	if err := bindQuery(c, "expiration_date", false, &p.ExpirationDate); err != nil {
		writeError(c, action, err)
		return
	}
	if p.Timestamp != nil {
		slog.Debug("historical options timestamp ignored, serving live chain", "symbol", symbol, "timestamp", *p.Timestamp)
	}

	snap, err := h.uc.GetChain(c.Request.Context(), symbol, dto.DatePtr(p.ExpirationDate))
	if err != nil {
		writeError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOptionsChainResponse(snap))
}
