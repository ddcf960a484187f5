package usecase

import (
	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
)

// validateSymbol は銘柄コードを大文字に正規化し、長さを検証します。
func validateSymbol(s string) (string, error) {
	symbol := entity.NormalizeSymbol(s)
	if symbol == "" {
		return "", domain.NewValidationError("symbol", "must not be empty")
	}
	if len(symbol) > entity.MaxSymbolLength {
		return "", domain.NewValidationError("symbol", "%q exceeds %d characters", symbol, entity.MaxSymbolLength)
	}
	return symbol, nil
}
