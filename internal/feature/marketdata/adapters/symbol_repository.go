package adapters

import (
	"context"

	"gorm.io/gorm"
)

// symbolGorm reads the tracked_symbols table.
type symbolGorm struct {
	db *gorm.DB
}

// NewSymbolRepository は tracked_symbols を参照するリポジトリを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

// ListActiveSymbols はsort_key順にアクティブな銘柄コードのみを返します。
func (r *symbolGorm) ListActiveSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := r.db.WithContext(ctx).
		Model(&TrackedSymbolModel{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Order("symbol ASC").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, storeError("list tracked symbols", err)
	}
	return symbols, nil
}
