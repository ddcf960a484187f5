package adapters

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/domain/entity"
	"hawkiz_backend/internal/feature/marketdata/usecase"
)

// DefaultBatchSize is the number of rows sent per INSERT ... ON CONFLICT statement.
const DefaultBatchSize = 500

// pgUniqueViolation is the SQLSTATE Postgres reports for a unique index conflict.
const pgUniqueViolation = "23505"

var barKey = []clause.Column{{Name: "symbol"}, {Name: "timestamp"}}

type barGorm struct {
	db        *gorm.DB
	batchSize int
}

var _ usecase.BarRepository = (*barGorm)(nil)

// Option configures the bar repository.
type Option func(*barGorm)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(r *barGorm) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewBarRepository(db *gorm.DB, opts ...Option) *barGorm {
	r := &barGorm{db: db, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UpsertBars writes bars keyed on (symbol, timestamp) in a single transaction and
// returns how many keys did not exist before. Existing rows get their OHLCV
// overwritten (last writer wins). Duplicate timestamps inside the batch collapse to the last one.
func (r *barGorm) UpsertBars(ctx context.Context, symbol string, bars []entity.Bar) (int, error) {
	rows := dedupeByTimestamp(symbol, bars)
	if len(rows) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += r.batchSize {
			end := min(start+r.batchSize, len(rows))
			chunk := rows[start:end]

			// DO NOTHING の影響行数が新規キー数になる。並行する取り込みでも各キーは一度しか数えない
			clone := slices.Clone(chunk)
			fresh := tx.Clauses(clause.OnConflict{
				Columns:   barKey,
				DoNothing: true,
			}).Create(&clone)
			if fresh.Error != nil {
				return fresh.Error
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns:   barKey,
				DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
			}).Create(&chunk).Error; err != nil {
				return err
			}
			inserted += int(fresh.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, storeError("upsert bars", err)
	}
	return inserted, nil
}

// FindBars returns bars newest first. StartDate is inclusive from midnight UTC,
// EndDate is inclusive through the end of that UTC day.
func (r *barGorm) FindBars(ctx context.Context, q entity.BarQuery) ([]entity.Bar, error) {
	tx := r.db.WithContext(ctx).Model(&StockPriceModel{}).Where("symbol = ?", q.Symbol)
	if q.StartDate != nil {
		tx = tx.Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: entity.StartOfDay(*q.StartDate)})
	}
	if q.EndDate != nil {
		tx = tx.Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: entity.StartOfDay(*q.EndDate).AddDate(0, 0, 1)})
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true})
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []StockPriceModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, storeError("find bars", err)
	}
	out := make([]entity.Bar, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}

// ListAvailableDates returns the distinct UTC calendar dates that have at least
// one bar, newest first. An empty symbol covers every symbol.
func (r *barGorm) ListAvailableDates(ctx context.Context, symbol string) ([]time.Time, error) {
	tx := r.db.WithContext(ctx).Model(&StockPriceModel{})
	if symbol != "" {
		tx = tx.Where("symbol = ?", symbol)
	}

	var stamps []time.Time
	if err := tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Pluck("timestamp", &stamps).Error; err != nil {
		return nil, storeError("list available dates", err)
	}

	// Date projection differs per dialect, so it is done here.
	dates := make([]time.Time, 0)
	for _, ts := range stamps {
		d := entity.StartOfDay(ts.UTC())
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func dedupeByTimestamp(symbol string, bars []entity.Bar) []StockPriceModel {
	pos := make(map[time.Time]int, len(bars))
	rows := make([]StockPriceModel, 0, len(bars))
	for _, b := range bars {
		b.Symbol = symbol
		b = b.Normalize()
		m := toStockPriceModel(b)
		if i, ok := pos[b.Timestamp]; ok {
			rows[i] = m
			continue
		}
		pos[b.Timestamp] = len(rows)
		rows = append(rows, m)
	}
	return rows
}

func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	conflict := errors.Is(err, gorm.ErrDuplicatedKey) ||
		(errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation)
	return &domain.StoreError{Op: op, Conflict: conflict, Err: err}
}
