// Package adapters はbarsフィーチャーのテーブルシンク実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/usecase"
)

// upsertBatchSize は1回の INSERT 文に含める最大行数です。
const upsertBatchSize = 500

// ErrEmptyTableName is returned by NewBarRepository when no table is configured.
var ErrEmptyTableName = errors.New("bar table name is empty")

// BarModel is the row layout of the bar table. (Datetime, Symbol) is the
// composite primary key.
type BarModel struct {
	Datetime    time.Time `gorm:"column:Datetime;primaryKey;autoIncrement:false;not null"`
	Open        float64   `gorm:"column:Open"`
	High        float64   `gorm:"column:High"`
	Low         float64   `gorm:"column:Low"`
	Close       float64   `gorm:"column:Close"`
	Volume      int64     `gorm:"column:Volume;not null;default:0"`
	Dividends   float64   `gorm:"column:Dividends;not null;default:0"`
	StockSplits float64   `gorm:"column:StockSplits;not null;default:0"`
	Symbol      string    `gorm:"column:Symbol;primaryKey;autoIncrement:false;size:16;not null"`
}

// updateColumns are overwritten when the key already exists.
var updateColumns = []string{
	entity.ColOpen, entity.ColHigh, entity.ColLow, entity.ColClose,
	entity.ColVolume, entity.ColDividends, entity.ColStockSplits,
}

type barGorm struct {
	db    *gorm.DB
	table string

	mu      sync.Mutex
	ensured bool
}

var _ usecase.BarRepository = (*barGorm)(nil)

// NewBarRepository creates the table sink over db writing to table.
func NewBarRepository(db *gorm.DB, table string) (*barGorm, error) {
	if table == "" {
		return nil, ErrEmptyTableName
	}
	return &barGorm{db: db, table: table}, nil
}

func toModel(b entity.Bar) BarModel {
	return BarModel{
		Datetime:    b.Time.UTC(),
		Open:        b.Open,
		High:        b.High,
		Low:         b.Low,
		Close:       b.Close,
		Volume:      b.Volume,
		Dividends:   b.Dividends,
		StockSplits: b.StockSplits,
		Symbol:      b.Symbol,
	}
}

func toEntity(m BarModel) entity.Bar {
	return entity.Bar{
		Time:        m.Datetime.UTC(),
		Symbol:      m.Symbol,
		Open:        m.Open,
		High:        m.High,
		Low:         m.Low,
		Close:       m.Close,
		Volume:      m.Volume,
		Dividends:   m.Dividends,
		StockSplits: m.StockSplits,
	}
}

// EnsureSchema creates the bar table if it does not exist. It runs once per
// repository; a failed attempt is retried on the next call.
func (r *barGorm) EnsureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensured {
		return nil
	}

	m := r.db.WithContext(ctx).Table(r.table).Migrator()
	if !m.HasTable(r.table) {
		if err := m.CreateTable(&BarModel{}); err != nil {
			return fmt.Errorf("create table %s: %w", r.table, err)
		}
	}
	r.ensured = true
	return nil
}

// UpsertBatch inserts new keys and overwrites every non-key field of existing
// keys. The whole batch runs in one transaction.
func (r *barGorm) UpsertBatch(ctx context.Context, bars []entity.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	// 同一キーが1文に2回現れると ON CONFLICT が失敗する DB があるため先に重複を除く
	bars = entity.DedupBars(bars)
	ms := make([]BarModel, 0, len(bars))
	for _, b := range bars {
		ms = append(ms, toModel(b))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(r.table).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: entity.ColDatetime}, {Name: entity.ColSymbol}},
			DoUpdates: clause.AssignmentColumns(updateColumns),
		}).CreateInBatches(&ms, upsertBatchSize).Error
	})
}

// Find returns the newest bars of q.Symbol within [q.From, q.To], newest first.
func (r *barGorm) Find(ctx context.Context, q entity.Query) ([]entity.Bar, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	dt := clause.Column{Name: entity.ColDatetime}
	tx := r.db.WithContext(ctx).Table(r.table).
		Where(clause.Eq{Column: clause.Column{Name: entity.ColSymbol}, Value: q.Symbol})
	if !q.From.IsZero() {
		tx = tx.Where(clause.Gte{Column: dt, Value: q.From.UTC()})
	}
	if !q.To.IsZero() {
		tx = tx.Where(clause.Lte{Column: dt, Value: q.To.UTC()})
	}
	tx = tx.Order(clause.OrderByColumn{Column: dt, Desc: true})
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []BarModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Bar, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
