package usecase

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"stock_ingest/internal/feature/bars/domain/entity"
)

// FileSink はバーをフラットファイルへ upsert するシンクです。
type FileSink interface {
	Upsert(ctx context.Context, bars []entity.Bar) error
}

// TableSink はバーをリレーショナルテーブルへ upsert するシンクです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TableSink interface {
	UpsertBatch(ctx context.Context, bars []entity.Bar) error
}

// Persister writes each batch to the file sink and the table sink.
//
// The sinks are independent: a failure in one is reported but never prevents
// the other from being written. There is no cross-sink transaction.
type Persister struct {
	file  FileSink
	table TableSink
}

// NewPersister creates a Persister. A nil sink is skipped.
func NewPersister(file FileSink, table TableSink) *Persister {
	return &Persister{file: file, table: table}
}

// Persist normalises, validates and deduplicates bars, then upserts them into
// both sinks. The returned error, if any, combines one *PersistenceError per
// failed sink; callers should treat it as non-fatal.
func (p *Persister) Persist(ctx context.Context, bars []entity.Bar) error {
	bars = prepareBars(bars)
	if len(bars) == 0 {
		return nil
	}

	var err error
	if p.file != nil {
		if ferr := p.file.Upsert(ctx, bars); ferr != nil {
			slog.Error("failed to save bars to file sink", "bars", len(bars), "error", ferr)
			err = multierr.Append(err, &PersistenceError{Sink: SinkFile, Err: ferr})
		} else {
			slog.Debug("bars saved to file sink", "bars", len(bars))
		}
	}
	if p.table != nil {
		if terr := p.table.UpsertBatch(ctx, bars); terr != nil {
			slog.Error("failed to save bars to table sink", "bars", len(bars), "error", terr)
			err = multierr.Append(err, &PersistenceError{Sink: SinkTable, Err: terr})
		} else {
			slog.Debug("bars saved to table sink", "bars", len(bars))
		}
	}
	return err
}

// prepareBars normalises every bar, drops the ones that fail validation and
// collapses duplicate keys (last one wins).
func prepareBars(bars []entity.Bar) []entity.Bar {
	out := make([]entity.Bar, 0, len(bars))
	for _, b := range bars {
		b = b.Normalize()
		if err := b.Validate(); err != nil {
			slog.Warn("dropping invalid bar", "symbol", b.Symbol, "time", b.Time, "error", err)
			continue
		}
		out = append(out, b)
	}
	return entity.DedupBars(out)
}
