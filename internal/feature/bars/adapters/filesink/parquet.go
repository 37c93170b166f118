package filesink

import (
	"github.com/parquet-go/parquet-go"

	"stock_ingest/internal/feature/bars/domain/entity"
)

// parquetBar is the parquet row layout. Only the canonical columns are kept.
type parquetBar struct {
	Datetime    string  `parquet:"Datetime"`
	Open        float64 `parquet:"Open"`
	High        float64 `parquet:"High"`
	Low         float64 `parquet:"Low"`
	Close       float64 `parquet:"Close"`
	Volume      int64   `parquet:"Volume"`
	Dividends   float64 `parquet:"Dividends"`
	StockSplits float64 `parquet:"StockSplits"`
	Symbol      string  `parquet:"Symbol"`
}

// ParquetCodec stores the table as Parquet. Columns outside the canonical set
// are dropped on write.
type ParquetCodec struct{}

func (ParquetCodec) Extension() string { return "parquet" }

func (ParquetCodec) Read(path string) (entity.Table, error) {
	rows, err := parquet.ReadFile[parquetBar](path)
	if err != nil {
		return entity.Table{}, err
	}
	bars := make([]entity.Bar, 0, len(rows))
	for _, r := range rows {
		tm, err := entity.ParseTime(r.Datetime)
		if err != nil {
			return entity.Table{}, err
		}
		bars = append(bars, entity.Bar{
			Time: tm, Symbol: r.Symbol,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Dividends: r.Dividends, StockSplits: r.StockSplits,
		})
	}
	return entity.BarsToTable(bars), nil
}

func (ParquetCodec) Write(path string, t entity.Table) error {
	bars, err := entity.TableToBars(t)
	if err != nil {
		return err
	}
	rows := make([]parquetBar, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, parquetBar{
			Datetime: entity.FormatTime(b.Time), Symbol: b.Symbol,
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
			Volume: b.Volume, Dividends: b.Dividends, StockSplits: b.StockSplits,
		})
	}
	return parquet.WriteFile(path, rows)
}
