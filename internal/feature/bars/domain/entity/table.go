package entity

import (
	"fmt"
	"strconv"
)

// Column names of the tabular representation, in canonical order.
const (
	ColDatetime    = "Datetime"
	ColOpen        = "Open"
	ColHigh        = "High"
	ColLow         = "Low"
	ColClose       = "Close"
	ColVolume      = "Volume"
	ColDividends   = "Dividends"
	ColStockSplits = "StockSplits"
	ColSymbol      = "Symbol"
)

// Columns is the canonical column order of the file sink and the
// presentation table.
var Columns = []string{
	ColDatetime, ColOpen, ColHigh, ColLow, ColClose,
	ColVolume, ColDividends, ColStockSplits, ColSymbol,
}

// Table is an ordered set of columns and ordered rows of cell values.
// It is the shape shared by the file sink and any presentation adapter.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ColumnIndex returns the position of name in t.Columns, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// BarsToTable renders bars in the canonical column order.
func BarsToTable(bars []Bar) Table {
	t := Table{
		Columns: append([]string(nil), Columns...),
		Rows:    make([][]string, 0, len(bars)),
	}
	for _, b := range bars {
		t.Rows = append(t.Rows, []string{
			FormatTime(b.Time),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			strconv.FormatInt(b.Volume, 10),
			floatStr(b.Dividends),
			floatStr(b.StockSplits),
			b.Symbol,
		})
	}
	return t
}

// TableToBars parses rows back into bars. Missing or empty numeric cells
// default to zero; a missing Datetime or Symbol column is an error unless the
// table is entirely empty.
func TableToBars(t Table) ([]Bar, error) {
	if len(t.Columns) == 0 && len(t.Rows) == 0 {
		return nil, nil
	}
	dt, sym := t.ColumnIndex(ColDatetime), t.ColumnIndex(ColSymbol)
	if dt < 0 || sym < 0 {
		return nil, fmt.Errorf("table is missing key columns %s/%s", ColDatetime, ColSymbol)
	}
	idx := map[string]int{}
	for _, c := range Columns {
		idx[c] = t.ColumnIndex(c)
	}

	out := make([]Bar, 0, len(t.Rows))
	for n, row := range t.Rows {
		cell := func(col string) string {
			i := idx[col]
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}
		tm, err := ParseTime(cell(ColDatetime))
		if err != nil {
			return nil, fmt.Errorf("row %d: parse datetime: %w", n, err)
		}
		b := Bar{Time: tm, Symbol: cell(ColSymbol)}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{ColOpen, &b.Open},
			{ColHigh, &b.High},
			{ColLow, &b.Low},
			{ColClose, &b.Close},
			{ColDividends, &b.Dividends},
			{ColStockSplits, &b.StockSplits},
		} {
			if *f.dst, err = parseFloat(cell(f.col)); err != nil {
				return nil, fmt.Errorf("row %d: parse %s: %w", n, f.col, err)
			}
		}
		if b.Volume, err = parseInt(cell(ColVolume)); err != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", n, ColVolume, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// MergeTables upserts incoming rows into existing rows keyed by
// (Datetime, Symbol).
//
// The result uses the incoming schema; existing rows are projected onto it by
// column name. Each key appears once, at the position of its first
// appearance, carrying the whole row of its last appearance.
func MergeTables(existing, incoming Table) (Table, error) {
	dt, sym := incoming.ColumnIndex(ColDatetime), incoming.ColumnIndex(ColSymbol)
	if dt < 0 || sym < 0 {
		return Table{}, fmt.Errorf("incoming table is missing key columns %s/%s", ColDatetime, ColSymbol)
	}
	if len(existing.Columns) > 0 &&
		(existing.ColumnIndex(ColDatetime) < 0 || existing.ColumnIndex(ColSymbol) < 0) {
		return Table{}, fmt.Errorf("existing table is missing key columns %s/%s", ColDatetime, ColSymbol)
	}

	// 既存行を新しいスキーマへ列名で射影する
	proj := make([]int, len(incoming.Columns))
	for i, c := range incoming.Columns {
		proj[i] = existing.ColumnIndex(c)
	}

	merged := Table{
		Columns: append([]string(nil), incoming.Columns...),
		Rows:    make([][]string, 0, len(existing.Rows)+len(incoming.Rows)),
	}
	pos := make(map[Key]int, cap(merged.Rows))
	put := func(row []string) {
		k := Key{Datetime: cellAt(row, dt), Symbol: cellAt(row, sym)}
		if i, ok := pos[k]; ok {
			merged.Rows[i] = row
			return
		}
		pos[k] = len(merged.Rows)
		merged.Rows = append(merged.Rows, row)
	}

	for _, r := range existing.Rows {
		row := make([]string, len(proj))
		for i, src := range proj {
			row[i] = cellAt(r, src)
		}
		put(row)
	}
	for _, r := range incoming.Rows {
		row := make([]string, len(incoming.Columns))
		copy(row, r)
		put(row)
	}
	return merged, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// 一部のプロバイダは出来高を "1234.0" の形式で返す
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
