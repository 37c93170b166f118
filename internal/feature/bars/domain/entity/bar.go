// Package entity defines the domain models for the bars feature.
package entity

import (
	"errors"
	"strings"
	"time"
)

// DatetimeLayout is the interchange format for bar timestamps shared by the
// file sink and the table sink. It carries no zone suffix; values are UTC.
const DatetimeLayout = "2006-01-02 15:04:05"

var (
	// ErrEmptySymbol is returned when a bar has no ticker symbol.
	ErrEmptySymbol = errors.New("bar symbol is empty")
	// ErrNegativeVolume is returned when a bar carries a negative volume.
	ErrNegativeVolume = errors.New("bar volume is negative")
)

// Bar represents one OHLCV observation for a symbol, sampled at the open of
// its interval.
type Bar struct {
	Time        time.Time // Sampling instant, UTC, second precision
	Symbol      string    // Ticker symbol (e.g., "AAPL", "TSLA")
	Open        float64   // Opening price
	High        float64   // Highest price during the interval
	Low         float64   // Lowest price during the interval
	Close       float64   // Closing (or latest) price
	Volume      int64     // Trading volume
	Dividends   float64   // Dividend paid on this bar, 0 if none
	StockSplits float64   // Split ratio effective on this bar, 0 if none
}

// Key identifies a bar in every sink.
type Key struct {
	Datetime string
	Symbol   string
}

// Key returns the natural key of the bar.
func (b Bar) Key() Key {
	return Key{Datetime: FormatTime(b.Time), Symbol: b.Symbol}
}

// Normalize returns a copy of b with the time truncated to the second in UTC
// and the symbol trimmed and upper-cased.
func (b Bar) Normalize() Bar {
	b.Time = b.Time.UTC().Truncate(time.Second)
	b.Symbol = NormalizeSymbol(b.Symbol)
	return b
}

// Validate reports whether b can be persisted.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return ErrEmptySymbol
	}
	if b.Volume < 0 {
		return ErrNegativeVolume
	}
	return nil
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FormatTime renders t in DatetimeLayout after converting it to UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}

// ParseTime parses a DatetimeLayout value as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(DatetimeLayout, strings.TrimSpace(s), time.UTC)
}

// DedupBars collapses bars sharing a key. Each key keeps the position of its
// first appearance and the values of its last one.
func DedupBars(bars []Bar) []Bar {
	idx := make(map[Key]int, len(bars))
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		k := b.Key()
		if i, ok := idx[k]; ok {
			out[i] = b
			continue
		}
		idx[k] = len(out)
		out = append(out, b)
	}
	return out
}
