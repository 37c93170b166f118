package usecase

import (
	"errors"
	"fmt"
)

// ErrNoData は指定期間・銘柄に対してプロバイダがデータを返さなかったことを示します。
// 障害ではなく情報として扱います。
var ErrNoData = errors.New("no data")

// Sink names used in PersistenceError.
const (
	SinkFile  = "file"
	SinkTable = "table"
)

// ProviderError wraps a failure of the market-data provider (network,
// invalid symbol, rate limit).
type ProviderError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError wraps a write failure of a single sink.
type PersistenceError struct {
	Sink string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist to %s sink: %v", e.Sink, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
