package filesink

import (
	"strings"

	"stock_ingest/internal/feature/bars/domain/entity"
)

// Codec reads and writes a whole table file.
type Codec interface {
	Read(path string) (entity.Table, error)
	Write(path string, t entity.Table) error
	Extension() string
}

// NewCodec returns the codec for format (csv, parquet), or nil if the format
// is not supported.
func NewCodec(format string) Codec {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVCodec{}
	case "parquet":
		return ParquetCodec{}
	default:
		return nil
	}
}
