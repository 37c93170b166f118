package filesink

import (
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetSchema_TypedColumns(t *testing.T) {
	t.Parallel()

	schema := parquet.SchemaOf(new(parquetBar))

	tests := []struct {
		column string
		want   parquet.Kind
	}{
		{"Datetime", parquet.ByteArray},
		{"Open", parquet.Double},
		{"High", parquet.Double},
		{"Low", parquet.Double},
		{"Close", parquet.Double},
		{"Volume", parquet.Int64},
		{"Dividends", parquet.Double},
		{"StockSplits", parquet.Double},
		{"Symbol", parquet.ByteArray},
	}
	for _, tt := range tests {
		leaf, ok := schema.Lookup(tt.column)
		require.True(t, ok, tt.column)
		assert.Equal(t, tt.want, leaf.Node.Type().Kind(), tt.column)
	}
}
