package filesink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"stock_ingest/internal/feature/bars/domain/entity"
)

// CSVCodec stores the table as CSV with a header row.
type CSVCodec struct{}

func (CSVCodec) Extension() string { return "csv" }

func (CSVCodec) Read(path string) (entity.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return entity.Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return entity.Table{}, nil
	}
	if err != nil {
		return entity.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return entity.Table{}, fmt.Errorf("read csv rows: %w", err)
	}
	return entity.Table{Columns: header, Rows: rows}, nil
}

func (CSVCodec) Write(path string, t entity.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
