// Package filesink stores the full history of bars in a single tabular file.
//
// Every upsert reads the whole file, merges the new batch into it and rewrites
// it. Writers within one process are serialised; writers in different
// processes are not, so only one process should own a given file.
package filesink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/feature/bars/usecase"
)

var (
	// ErrEmptyPath is returned when no file path is configured.
	ErrEmptyPath = errors.New("file sink path is empty")
	// ErrUnsupportedFormat is returned for an unknown file format.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Config holds the file sink settings.
type Config struct {
	Path   string // e.g., "data/stock_data.csv"
	Format string // csv | parquet
}

// FileSink upserts bars into one file keyed by (Datetime, Symbol).
type FileSink struct {
	path  string
	codec Codec
	mu    sync.Mutex
}

var _ usecase.FileSink = (*FileSink)(nil)

// New creates a FileSink. The file is created on the first upsert.
func New(cfg Config) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	codec := NewCodec(cfg.Format)
	if codec == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, cfg.Format)
	}
	return &FileSink{path: cfg.Path, codec: codec}, nil
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string { return s.path }

// Load reads the stored table. A missing file is an empty table.
func (s *FileSink) Load() (entity.Table, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return entity.Table{}, nil
	}
	t, err := s.codec.Read(s.path)
	if err != nil {
		return entity.Table{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	return t, nil
}

// Upsert merges bars into the stored table, new values winning on key
// collision, and rewrites the file.
func (s *FileSink) Upsert(ctx context.Context, bars []entity.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Load()
	if err != nil {
		return err
	}
	merged, err := entity.MergeTables(existing, entity.BarsToTable(bars))
	if err != nil {
		return fmt.Errorf("merge %s: %w", s.path, err)
	}
	return s.replace(merged)
}

// replace writes t to a temporary file next to the target and renames it over
// the target, so readers never observe a half-written file.
func (s *FileSink) replace(t entity.Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return err
	}
	defer os.Remove(tmpPath) // rename 成功後は存在しないので無視される

	if err := s.codec.Write(tmpPath, t); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
