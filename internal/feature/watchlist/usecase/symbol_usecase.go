// Package usecase implements the business logic for the watchlist.
package usecase

import (
	"context"
	"log/slog"

	"stock_ingest/internal/feature/watchlist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for the watchlist.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	// Upsert adds s or, when its code exists, updates and reactivates it.
	Upsert(ctx context.Context, s entity.Symbol) error
	// Deactivate removes code from polling. Unknown codes yield entity.ErrNotFound.
	Deactivate(ctx context.Context, code string) error
}

// SymbolUsecase provides business logic for watchlist operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols in sort order.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// Watch adds code to the watchlist, or reactivates it.
func (u *SymbolUsecase) Watch(ctx context.Context, s entity.Symbol) error {
	s.Code = entity.NormalizeCode(s.Code)
	if s.Code == "" {
		return entity.ErrEmptyCode
	}
	if s.Name == "" {
		s.Name = s.Code
	}
	s.IsActive = true
	if err := u.repo.Upsert(ctx, s); err != nil {
		return err
	}
	slog.Info("symbol added to watchlist", "code", s.Code)
	return nil
}

// Unwatch stops polling code. The row is kept.
func (u *SymbolUsecase) Unwatch(ctx context.Context, code string) error {
	code = entity.NormalizeCode(code)
	if code == "" {
		return entity.ErrEmptyCode
	}
	if err := u.repo.Deactivate(ctx, code); err != nil {
		return err
	}
	slog.Info("symbol removed from watchlist", "code", code)
	return nil
}
