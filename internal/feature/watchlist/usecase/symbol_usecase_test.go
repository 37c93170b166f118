package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_ingest/internal/feature/watchlist/domain/entity"
	"stock_ingest/internal/feature/watchlist/usecase"
)

// mockSymbolRepository はSymbolRepositoryインターフェースのモック実装です。
type mockSymbolRepository struct {
	ListActiveFunc func(ctx context.Context) ([]entity.Symbol, error)
	UpsertFunc     func(ctx context.Context, s entity.Symbol) error
	DeactivateFunc func(ctx context.Context, code string) error
}

// ListActive はモックのListActive関数を呼び出します。
func (m *mockSymbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockSymbolRepository) Upsert(ctx context.Context, s entity.Symbol) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, s)
	}
	return nil
}

func (m *mockSymbolRepository) Deactivate(ctx context.Context, code string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, code)
	}
	return nil
}

// TestNewSymbolUsecase はNewSymbolUsecaseコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewSymbolUsecase(t *testing.T) {
	t.Parallel()

	mockRepo := &mockSymbolRepository{}
	uc := usecase.NewSymbolUsecase(mockRepo)

	assert.NotNil(t, uc, "usecase should not be nil")
}

// TestSymbolUsecase_ListActiveSymbols はListActiveSymbolsメソッドの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolUsecase_ListActiveSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		mockListActive  func(ctx context.Context) ([]entity.Symbol, error)
		expectedSymbols []entity.Symbol
		wantErr         bool
		errMsg          string
	}{
		{
			name: "success: returns list of active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{
					{ID: 1, Code: "7203.T", Name: "Toyota Motor", Market: "TSE", IsActive: true, SortKey: 1},
					{ID: 2, Code: "6758.T", Name: "Sony Group", Market: "TSE", IsActive: true, SortKey: 2},
				}, nil
			},
			expectedSymbols: []entity.Symbol{
				{ID: 1, Code: "7203.T", Name: "Toyota Motor", Market: "TSE", IsActive: true, SortKey: 1},
				{ID: 2, Code: "6758.T", Name: "Sony Group", Market: "TSE", IsActive: true, SortKey: 2},
			},
			wantErr: false,
		},
		{
			name: "success: returns empty list when no active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{}, nil
			},
			expectedSymbols: []entity.Symbol{},
			wantErr:         false,
		},
		{
			name: "success: returns nil when repository returns nil",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, nil
			},
			expectedSymbols: nil,
			wantErr:         false,
		},
		{
			name: "failure: repository returns error",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database connection failed")
			},
			expectedSymbols: nil,
			wantErr:         true,
			errMsg:          "database connection failed",
		},
		{
			name: "success: returns single symbol",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{
					{ID: 1, Code: "9984.T", Name: "SoftBank Group", Market: "TSE", IsActive: true, SortKey: 1},
				}, nil
			},
			expectedSymbols: []entity.Symbol{
				{ID: 1, Code: "9984.T", Name: "SoftBank Group", Market: "TSE", IsActive: true, SortKey: 1},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockRepo := &mockSymbolRepository{
				ListActiveFunc: tt.mockListActive,
			}
			uc := usecase.NewSymbolUsecase(mockRepo)

			symbols, err := uc.ListActiveSymbols(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.EqualError(t, err, tt.errMsg)
				}
				assert.Nil(t, symbols)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedSymbols, symbols)
			}
		})
	}
}

// TestSymbolUsecase_ListActiveSymbols_ContextCancellation はコンテキストがキャンセルされた場合にエラーが返されることを検証します。
func TestSymbolUsecase_ListActiveSymbols_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel context immediately

	mockRepo := &mockSymbolRepository{
		ListActiveFunc: func(ctx context.Context) ([]entity.Symbol, error) {
			return nil, ctx.Err()
		},
	}
	uc := usecase.NewSymbolUsecase(mockRepo)

	symbols, err := uc.ListActiveSymbols(ctx)

	assert.Error(t, err)
	assert.Nil(t, symbols)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSymbolUsecase_Watch は銘柄の追加時の正規化と入力検証を検証します。
func TestSymbolUsecase_Watch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     entity.Symbol
		repoErr   error
		wantErr   error
		wantSaved *entity.Symbol
	}{
		{
			name:      "success: code normalised and name defaulted",
			input:     entity.Symbol{Code: " tsla ", Market: "NASDAQ"},
			wantSaved: &entity.Symbol{Code: "TSLA", Name: "TSLA", Market: "NASDAQ", IsActive: true},
		},
		{
			name:    "failure: empty code",
			input:   entity.Symbol{Code: "  "},
			wantErr: entity.ErrEmptyCode,
		},
		{
			name:    "failure: repository error",
			input:   entity.Symbol{Code: "AAPL"},
			repoErr: errors.New("database connection failed"),
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var saved *entity.Symbol
			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{
				UpsertFunc: func(ctx context.Context, s entity.Symbol) error {
					saved = &s
					return tt.repoErr
				},
			})

			err := uc.Watch(context.Background(), tt.input)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, saved, "repository should not be called")
			case tt.repoErr != nil:
				assert.ErrorIs(t, err, tt.repoErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantSaved, saved)
			}
		})
	}
}

// TestSymbolUsecase_Unwatch は銘柄の無効化を検証します。
func TestSymbolUsecase_Unwatch(t *testing.T) {
	t.Parallel()

	var got string
	uc := usecase.NewSymbolUsecase(&mockSymbolRepository{
		DeactivateFunc: func(ctx context.Context, code string) error {
			got = code
			if code == "NOPE" {
				return entity.ErrNotFound
			}
			return nil
		},
	})

	require.NoError(t, uc.Unwatch(context.Background(), "aapl"))
	assert.Equal(t, "AAPL", got)

	assert.ErrorIs(t, uc.Unwatch(context.Background(), "nope"), entity.ErrNotFound)
	assert.ErrorIs(t, uc.Unwatch(context.Background(), ""), entity.ErrEmptyCode)
}
