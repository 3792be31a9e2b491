package store

import (
	"context"

	"github.com/seenimoa/sastocks/pkg/models"
)

// SymbolFilter narrows ListSymbols. Zero fields do not filter.
type SymbolFilter struct {
	Ticker string
	Limit  int
}

// CreateSymbol inserts sym and sets its generated ID.
func (s *Store) CreateSymbol(ctx context.Context, sym *models.Symbol) error {
	return persistErr("create", "symbol", s.db.WithContext(ctx).Create(sym).Error)
}

// SymbolByTicker returns the symbol with the given ticker, or nil when absent.
func (s *Store) SymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error) {
	var sym models.Symbol
	ok, err := first(s.db.WithContext(ctx).Where("ticker = ?", ticker), &sym)
	if err != nil {
		return nil, persistErr("query", "symbol", err)
	}
	if !ok {
		return nil, nil
	}
	return &sym, nil
}

// SymbolByID returns the symbol with the given id, or nil when absent.
func (s *Store) SymbolByID(ctx context.Context, id uint) (*models.Symbol, error) {
	var sym models.Symbol
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &sym)
	if err != nil {
		return nil, persistErr("query", "symbol", err)
	}
	if !ok {
		return nil, nil
	}
	return &sym, nil
}

// ListSymbols returns matching symbols in insertion (id) order.
func (s *Store) ListSymbols(ctx context.Context, f SymbolFilter) ([]models.Symbol, error) {
	q := s.db.WithContext(ctx).Model(&models.Symbol{})
	if f.Ticker != "" {
		q = q.Where("ticker = ?", f.Ticker)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.Symbol
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, persistErr("query", "symbol", err)
	}
	return out, nil
}

// UpdateSymbol applies fields to the symbol with the given id.
func (s *Store) UpdateSymbol(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateByID(ctx, "symbol", &models.Symbol{}, id, fields)
}

// DeleteSymbol removes the symbol with the given id. Articles and metrics
// referencing it are left in place.
func (s *Store) DeleteSymbol(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, "symbol", &models.Symbol{}, id)
}
