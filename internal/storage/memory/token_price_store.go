package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/storage"
)

// TokenPriceStore is an in-memory implementation of storage.TokenPriceStore.
type TokenPriceStore struct {
	mu     sync.RWMutex
	prices map[int]decimal.Decimal
}

// NewTokenPriceStore creates a new in-memory token price store.
func NewTokenPriceStore() *TokenPriceStore {
	return &TokenPriceStore{
		prices: make(map[int]decimal.Decimal),
	}
}

// GetAll returns a copy of every stored price.
func (s *TokenPriceStore) GetAll(_ context.Context) (map[int]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int]decimal.Decimal, len(s.prices))
	for id, p := range s.prices {
		result[id] = p
	}
	return result, nil
}

// Upsert sets the USD price of a token. The price must be positive.
func (s *TokenPriceStore) Upsert(_ context.Context, tokenID int, price decimal.Decimal) error {
	if !price.IsPositive() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[tokenID] = price
	return nil
}

var _ storage.TokenPriceStore = (*TokenPriceStore)(nil)
