package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/storage"
)

// TokenPriceStore implements storage.TokenPriceStore using PostgreSQL.
type TokenPriceStore struct {
	pool *Pool
}

// NewTokenPriceStore creates a new TokenPriceStore.
func NewTokenPriceStore(pool *Pool) *TokenPriceStore {
	return &TokenPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenPriceStore = (*TokenPriceStore)(nil)

// GetAll returns the stored USD price of every token.
// Prices are read as text to keep NUMERIC precision.
func (s *TokenPriceStore) GetAll(ctx context.Context) (map[int]decimal.Decimal, error) {
	query := `SELECT token_id, price::text FROM token_prices`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get token prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int]decimal.Decimal)
	for rows.Next() {
		var (
			tokenID int
			raw     string
		)
		if err := rows.Scan(&tokenID, &raw); err != nil {
			return nil, fmt.Errorf("scan token price: %w", err)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse price of token %d: %w", tokenID, err)
		}
		prices[tokenID] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token prices: %w", err)
	}

	return prices, nil
}

// Upsert sets the USD price of a token. The price must be positive.
func (s *TokenPriceStore) Upsert(ctx context.Context, tokenID int, price decimal.Decimal) error {
	if !price.IsPositive() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_prices (token_id, price)
		VALUES ($1, $2::numeric)
		ON CONFLICT (token_id) DO UPDATE SET price = EXCLUDED.price, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, tokenID, price.String()); err != nil {
		return fmt.Errorf("upsert token price: %w", err)
	}
	return nil
}
