package flow

import (
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

// PriceSource supplies the USD price used for a token.
type PriceSource interface {
	PriceUSD(meta domain.TokenMeta) decimal.Decimal
}

// StaticPrices uses the reference price carried by the token metadata.
type StaticPrices struct{}

// PriceUSD implements PriceSource.
func (StaticPrices) PriceUSD(meta domain.TokenMeta) decimal.Decimal {
	return meta.PriceUSD
}

// PriceTable overrides static prices by token id.
// Missing or non-positive entries fall back to the metadata price.
type PriceTable map[int]decimal.Decimal

// PriceUSD implements PriceSource.
func (t PriceTable) PriceUSD(meta domain.TokenMeta) decimal.Decimal {
	if p, ok := t[meta.ID]; ok && p.IsPositive() {
		return p
	}
	return meta.PriceUSD
}
