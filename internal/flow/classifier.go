// Package flow tags bridge transfers with a direction and normalized amounts.
package flow

import (
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

// TokenResolver resolves token ids to metadata.
// registry.NetworkConfig satisfies it.
type TokenResolver interface {
	Token(id int) (domain.TokenMeta, bool)
}

// Classifier tags transfer records relative to a home chain.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	tokens TokenResolver
	prices PriceSource
	home   domain.Chain
}

// NewClassifier creates a classifier. A nil prices falls back to the static registry price.
func NewClassifier(tokens TokenResolver, prices PriceSource, home domain.Chain) *Classifier {
	if prices == nil {
		prices = StaticPrices{}
	}
	return &Classifier{tokens: tokens, prices: prices, home: home}
}

// Home returns the chain that inflow is measured against.
func (c *Classifier) Home() domain.Chain {
	return c.home
}

// DirectionOf returns inflow when the destination is the home chain, outflow otherwise.
func DirectionOf(r *domain.TransferRecord, home domain.Chain) domain.Direction {
	if r.ToChain == home {
		return domain.DirectionInflow
	}
	return domain.DirectionOutflow
}

// Classify tags one record. ok is false when the token id is not registered.
//
//   - normalizedAmount = amount / denominator
//   - usdAmount = normalizedAmount * priceUSD
func (c *Classifier) Classify(r *domain.TransferRecord) (domain.ClassifiedTransfer, bool) {
	if r == nil {
		return domain.ClassifiedTransfer{}, false
	}

	meta, ok := c.tokens.Token(r.TokenID)
	if !ok {
		return domain.ClassifiedTransfer{}, false
	}

	normalized := decimal.NewFromInt(r.Amount).Div(meta.Denominator)

	return domain.ClassifiedTransfer{
		Record:           r,
		Token:            meta,
		Direction:        DirectionOf(r, c.home),
		NormalizedAmount: normalized,
		USDAmount:        normalized.Mul(c.prices.PriceUSD(meta)),
	}, true
}

// ClassifyAll tags every record with a known token, preserving input order.
func (c *Classifier) ClassifyAll(records []*domain.TransferRecord) []domain.ClassifiedTransfer {
	result := make([]domain.ClassifiedTransfer, 0, len(records))
	for _, r := range records {
		if ct, ok := c.Classify(r); ok {
			result = append(result, ct)
		}
	}
	return result
}

// SplitByDirection partitions classified transfers into inflow and outflow.
func SplitByDirection(transfers []domain.ClassifiedTransfer) (inflow, outflow []domain.ClassifiedTransfer) {
	for _, t := range transfers {
		if t.Direction == domain.DirectionInflow {
			inflow = append(inflow, t)
		} else {
			outflow = append(outflow, t)
		}
	}
	return inflow, outflow
}
