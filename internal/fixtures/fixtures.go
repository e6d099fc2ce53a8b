// Package fixtures generates deterministic demo bridge transfers.
package fixtures

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/storage"
)

// Options controls demo data generation.
type Options struct {
	Now       time.Time     // newest possible timestamp
	Span      time.Duration // how far back transfers reach
	Count     int
	Seed      uint64
	Addresses int // size of the address pool per chain
}

// DefaultOptions returns a year of demo traffic ending at now.
func DefaultOptions(now time.Time) Options {
	return Options{
		Now:       now,
		Span:      365 * 24 * time.Hour,
		Count:     2000,
		Seed:      42,
		Addresses: 25,
	}
}

// raw amount ranges per token id, in smallest units
var amountRanges = map[int][2]int64{
	1: {100_000, 50_000_000},              // 0.001 - 0.5 WBTC
	2: {1_000_000, 500_000_000},           // 0.01 - 5 ETH
	3: {10_000_000, 50_000_000_000},       // 10 - 50k USDC
	4: {10_000_000, 50_000_000_000},       // 10 - 50k USDT
	5: {100_000_000_000, 900_000_000_000}, // 1k - 9k Pepe
}

// Transfers generates deterministic transfers. Roughly one in twenty is not finalized.
func Transfers(opts Options) []*domain.TransferRecord {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	pool := opts.Addresses
	if pool <= 0 {
		pool = 1
	}
	suiAddrs := make([]string, pool)
	ethAddrs := make([]string, pool)
	for i := 0; i < pool; i++ {
		suiAddrs[i] = suiAddress(opts.Seed, i)
		ethAddrs[i] = ethAddress(opts.Seed, i)
	}

	end := opts.Now.UnixMilli()
	span := opts.Span.Milliseconds()
	if span <= 0 {
		span = 1
	}

	records := make([]*domain.TransferRecord, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		tokenID := 1 + rng.IntN(len(amountRanges))
		bounds := amountRanges[tokenID]

		r := &domain.TransferRecord{
			TokenID:     tokenID,
			Amount:      bounds[0] + rng.Int64N(bounds[1]-bounds[0]),
			TimestampMs: end - rng.Int64N(span),
			Finalized:   rng.IntN(20) != 0,
		}

		if rng.IntN(2) == 0 {
			r.FromChain, r.ToChain = domain.ChainEthereum, domain.ChainSui
			r.Sender = ethAddrs[rng.IntN(pool)]
			r.Recipient = suiAddrs[rng.IntN(pool)]
			r.TxDigest = ethTxHash(opts.Seed, i)
		} else {
			r.FromChain, r.ToChain = domain.ChainSui, domain.ChainEthereum
			r.Sender = suiAddrs[rng.IntN(pool)]
			r.Recipient = ethAddrs[rng.IntN(pool)]
			r.TxDigest = suiDigest(opts.Seed, i)
		}

		records = append(records, r)
	}
	return records
}

// Load populates stores with demo transfers and a price overlay.
// prices may be nil.
func Load(ctx context.Context, transfers storage.TransferStore, prices storage.TokenPriceStore, opts Options) error {
	if err := transfers.InsertBulk(ctx, Transfers(opts)); err != nil {
		return fmt.Errorf("insert demo transfers: %w", err)
	}
	if prices == nil {
		return nil
	}
	// ETH moved since the registry prices were set.
	if err := prices.Upsert(ctx, 2, decimal.NewFromInt(3350)); err != nil {
		return fmt.Errorf("upsert demo price: %w", err)
	}
	return nil
}

func digest(seed uint64, kind string, i int) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d", seed, kind, i)))
}

func suiDigest(seed uint64, i int) string {
	h := digest(seed, "sui-tx", i)
	return base58.Encode(h[:])
}

func ethTxHash(seed uint64, i int) string {
	h := digest(seed, "eth-tx", i)
	return "0x" + hex.EncodeToString(h[:])
}

func suiAddress(seed uint64, i int) string {
	h := digest(seed, "sui-addr", i)
	return "0x" + hex.EncodeToString(h[:])
}

func ethAddress(seed uint64, i int) string {
	h := digest(seed, "eth-addr", i)
	return "0x" + hex.EncodeToString(h[:20])
}
