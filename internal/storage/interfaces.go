package storage

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

// TransferQuery selects finalized transfers by time.
type TransferQuery struct {
	Since  int64 // inclusive lower bound (ms); 0 disables
	Until  int64 // exclusive upper bound (ms); 0 disables
	Offset int
	Limit  int // 0 means no limit
}

// TransactionFilter selects a page of the transactions feed.
// EthAddress matches the Ethereum side of a transfer, SuiAddress the Sui side.
type TransactionFilter struct {
	EthAddress string
	SuiAddress string
	Offset     int
	Limit      int
}

// TransactionPage is one page of the transactions feed.
type TransactionPage struct {
	Transfers []*domain.TransferRecord // newest first
	Total     int                      // matching rows across all pages
}

// TransferSource provides read access to bridge transfers of one network.
type TransferSource interface {
	// ListFinalized retrieves finalized transfers in the query window, ordered by timestamp ASC.
	ListFinalized(ctx context.Context, q TransferQuery) ([]*domain.TransferRecord, error)

	// ListTransactions retrieves a page of transfers, newest first.
	ListTransactions(ctx context.Context, f TransactionFilter) (*TransactionPage, error)

	// GetByDigest retrieves a transfer by tx digest. Returns ErrNotFound if not exists.
	GetByDigest(ctx context.Context, digest string) (*domain.TransferRecord, error)
}

// TransferStore is a TransferSource that also accepts writes.
type TransferStore interface {
	TransferSource

	// InsertBulk adds multiple transfers atomically. Fails entire batch on duplicate digest.
	InsertBulk(ctx context.Context, transfers []*domain.TransferRecord) error
}

// TokenPriceStore provides access to token_prices storage.
type TokenPriceStore interface {
	// GetAll returns the stored USD price of every token, keyed by token id.
	GetAll(ctx context.Context) (map[int]decimal.Decimal, error)

	// Upsert sets the USD price of a token.
	Upsert(ctx context.Context, tokenID int, price decimal.Decimal) error
}

// SeriesStore provides access to bridge_volume_series storage.
type SeriesStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
	// (network, granularity, direction, token_id, period, computed_at).
	InsertBulk(ctx context.Context, snapshots []*domain.SeriesSnapshot) error

	// GetLatest retrieves the most recent snapshot run for a network and granularity,
	// ordered by (direction, token_id, period) ASC.
	GetLatest(ctx context.Context, network domain.Network, g domain.Granularity) ([]*domain.SeriesSnapshot, error)

	// GetByPeriodRange retrieves snapshots of one token within [from, to] period keys (inclusive).
	GetByPeriodRange(ctx context.Context, network domain.Network, g domain.Granularity, tokenID int, from, to string) ([]*domain.SeriesSnapshot, error)
}

// Cache stores encoded API responses.
type Cache interface {
	// Get returns the cached value. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores a value for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Matches reports whether a transfer passes the address filters.
// Empty filters match everything.
func (f TransactionFilter) Matches(r *domain.TransferRecord) bool {
	if f.EthAddress != "" && !sideMatches(r, domain.ChainEthereum, f.EthAddress) {
		return false
	}
	if f.SuiAddress != "" && !sideMatches(r, domain.ChainSui, f.SuiAddress) {
		return false
	}
	return true
}

func sideMatches(r *domain.TransferRecord, chain domain.Chain, address string) bool {
	if r.FromChain == chain && strings.EqualFold(r.Sender, address) {
		return true
	}
	return r.ToChain == chain && strings.EqualFold(r.Recipient, address)
}
