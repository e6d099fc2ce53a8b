package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/storage"
)

// ChainMapper maps stored chain ids to bridge chains.
// registry.NetworkConfig satisfies it.
type ChainMapper interface {
	ChainByID(id int) (domain.Chain, bool)
	ChainID(chain domain.Chain) (int, bool)
}

// TransferStore implements storage.TransferStore using PostgreSQL.
// One store serves one network; chain ids are resolved through chains.
type TransferStore struct {
	pool   *Pool
	chains ChainMapper
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool, chains ChainMapper) *TransferStore {
	return &TransferStore{pool: pool, chains: chains}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

const transferColumns = `txn_hash, sender_address, recipient_address, chain_id, destination_chain,
		token_id, amount, timestamp_ms, is_finalized`

// InsertBulk adds multiple transfers atomically. Fails entire batch on any duplicate.
func (s *TransferStore) InsertBulk(ctx context.Context, transfers []*domain.TransferRecord) error {
	if len(transfers) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO token_transfer_data (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, t := range transfers {
		if t == nil || t.TxDigest == "" {
			return storage.ErrInvalidInput
		}
		fromID, ok := s.chains.ChainID(t.FromChain)
		if !ok {
			return fmt.Errorf("%w: chain %q", storage.ErrInvalidInput, t.FromChain)
		}
		toID, ok := s.chains.ChainID(t.ToChain)
		if !ok {
			return fmt.Errorf("%w: chain %q", storage.ErrInvalidInput, t.ToChain)
		}

		_, err := tx.Exec(ctx, query,
			t.TxDigest,
			t.Sender,
			t.Recipient,
			fromID,
			toID,
			t.TokenID,
			t.Amount,
			t.TimestampMs,
			t.Finalized,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transfer in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ListFinalized retrieves finalized transfers in the query window, ordered by timestamp ASC.
func (s *TransferStore) ListFinalized(ctx context.Context, q storage.TransferQuery) ([]*domain.TransferRecord, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + transferColumns + `
		FROM token_transfer_data
		WHERE is_finalized = true
		  AND ($1::bigint = 0 OR timestamp_ms >= $1::bigint)
		  AND ($2::bigint = 0 OR timestamp_ms < $2::bigint)
		ORDER BY timestamp_ms ASC, txn_hash ASC
		OFFSET $3::bigint
		LIMIT NULLIF($4::bigint, 0)
	`

	rows, err := s.pool.Query(ctx, query, q.Since, q.Until, q.Offset, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list finalized transfers: %w", err)
	}
	defer rows.Close()

	return s.scanTransfers(rows)
}

// ListTransactions retrieves a page of transfers, newest first.
func (s *TransferStore) ListTransactions(ctx context.Context, f storage.TransactionFilter) (*storage.TransactionPage, error) {
	if f.Offset < 0 || f.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	ethID, _ := s.chains.ChainID(domain.ChainEthereum)
	suiID, _ := s.chains.ChainID(domain.ChainSui)

	where := `
		WHERE ($1 = '' OR (chain_id = $2 AND lower(sender_address) = lower($1))
		               OR (destination_chain = $2 AND lower(recipient_address) = lower($1)))
		  AND ($3 = '' OR (chain_id = $4 AND lower(sender_address) = lower($3))
		               OR (destination_chain = $4 AND lower(recipient_address) = lower($3)))
	`
	args := []any{f.EthAddress, ethID, f.SuiAddress, suiID}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM token_transfer_data `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	query := `
		SELECT ` + transferColumns + `
		FROM token_transfer_data ` + where + `
		ORDER BY timestamp_ms DESC, txn_hash ASC
		OFFSET $5::bigint
		LIMIT NULLIF($6::bigint, 0)
	`

	rows, err := s.pool.Query(ctx, query, append(args, f.Offset, f.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transfers, err := s.scanTransfers(rows)
	if err != nil {
		return nil, err
	}

	return &storage.TransactionPage{Transfers: transfers, Total: total}, nil
}

// GetByDigest retrieves a transfer by tx digest. Returns ErrNotFound if not exists.
func (s *TransferStore) GetByDigest(ctx context.Context, digest string) (*domain.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM token_transfer_data
		WHERE txn_hash = $1
	`

	row := s.pool.QueryRow(ctx, query, digest)
	t, err := s.scanTransfer(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer by digest: %w", err)
	}
	return t, nil
}

// scanTransfer scans a single row, resolving chain ids.
func (s *TransferStore) scanTransfer(row pgx.Row) (*domain.TransferRecord, error) {
	var (
		t              domain.TransferRecord
		fromID, destID int
	)

	err := row.Scan(
		&t.TxDigest,
		&t.Sender,
		&t.Recipient,
		&fromID,
		&destID,
		&t.TokenID,
		&t.Amount,
		&t.TimestampMs,
		&t.Finalized,
	)
	if err != nil {
		return nil, err
	}

	var ok bool
	if t.FromChain, ok = s.chains.ChainByID(fromID); !ok {
		return nil, fmt.Errorf("transfer %s: unknown chain id %d", t.TxDigest, fromID)
	}
	if t.ToChain, ok = s.chains.ChainByID(destID); !ok {
		return nil, fmt.Errorf("transfer %s: unknown chain id %d", t.TxDigest, destID)
	}

	return &t, nil
}

// scanTransfers scans multiple rows into a slice of TransferRecord.
func (s *TransferStore) scanTransfers(rows pgx.Rows) ([]*domain.TransferRecord, error) {
	var transfers []*domain.TransferRecord

	for rows.Next() {
		t, err := s.scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}

	return transfers, nil
}
