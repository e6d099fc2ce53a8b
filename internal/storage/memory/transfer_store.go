package memory

import (
	"context"
	"sort"
	"sync"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/storage"
)

// TransferStore is an in-memory implementation of storage.TransferStore.
type TransferStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransferRecord // keyed by tx digest
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		data: make(map[string]*domain.TransferRecord),
	}
}

// InsertBulk adds multiple transfers atomically. Fails entire batch on any duplicate.
func (s *TransferStore) InsertBulk(_ context.Context, transfers []*domain.TransferRecord) error {
	if len(transfers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(transfers))

	for _, t := range transfers {
		if t == nil || t.TxDigest == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TxDigest]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TxDigest]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TxDigest] = struct{}{}
	}

	for _, t := range transfers {
		copy := *t
		s.data[t.TxDigest] = &copy
	}

	return nil
}

// ListFinalized retrieves finalized transfers in the query window, ordered by timestamp ASC.
func (s *TransferStore) ListFinalized(_ context.Context, q storage.TransferQuery) ([]*domain.TransferRecord, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferRecord
	for _, t := range s.data {
		if !t.Finalized {
			continue
		}
		if q.Since != 0 && t.TimestampMs < q.Since {
			continue
		}
		if q.Until != 0 && t.TimestampMs >= q.Until {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].TxDigest < result[j].TxDigest
	})

	return paginate(result, q.Offset, q.Limit), nil
}

// ListTransactions retrieves a page of transfers, newest first.
func (s *TransferStore) ListTransactions(_ context.Context, f storage.TransactionFilter) (*storage.TransactionPage, error) {
	if f.Offset < 0 || f.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.TransferRecord
	for _, t := range s.data {
		if f.Matches(t) {
			copy := *t
			matched = append(matched, &copy)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].TimestampMs != matched[j].TimestampMs {
			return matched[i].TimestampMs > matched[j].TimestampMs
		}
		return matched[i].TxDigest < matched[j].TxDigest
	})

	return &storage.TransactionPage{
		Transfers: paginate(matched, f.Offset, f.Limit),
		Total:     len(matched),
	}, nil
}

// GetByDigest retrieves a transfer by tx digest. Returns ErrNotFound if not exists.
func (s *TransferStore) GetByDigest(_ context.Context, digest string) (*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[digest]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

func paginate(records []*domain.TransferRecord, offset, limit int) []*domain.TransferRecord {
	if offset >= len(records) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

var _ storage.TransferStore = (*TransferStore)(nil)
