package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeriesSnapshot
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[string]*domain.SeriesSnapshot),
	}
}

func snapshotKey(s *domain.SeriesSnapshot) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s|%d", s.Network, s.Granularity, s.Direction, s.TokenID, s.Period, s.ComputedAt)
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *SeriesStore) InsertBulk(_ context.Context, snapshots []*domain.SeriesSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snapshots))

	for _, snap := range snapshots {
		if snap == nil || snap.Period == "" || !snap.Network.Valid() {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(snap)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snapshots {
		copy := *snap
		s.data[snapshotKey(snap)] = &copy
	}

	return nil
}

// GetLatest retrieves the most recent snapshot run for a network and granularity.
func (s *SeriesStore) GetLatest(_ context.Context, network domain.Network, g domain.Granularity) ([]*domain.SeriesSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	for _, snap := range s.data {
		if snap.Network == network && snap.Granularity == g && snap.ComputedAt > latest {
			latest = snap.ComputedAt
		}
	}

	var result []*domain.SeriesSnapshot
	for _, snap := range s.data {
		if snap.Network == network && snap.Granularity == g && snap.ComputedAt == latest {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sortSnapshots(result)
	return result, nil
}

// GetByPeriodRange retrieves snapshots of one token within [from, to] period keys (inclusive).
func (s *SeriesStore) GetByPeriodRange(_ context.Context, network domain.Network, g domain.Granularity, tokenID int, from, to string) ([]*domain.SeriesSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SeriesSnapshot
	for _, snap := range s.data {
		if snap.Network != network || snap.Granularity != g || snap.TokenID != tokenID {
			continue
		}
		if snap.Period < from || snap.Period > to {
			continue
		}
		copy := *snap
		result = append(result, &copy)
	}

	sortSnapshots(result)
	return result, nil
}

func sortSnapshots(snaps []*domain.SeriesSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		a, b := snaps[i], snaps[j]
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.TokenID != b.TokenID {
			return a.TokenID < b.TokenID
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.ComputedAt < b.ComputedAt
	})
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
