package clickhouse

import (
	"context"
	"fmt"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

type snapshotKey struct {
	network     domain.Network
	granularity domain.Granularity
	direction   string
	tokenID     int
	period      string
	computedAt  int64
}

func keyOf(s *domain.SeriesSnapshot) snapshotKey {
	return snapshotKey{s.Network, s.Granularity, s.Direction, s.TokenID, s.Period, s.ComputedAt}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
// MergeTree does not enforce uniqueness, so duplicates are checked before the insert.
func (s *SeriesStore) InsertBulk(ctx context.Context, snapshots []*domain.SeriesSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	seen := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.Period == "" || !snap.Network.Valid() {
			return storage.ErrInvalidInput
		}
		k := keyOf(snap)
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// A run shares one computed_at; checking each distinct run is enough.
	runs := make(map[snapshotKey]struct{})
	for _, snap := range snapshots {
		runs[snapshotKey{network: snap.Network, granularity: snap.Granularity, computedAt: snap.ComputedAt}] = struct{}{}
	}
	for run := range runs {
		exists, err := s.runExists(ctx, run.network, run.granularity, run.computedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bridge_volume_series (
			network, granularity, direction, token_id, token_name, period, value, usd_value, transfer_count, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			string(snap.Network), string(snap.Granularity), snap.Direction,
			uint32(snap.TokenID), snap.TokenName, snap.Period,
			snap.Value, snap.USDValue, uint32(snap.Count), uint64(snap.ComputedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot run for a network and granularity.
func (s *SeriesStore) GetLatest(ctx context.Context, network domain.Network, g domain.Granularity) ([]*domain.SeriesSnapshot, error) {
	query := `
		SELECT network, granularity, direction, token_id, token_name, period, value, usd_value, transfer_count, computed_at
		FROM bridge_volume_series
		WHERE network = ? AND granularity = ?
		  AND computed_at = (
			SELECT max(computed_at) FROM bridge_volume_series WHERE network = ? AND granularity = ?
		  )
		ORDER BY direction ASC, token_id ASC, period ASC
	`

	rows, err := s.conn.Query(ctx, query, string(network), string(g), string(network), string(g))
	if err != nil {
		return nil, fmt.Errorf("query latest series: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByPeriodRange retrieves snapshots of one token within [from, to] period keys (inclusive).
func (s *SeriesStore) GetByPeriodRange(ctx context.Context, network domain.Network, g domain.Granularity, tokenID int, from, to string) ([]*domain.SeriesSnapshot, error) {
	query := `
		SELECT network, granularity, direction, token_id, token_name, period, value, usd_value, transfer_count, computed_at
		FROM bridge_volume_series
		WHERE network = ? AND granularity = ? AND token_id = ? AND period >= ? AND period <= ?
		ORDER BY direction ASC, token_id ASC, period ASC, computed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, string(network), string(g), uint32(tokenID), from, to)
	if err != nil {
		return nil, fmt.Errorf("query by period range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// runExists checks if a snapshot run was already stored.
func (s *SeriesStore) runExists(ctx context.Context, network domain.Network, g domain.Granularity, computedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM bridge_volume_series
		WHERE network = ? AND granularity = ? AND computed_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, string(network), string(g), uint64(computedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.SeriesSnapshot, error) {
	var snapshots []*domain.SeriesSnapshot

	for rows.Next() {
		var (
			snap                 domain.SeriesSnapshot
			network, granularity string
			tokenID, count       uint32
			computedAt           uint64
		)

		err := rows.Scan(
			&network, &granularity, &snap.Direction, &tokenID, &snap.TokenName, &snap.Period,
			&snap.Value, &snap.USDValue, &count, &computedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}

		snap.Network = domain.Network(network)
		snap.Granularity = domain.Granularity(granularity)
		snap.TokenID = int(tokenID)
		snap.Count = int(count)
		snap.ComputedAt = int64(computedAt)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}

	return snapshots, nil
}
