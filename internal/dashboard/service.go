// Package dashboard loads bridge transfers for a network and builds the
// chart, flow, card and transaction views served by the API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/cards"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/flow"
	"bridge-flow-lab/internal/observability"
	"bridge-flow-lab/internal/registry"
	"bridge-flow-lab/internal/storage"
)

var (
	// ErrNoSource is returned when a network has no configured transfer source.
	ErrNoSource = errors.New("no transfer source for network")

	// ErrNoSnapshots is returned when no snapshot store is configured.
	ErrNoSnapshots = errors.New("no snapshot store configured")
)

// lastPeriodKey sorts after every period key.
const lastPeriodKey = "9999-12-31T23:00"

// Query selects the data behind a chart or card view.
type Query struct {
	Network     domain.Network
	Period      domain.TimePeriod
	Granularity domain.Granularity
	Tokens      aggregation.TokenFilter
}

// VolumeView is the per-token volume chart.
type VolumeView struct {
	Network    domain.Network
	Series     []domain.Series
	Categories []string
	Labels     []string // thinned copy of Categories
	Total      domain.Series
	TotalUSD   decimal.Decimal
}

// FlowView is the inflow/outflow chart.
type FlowView struct {
	Network domain.Network
	aggregation.FlowView
	Labels []string
}

// Service builds dashboard views from per-network transfer sources.
type Service struct {
	registry *registry.Registry
	sources  map[domain.Network]storage.TransferSource
	prices   map[domain.Network]storage.TokenPriceStore
	series   storage.SeriesStore
	home     domain.Chain
	logger   zerolog.Logger
	now      func() time.Time // Injectable clock for deterministic output
}

// NewService creates a dashboard service. home is the chain inflows are measured against.
func NewService(
	reg *registry.Registry,
	sources map[domain.Network]storage.TransferSource,
	home domain.Chain,
	logger zerolog.Logger,
) *Service {
	return &Service{
		registry: reg,
		sources:  sources,
		prices:   make(map[domain.Network]storage.TokenPriceStore),
		home:     home,
		logger:   logger.With().Str("component", "dashboard").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithPrices sets the stored price overlay of a network.
func (s *Service) WithPrices(network domain.Network, store storage.TokenPriceStore) *Service {
	s.prices[network] = store
	return s
}

// WithSnapshots sets the store published series snapshots are read from.
func (s *Service) WithSnapshots(store storage.SeriesStore) *Service {
	s.series = store
	return s
}

// WithClock sets a custom clock function for deterministic output.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Networks returns the networks that have a transfer source.
func (s *Service) Networks() []domain.Network {
	var result []domain.Network
	for _, n := range s.registry.Networks() {
		if _, ok := s.sources[n]; ok {
			result = append(result, n)
		}
	}
	return result
}

// Network returns the registry configuration of a network.
func (s *Service) Network(network domain.Network) (*registry.NetworkConfig, error) {
	return s.registry.Network(network)
}

// Volume builds the per-token volume chart.
func (s *Service) Volume(ctx context.Context, q Query) (*VolumeView, error) {
	filter, err := aggregation.ForPeriod(q.Period, q.Granularity, q.Tokens, s.now())
	if err != nil {
		return nil, err
	}

	cfg, transfers, err := s.Load(ctx, q.Network, filter.Since)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := aggregation.Aggregate(transfers, filter, cfg)
	if err != nil {
		return nil, err
	}
	observability.RecordAggregation("volume", time.Since(start))

	return &VolumeView{
		Network:    q.Network,
		Series:     result.Series,
		Categories: result.Categories,
		Labels:     aggregation.ThinLabels(result.Categories),
		Total:      aggregation.Merge("Total", aggregation.NetColor, result.Series...),
		TotalUSD:   aggregation.Total(result.Series...),
	}, nil
}

// Flow builds the inflow/outflow chart.
func (s *Service) Flow(ctx context.Context, q Query) (*FlowView, error) {
	filter, err := aggregation.ForPeriod(q.Period, q.Granularity, q.Tokens, s.now())
	if err != nil {
		return nil, err
	}

	cfg, transfers, err := s.Load(ctx, q.Network, filter.Since)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	view, err := aggregation.BuildFlowView(transfers, filter, cfg)
	if err != nil {
		return nil, err
	}
	observability.RecordAggregation("flow", time.Since(start))

	return &FlowView{
		Network:  q.Network,
		FlowView: view,
		Labels:   aggregation.ThinLabels(view.Categories),
	}, nil
}

// Hourly builds the inflow/outflow chart bucketed by hour.
func (s *Service) Hourly(ctx context.Context, q Query) (*FlowView, error) {
	q.Granularity = domain.GranularityHourly
	return s.Flow(ctx, q)
}

// Cards builds the summary cards for a period, compared to the preceding period.
func (s *Service) Cards(ctx context.Context, q Query) ([]domain.Card, error) {
	window, err := cards.WindowFor(q.Period, s.now())
	if err != nil {
		return nil, err
	}

	since := window.Start
	if prev, ok := window.Previous(); ok {
		since = prev.Start
	}

	_, transfers, err := s.Load(ctx, q.Network, since)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := cards.Calculate(transfers, window, q.Tokens)
	observability.RecordAggregation("cards", time.Since(start))
	return result, nil
}

// Load reads finalized transfers stamped at or after since and classifies them.
// A zero since loads everything.
func (s *Service) Load(ctx context.Context, network domain.Network, since time.Time) (*registry.NetworkConfig, []domain.ClassifiedTransfer, error) {
	cfg, err := s.registry.Network(network)
	if err != nil {
		return nil, nil, err
	}
	source, err := s.source(network)
	if err != nil {
		return nil, nil, err
	}

	q := storage.TransferQuery{}
	if !since.IsZero() {
		q.Since = since.UnixMilli()
	}

	start := time.Now()
	records, err := source.ListFinalized(ctx, q)
	observability.RecordSourceQuery(string(network), "list_finalized", time.Since(start), err)
	if err != nil {
		return nil, nil, fmt.Errorf("list transfers (%s): %w", network, err)
	}

	classifier := flow.NewClassifier(cfg, s.priceSource(ctx, network), s.home)
	transfers := classifier.ClassifyAll(records)

	observability.RecordClassified(len(transfers))
	observability.RecordDropped(observability.DropUnknownToken, len(records)-len(transfers))

	s.logger.Debug().
		Str("network", string(network)).
		Int("records", len(records)).
		Int("classified", len(transfers)).
		Msg("transfers loaded")

	return cfg, transfers, nil
}

// Transactions returns a page of the transactions feed.
func (s *Service) Transactions(ctx context.Context, network domain.Network, f storage.TransactionFilter) (*TransactionsPage, error) {
	cfg, err := s.registry.Network(network)
	if err != nil {
		return nil, err
	}
	source, err := s.source(network)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := source.ListTransactions(ctx, f)
	observability.RecordSourceQuery(string(network), "list_transactions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list transactions (%s): %w", network, err)
	}

	classifier := flow.NewClassifier(cfg, s.priceSource(ctx, network), s.home)
	rows := make([]Transaction, 0, len(page.Transfers))
	for _, r := range page.Transfers {
		rows = append(rows, newTransaction(network, classifier, r))
	}

	return &TransactionsPage{Transactions: rows, Total: page.Total}, nil
}

// Transaction returns one transfer by digest.
func (s *Service) Transaction(ctx context.Context, network domain.Network, digest string) (*Transaction, error) {
	cfg, err := s.registry.Network(network)
	if err != nil {
		return nil, err
	}
	source, err := s.source(network)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	r, err := source.GetByDigest(ctx, digest)
	observability.RecordSourceQuery(string(network), "get_by_digest", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get transfer %s (%s): %w", digest, network, err)
	}

	classifier := flow.NewClassifier(cfg, s.priceSource(ctx, network), s.home)
	tx := newTransaction(network, classifier, r)
	return &tx, nil
}

// SnapshotQuery selects published series snapshots.
// TokenID 0 selects the latest run for all tokens; otherwise every stored row of
// that token with a period key within [From, To] (empty bounds are open).
type SnapshotQuery struct {
	Network     domain.Network
	Granularity domain.Granularity
	TokenID     int
	From        string
	To          string
}

// Snapshots reads published series snapshots.
func (s *Service) Snapshots(ctx context.Context, q SnapshotQuery) ([]*domain.SeriesSnapshot, error) {
	if s.series == nil {
		return nil, ErrNoSnapshots
	}
	cfg, err := s.registry.Network(q.Network)
	if err != nil {
		return nil, err
	}

	if q.TokenID == 0 {
		snaps, err := s.series.GetLatest(ctx, q.Network, q.Granularity)
		if err != nil {
			return nil, fmt.Errorf("latest snapshots (%s, %s): %w", q.Network, q.Granularity, err)
		}
		return snaps, nil
	}

	if _, ok := cfg.Token(q.TokenID); !ok {
		return nil, fmt.Errorf("%w: unknown token id %d", storage.ErrInvalidInput, q.TokenID)
	}
	to := q.To
	if to == "" {
		to = lastPeriodKey
	}
	if q.From > to {
		return nil, fmt.Errorf("%w: from %q is after to %q", storage.ErrInvalidInput, q.From, to)
	}

	snaps, err := s.series.GetByPeriodRange(ctx, q.Network, q.Granularity, q.TokenID, q.From, to)
	if err != nil {
		return nil, fmt.Errorf("snapshots of token %d (%s, %s): %w", q.TokenID, q.Network, q.Granularity, err)
	}
	return snaps, nil
}

func (s *Service) source(network domain.Network) (storage.TransferSource, error) {
	source, ok := s.sources[network]
	if !ok || source == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, network)
	}
	return source, nil
}

// priceSource returns the stored price overlay, falling back to registry prices
// when the network has no price store or the store cannot be read.
func (s *Service) priceSource(ctx context.Context, network domain.Network) flow.PriceSource {
	store, ok := s.prices[network]
	if !ok || store == nil {
		return flow.StaticPrices{}
	}

	start := time.Now()
	prices, err := store.GetAll(ctx)
	observability.RecordSourceQuery(string(network), "token_prices", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).Str("network", string(network)).Msg("token prices unavailable, using registry prices")
		return flow.StaticPrices{}
	}
	return flow.PriceTable(prices)
}
