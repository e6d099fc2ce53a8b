package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/explorer"
	"bridge-flow-lab/internal/registry"
	"bridge-flow-lab/internal/storage"
)

// ErrBadRequest marks malformed query parameters.
var ErrBadRequest = errors.New("bad request")

// Query defaults.
const (
	DefaultPeriod = domain.PeriodAllTime
	DefaultLimit  = 20
	MaxLimit      = 100
)

func parseNetwork(r *http.Request) (domain.Network, error) {
	return registry.ParseNetwork(r.URL.Query().Get("network"))
}

func parsePeriod(r *http.Request, key string) (domain.TimePeriod, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return DefaultPeriod, nil
	}
	return aggregation.ParseTimePeriod(value)
}

// parseQuery reads network, period, interval and tokens. A missing interval
// falls back to the default interval of the period.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	network, err := parseNetwork(r)
	if err != nil {
		return dashboard.Query{}, err
	}

	// the cards endpoint names it timePeriod
	periodKey := "period"
	if r.URL.Query().Has("timePeriod") {
		periodKey = "timePeriod"
	}
	period, err := parsePeriod(r, periodKey)
	if err != nil {
		return dashboard.Query{}, err
	}

	g := aggregation.DefaultInterval(period)
	if value := r.URL.Query().Get("interval"); value != "" {
		g, err = aggregation.ParseGranularity(value)
		if err != nil {
			return dashboard.Query{}, err
		}
	}

	return dashboard.Query{
		Network:     network,
		Period:      period,
		Granularity: g,
		Tokens:      aggregation.ParseTokenFilter(r.URL.Query().Get("tokens")),
	}, nil
}

func parseInt(r *http.Request, key string, def int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return n, nil
}

// parseTransactionFilter reads paging and address filters. Addresses must be
// well-formed for their chain.
func parseTransactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	offset, err := parseInt(r, "offset", 0)
	if err != nil {
		return storage.TransactionFilter{}, err
	}
	limit, err := parseInt(r, "limit", DefaultLimit)
	if err != nil {
		return storage.TransactionFilter{}, err
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	f := storage.TransactionFilter{
		EthAddress: r.URL.Query().Get("ethAddress"),
		SuiAddress: r.URL.Query().Get("suiAddress"),
		Offset:     offset,
		Limit:      limit,
	}
	if f.EthAddress != "" {
		if err := explorer.ValidateAddress(domain.ChainEthereum, f.EthAddress); err != nil {
			return storage.TransactionFilter{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	if f.SuiAddress != "" {
		if err := explorer.ValidateAddress(domain.ChainSui, f.SuiAddress); err != nil {
			return storage.TransactionFilter{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	return f, nil
}

// parseSnapshotQuery reads network, interval (default Weekly), token name and
// the optional from/to period keys.
func parseSnapshotQuery(r *http.Request, lookup func(domain.Network) (*registry.NetworkConfig, error)) (dashboard.SnapshotQuery, error) {
	network, err := parseNetwork(r)
	if err != nil {
		return dashboard.SnapshotQuery{}, err
	}
	q := dashboard.SnapshotQuery{
		Network:     network,
		Granularity: aggregation.DefaultInterval(domain.PeriodAllTime),
		From:        r.URL.Query().Get("from"),
		To:          r.URL.Query().Get("to"),
	}
	if value := r.URL.Query().Get("interval"); value != "" {
		if q.Granularity, err = aggregation.ParseGranularity(value); err != nil {
			return dashboard.SnapshotQuery{}, err
		}
	}

	name := r.URL.Query().Get("token")
	if name == "" {
		if q.From != "" || q.To != "" {
			return dashboard.SnapshotQuery{}, fmt.Errorf("%w: from/to require a token", ErrBadRequest)
		}
		return q, nil
	}
	cfg, err := lookup(network)
	if err != nil {
		return dashboard.SnapshotQuery{}, err
	}
	meta, ok := cfg.TokenByName(name)
	if !ok {
		return dashboard.SnapshotQuery{}, fmt.Errorf("%w: unknown token %q", ErrBadRequest, name)
	}
	q.TokenID = meta.ID
	return q, nil
}
