package api

import (
	"fmt"
	"net/http"
	"strings"

	"bridge-flow-lab/internal/aggregation"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/explorer"
	"bridge-flow-lab/internal/reporting"
)

func (s *Server) handleVolume(r *http.Request) (any, error) {
	q, err := parseQuery(r)
	if err != nil {
		return nil, err
	}
	view, err := s.service.Volume(r.Context(), q)
	if err != nil {
		return nil, err
	}

	return VolumeResponse{
		Network:    q.Network,
		Period:     q.Period,
		Interval:   q.Granularity,
		Categories: nonNil(view.Categories),
		Labels:     nonNil(view.Labels),
		Series:     toSeriesList(view.Series),
		Total:      toSeries(view.Total),
		TotalUSD:   toFloat(view.TotalUSD),
	}, nil
}

func (s *Server) handleVolumeCSV(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.service.Volume(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("bridge-volume-%s-%s.csv", q.Network, strings.ToLower(string(q.Granularity)))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(reporting.RenderSeriesCSV(view.Series)))
}

func (s *Server) handleFlow(r *http.Request) (any, error) {
	q, err := parseQuery(r)
	if err != nil {
		return nil, err
	}
	view, err := s.service.Flow(r.Context(), q)
	if err != nil {
		return nil, err
	}
	return toFlowResponse(view, q.Period, q.Granularity), nil
}

func (s *Server) handleHourly(r *http.Request) (any, error) {
	q, err := parseQuery(r)
	if err != nil {
		return nil, err
	}
	view, err := s.service.Hourly(r.Context(), q)
	if err != nil {
		return nil, err
	}
	return toFlowResponse(view, q.Period, domain.GranularityHourly), nil
}

func (s *Server) handleCards(r *http.Request) (any, error) {
	q, err := parseQuery(r)
	if err != nil {
		return nil, err
	}
	result, err := s.service.Cards(r.Context(), q)
	if err != nil {
		return nil, err
	}
	return CardsResponse{Network: q.Network, Period: q.Period, Cards: result}, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	network, err := parseNetwork(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := parseTransactionFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page, err := s.service.Transactions(r.Context(), network, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rows := make([]TransactionDTO, len(page.Transactions))
	for i, tx := range page.Transactions {
		rows[i] = toTransaction(tx)
	}
	writeJSON(w, http.StatusOK, TransactionsResponse{
		Network:      network,
		Total:        page.Total,
		Offset:       f.Offset,
		Limit:        f.Limit,
		Transactions: rows,
	})
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	network, err := parseNetwork(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	digest := r.PathValue("digest")
	if _, ok := explorer.DetectDigestChain(digest); !ok {
		s.fail(w, r, fmt.Errorf("%w: %q is not a transaction digest", ErrBadRequest, digest))
		return
	}

	tx, err := s.service.Transaction(r.Context(), network, digest)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(*tx))
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	network, err := parseNetwork(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg, err := s.service.Network(network)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tokens := make([]TokenDTO, 0)
	for _, meta := range cfg.Tokens() {
		dto := TokenDTO{
			ID:          meta.ID,
			Name:        meta.Name,
			DisplayName: meta.Name,
			Decimals:    int32(len(meta.Denominator.Truncate(0).String()) - 1),
			PriceUSD:    toFloat(meta.PriceUSD),
			Color:       aggregation.FallbackColor,
		}
		if info, ok := cfg.ColorFor(meta.Name); ok {
			dto.DisplayName = info.Name
			dto.Color = info.Color
			dto.Icon = info.Icon
		}
		tokens = append(tokens, dto)
	}
	writeJSON(w, http.StatusOK, TokensResponse{Network: network, Tokens: tokens})
}

func (s *Server) handleIntervals(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r, "period")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IntervalsResponse{
		Period:    period,
		Intervals: aggregation.IntervalsForPeriod(period),
		Default:   aggregation.DefaultInterval(period),
	})
}

func (s *Server) handleSnapshots(r *http.Request) (any, error) {
	q, err := parseSnapshotQuery(r, s.service.Network)
	if err != nil {
		return nil, err
	}
	snaps, err := s.service.Snapshots(r.Context(), q)
	if err != nil {
		return nil, err
	}
	return SnapshotsResponse{
		Network:   q.Network,
		Interval:  q.Granularity,
		Snapshots: toSnapshots(snaps),
	}, nil
}
