package api

import (
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/explorer"
)

// PointDTO is one chart point.
type PointDTO struct {
	Period   string  `json:"period"`
	Value    float64 `json:"value"`
	USDValue float64 `json:"usdValue"`
	Count    int     `json:"count"`
}

// SeriesDTO is one chart series.
type SeriesDTO struct {
	TokenID int        `json:"tokenId,omitempty"`
	Name    string     `json:"name"`
	Color   string     `json:"color"`
	Data    []PointDTO `json:"data"`
}

// VolumeResponse is the body of /api/volume.
type VolumeResponse struct {
	Network    domain.Network     `json:"network"`
	Period     domain.TimePeriod  `json:"period"`
	Interval   domain.Granularity `json:"interval"`
	Categories []string           `json:"categories"`
	Labels     []string           `json:"labels"`
	Series     []SeriesDTO        `json:"series"`
	Total      SeriesDTO          `json:"total"`
	TotalUSD   float64            `json:"totalUsd"`
}

// FlowResponse is the body of /api/volume/flow and /api/volume/hourly.
type FlowResponse struct {
	Network    domain.Network     `json:"network"`
	Period     domain.TimePeriod  `json:"period"`
	Interval   domain.Granularity `json:"interval"`
	Categories []string           `json:"categories"`
	Labels     []string           `json:"labels"`
	Inflow     []SeriesDTO        `json:"inflow"`
	Outflow    []SeriesDTO        `json:"outflow"`
	Totals     []SeriesDTO        `json:"totals"`
	ShowNet    bool               `json:"showNet"`
}

// CardsResponse is the body of /api/cards and of live updates.
type CardsResponse struct {
	Network domain.Network    `json:"network"`
	Period  domain.TimePeriod `json:"period"`
	Cards   []domain.Card     `json:"cards"`
}

// TransactionDTO is one row of the transactions feed.
type TransactionDTO struct {
	TxDigest        string           `json:"txDigest"`
	TxShort         string           `json:"txShort"`
	Sender          string           `json:"sender"`
	SenderShort     string           `json:"senderShort"`
	Recipient       string           `json:"recipient"`
	RecipientShort  string           `json:"recipientShort"`
	FromChain       domain.Chain     `json:"fromChain"`
	ToChain         domain.Chain     `json:"toChain"`
	TokenID         int              `json:"tokenId"`
	Token           string           `json:"token"`
	Direction       domain.Direction `json:"direction"`
	Amount          float64          `json:"amount"`
	AmountFormatted string           `json:"amountFormatted"`
	USDAmount       float64          `json:"usdAmount"`
	TimestampMs     int64            `json:"timestampMs"`
	Finalized       bool             `json:"finalized"`
	TxURL           string           `json:"txUrl"`
	SenderURL       string           `json:"senderUrl"`
	RecipientURL    string           `json:"recipientUrl"`
}

// TransactionsResponse is the body of /api/transactions.
type TransactionsResponse struct {
	Network      domain.Network   `json:"network"`
	Total        int              `json:"total"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
	Transactions []TransactionDTO `json:"transactions"`
}

// TokenDTO describes one bridged token.
type TokenDTO struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Decimals    int32   `json:"decimals"`
	PriceUSD    float64 `json:"priceUsd"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon,omitempty"`
}

// TokensResponse is the body of /api/tokens.
type TokensResponse struct {
	Network domain.Network `json:"network"`
	Tokens  []TokenDTO     `json:"tokens"`
}

// IntervalsResponse is the body of /api/intervals.
type IntervalsResponse struct {
	Period    domain.TimePeriod    `json:"period"`
	Intervals []domain.Granularity `json:"intervals"`
	Default   domain.Granularity   `json:"default"`
}

// SnapshotDTO is one published series snapshot row.
type SnapshotDTO struct {
	Direction  string  `json:"direction"`
	TokenID    int     `json:"tokenId"`
	Token      string  `json:"token"`
	Period     string  `json:"period"`
	Value      float64 `json:"value"`
	USDValue   float64 `json:"usdValue"`
	Count      int     `json:"count"`
	ComputedAt int64   `json:"computedAt"`
}

// SnapshotsResponse lists published snapshots for a network and interval.
type SnapshotsResponse struct {
	Network   domain.Network     `json:"network"`
	Interval  domain.Granularity `json:"interval"`
	Snapshots []SnapshotDTO      `json:"snapshots"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toPoints(points []domain.AggregatedPoint) []PointDTO {
	result := make([]PointDTO, len(points))
	for i, p := range points {
		result[i] = PointDTO{
			Period:   p.Period,
			Value:    toFloat(p.Value),
			USDValue: toFloat(p.USDValue),
			Count:    p.Count,
		}
	}
	return result
}

func toSeries(s domain.Series) SeriesDTO {
	return SeriesDTO{TokenID: s.TokenID, Name: s.Name, Color: s.Color, Data: toPoints(s.Points)}
}

func toSeriesList(list []domain.Series) []SeriesDTO {
	result := make([]SeriesDTO, len(list))
	for i, s := range list {
		result[i] = toSeries(s)
	}
	return result
}

func toFlowResponse(view *dashboard.FlowView, period domain.TimePeriod, g domain.Granularity) FlowResponse {
	return FlowResponse{
		Network:    view.Network,
		Period:     period,
		Interval:   g,
		Categories: nonNil(view.Categories),
		Labels:     nonNil(view.Labels),
		Inflow:     toSeriesList(view.Inflow),
		Outflow:    toSeriesList(view.Outflow),
		Totals:     toSeriesList(view.Totals),
		ShowNet:    view.ShowNet,
	}
}

func toTransaction(tx dashboard.Transaction) TransactionDTO {
	r := tx.Record
	return TransactionDTO{
		TxDigest:        r.TxDigest,
		TxShort:         explorer.TruncateAddress(r.TxDigest),
		Sender:          r.Sender,
		SenderShort:     explorer.TruncateAddress(r.Sender),
		Recipient:       r.Recipient,
		RecipientShort:  explorer.TruncateAddress(r.Recipient),
		FromChain:       r.FromChain,
		ToChain:         r.ToChain,
		TokenID:         r.TokenID,
		Token:           tx.Token,
		Direction:       tx.Direction,
		Amount:          toFloat(tx.Amount),
		AmountFormatted: formatAmount(tx),
		USDAmount:       toFloat(tx.USDAmount),
		TimestampMs:     r.TimestampMs,
		Finalized:       r.Finalized,
		TxURL:           tx.TxURL,
		SenderURL:       tx.SenderURL,
		RecipientURL:    tx.RecipientURL,
	}
}

// formatAmount renders a normalized amount with its ticker, or the raw amount for unknown tokens.
func formatAmount(tx dashboard.Transaction) string {
	if tx.Token == "" {
		return decimal.NewFromInt(tx.Record.Amount).String()
	}
	return tx.Amount.Round(4).String() + " " + tx.Token
}

func toSnapshots(snaps []*domain.SeriesSnapshot) []SnapshotDTO {
	result := make([]SnapshotDTO, 0, len(snaps))
	for _, snap := range snaps {
		result = append(result, SnapshotDTO{
			Direction:  snap.Direction,
			TokenID:    snap.TokenID,
			Token:      snap.TokenName,
			Period:     snap.Period,
			Value:      toFloat(snap.Value),
			USDValue:   toFloat(snap.USDValue),
			Count:      snap.Count,
			ComputedAt: snap.ComputedAt,
		})
	}
	return result
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
