package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-flow-lab/internal/dashboard"
	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/registry"
	"bridge-flow-lab/internal/reporting"
	"bridge-flow-lab/internal/storage"
	"bridge-flow-lab/internal/storage/memory"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

var (
	ethAddr = "0x52908400098527886E0F7030069857D2E4169EE7"
	suiAddr = "0x" + strings.Repeat("0a", 32)
	ethHash = "0x" + strings.Repeat("11", 32)
)

func suiDigest(b byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = b
	}
	return base58.Encode(raw)
}

func ms(s string) int64 {
	ts, _ := time.Parse(time.RFC3339, s)
	return ts.UnixMilli()
}

func newTestService(t *testing.T) *dashboard.Service {
	t.Helper()
	store := memory.NewTransferStore()
	err := store.InsertBulk(context.Background(), []*domain.TransferRecord{
		{TxDigest: ethHash, Sender: ethAddr, Recipient: suiAddr, FromChain: domain.ChainEthereum, ToChain: domain.ChainSui,
			TokenID: 3, Amount: 100_000_000, TimestampMs: ms("2024-06-10T09:00:00Z"), Finalized: true},
		{TxDigest: suiDigest(2), Sender: suiAddr, Recipient: ethAddr, FromChain: domain.ChainSui, ToChain: domain.ChainEthereum,
			TokenID: 3, Amount: 50_000_000, TimestampMs: ms("2024-06-10T15:00:00Z"), Finalized: true},
		{TxDigest: suiDigest(3), Sender: suiAddr, Recipient: "0x" + strings.Repeat("22", 20), FromChain: domain.ChainSui, ToChain: domain.ChainEthereum,
			TokenID: 2, Amount: 200_000_000, TimestampMs: ms("2024-06-12T10:00:00Z"), Finalized: true},
	})
	require.NoError(t, err)

	sources := map[domain.Network]storage.TransferSource{domain.NetworkMainnet: store}
	return dashboard.NewService(registry.Default(), sources, domain.ChainSui, zerolog.Nop()).
		WithClock(func() time.Time { return now })
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	opts.Logger = zerolog.Nop()
	srv := NewServer(newTestService(t), opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, ts *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth_RequestID(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp := get(t, ts, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)

	// a valid incoming id is echoed
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set(RequestIDHeader, id)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, id, resp2.Header.Get(RequestIDHeader))
}

func TestVolume(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body VolumeResponse
	resp := get(t, ts, "/api/volume?network=mainnet&period=Last%20Week&interval=Daily", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, domain.NetworkMainnet, body.Network)
	assert.Equal(t, []string{"2024-06-10", "2024-06-12"}, body.Categories)
	require.Len(t, body.Series, 2)
	assert.Equal(t, "ETH", body.Series[0].Name)
	assert.Equal(t, "USDC", body.Series[1].Name)
	assert.Equal(t, 150.0, body.Series[1].Data[0].Value)
	assert.Equal(t, 2, body.Series[1].Data[0].Count)
	assert.InDelta(t, 150.0+2*3191, body.TotalUSD, 1e-6)
}

func TestVolume_DefaultsAndErrors(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body VolumeResponse
	resp := get(t, ts, "/api/volume", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultPeriod, body.Period)
	assert.Equal(t, domain.GranularityWeekly, body.Interval)
	assert.Equal(t, []string{"2024-06-10"}, body.Categories, "both days fall in the same week")

	var errBody ErrorResponse
	resp = get(t, ts, "/api/volume?period=Forever", &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errBody.Error, "Forever")
	assert.NotEmpty(t, errBody.RequestID)

	resp = get(t, ts, "/api/volume?interval=Yearly", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts, "/api/volume?network=devnet", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts, "/api/volume?network=testnet", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVolumeCSV(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/api/volume.csv?period=Last%20Week&interval=Daily&tokens=USDC")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "bridge-volume-mainnet-daily.csv")

	var sb bytes.Buffer
	_, err = sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "period,token_id,token,value,usd_value,count\n2024-06-10,3,USDC,150,150.00,2\n", sb.String())
}

func TestFlow(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body FlowResponse
	resp := get(t, ts, "/api/volume/flow?period=Last%20Week&interval=Daily&tokens=USDC", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, body.Inflow, 1)
	require.Len(t, body.Outflow, 1)
	assert.Equal(t, 100.0, body.Inflow[0].Data[0].Value)
	assert.Equal(t, -50.0, body.Outflow[0].Data[0].Value)
	assert.False(t, body.ShowNet)
	assert.Len(t, body.Totals, 2)
}

func TestHourly(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body FlowResponse
	resp := get(t, ts, "/api/volume/hourly", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.GranularityHourly, body.Interval)
	assert.Equal(t, []string{"2024-06-10T09:00", "2024-06-10T15:00", "2024-06-12T10:00"}, body.Categories)
	assert.True(t, body.ShowNet)
}

func TestCards(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body CardsResponse
	resp := get(t, ts, "/api/cards?timePeriod=Last%20Week", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.PeriodLastWeek, body.Period)
	require.Len(t, body.Cards, 6)
	assert.Equal(t, domain.CardTotalTransfers, body.Cards[1].Title)
	assert.Equal(t, 3.0, body.Cards[1].Value)
	assert.Nil(t, body.Cards[0].PercentageChange, "empty prior week")
}

func TestTransactions(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body TransactionsResponse
	resp := get(t, ts, "/api/transactions?limit=1", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 1, body.Limit)
	require.Len(t, body.Transactions, 1)

	tx := body.Transactions[0]
	assert.Equal(t, suiDigest(3), tx.TxDigest)
	assert.Equal(t, "ETH", tx.Token)
	assert.Equal(t, domain.DirectionOutflow, tx.Direction)
	assert.Equal(t, "2 ETH", tx.AmountFormatted)
	assert.Equal(t, "https://suiscan.xyz/mainnet/tx/"+suiDigest(3), tx.TxURL)
	assert.Equal(t, "0x0a0a...0a0a", tx.SenderShort)
}

func TestTransactions_Filters(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var body TransactionsResponse
	resp := get(t, ts, "/api/transactions?ethAddress="+strings.ToLower(ethAddr), &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, DefaultLimit, body.Limit)

	resp = get(t, ts, "/api/transactions?ethAddress=0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts, "/api/transactions?suiAddress="+ethAddr, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts, "/api/transactions?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts, "/api/transactions?limit=1000", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MaxLimit, body.Limit)
}

func TestTransaction(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var tx TransactionDTO
	resp := get(t, ts, "/api/transactions/"+ethHash, &tx)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DirectionInflow, tx.Direction)
	assert.Equal(t, "https://etherscan.io/tx/"+ethHash, tx.TxURL)
	assert.Equal(t, 100.0, tx.USDAmount)

	resp = get(t, ts, "/api/transactions/"+suiDigest(9), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts, "/api/transactions/not-a-digest", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokensAndIntervals(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var tokens TokensResponse
	resp := get(t, ts, "/api/tokens?network=mainnet", &tokens)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, tokens.Tokens, 5)
	wbtc := tokens.Tokens[0]
	assert.Equal(t, "WBTC", wbtc.Name)
	assert.Equal(t, "Bitcoin", wbtc.DisplayName)
	assert.Equal(t, "#f7941a", wbtc.Color)
	assert.Equal(t, int32(8), wbtc.Decimals)
	assert.Equal(t, int32(6), tokens.Tokens[2].Decimals)

	var intervals IntervalsResponse
	resp = get(t, ts, "/api/intervals?period=Last%20Month", &intervals)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []domain.Granularity{domain.GranularityDaily, domain.GranularityWeekly}, intervals.Intervals)
	assert.Equal(t, domain.GranularityDaily, intervals.Default)
}

func TestCachedResponses(t *testing.T) {
	cache := memory.NewCache()
	_, ts := newTestServer(t, Options{Cache: cache, CacheTTL: time.Minute})

	var first, second VolumeResponse
	get(t, ts, "/api/volume?period=Last%20Week&interval=Daily", &first)
	get(t, ts, "/api/volume?period=Last%20Week&interval=Daily", &second)
	assert.Equal(t, first, second)

	body, ok, err := cache.Get(context.Background(), "bridge:/api/volume?interval=Daily&period=Last+Week")
	require.NoError(t, err)
	require.True(t, ok)

	var cached VolumeResponse
	require.NoError(t, json.Unmarshal(body, &cached))
	assert.Equal(t, first, cached)
}

func TestRateLimit(t *testing.T) {
	_, ts := newTestServer(t, Options{RateLimit: 0.001, Burst: 1})

	resp := get(t, ts, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, ts, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var status StatusResponse
	resp := get(t, ts, "/status", &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, []string{"mainnet"}, status.Networks)
	assert.False(t, status.CacheActive)
}

func TestLive(t *testing.T) {
	srv, ts := newTestServer(t, Options{LiveInterval: time.Hour})

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/api/live"
	u.RawQuery = "timePeriod=Last%20Week"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg LiveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "cards", msg.Type)
	assert.Equal(t, now.UnixMilli(), msg.Timestamp)
	assert.Len(t, msg.Cards, 6)

	require.Eventually(t, func() bool { return srv.Live().Clients() == 1 }, time.Second, 10*time.Millisecond)

	srv.Live().Broadcast(context.Background())
	var update LiveMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, domain.PeriodLastWeek, update.Period)
}

func TestLive_RejectsBadQuery(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp := get(t, ts, "/api/live?network=testnet", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	noStore := httptest.NewServer(NewServer(svc, Options{Logger: zerolog.Nop()}).Handler())
	t.Cleanup(noStore.Close)
	resp := get(t, noStore, "/api/snapshots", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	store := memory.NewSeriesStore()
	report, err := reporting.NewGenerator(svc).WithClock(func() time.Time { return now }).Generate(ctx, dashboard.Query{
		Network:     domain.NetworkMainnet,
		Period:      domain.PeriodAllTime,
		Granularity: domain.GranularityWeekly,
	})
	require.NoError(t, err)
	n, err := reporting.Publish(ctx, store, report)
	require.NoError(t, err)
	require.NotZero(t, n)
	svc.WithSnapshots(store)

	ts := httptest.NewServer(NewServer(svc, Options{Logger: zerolog.Nop()}).Handler())
	t.Cleanup(ts.Close)

	var latest SnapshotsResponse
	resp = get(t, ts, "/api/snapshots?network=mainnet", &latest)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.GranularityWeekly, latest.Interval)
	assert.Len(t, latest.Snapshots, n)
	for _, snap := range latest.Snapshots {
		assert.Equal(t, now.UnixMilli(), snap.ComputedAt)
	}

	var usdc SnapshotsResponse
	resp = get(t, ts, "/api/snapshots?token=usdc&from=2024-06-01", &usdc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, usdc.Snapshots)
	for _, snap := range usdc.Snapshots {
		assert.Equal(t, 3, snap.TokenID)
		assert.Equal(t, "USDC", snap.Token)
	}

	for _, path := range []string{
		"/api/snapshots?token=DOGE",
		"/api/snapshots?from=2024-06-01",
		"/api/snapshots?interval=Yearly",
		"/api/snapshots?token=USDC&from=2024-07-01&to=2024-06-01",
	} {
		resp := get(t, ts, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}
