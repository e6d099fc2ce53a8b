package flow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

type tokenMap map[int]domain.TokenMeta

func (m tokenMap) Token(id int) (domain.TokenMeta, bool) {
	meta, ok := m[id]
	return meta, ok
}

var testTokens = tokenMap{
	2: {ID: 2, Name: "ETH", Denominator: decimal.New(1, 8), PriceUSD: decimal.NewFromInt(3191)},
	3: {ID: 3, Name: "USDC", Denominator: decimal.New(1, 6), PriceUSD: decimal.NewFromInt(1)},
}

func makeRecord(digest string, to domain.Chain, tokenID int, amount int64) *domain.TransferRecord {
	from := domain.ChainEthereum
	if to == domain.ChainEthereum {
		from = domain.ChainSui
	}
	return &domain.TransferRecord{
		TxDigest:    digest,
		Sender:      "0xsender",
		Recipient:   "0xrecipient",
		FromChain:   from,
		ToChain:     to,
		TokenID:     tokenID,
		Amount:      amount,
		TimestampMs: 1_700_000_000_000,
		Finalized:   true,
	}
}

func TestClassify_DirectionByDestination(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainSui)

	in, ok := c.Classify(makeRecord("a", domain.ChainSui, 3, 1_000_000))
	if !ok {
		t.Fatal("expected record to be classified")
	}
	if in.Direction != domain.DirectionInflow {
		t.Errorf("expected inflow, got %s", in.Direction)
	}

	out, ok := c.Classify(makeRecord("b", domain.ChainEthereum, 3, 1_000_000))
	if !ok {
		t.Fatal("expected record to be classified")
	}
	if out.Direction != domain.DirectionOutflow {
		t.Errorf("expected outflow, got %s", out.Direction)
	}
}

func TestClassify_HomeChainEthereum(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainEthereum)

	ct, _ := c.Classify(makeRecord("a", domain.ChainSui, 3, 1))
	if ct.Direction != domain.DirectionOutflow {
		t.Errorf("expected outflow relative to ETH home, got %s", ct.Direction)
	}
}

func TestClassify_Normalization(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainSui)

	// 1.5 ETH
	ct, ok := c.Classify(makeRecord("a", domain.ChainSui, 2, 150_000_000))
	if !ok {
		t.Fatal("expected record to be classified")
	}

	if !ct.NormalizedAmount.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected normalized 1.5, got %s", ct.NormalizedAmount)
	}
	if !ct.USDAmount.Equal(decimal.RequireFromString("4786.5")) {
		t.Errorf("expected usd 4786.5, got %s", ct.USDAmount)
	}
	if ct.Token.Name != "ETH" {
		t.Errorf("expected token ETH, got %s", ct.Token.Name)
	}
}

func TestClassify_UnknownTokenDropped(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainSui)

	if _, ok := c.Classify(makeRecord("a", domain.ChainSui, 999, 100)); ok {
		t.Error("token 999 must not be classified")
	}
	if _, ok := c.Classify(nil); ok {
		t.Error("nil record must not be classified")
	}
}

func TestClassifyAll_PreservesOrderAndSkipsUnknown(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainSui)

	records := []*domain.TransferRecord{
		makeRecord("a", domain.ChainSui, 3, 100),
		makeRecord("b", domain.ChainSui, 999, 100),
		makeRecord("c", domain.ChainEthereum, 2, 100),
	}

	result := c.ClassifyAll(records)
	if len(result) != 2 {
		t.Fatalf("expected 2 classified, got %d", len(result))
	}
	if result[0].Record.TxDigest != "a" || result[1].Record.TxDigest != "c" {
		t.Errorf("unexpected order: %s, %s", result[0].Record.TxDigest, result[1].Record.TxDigest)
	}

	inflow, outflow := SplitByDirection(result)
	if len(inflow) != 1 || len(outflow) != 1 {
		t.Errorf("expected 1 inflow and 1 outflow, got %d/%d", len(inflow), len(outflow))
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	c := NewClassifier(testTokens, nil, domain.ChainSui)

	result := c.ClassifyAll(nil)
	if len(result) != 0 {
		t.Errorf("expected empty result, got %d", len(result))
	}
}

func TestPriceTable_Overlay(t *testing.T) {
	prices := PriceTable{
		2: decimal.NewFromInt(4000),
		3: decimal.Zero,
	}
	c := NewClassifier(testTokens, prices, domain.ChainSui)

	eth, _ := c.Classify(makeRecord("a", domain.ChainSui, 2, 100_000_000))
	if !eth.USDAmount.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("expected overlay price 4000, got %s", eth.USDAmount)
	}

	// zero price in the table falls back to the static price
	usdc, _ := c.Classify(makeRecord("b", domain.ChainSui, 3, 2_000_000))
	if !usdc.USDAmount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected fallback usd 2, got %s", usdc.USDAmount)
	}
}
