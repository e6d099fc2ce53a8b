package registry

import (
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
)

// Reference prices are fixed constants; token_prices rows override them when available.
var bridgeTokens = []domain.TokenMeta{
	{ID: 1, Name: "WBTC", Denominator: decimal.New(1, 8), PriceUSD: decimal.NewFromInt(105048)},
	{ID: 2, Name: "ETH", Denominator: decimal.New(1, 8), PriceUSD: decimal.NewFromInt(3191)},
	{ID: 3, Name: "USDC", Denominator: decimal.New(1, 6), PriceUSD: decimal.NewFromInt(1)},
	{ID: 4, Name: "USDT", Denominator: decimal.New(1, 6), PriceUSD: decimal.NewFromInt(1)},
	// Pepe has 18 decimals on Ethereum; the bridge carries 8.
	{ID: 5, Name: "Pepe", Denominator: decimal.New(1, 8), PriceUSD: decimal.RequireFromString("0.00001278")},
}

var (
	colorETH  = domain.TokenColorInfo{Ticker: "ETH", Name: "Ethereum", Color: "#5c6bc0", Icon: "/assets/icons/brands/eth.svg"}
	colorWBTC = domain.TokenColorInfo{Ticker: "WBTC", Name: "Bitcoin", Color: "#f7941a", Icon: "/assets/icons/brands/btc.svg"}
	colorUSDT = domain.TokenColorInfo{Ticker: "USDT", Name: "USDT", Color: "#26A17B", Icon: "/assets/icons/brands/usdt.svg"}
	colorUSDC = domain.TokenColorInfo{Ticker: "USDC", Name: "USDC", Color: "#2775CA", Icon: "/assets/icons/brands/usdc.png"}
	colorPepe = domain.TokenColorInfo{Ticker: "Pepe", Name: "Pepe", Color: "#20672c", Icon: "/assets/icons/brands/pepe.webp"}
)

// MainnetSpec is the production bridge configuration.
var MainnetSpec = NetworkSpec{
	Network: domain.NetworkMainnet,
	ChainIDs: map[domain.Chain]int{
		domain.ChainSui:      0,
		domain.ChainEthereum: 10,
	},
	Tokens: bridgeTokens,
	Colors: []domain.TokenColorInfo{colorETH, colorWBTC, colorUSDT},
}

// TestnetSpec is the staging bridge configuration.
var TestnetSpec = NetworkSpec{
	Network: domain.NetworkTestnet,
	ChainIDs: map[domain.Chain]int{
		domain.ChainSui:      1,
		domain.ChainEthereum: 11,
	},
	Tokens: bridgeTokens,
	Colors: []domain.TokenColorInfo{colorETH, colorWBTC, colorUSDC, colorPepe, colorUSDT},
}

// Default returns the registry built from the static bridge tables.
func Default() *Registry {
	r, err := New(MainnetSpec, TestnetSpec)
	if err != nil {
		panic("registry: invalid static configuration: " + err.Error())
	}
	return r
}
