package domain

import "github.com/shopspring/decimal"

// Network selects one of the per-network registries.
type Network string

// Supported networks.
const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	return n == NetworkMainnet || n == NetworkTestnet
}

// TokenMeta holds static per-token metadata used to normalize raw amounts.
type TokenMeta struct {
	ID          int
	Name        string          // display name, matches TokenColorInfo.Ticker
	Denominator decimal.Decimal // power-of-ten divisor, must be > 0
	PriceUSD    decimal.Decimal // reference unit price, must be > 0
}

// TokenColorInfo holds presentation metadata for a token.
type TokenColorInfo struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
}
