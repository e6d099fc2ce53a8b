package domain

import "github.com/shopspring/decimal"

// Chain identifies one side of the bridge.
type Chain string

// Bridge chains.
const (
	ChainSui      Chain = "SUI"
	ChainEthereum Chain = "ETH"
)

// Valid reports whether c is one of the two bridge chains.
func (c Chain) Valid() bool {
	return c == ChainSui || c == ChainEthereum
}

// Direction is the flow direction of a transfer relative to a home chain.
type Direction string

// Flow directions.
const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// TransferRecord represents one bridge transfer.
// Corresponds to token_transfer_data table in PostgreSQL.
type TransferRecord struct {
	TxDigest    string // Sui digest (base58) or Ethereum tx hash (0x hex)
	Sender      string // sender address on the source chain
	Recipient   string // recipient address on the destination chain
	FromChain   Chain  // source chain
	ToChain     Chain  // destination chain
	TokenID     int    // bridge token identifier
	Amount      int64  // raw amount in the token's smallest unit
	TimestampMs int64  // Unix timestamp in milliseconds, <= 0 when missing
	Finalized   bool   // finalization flag
}

// HasTimestamp reports whether the record carries a usable timestamp.
func (r *TransferRecord) HasTimestamp() bool {
	return r.TimestampMs > 0
}

// ClassifiedTransfer is a TransferRecord tagged with direction and normalized amounts.
type ClassifiedTransfer struct {
	Record           *TransferRecord
	Token            TokenMeta
	Direction        Direction
	NormalizedAmount decimal.Decimal // Amount / Token.Denominator
	USDAmount        decimal.Decimal // NormalizedAmount * price
}
