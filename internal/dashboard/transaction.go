package dashboard

import (
	"github.com/shopspring/decimal"

	"bridge-flow-lab/internal/domain"
	"bridge-flow-lab/internal/explorer"
	"bridge-flow-lab/internal/flow"
)

// Transaction is one row of the transactions feed.
type Transaction struct {
	Record       *domain.TransferRecord
	Token        string // empty for unknown token ids
	Direction    domain.Direction
	Amount       decimal.Decimal // normalized, zero for unknown token ids
	USDAmount    decimal.Decimal
	TxURL        string
	SenderURL    string
	RecipientURL string
}

// TransactionsPage is one page of the transactions feed.
type TransactionsPage struct {
	Transactions []Transaction
	Total        int
}

// Unknown tokens still appear in the feed, only without amounts.
func newTransaction(network domain.Network, c *flow.Classifier, r *domain.TransferRecord) Transaction {
	tx := Transaction{
		Record:       r,
		Direction:    flow.DirectionOf(r, c.Home()),
		TxURL:        explorer.TxURL(network, r),
		SenderURL:    explorer.SenderURL(network, r),
		RecipientURL: explorer.RecipientURL(network, r),
	}
	if classified, ok := c.Classify(r); ok {
		tx.Token = classified.Token.Name
		tx.Amount = classified.NormalizedAmount
		tx.USDAmount = classified.USDAmount
	}
	return tx
}
