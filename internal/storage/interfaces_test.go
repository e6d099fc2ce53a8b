package storage

import (
	"testing"

	"bridge-flow-lab/internal/domain"
)

func TestTransactionFilter_Matches(t *testing.T) {
	outbound := &domain.TransferRecord{
		Sender:    "0xsui01",
		Recipient: "0xABCDEF",
		FromChain: domain.ChainSui,
		ToChain:   domain.ChainEthereum,
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   bool
	}{
		{"empty", TransactionFilter{}, true},
		{"eth recipient case-insensitive", TransactionFilter{EthAddress: "0xabcdef"}, true},
		{"sui sender", TransactionFilter{SuiAddress: "0xSUI01"}, true},
		{"both sides", TransactionFilter{EthAddress: "0xabcdef", SuiAddress: "0xsui01"}, true},
		{"eth filter on sui side", TransactionFilter{EthAddress: "0xsui01"}, false},
		{"one side mismatched", TransactionFilter{EthAddress: "0xabcdef", SuiAddress: "0xother"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(outbound); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
