// Package explorer formats block explorer links and validates chain identifiers.
package explorer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"

	"bridge-flow-lab/internal/domain"
)

var (
	// ErrInvalidAddress is returned for an address that is malformed for its chain.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidDigest is returned for a transaction id that is malformed for its chain.
	ErrInvalidDigest = errors.New("invalid transaction digest")
)

const (
	suiDigestLen  = 32
	suiAddressLen = 32
)

var ethereumHosts = map[domain.Network]string{
	domain.NetworkMainnet: "https://etherscan.io",
	domain.NetworkTestnet: "https://sepolia.etherscan.io",
}

// URL returns the explorer link for an account or a transaction on a chain.
// An empty string is returned for an unknown network or chain.
func URL(network domain.Network, chain domain.Chain, id string, isAccount bool) string {
	if !network.Valid() || id == "" {
		return ""
	}

	switch chain {
	case domain.ChainSui:
		kind := "tx"
		if isAccount {
			kind = "account"
		}
		return fmt.Sprintf("https://suiscan.xyz/%s/%s/%s", network, kind, id)
	case domain.ChainEthereum:
		kind := "tx"
		if isAccount {
			kind = "address"
		}
		return fmt.Sprintf("%s/%s/%s", ethereumHosts[network], kind, id)
	default:
		return ""
	}
}

// TxURL returns the explorer link of a transfer's digest on its source chain.
func TxURL(network domain.Network, r *domain.TransferRecord) string {
	return URL(network, r.FromChain, r.TxDigest, false)
}

// SenderURL returns the explorer link of a transfer's sender.
func SenderURL(network domain.Network, r *domain.TransferRecord) string {
	return URL(network, r.FromChain, r.Sender, true)
}

// RecipientURL returns the explorer link of a transfer's recipient.
func RecipientURL(network domain.Network, r *domain.TransferRecord) string {
	return URL(network, r.ToChain, r.Recipient, true)
}

// TruncateAddress shortens an address to its first 6 and last 4 characters.
func TruncateAddress(address string) string {
	if len(address) <= 13 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// ValidateAddress checks an address against the format of a chain.
// Sui addresses are 0x-prefixed 32-byte hex strings, Ethereum addresses 20-byte hex strings.
func ValidateAddress(chain domain.Chain, address string) error {
	switch chain {
	case domain.ChainEthereum:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%w: %q is not an ethereum address", ErrInvalidAddress, address)
		}
		return nil
	case domain.ChainSui:
		b, err := hexutil.Decode(address)
		if err != nil || len(b) != suiAddressLen {
			return fmt.Errorf("%w: %q is not a sui address", ErrInvalidAddress, address)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown chain %q", ErrInvalidAddress, chain)
	}
}

// ValidateDigest checks a transaction id against the format of a chain.
// Sui digests are base58 encoded 32-byte hashes, Ethereum hashes 0x-prefixed 32-byte hex.
func ValidateDigest(chain domain.Chain, digest string) error {
	switch chain {
	case domain.ChainSui:
		b, err := base58.Decode(digest)
		if err != nil || len(b) != suiDigestLen {
			return fmt.Errorf("%w: %q is not a sui digest", ErrInvalidDigest, digest)
		}
		return nil
	case domain.ChainEthereum:
		b, err := hexutil.Decode(digest)
		if err != nil || len(b) != common.HashLength {
			return fmt.Errorf("%w: %q is not an ethereum tx hash", ErrInvalidDigest, digest)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown chain %q", ErrInvalidDigest, chain)
	}
}

// DetectDigestChain guesses the chain of a transaction id from its encoding.
func DetectDigestChain(digest string) (domain.Chain, bool) {
	if strings.HasPrefix(digest, "0x") {
		if ValidateDigest(domain.ChainEthereum, digest) == nil {
			return domain.ChainEthereum, true
		}
		return "", false
	}
	if ValidateDigest(domain.ChainSui, digest) == nil {
		return domain.ChainSui, true
	}
	return "", false
}
