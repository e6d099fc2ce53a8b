// Package registry holds the read-only per-network token and chain configuration.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bridge-flow-lab/internal/domain"
)

var (
	// ErrUnknownNetwork is returned when a network has no registered configuration.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrInvalidToken is returned when token metadata violates the registry invariants.
	ErrInvalidToken = errors.New("invalid token metadata")
)

// NetworkSpec is the input used to build a NetworkConfig.
type NetworkSpec struct {
	Network  domain.Network
	ChainIDs map[domain.Chain]int
	Tokens   []domain.TokenMeta
	Colors   []domain.TokenColorInfo
}

// NetworkConfig is the immutable configuration of one network.
type NetworkConfig struct {
	network  domain.Network
	chainIDs map[domain.Chain]int
	chains   map[int]domain.Chain
	tokens   map[int]domain.TokenMeta
	byName   map[string]int
	colors   []domain.TokenColorInfo
}

// Network returns the network this configuration belongs to.
func (c *NetworkConfig) Network() domain.Network {
	return c.network
}

// Token returns metadata for a token id.
func (c *NetworkConfig) Token(id int) (domain.TokenMeta, bool) {
	meta, ok := c.tokens[id]
	return meta, ok
}

// TokenByName returns metadata for a token display name (case-insensitive).
func (c *NetworkConfig) TokenByName(name string) (domain.TokenMeta, bool) {
	id, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return domain.TokenMeta{}, false
	}
	return c.tokens[id], true
}

// Tokens returns all token metadata ordered by id.
func (c *NetworkConfig) Tokens() []domain.TokenMeta {
	result := make([]domain.TokenMeta, 0, len(c.tokens))
	for _, meta := range c.tokens {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ChainByID maps a stored chain id to a bridge chain.
func (c *NetworkConfig) ChainByID(id int) (domain.Chain, bool) {
	chain, ok := c.chains[id]
	return chain, ok
}

// ChainID maps a bridge chain to its stored chain id.
func (c *NetworkConfig) ChainID(chain domain.Chain) (int, bool) {
	id, ok := c.chainIDs[chain]
	return id, ok
}

// ColorFor returns the color entry whose ticker matches a token name.
func (c *NetworkConfig) ColorFor(name string) (domain.TokenColorInfo, bool) {
	for _, info := range c.colors {
		if strings.EqualFold(info.Ticker, name) {
			return info, true
		}
	}
	return domain.TokenColorInfo{}, false
}

// Registry maps networks to their configuration.
type Registry struct {
	networks map[domain.Network]*NetworkConfig
}

// New builds a registry, validating every token entry.
func New(specs ...NetworkSpec) (*Registry, error) {
	r := &Registry{networks: make(map[domain.Network]*NetworkConfig, len(specs))}

	for _, spec := range specs {
		if !spec.Network.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, spec.Network)
		}
		cfg, err := buildNetwork(spec)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", spec.Network, err)
		}
		r.networks[spec.Network] = cfg
	}

	return r, nil
}

func buildNetwork(spec NetworkSpec) (*NetworkConfig, error) {
	cfg := &NetworkConfig{
		network:  spec.Network,
		chainIDs: make(map[domain.Chain]int, len(spec.ChainIDs)),
		chains:   make(map[int]domain.Chain, len(spec.ChainIDs)),
		tokens:   make(map[int]domain.TokenMeta, len(spec.Tokens)),
		byName:   make(map[string]int, len(spec.Tokens)),
		colors:   make([]domain.TokenColorInfo, len(spec.Colors)),
	}

	for chain, id := range spec.ChainIDs {
		if !chain.Valid() {
			return nil, fmt.Errorf("unknown chain %q", chain)
		}
		if other, dup := cfg.chains[id]; dup {
			return nil, fmt.Errorf("chain id %d used by %s and %s", id, other, chain)
		}
		cfg.chainIDs[chain] = id
		cfg.chains[id] = chain
	}

	for _, meta := range spec.Tokens {
		if err := validateToken(meta); err != nil {
			return nil, err
		}
		if _, dup := cfg.tokens[meta.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate token id %d", ErrInvalidToken, meta.ID)
		}
		cfg.tokens[meta.ID] = meta
		cfg.byName[strings.ToLower(meta.Name)] = meta.ID
	}

	copy(cfg.colors, spec.Colors)
	return cfg, nil
}

func validateToken(meta domain.TokenMeta) error {
	if meta.Name == "" {
		return fmt.Errorf("%w: token %d has no name", ErrInvalidToken, meta.ID)
	}
	if !meta.Denominator.IsPositive() {
		return fmt.Errorf("%w: token %s denominator must be positive", ErrInvalidToken, meta.Name)
	}
	if !meta.PriceUSD.IsPositive() {
		return fmt.Errorf("%w: token %s price must be positive", ErrInvalidToken, meta.Name)
	}
	return nil
}

// Network returns the configuration for a network.
func (r *Registry) Network(n domain.Network) (*NetworkConfig, error) {
	cfg, ok := r.networks[n]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, n)
	}
	return cfg, nil
}

// Networks returns the registered networks in a stable order.
func (r *Registry) Networks() []domain.Network {
	result := make([]domain.Network, 0, len(r.networks))
	for n := range r.networks {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ParseNetwork resolves a query value to a network, defaulting to mainnet.
func ParseNetwork(value string) (domain.Network, error) {
	if value == "" {
		return domain.NetworkMainnet, nil
	}
	n := domain.Network(strings.ToLower(strings.TrimSpace(value)))
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, value)
	}
	return n, nil
}
