// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stakevault/stakevault/vault"
)

// Allocation is an initial base-asset balance.
type Allocation struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// Genesis describes the vault's initial configuration.
// Addresses and balances are strings so the file stays hand-editable.
type Genesis struct {
	Vault            string            `yaml:"vault"`
	BaseAsset        string            `yaml:"baseAsset"`
	RewardAsset      string            `yaml:"rewardAsset,omitempty"`
	Admins           []string          `yaml:"admins"`
	StakingPermitted *bool             `yaml:"stakingPermitted,omitempty"`
	Multipliers      map[string]uint32 `yaml:"multipliers,omitempty"`
	Allocations      []Allocation      `yaml:"allocations,omitempty"`
	RewardPool       string            `yaml:"rewardPool,omitempty"`
}

// LoadGenesis reads a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gene Genesis
	if err := yaml.Unmarshal(data, &gene); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return &gene, nil
}

// parsed genesis, address strings resolved.
type genesisConfig struct {
	vault            vault.Address
	baseAsset        vault.Address
	rewardAsset      vault.Address
	admins           []vault.Address
	stakingPermitted *bool
	multipliers      map[vault.Tier]uint32
	allocations      map[vault.Address]*big.Int
	rewardPool       *big.Int
}

func (g *Genesis) parse() (*genesisConfig, error) {
	cfg := &genesisConfig{
		multipliers: make(map[vault.Tier]uint32),
		allocations: make(map[vault.Address]*big.Int),
	}
	var err error
	if cfg.vault, err = vault.ParseAddress(g.Vault); err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if cfg.baseAsset, err = vault.ParseAddress(g.BaseAsset); err != nil {
		return nil, errors.Wrap(err, "baseAsset")
	}
	if g.RewardAsset != "" {
		if cfg.rewardAsset, err = vault.ParseAddress(g.RewardAsset); err != nil {
			return nil, errors.Wrap(err, "rewardAsset")
		}
	}
	for _, a := range g.Admins {
		admin, err := vault.ParseAddress(a)
		if err != nil {
			return nil, errors.Wrap(err, "admins")
		}
		cfg.admins = append(cfg.admins, admin)
	}
	cfg.stakingPermitted = g.StakingPermitted
	for name, m := range g.Multipliers {
		tier, err := vault.ParseTier(name)
		if err != nil {
			return nil, errors.Wrap(err, "multipliers")
		}
		cfg.multipliers[tier] = m
	}
	for _, alloc := range g.Allocations {
		addr, err := vault.ParseAddress(alloc.Address)
		if err != nil {
			return nil, errors.Wrap(err, "allocations")
		}
		bal, ok := new(big.Int).SetString(alloc.Balance, 10)
		if !ok || bal.Sign() < 0 {
			return nil, errors.Errorf("invalid allocation balance %q", alloc.Balance)
		}
		cfg.allocations[addr] = bal
	}
	if g.RewardPool != "" {
		pool, ok := new(big.Int).SetString(g.RewardPool, 10)
		if !ok || pool.Sign() < 0 {
			return nil, errors.Errorf("invalid reward pool %q", g.RewardPool)
		}
		cfg.rewardPool = pool
	}
	return cfg, nil
}
