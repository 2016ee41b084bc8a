// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package conf owns the vault's administrative configuration: the mutable
// tier multiplier table, the staking toggle and the reward-asset reference.
// Every mutation passes through the authorization gate.
package conf

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/authority"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/reverts"
	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/token"
	"github.com/stakevault/stakevault/vault"
)

// Gated operation names, as known to the authorization registry.
const (
	OpSetMultipliers = "set-multipliers"
	OpSetStaking     = "set-staking"
	OpSetRewardAsset = "set-reward-asset"
	OpSweep          = "sweep"
)

var logger = log.WithContext("pkg", "conf")

var (
	slotStakingPermitted = nameToSlot("staking-permitted")
	slotRewardAsset      = nameToSlot("reward-asset")
)

func nameToSlot(name string) vault.Bytes32 {
	return vault.BytesToBytes32([]byte(name))
}

func multiplierKey(tier vault.Tier) vault.Bytes32 {
	return vault.Blake2b([]byte("multiplier"), []byte{byte(tier)})
}

// Conf binds the administrative configuration to state.
type Conf struct {
	addr  vault.Address
	state *state.State
	gate  *authority.Gate
	base  *token.Token
}

// New create a new instance.
func New(addr vault.Address, state *state.State, gate *authority.Gate, base *token.Token) *Conf {
	return &Conf{addr, state, gate, base}
}

// Multiplier returns the reward multiplier of a tier,
// falling back to the tier's baseline when never set.
func (c *Conf) Multiplier(tier vault.Tier) (uint32, error) {
	var m uint32
	found := false
	if err := c.state.DecodeStorage(c.addr, multiplierKey(tier), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		found = true
		return rlp.DecodeBytes(raw, &m)
	}); err != nil {
		return 0, errors.Wrap(err, "failed to get multiplier")
	}
	if !found {
		return tier.DefaultMultiplier(), nil
	}
	return m, nil
}

// SetMultipliers overwrites multipliers for the given tiers, pairwise.
func (c *Conf) SetMultipliers(caller vault.Address, tiers []vault.Tier, multipliers []uint32) error {
	if err := c.gate.Authorize(OpSetMultipliers, caller); err != nil {
		return err
	}
	if len(tiers) != len(multipliers) {
		return reverts.New(reverts.KindInput, "tiers and multipliers length mismatch")
	}
	for i, tier := range tiers {
		if !tier.Valid() {
			return reverts.ErrInvalidTier
		}
		m := multipliers[i]
		if err := c.state.EncodeStorage(c.addr, multiplierKey(tier), func() ([]byte, error) {
			return rlp.EncodeToBytes(m)
		}); err != nil {
			return errors.Wrap(err, "failed to set multiplier")
		}
	}
	logger.Info("multipliers updated", "caller", caller, "tiers", len(tiers))
	return nil
}

// StakingPermitted returns whether new stakes are accepted.
// The toggle defaults to enabled until explicitly set.
func (c *Conf) StakingPermitted() (bool, error) {
	permitted := true
	if err := c.state.DecodeStorage(c.addr, slotStakingPermitted, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &permitted)
	}); err != nil {
		return false, errors.Wrap(err, "failed to get staking toggle")
	}
	return permitted, nil
}

// SetStakingPermitted flips the new-stakes toggle.
func (c *Conf) SetStakingPermitted(caller vault.Address, permitted bool) error {
	if err := c.gate.Authorize(OpSetStaking, caller); err != nil {
		return err
	}
	if err := c.state.EncodeStorage(c.addr, slotStakingPermitted, func() ([]byte, error) {
		return rlp.EncodeToBytes(permitted)
	}); err != nil {
		return errors.Wrap(err, "failed to set staking toggle")
	}
	logger.Info("staking toggle updated", "caller", caller, "permitted", permitted)
	return nil
}

// RewardAsset returns the reward asset address; zero means unset.
func (c *Conf) RewardAsset() (vault.Address, error) {
	var asset vault.Address
	if err := c.state.DecodeStorage(c.addr, slotRewardAsset, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &asset)
	}); err != nil {
		return vault.Address{}, errors.Wrap(err, "failed to get reward asset")
	}
	return asset, nil
}

// SetRewardAsset rewires the reward asset reference.
func (c *Conf) SetRewardAsset(caller vault.Address, asset vault.Address) error {
	if err := c.gate.Authorize(OpSetRewardAsset, caller); err != nil {
		return err
	}
	if err := c.state.EncodeStorage(c.addr, slotRewardAsset, func() ([]byte, error) {
		if asset.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(asset)
	}); err != nil {
		return errors.Wrap(err, "failed to set reward asset")
	}
	logger.Info("reward asset updated", "caller", caller, "asset", asset)
	return nil
}

// Sweep transfers amount of the held base asset out to the gated caller.
// The transfer itself enforces that the amount does not exceed the balance.
func (c *Conf) Sweep(caller vault.Address, amount *big.Int) error {
	if err := c.gate.Authorize(OpSweep, caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if err := c.base.Transfer(c.addr, caller, amount); err != nil {
		logger.Info("sweep failed", "caller", caller, "error", err)
		return errors.Wrap(reverts.ErrTransferFailed, err.Error())
	}
	logger.Info("swept base asset", "caller", caller, "amount", amount)
	return nil
}
