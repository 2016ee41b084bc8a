// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual holds the pure reward-vesting arithmetic.
//
// A stake accrues linearly over its lockup, capped at full vesting.
// All divisions floor, so accrual is never overstated by rounding.
package accrual

import (
	"math/big"

	"github.com/stakevault/stakevault/vault"
)

var (
	bigExchangeRate = big.NewInt(vault.ExchangeRate)
	bigDenominator  = big.NewInt(vault.RewardDenominator)
)

// Nominal returns the time-vested fraction of the staked amount:
//
//	floor(min(now-startTime, lockup) * amount / lockup)
//
// Once the lockup has fully elapsed, further time does not change the result.
func Nominal(amount *big.Int, startTime uint32, tier vault.Tier, now uint64) *big.Int {
	lockup := tier.LockupSeconds()
	if lockup == 0 || amount == nil || amount.Sign() == 0 {
		return &big.Int{}
	}
	if now <= uint64(startTime) {
		return &big.Int{}
	}
	vested := now - uint64(startTime)
	if vested >= lockup {
		// fully vested; the formula below would equal amount exactly,
		// short-circuit to keep the cap explicit
		return new(big.Int).Set(amount)
	}
	x := new(big.Int).SetUint64(vested)
	x.Mul(x, amount)
	return x.Div(x, new(big.Int).SetUint64(lockup))
}

// Reward converts a nominal accrued amount into reward-asset units:
//
//	floor(nominal * ExchangeRate * multiplier / RewardDenominator)
func Reward(nominal *big.Int, multiplier uint32) *big.Int {
	x := new(big.Int).Mul(nominal, bigExchangeRate)
	x.Mul(x, new(big.Int).SetUint64(uint64(multiplier)))
	return x.Div(x, bigDenominator)
}

// Accrue computes the reward-asset units one stake has earned by now.
func Accrue(amount *big.Int, startTime uint32, tier vault.Tier, multiplier uint32, now uint64) *big.Int {
	return Reward(Nominal(amount, startTime, tier, now), multiplier)
}
