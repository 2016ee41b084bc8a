// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import "math"

// Constants of the staking protocol.
const (
	// RewardDenominator scales tier multipliers as fixed-point ratios.
	RewardDenominator = 10000

	// ExchangeRate converts nominal base-asset accrual into reward-asset units.
	ExchangeRate = 1

	// MaxAmountBits bounds the width of a stake amount.
	MaxAmountBits = 224

	// MaxTimestamp bounds stake start times (valid until ~year 2106).
	MaxTimestamp = math.MaxUint32
)
