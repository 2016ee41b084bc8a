// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/vault"
)

// StakeRequest opens a new stake.
type StakeRequest struct {
	Caller vault.Address         `json:"caller"`
	Tier   vault.Tier            `json:"tier"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// RestakeRequest rolls a matured stake into a new tier.
type RestakeRequest struct {
	Caller vault.Address `json:"caller"`
	Tier   vault.Tier    `json:"tier"`
}

// WithdrawRequest releases a matured stake.
type WithdrawRequest struct {
	Caller vault.Address `json:"caller"`
}

// StakeID is the handle of a created stake.
type StakeID struct {
	ID uint64 `json:"id"`
}

// Stake is the presented form of a stake record.
type Stake struct {
	ID        uint64                `json:"id"`
	Owner     vault.Address         `json:"owner"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	StartTime uint32                `json:"startTime"`
	Tier      vault.Tier            `json:"tier"`
	Withdrawn bool                  `json:"withdrawn"`
	Accrued   *math.HexOrDecimal256 `json:"accrued"`
}

func convertStake(id uint64, rec *ledger.StakeRecord, accrued *math.HexOrDecimal256) *Stake {
	return &Stake{
		ID:        id,
		Owner:     rec.Owner,
		Amount:    (*math.HexOrDecimal256)(rec.Amount),
		StartTime: rec.StartTime,
		Tier:      rec.Tier,
		Withdrawn: rec.Withdrawn,
		Accrued:   accrued,
	}
}
