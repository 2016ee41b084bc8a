// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/vault"
)

// StakeRecord is one stake instance. Owner, Amount, StartTime and Tier are
// immutable after creation; Withdrawn flips to true exactly once.
type StakeRecord struct {
	Owner     vault.Address
	Amount    *big.Int // bounded to 224 bits at the boundary
	StartTime uint32   // unix seconds
	Tier      vault.Tier
	Withdrawn bool
}

var (
	_ state.StorageEncoder = (*StakeRecord)(nil)
	_ state.StorageDecoder = (*StakeRecord)(nil)
)

// IsEmpty returns whether the record can be treated as nonexistent.
// A record with zero amount is indistinguishable from "does not exist".
func (r *StakeRecord) IsEmpty() bool {
	return r.Amount == nil || r.Amount.Sign() == 0
}

// Matured returns whether the record's lockup has fully elapsed by now.
func (r *StakeRecord) Matured(now uint64) bool {
	return now >= uint64(r.StartTime)+r.Tier.LockupSeconds()
}

// Encode implements state.StorageEncoder.
func (r *StakeRecord) Encode() ([]byte, error) {
	if r.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(r)
}

// Decode implements state.StorageDecoder.
func (r *StakeRecord) Decode(data []byte) error {
	if len(data) == 0 {
		*r = StakeRecord{Amount: &big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, r)
}
