// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/stakevault/stakevault/vault"
)

// Event types emitted on successful operations.
const (
	EventFundsReceived = "funds-received"
	EventStaked        = "staked"
	EventWithdrawn     = "withdrawn"
	EventClaimed       = "claimed"
	EventSwept         = "swept"
)

// Event is a notification of a completed state change.
type Event struct {
	Type      string        `json:"type"`
	Owner     vault.Address `json:"owner"`
	StakeID   uint64        `json:"stakeId,omitempty"`
	Amount    *big.Int      `json:"amount"`
	StartTime uint32        `json:"startTime,omitempty"`
	Tier      vault.Tier    `json:"tier,omitempty"`
	Time      uint64        `json:"time"`
}

// EventSink receives notifications. Events reach the sink only after every
// state mutation and transfer of the operation has succeeded; the sink's
// owner decides what survives a failed commit.
type EventSink interface {
	Notify(*Event)
}

// NopSink discards all events.
type NopSink struct{}

// Notify implements EventSink.
func (NopSink) Notify(*Event) {}
