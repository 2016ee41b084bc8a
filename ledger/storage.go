// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/vault"
)

var slotCounter = vault.BytesToBytes32([]byte("stakes-counter"))

func recordKey(id uint64) vault.Bytes32 {
	var idb [8]byte
	binary.BigEndian.PutUint64(idb[:], id)
	return vault.Blake2b([]byte("stake"), idb[:])
}

func ownedCountKey(owner vault.Address) vault.Bytes32 {
	return vault.Blake2b([]byte("owned-count"), owner.Bytes())
}

func ownedItemKey(owner vault.Address, index uint64) vault.Bytes32 {
	var ib [8]byte
	binary.BigEndian.PutUint64(ib[:], index)
	return vault.Blake2b([]byte("owned-item"), owner.Bytes(), ib[:])
}

func claimedKey(owner vault.Address) vault.Bytes32 {
	return vault.Blake2b([]byte("claimed"), owner.Bytes())
}

// storage represents the root storage of the stake ledger.
type storage struct {
	addr  vault.Address
	state *state.State
}

func newStorage(addr vault.Address, state *state.State) *storage {
	return &storage{addr, state}
}

func (s *storage) getUint64(key vault.Bytes32) (uint64, error) {
	var v uint64
	if err := s.state.DecodeStorage(s.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &v)
	}); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *storage) setUint64(key vault.Bytes32, v uint64) error {
	return s.state.EncodeStorage(s.addr, key, func() ([]byte, error) {
		if v == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(v)
	})
}

// NextID increments the global monotonic counter and returns the new id.
// Ids start at 1 and are never reused.
func (s *storage) NextID() (uint64, error) {
	last, err := s.getUint64(slotCounter)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get stake counter")
	}
	id := last + 1
	if err := s.setUint64(slotCounter, id); err != nil {
		return 0, errors.Wrap(err, "failed to set stake counter")
	}
	return id, nil
}

// LastID returns the most recently allocated id, 0 when none.
func (s *storage) LastID() (uint64, error) {
	return s.getUint64(slotCounter)
}

// GetRecord returns the record at id; an absent id yields the zero record.
func (s *storage) GetRecord(id uint64) (*StakeRecord, error) {
	var rec StakeRecord
	if err := s.state.GetStructuredStorage(s.addr, recordKey(id), &rec); err != nil {
		return nil, errors.Wrap(err, "failed to get stake record")
	}
	return &rec, nil
}

func (s *storage) SetRecord(id uint64, rec *StakeRecord) error {
	if err := s.state.SetStructuredStorage(s.addr, recordKey(id), rec); err != nil {
		return errors.Wrap(err, "failed to set stake record")
	}
	return nil
}

// AppendOwned appends id to the owner's index. Entries are never removed,
// withdrawn stakes included, so lifetime accrual stays computable.
func (s *storage) AppendOwned(owner vault.Address, id uint64) error {
	count, err := s.getUint64(ownedCountKey(owner))
	if err != nil {
		return errors.Wrap(err, "failed to get owned count")
	}
	if err := s.setUint64(ownedItemKey(owner, count), id); err != nil {
		return errors.Wrap(err, "failed to append owned item")
	}
	if err := s.setUint64(ownedCountKey(owner), count+1); err != nil {
		return errors.Wrap(err, "failed to set owned count")
	}
	return nil
}

// OwnedIDs returns every id ever recorded for the owner, in creation order.
func (s *storage) OwnedIDs(owner vault.Address) ([]uint64, error) {
	count, err := s.getUint64(ownedCountKey(owner))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get owned count")
	}
	ids := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		id, err := s.getUint64(ownedItemKey(owner, i))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get owned item")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Claimed returns the owner's lifetime claimed reward total.
func (s *storage) Claimed(owner vault.Address) (*big.Int, error) {
	var claimed big.Int
	if err := s.state.DecodeStorage(s.addr, claimedKey(owner), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &claimed)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to get claimed total")
	}
	return &claimed, nil
}

func (s *storage) SetClaimed(owner vault.Address, claimed *big.Int) error {
	if err := s.state.EncodeStorage(s.addr, claimedKey(owner), func() ([]byte, error) {
		if claimed.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(claimed)
	}); err != nil {
		return errors.Wrap(err, "failed to set claimed total")
	}
	return nil
}
