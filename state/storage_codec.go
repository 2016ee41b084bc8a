// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakevault/stakevault/vault"
)

// StorageEncoder defines the interface of custom storage encoding.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder defines the interface of custom storage decoding.
type StorageDecoder interface {
	Decode(data []byte) error
}

// SetStructuredStorage encodes val and saves it under (addr, key).
// If val implements StorageEncoder, its own encoding is used,
// otherwise the value is RLP encoded.
func (s *State) SetStructuredStorage(addr vault.Address, key vault.Bytes32, val any) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if enc, ok := val.(StorageEncoder); ok {
			return enc.Encode()
		}
		return rlp.EncodeToBytes(val)
	})
}

// GetStructuredStorage loads the value under (addr, key) and decodes it into val.
// If val implements StorageDecoder, its own decoding is used; an absent slot
// leaves val at its zero value.
func (s *State) GetStructuredStorage(addr vault.Address, key vault.Bytes32, val any) error {
	return s.DecodeStorage(addr, key, func(raw []byte) error {
		if dec, ok := val.(StorageDecoder); ok {
			return dec.Decode(raw)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, val)
	})
}
