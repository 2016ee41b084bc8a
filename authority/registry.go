// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package authority

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/vault"
)

func adminKey(admin vault.Address) vault.Bytes32 {
	return vault.Blake2b([]byte("admin"), admin.Bytes())
}

// StateRegistry is an allowlist registry kept in vault state.
// A listed address may invoke every gated operation on every target.
type StateRegistry struct {
	addr  vault.Address
	state *state.State
}

var _ Registry = (*StateRegistry)(nil)

// NewStateRegistry create a new instance.
func NewStateRegistry(addr vault.Address, state *state.State) *StateRegistry {
	return &StateRegistry{addr, state}
}

// Add lists an admin address.
func (r *StateRegistry) Add(admin vault.Address) error {
	if err := r.state.EncodeStorage(r.addr, adminKey(admin), func() ([]byte, error) {
		return rlp.EncodeToBytes(true)
	}); err != nil {
		return errors.Wrap(err, "failed to add admin")
	}
	return nil
}

// Revoke unlists an admin address.
func (r *StateRegistry) Revoke(admin vault.Address) error {
	if err := r.state.SetRawStorage(r.addr, adminKey(admin), nil); err != nil {
		return errors.Wrap(err, "failed to revoke admin")
	}
	return nil
}

// IsListed returns whether the address is on the allowlist.
func (r *StateRegistry) IsListed(admin vault.Address) (bool, error) {
	var listed bool
	if err := r.state.DecodeStorage(r.addr, adminKey(admin), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &listed)
	}); err != nil {
		return false, errors.Wrap(err, "failed to get admin")
	}
	return listed, nil
}

// Authorize implements Registry.
func (r *StateRegistry) Authorize(_ vault.Address, _ string, caller vault.Address) (bool, error) {
	return r.IsListed(caller)
}
