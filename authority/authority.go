// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority gates administrative mutations behind an external
// capability registry.
package authority

import (
	"github.com/stakevault/stakevault/reverts"
	"github.com/stakevault/stakevault/vault"
)

// Registry answers a single question: may caller invoke the operation
// on the target contract. Its internal role storage is its own business.
type Registry interface {
	Authorize(target vault.Address, op string, caller vault.Address) (bool, error)
}

// Gate wraps the registry query for one target and turns "no" into a
// typed failure. It holds no mutable state.
type Gate struct {
	target   vault.Address
	registry Registry
}

// NewGate create a new instance bound to the given target.
func NewGate(target vault.Address, registry Registry) *Gate {
	return &Gate{target, registry}
}

// Authorize aborts with reverts.ErrUnauthorized unless the registry
// permits caller to invoke op on the gate's target.
func (g *Gate) Authorize(op string, caller vault.Address) error {
	ok, err := g.registry.Authorize(g.target, op, caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrUnauthorized
	}
	return nil
}
