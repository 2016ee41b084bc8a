// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps fungible-asset balances in vault state.
// An asset is identified by its account address; the vault's deposits and
// reward pool are plain balances under the vault's own address.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/vault"
)

// ErrInsufficientBalance is returned when a transfer exceeds the held balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

func holderKey(holder vault.Address) vault.Bytes32 {
	return vault.Blake2b([]byte("h"), holder.Bytes())
}

// Token binds one asset's balance book to state.
type Token struct {
	addr  vault.Address
	state *state.State
}

// New create a new instance.
func New(addr vault.Address, state *state.State) *Token {
	return &Token{addr, state}
}

// Address returns the asset's account address.
func (t *Token) Address() vault.Address {
	return t.addr
}

// Balance returns the balance held by holder.
func (t *Token) Balance(holder vault.Address) (*big.Int, error) {
	var bal big.Int
	if err := t.state.DecodeStorage(t.addr, holderKey(holder), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &bal)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return &bal, nil
}

func (t *Token) setBalance(holder vault.Address, bal *big.Int) error {
	if err := t.state.EncodeStorage(t.addr, holderKey(holder), func() ([]byte, error) {
		if bal.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(bal)
	}); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

// Add increases holder's balance by amount.
func (t *Token) Add(holder vault.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := t.Balance(holder)
	if err != nil {
		return err
	}
	return t.setBalance(holder, bal.Add(bal, amount))
}

// Sub decreases holder's balance by amount.
// It returns false without touching state when the balance is insufficient.
func (t *Token) Sub(holder vault.Address, amount *big.Int) (bool, error) {
	bal, err := t.Balance(holder)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	if amount.Sign() == 0 {
		return true, nil
	}
	return true, t.setBalance(holder, bal.Sub(bal, amount))
}

// Transfer moves amount from one holder to another.
// It returns ErrInsufficientBalance when from cannot cover the amount.
func (t *Token) Transfer(from, to vault.Address, amount *big.Int) error {
	ok, err := t.Sub(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return t.Add(to, amount)
}
