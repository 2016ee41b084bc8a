// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/vault"
)

func newTestToken(t *testing.T) *Token {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store).NewState()
	return New(vault.BytesToAddress([]byte("asset")), st)
}

func TestBalance(t *testing.T) {
	tok := newTestToken(t)
	alice := vault.BytesToAddress([]byte("alice"))

	bal, err := tok.Balance(alice)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign(), "unknown holder has zero balance")

	require.NoError(t, tok.Add(alice, big.NewInt(100)))
	bal, err = tok.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)
}

func TestSub(t *testing.T) {
	tok := newTestToken(t)
	alice := vault.BytesToAddress([]byte("alice"))
	require.NoError(t, tok.Add(alice, big.NewInt(100)))

	ok, err := tok.Sub(alice, big.NewInt(101))
	require.NoError(t, err)
	assert.False(t, ok, "over-spend rejected")

	bal, _ := tok.Balance(alice)
	assert.Equal(t, big.NewInt(100), bal, "failed sub leaves the balance intact")

	ok, err = tok.Sub(alice, big.NewInt(100))
	require.NoError(t, err)
	assert.True(t, ok)

	bal, _ = tok.Balance(alice)
	assert.Zero(t, bal.Sign())
}

func TestTransfer(t *testing.T) {
	tok := newTestToken(t)
	alice := vault.BytesToAddress([]byte("alice"))
	bob := vault.BytesToAddress([]byte("bob"))
	require.NoError(t, tok.Add(alice, big.NewInt(100)))

	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(60)))

	aliceBal, _ := tok.Balance(alice)
	bobBal, _ := tok.Balance(bob)
	assert.Equal(t, big.NewInt(40), aliceBal)
	assert.Equal(t, big.NewInt(60), bobBal)

	err := tok.Transfer(alice, bob, big.NewInt(41))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestAssetsAreIsolated(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()
	st := state.NewStater(store).NewState()

	base := New(vault.BytesToAddress([]byte("base")), st)
	reward := New(vault.BytesToAddress([]byte("reward")), st)
	alice := vault.BytesToAddress([]byte("alice"))

	require.NoError(t, base.Add(alice, big.NewInt(100)))

	bal, err := reward.Balance(alice)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign(), "balance books of distinct assets do not mix")
}
