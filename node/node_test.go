// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/reverts"
	"github.com/stakevault/stakevault/vault"
)

const (
	vaultHex  = "0x1000000000000000000000000000000000000001"
	baseHex   = "0x1000000000000000000000000000000000000002"
	rewardHex = "0x1000000000000000000000000000000000000003"
	adminHex  = "0x2000000000000000000000000000000000000001"
	aliceHex  = "0x3000000000000000000000000000000000000001"
)

var (
	admin = vault.MustParseAddress(adminHex)
	alice = vault.MustParseAddress(aliceHex)
)

const lockup90 = 7_776_000

func testGenesis() *Genesis {
	return &Genesis{
		Vault:       vaultHex,
		BaseAsset:   baseHex,
		RewardAsset: rewardHex,
		Admins:      []string{adminHex},
		Multipliers: map[string]uint32{"one-year": 25000},
		Allocations: []Allocation{
			{Address: aliceHex, Balance: "1000000"},
		},
		RewardPool: "10000000",
	}
}

// clock is a controllable time source.
type clock struct {
	now uint64
}

func newTestVault(t *testing.T, clk *clock) (*Vault, *logdb.LogDB) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(logDB.Close)

	v, err := New(store, logDB, testGenesis(), Options{Now: func() uint64 { return clk.now }})
	require.NoError(t, err)
	return v, logDB
}

func TestGenesisApplied(t *testing.T) {
	clk := &clock{now: 100}
	v, _ := newTestVault(t, clk)

	base, reward, err := v.Balances(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), base)
	assert.Zero(t, reward.Sign())

	multipliers, permitted, asset, err := v.Config()
	require.NoError(t, err)
	assert.True(t, permitted)
	assert.Equal(t, vault.MustParseAddress(rewardHex), asset)
	assert.Equal(t, uint32(25000), multipliers[vault.TierOneYear])
	assert.Equal(t, vault.TierThreeMonths.DefaultMultiplier(), multipliers[vault.TierThreeMonths])
}

func TestGenesisIdempotent(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	v, err := New(store, nil, testGenesis(), Options{Now: func() uint64 { return 100 }})
	require.NoError(t, err)
	_, err = v.Stake(alice, vault.TierThreeMonths, big.NewInt(400_000))
	require.NoError(t, err)

	// a restart over the same store must not re-apply allocations
	v2, err := New(store, nil, testGenesis(), Options{Now: func() uint64 { return 100 }})
	require.NoError(t, err)
	base, _, err := v2.Balances(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600_000), base)

	// the stake survives the restart
	rec, _, err := v2.GetStake(1)
	require.NoError(t, err)
	assert.Equal(t, alice, rec.Owner)
}

func TestStakeLifecycle(t *testing.T) {
	clk := &clock{now: 100}
	v, _ := newTestVault(t, clk)

	id, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	clk.now = 100 + lockup90

	accrued, err := v.Accrued(alice, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), accrued)

	require.NoError(t, v.Claim(alice, big.NewInt(1_000_000)))
	require.NoError(t, v.Withdraw(alice, id))

	base, reward, err := v.Balances(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), base)
	assert.Equal(t, big.NewInt(1_000_000), reward)

	claimable, err := v.Claimable(alice)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())
}

func TestFailedOpLeavesNoTrace(t *testing.T) {
	clk := &clock{now: 100}
	v, logDB := newTestVault(t, clk)

	_, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(2_000_000))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)

	base, _, err := v.Balances(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), base)

	events, err := logDB.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events, "a reverted operation persists no events")
}

func TestEventsPersisted(t *testing.T) {
	clk := &clock{now: 100}
	v, logDB := newTestVault(t, clk)

	_, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(500_000))
	require.NoError(t, err)

	events, err := logDB.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventFundsReceived, events[0].Type)
	assert.Equal(t, ledger.EventStaked, events[1].Type)
	assert.Equal(t, alice, events[1].Owner)
}

func TestSubscription(t *testing.T) {
	clk := &clock{now: 100}
	v, _ := newTestVault(t, clk)

	feed, cancel := v.SubscribeEvents()
	defer cancel()

	_, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(500_000))
	require.NoError(t, err)

	ev := <-feed
	assert.Equal(t, ledger.EventFundsReceived, ev.Type)
	ev = <-feed
	assert.Equal(t, ledger.EventStaked, ev.Type)
}

func TestAdminOps(t *testing.T) {
	clk := &clock{now: 100}
	v, _ := newTestVault(t, clk)

	err := v.SetStakingPermitted(alice, false)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	require.NoError(t, v.SetStakingPermitted(admin, false))
	_, err = v.Stake(alice, vault.TierThreeMonths, big.NewInt(100))
	assert.ErrorIs(t, err, reverts.ErrStakingDisabled)
	require.NoError(t, v.SetStakingPermitted(admin, true))

	require.NoError(t, v.SetMultipliers(admin, []vault.Tier{vault.TierThreeMonths}, []uint32{20000}))
	multipliers, _, _, err := v.Config()
	require.NoError(t, err)
	assert.Equal(t, uint32(20000), multipliers[vault.TierThreeMonths])
}

func TestSweep(t *testing.T) {
	clk := &clock{now: 100}
	v, logDB := newTestVault(t, clk)

	_, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(500_000))
	require.NoError(t, err)

	require.NoError(t, v.Sweep(admin, big.NewInt(200_000)))
	base, _, err := v.Balances(admin)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200_000), base)

	events, err := logDB.Filter(context.Background(), &logdb.EventFilter{Type: ledger.EventSwept})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, admin, events[0].Owner)
}

func TestRestakeThroughNode(t *testing.T) {
	clk := &clock{now: 100}
	v, _ := newTestVault(t, clk)

	id, err := v.Stake(alice, vault.TierThreeMonths, big.NewInt(500_000))
	require.NoError(t, err)

	clk.now = 100 + lockup90
	newID, err := v.Restake(alice, id, vault.TierOneYear)
	require.NoError(t, err)
	assert.Equal(t, id+1, newID)

	ids, recs, err := v.StakesOf(alice)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.True(t, recs[0].Withdrawn)
	assert.False(t, recs[1].Withdrawn)
}
