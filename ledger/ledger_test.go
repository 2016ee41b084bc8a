// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/authority"
	"github.com/stakevault/stakevault/conf"
	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/reverts"
	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/token"
	"github.com/stakevault/stakevault/vault"
)

var (
	vaultAddr  = vault.BytesToAddress([]byte("vault"))
	rewardAddr = vault.BytesToAddress([]byte("reward"))
	admin      = vault.BytesToAddress([]byte("admin"))
	alice      = vault.BytesToAddress([]byte("alice"))
	bob        = vault.BytesToAddress([]byte("bob"))
)

type recordingSink struct {
	events []*Event
}

func (s *recordingSink) Notify(ev *Event) {
	s.events = append(s.events, ev)
}

type testEnv struct {
	state  *state.State
	ledger *Ledger
	conf   *conf.Conf
	base   *token.Token
	reward *token.Token
	sink   *recordingSink
}

func newTestEnv(t *testing.T) *testEnv {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	st := state.NewStater(store).NewState()

	registry := authority.NewStateRegistry(vaultAddr, st)
	require.NoError(t, registry.Add(admin))
	gate := authority.NewGate(vaultAddr, registry)

	base := token.New(vault.BytesToAddress([]byte("base")), st)
	reward := token.New(rewardAddr, st)
	cf := conf.New(vaultAddr, st, gate, base)
	require.NoError(t, cf.SetRewardAsset(admin, rewardAddr))

	sink := &recordingSink{}
	return &testEnv{
		state:  st,
		ledger: New(vaultAddr, st, cf, base, sink),
		conf:   cf,
		base:   base,
		reward: reward,
		sink:   sink,
	}
}

func (env *testEnv) fund(t *testing.T, owner vault.Address, amount int64) {
	require.NoError(t, env.base.Add(owner, big.NewInt(amount)))
}

func (env *testEnv) fundRewardPool(t *testing.T, amount int64) {
	require.NoError(t, env.reward.Add(vaultAddr, big.NewInt(amount)))
}

const lockup90 = 7_776_000

func TestStake(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	id, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(600), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id, "ids start at 1")

	rec, err := env.ledger.GetStake(id)
	require.NoError(t, err)
	assert.Equal(t, alice, rec.Owner)
	assert.Equal(t, big.NewInt(600), rec.Amount)
	assert.Equal(t, uint32(100), rec.StartTime)
	assert.Equal(t, vault.TierThreeMonths, rec.Tier)
	assert.False(t, rec.Withdrawn)

	// the deposit moved to the vault
	bal, _ := env.base.Balance(alice)
	assert.Equal(t, big.NewInt(400), bal)
	held, _ := env.base.Balance(vaultAddr)
	assert.Equal(t, big.NewInt(600), held)

	// a second stake gets the next id
	id2, err := env.ledger.Stake(alice, vault.TierSixMonths, big.NewInt(400), 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)

	ids, recs, err := env.ledger.StakesOf(alice)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
	assert.Len(t, recs, 2)

	require.Len(t, env.sink.events, 4)
	assert.Equal(t, EventFundsReceived, env.sink.events[0].Type)
	assert.Equal(t, EventStaked, env.sink.events[1].Type)
}

func TestStakeRejections(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, &big.Int{}, 100)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)

	_, err = env.ledger.Stake(alice, vault.TierThreeMonths, nil, 100)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)

	huge := new(big.Int).Lsh(big.NewInt(1), 224)
	_, err = env.ledger.Stake(alice, vault.TierThreeMonths, huge, 100)
	assert.ErrorIs(t, err, reverts.ErrAmountOutOfRange)

	_, err = env.ledger.Stake(alice, vault.Tier(9), big.NewInt(100), 100)
	assert.ErrorIs(t, err, reverts.ErrInvalidTier)

	_, err = env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(100), uint64(vault.MaxTimestamp)+1)
	assert.ErrorIs(t, err, reverts.ErrTimestampOutOfRange)

	// deposit exceeding the balance reverts with a transfer failure
	_, err = env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1001), 100)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	bal, _ := env.base.Balance(alice)
	assert.Equal(t, big.NewInt(1000), bal, "failed stake leaves the balance intact")

	require.NoError(t, env.conf.SetStakingPermitted(admin, false))
	_, err = env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(100), 100)
	assert.ErrorIs(t, err, reverts.ErrStakingDisabled)

	assert.Empty(t, env.sink.events, "failed operations emit nothing")
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	id, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(600), 100)
	require.NoError(t, err)

	// not yet matured
	err = env.ledger.Withdraw(alice, id, 100+lockup90-1)
	assert.ErrorIs(t, err, reverts.ErrLockupNotElapsed)

	// not the owner
	err = env.ledger.Withdraw(bob, id, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrInvalidStakeID)

	require.NoError(t, env.ledger.Withdraw(alice, id, 100+lockup90))
	bal, _ := env.base.Balance(alice)
	assert.Equal(t, big.NewInt(1000), bal)

	rec, _ := env.ledger.GetStake(id)
	assert.True(t, rec.Withdrawn)

	// a withdrawn stake cannot be withdrawn again
	err = env.ledger.Withdraw(alice, id, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrAlreadyWithdrawn)
	bal, _ = env.base.Balance(alice)
	assert.Equal(t, big.NewInt(1000), bal, "double withdraw pays nothing")

	// unknown ids, zero included
	err = env.ledger.Withdraw(alice, 0, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrInvalidStakeID)
	err = env.ledger.Withdraw(alice, 42, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrInvalidStakeID)
}

func TestWithdrawAnyOrder(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	id1, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(300), 100)
	require.NoError(t, err)
	id2, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(700), 100)
	require.NoError(t, err)

	// the later stake releases first
	require.NoError(t, env.ledger.Withdraw(alice, id2, 100+lockup90))
	require.NoError(t, env.ledger.Withdraw(alice, id1, 100+lockup90))

	bal, _ := env.base.Balance(alice)
	assert.Equal(t, big.NewInt(1000), bal)
}

func TestRestake(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	id, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(600), 100)
	require.NoError(t, err)

	// too early
	_, err = env.ledger.Restake(alice, id, vault.TierOneYear, 100+lockup90-1)
	assert.ErrorIs(t, err, reverts.ErrLockupNotElapsed)

	newID, err := env.ledger.Restake(alice, id, vault.TierOneYear, 100+lockup90)
	require.NoError(t, err)
	assert.Equal(t, id+1, newID, "restake allocates the next id")

	old, _ := env.ledger.GetStake(id)
	assert.True(t, old.Withdrawn, "restake closes the old record")

	rec, _ := env.ledger.GetStake(newID)
	assert.Equal(t, big.NewInt(600), rec.Amount, "principal carries over")
	assert.Equal(t, vault.TierOneYear, rec.Tier)
	assert.Equal(t, uint32(100+lockup90), rec.StartTime)
	assert.False(t, rec.Withdrawn)

	// no asset moved
	held, _ := env.base.Balance(vaultAddr)
	assert.Equal(t, big.NewInt(600), held)

	// the closed record cannot be restaked or withdrawn again
	_, err = env.ledger.Restake(alice, id, vault.TierThreeMonths, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrAlreadyWithdrawn)

	// the new stake matures on its own schedule
	err = env.ledger.Withdraw(alice, newID, 100+lockup90+1)
	assert.ErrorIs(t, err, reverts.ErrLockupNotElapsed)
	require.NoError(t, env.ledger.Withdraw(alice, newID, uint64(100+lockup90)+vault.TierOneYear.LockupSeconds()))
}

func TestRestakeWhileDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)

	id, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(600), 100)
	require.NoError(t, err)

	// a restake is a new stake; the toggle applies
	require.NoError(t, env.conf.SetStakingPermitted(admin, false))
	_, err = env.ledger.Restake(alice, id, vault.TierOneYear, 100+lockup90)
	assert.ErrorIs(t, err, reverts.ErrStakingDisabled)

	rec, _ := env.ledger.GetStake(id)
	assert.False(t, rec.Withdrawn, "failed restake leaves the record open")

	// withdrawing existing stakes stays possible
	require.NoError(t, env.ledger.Withdraw(alice, id, 100+lockup90))
}

func TestAccrued(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)

	// half way at the 1.0x baseline
	accrued, err := env.ledger.Accrued(alice, lockup90/2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), accrued)

	// fully vested, further time adds nothing
	accrued, err = env.ledger.Accrued(alice, lockup90)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), accrued)
	accrued, err = env.ledger.Accrued(alice, 10*lockup90)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), accrued)
}

func TestAccruedSurvivesWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)

	id, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)
	require.NoError(t, env.ledger.Withdraw(alice, id, lockup90))

	accrued, err := env.ledger.Accrued(alice, lockup90)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), accrued, "withdrawn stakes keep their accrued rewards")
}

func TestClaim(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)
	env.fundRewardPool(t, 10_000_000)

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)

	err = env.ledger.Claim(alice, &big.Int{}, lockup90)
	assert.ErrorIs(t, err, reverts.ErrZeroClaim)

	err = env.ledger.Claim(alice, big.NewInt(1_000_001), lockup90)
	assert.ErrorIs(t, err, reverts.ErrInsufficientClaimable)

	require.NoError(t, env.ledger.Claim(alice, big.NewInt(600_000), lockup90))
	bal, _ := env.reward.Balance(alice)
	assert.Equal(t, big.NewInt(600_000), bal)

	claimed, err := env.ledger.Claimed(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600_000), claimed)

	claimable, err := env.ledger.Claimable(alice, lockup90)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400_000), claimable)

	// the remainder can be claimed, nothing more
	err = env.ledger.Claim(alice, big.NewInt(400_001), lockup90)
	assert.ErrorIs(t, err, reverts.ErrInsufficientClaimable)
	require.NoError(t, env.ledger.Claim(alice, big.NewInt(400_000), lockup90))

	claimable, _ = env.ledger.Claimable(alice, lockup90)
	assert.Zero(t, claimable.Sign())
}

func TestClaimAtomicity(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)
	// reward pool deliberately short
	env.fundRewardPool(t, 100)

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)

	err = env.ledger.Claim(alice, big.NewInt(500), lockup90)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)

	claimed, err := env.ledger.Claimed(alice)
	require.NoError(t, err)
	assert.Zero(t, claimed.Sign(), "failed payout reverts the claimed bookkeeping")

	// a covered claim still goes through afterwards
	require.NoError(t, env.ledger.Claim(alice, big.NewInt(100), lockup90))
}

func TestClaimWithoutRewardAsset(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)
	require.NoError(t, env.conf.SetRewardAsset(admin, vault.Address{}))

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)

	err = env.ledger.Claim(alice, big.NewInt(100), lockup90)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)

	claimed, _ := env.ledger.Claimed(alice)
	assert.Zero(t, claimed.Sign())
}

func TestMultiplierAffectsAccrual(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1_000_000)

	_, err := env.ledger.Stake(alice, vault.TierThreeMonths, big.NewInt(1_000_000), 0)
	require.NoError(t, err)

	require.NoError(t, env.conf.SetMultipliers(admin, []vault.Tier{vault.TierThreeMonths}, []uint32{20000}))

	accrued, err := env.ledger.Accrued(alice, lockup90)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_000_000), accrued, "accrual reads the live multiplier")
}

func TestGetStakeAbsent(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.ledger.GetStake(12345)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())

	ids, recs, err := env.ledger.StakesOf(alice)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, recs)

	claimable, err := env.ledger.Claimable(alice, lockup90)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())
}
