// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger owns the per-user stake records, the global id counter and
// the claimed-rewards totals, and implements the stake, restake, withdraw
// and claim lifecycle.
package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/accrual"
	"github.com/stakevault/stakevault/conf"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/reverts"
	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/token"
	"github.com/stakevault/stakevault/vault"
)

var logger = log.WithContext("pkg", "ledger")

// Ledger implements the staking state machine over vault state.
//
// Every mutating operation is all-or-nothing: it checkpoints state first and
// reverts to the checkpoint on any failure. State is always mutated before
// the outbound asset transfer, so a reentrant call during the transfer sees
// the already-updated record and fails ordinary validation.
type Ledger struct {
	addr  vault.Address // the vault account holding deposits and the reward pool
	state *state.State
	conf  *conf.Conf
	base  *token.Token
	store *storage
	sink  EventSink
}

// New create a new instance.
func New(addr vault.Address, st *state.State, conf *conf.Conf, base *token.Token, sink EventSink) *Ledger {
	if sink == nil {
		sink = NopSink{}
	}
	return &Ledger{
		addr:  addr,
		state: st,
		conf:  conf,
		base:  base,
		store: newStorage(addr, st),
		sink:  sink,
	}
}

//
// Getters - no state change
//

// GetStake returns the record at id; an absent id yields the zero record.
func (l *Ledger) GetStake(id uint64) (*StakeRecord, error) {
	return l.store.GetRecord(id)
}

// StakesOf returns every record ever created for the owner together with its
// id, in creation order, withdrawn ones included.
func (l *Ledger) StakesOf(owner vault.Address) ([]uint64, []*StakeRecord, error) {
	ids, err := l.store.OwnedIDs(owner)
	if err != nil {
		return nil, nil, err
	}
	recs := make([]*StakeRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := l.store.GetRecord(id)
		if err != nil {
			return nil, nil, err
		}
		recs = append(recs, rec)
	}
	return ids, recs, nil
}

// StakeAccrued returns the reward units a single stake has earned by now.
func (l *Ledger) StakeAccrued(rec *StakeRecord, now uint64) (*big.Int, error) {
	if rec.IsEmpty() {
		return &big.Int{}, nil
	}
	multiplier, err := l.conf.Multiplier(rec.Tier)
	if err != nil {
		return nil, err
	}
	return accrual.Accrue(rec.Amount, rec.StartTime, rec.Tier, multiplier, now), nil
}

// Accrued returns the owner's lifetime accrued reward units: the sum over
// every stake ever recorded, withdrawn ones included. Accrual is a function
// of elapsed time and original terms, not current fund custody.
func (l *Ledger) Accrued(owner vault.Address, now uint64) (*big.Int, error) {
	ids, err := l.store.OwnedIDs(owner)
	if err != nil {
		return nil, err
	}
	total := &big.Int{}
	for _, id := range ids {
		rec, err := l.store.GetRecord(id)
		if err != nil {
			return nil, err
		}
		earned, err := l.StakeAccrued(rec, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, earned)
	}
	return total, nil
}

// Claimed returns the owner's lifetime claimed reward total.
func (l *Ledger) Claimed(owner vault.Address) (*big.Int, error) {
	return l.store.Claimed(owner)
}

// Claimable returns lifetime accrued minus lifetime claimed.
func (l *Ledger) Claimable(owner vault.Address, now uint64) (*big.Int, error) {
	accrued, err := l.Accrued(owner, now)
	if err != nil {
		return nil, err
	}
	claimed, err := l.store.Claimed(owner)
	if err != nil {
		return nil, err
	}
	return accrued.Sub(accrued, claimed), nil
}

//
// Setters - state change
//

// Stake deposits amount of the base asset for the given lockup tier and
// returns the new stake id.
func (l *Ledger) Stake(caller vault.Address, tier vault.Tier, amount *big.Int, now uint64) (id uint64, err error) {
	logger.Debug("staking", "caller", caller, "tier", tier, "amount", amount)

	cp := l.state.NewCheckpoint()
	defer func() {
		if err != nil {
			l.state.RevertTo(cp)
			logger.Info("stake failed", "caller", caller, "error", err)
		}
	}()

	if err := l.validateNewStake(tier, amount, now); err != nil {
		return 0, err
	}

	// the deposit arrives with the call
	if err := l.base.Transfer(caller, l.addr, amount); err != nil {
		return 0, errors.Wrap(reverts.ErrTransferFailed, err.Error())
	}

	id, err = l.createStake(caller, tier, amount, now)
	if err != nil {
		return 0, err
	}

	l.sink.Notify(&Event{Type: EventFundsReceived, Owner: caller, Amount: amount, Time: now})
	l.notifyStaked(caller, id, amount, tier, now)

	logger.Info("staked", "caller", caller, "id", id)
	return id, nil
}

// Restake closes a matured stake and synchronously opens a new one with the
// same principal and the given tier, without moving the underlying asset.
// It returns the new stake id.
func (l *Ledger) Restake(caller vault.Address, id uint64, newTier vault.Tier, now uint64) (newID uint64, err error) {
	logger.Debug("restaking", "caller", caller, "id", id, "newTier", newTier)

	cp := l.state.NewCheckpoint()
	defer func() {
		if err != nil {
			l.state.RevertTo(cp)
			logger.Info("restake failed", "caller", caller, "id", id, "error", err)
		}
	}()

	rec, err := l.validateRelease(caller, id, now)
	if err != nil {
		return 0, err
	}
	if err := l.validateNewStake(newTier, rec.Amount, now); err != nil {
		return 0, err
	}

	rec.Withdrawn = true
	if err := l.store.SetRecord(id, rec); err != nil {
		return 0, err
	}

	newID, err = l.createStake(caller, newTier, rec.Amount, now)
	if err != nil {
		return 0, err
	}

	l.notifyStaked(caller, newID, rec.Amount, newTier, now)

	logger.Info("restaked", "caller", caller, "id", id, "newID", newID)
	return newID, nil
}

// Withdraw releases a matured stake's principal back to the caller.
func (l *Ledger) Withdraw(caller vault.Address, id uint64, now uint64) (err error) {
	logger.Debug("withdrawing", "caller", caller, "id", id)

	cp := l.state.NewCheckpoint()
	defer func() {
		if err != nil {
			l.state.RevertTo(cp)
			logger.Info("withdraw failed", "caller", caller, "id", id, "error", err)
		}
	}()

	rec, err := l.validateRelease(caller, id, now)
	if err != nil {
		return err
	}

	// flip the record before the transfer
	rec.Withdrawn = true
	if err := l.store.SetRecord(id, rec); err != nil {
		return err
	}

	if err := l.base.Transfer(l.addr, caller, rec.Amount); err != nil {
		return errors.Wrap(reverts.ErrTransferFailed, err.Error())
	}

	l.sink.Notify(&Event{
		Type:      EventWithdrawn,
		Owner:     caller,
		StakeID:   id,
		Amount:    rec.Amount,
		StartTime: rec.StartTime,
		Tier:      rec.Tier,
		Time:      now,
	})

	logger.Info("withdrawn", "caller", caller, "id", id, "amount", rec.Amount)
	return nil
}

// Claim pays out amount of the reward asset against the caller's claimable
// balance. The claimed total is bumped before the transfer.
func (l *Ledger) Claim(caller vault.Address, amount *big.Int, now uint64) (err error) {
	logger.Debug("claiming", "caller", caller, "amount", amount)

	cp := l.state.NewCheckpoint()
	defer func() {
		if err != nil {
			l.state.RevertTo(cp)
			logger.Info("claim failed", "caller", caller, "error", err)
		}
	}()

	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrZeroClaim
	}
	claimable, err := l.Claimable(caller, now)
	if err != nil {
		return err
	}
	if amount.Cmp(claimable) > 0 {
		return reverts.ErrInsufficientClaimable
	}

	claimed, err := l.store.Claimed(caller)
	if err != nil {
		return err
	}
	if err := l.store.SetClaimed(caller, claimed.Add(claimed, amount)); err != nil {
		return err
	}

	asset, err := l.conf.RewardAsset()
	if err != nil {
		return err
	}
	if asset.IsZero() {
		return errors.Wrap(reverts.ErrTransferFailed, "reward asset unset")
	}
	if err := token.New(asset, l.state).Transfer(l.addr, caller, amount); err != nil {
		return errors.Wrap(reverts.ErrTransferFailed, err.Error())
	}

	l.sink.Notify(&Event{Type: EventClaimed, Owner: caller, Amount: amount, Time: now})

	logger.Info("claimed", "caller", caller, "amount", amount)
	return nil
}

// validateNewStake checks the arguments and the toggle for a new record.
func (l *Ledger) validateNewStake(tier vault.Tier, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	if amount.BitLen() > vault.MaxAmountBits {
		return reverts.ErrAmountOutOfRange
	}
	if now > vault.MaxTimestamp {
		return reverts.ErrTimestampOutOfRange
	}
	if !tier.Valid() {
		return reverts.ErrInvalidTier
	}
	permitted, err := l.conf.StakingPermitted()
	if err != nil {
		return err
	}
	if !permitted {
		return reverts.ErrStakingDisabled
	}
	return nil
}

// validateRelease checks that the record at id exists, belongs to caller,
// is not withdrawn and has fully matured.
func (l *Ledger) validateRelease(caller vault.Address, id uint64, now uint64) (*StakeRecord, error) {
	rec, err := l.store.GetRecord(id)
	if err != nil {
		return nil, err
	}
	if rec.IsEmpty() || rec.Owner != caller {
		return nil, reverts.ErrInvalidStakeID
	}
	if rec.Withdrawn {
		return nil, reverts.ErrAlreadyWithdrawn
	}
	if !rec.Matured(now) {
		return nil, reverts.ErrLockupNotElapsed
	}
	return rec, nil
}

// createStake allocates the next id, writes the record and indexes it.
func (l *Ledger) createStake(owner vault.Address, tier vault.Tier, amount *big.Int, now uint64) (uint64, error) {
	id, err := l.store.NextID()
	if err != nil {
		return 0, err
	}
	rec := &StakeRecord{
		Owner:     owner,
		Amount:    amount,
		StartTime: uint32(now),
		Tier:      tier,
	}
	if err := l.store.SetRecord(id, rec); err != nil {
		return 0, err
	}
	if err := l.store.AppendOwned(owner, id); err != nil {
		return 0, err
	}
	return id, nil
}

func (l *Ledger) notifyStaked(owner vault.Address, id uint64, amount *big.Int, tier vault.Tier, now uint64) {
	l.sink.Notify(&Event{
		Type:      EventStaked,
		Owner:     owner,
		StakeID:   id,
		Amount:    amount,
		StartTime: uint32(now),
		Tier:      tier,
		Time:      now,
	})
}
