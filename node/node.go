// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node assembles the vault service and serializes its operations.
//
// The execution model is single-writer, all-or-nothing per operation: one
// mutex orders every public call, each call runs against a checkpointed
// state, and only a fully successful call is committed and notified.
package node

import (
	"math/big"
	"sync"
	"time"

	"github.com/stakevault/stakevault/authority"
	"github.com/stakevault/stakevault/conf"
	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/metrics"
	"github.com/stakevault/stakevault/state"
	"github.com/stakevault/stakevault/token"
	"github.com/stakevault/stakevault/vault"
)

var (
	logger = log.WithContext("pkg", "node")

	metricOps        = metrics.LazyLoadCounterVec("ops_total", []string{"op", "status"})
	metricOpDuration = metrics.LazyLoadHistogram("op_duration_us", metrics.BucketOpDuration)
	metricActive     = metrics.LazyLoadGauge("active_stakes")
)

var slotGenesisApplied = vault.BytesToBytes32([]byte("genesis-applied"))

// Options tunes a Vault instance.
type Options struct {
	// Now overrides the time source, for tests.
	Now func() uint64
}

// Vault is the assembled staking service.
type Vault struct {
	mu sync.Mutex

	addr     vault.Address
	state    *state.State
	ledger   *ledger.Ledger
	conf     *conf.Conf
	registry *authority.StateRegistry
	base     *token.Token
	logDB    *logdb.LogDB

	buf  eventBuf
	subs subscribers
	now  func() uint64
}

// New builds a vault over the given store and applies the genesis once.
func New(store kv.GetPutter, logDB *logdb.LogDB, gene *Genesis, opts Options) (*Vault, error) {
	cfg, err := gene.parse()
	if err != nil {
		return nil, err
	}

	st := state.NewStater(store).NewState()
	registry := authority.NewStateRegistry(cfg.vault, st)
	gate := authority.NewGate(cfg.vault, registry)
	base := token.New(cfg.baseAsset, st)
	cf := conf.New(cfg.vault, st, gate, base)

	v := &Vault{
		addr:     cfg.vault,
		state:    st,
		conf:     cf,
		registry: registry,
		base:     base,
		logDB:    logDB,
		now:      opts.Now,
	}
	if v.now == nil {
		v.now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	v.ledger = ledger.New(cfg.vault, st, cf, base, &v.buf)

	if err := v.applyGenesis(cfg); err != nil {
		return nil, err
	}
	return v, nil
}

// applyGenesis initializes state on first start; later starts are no-ops.
func (v *Vault) applyGenesis(cfg *genesisConfig) error {
	var applied bool
	if err := v.state.GetStructuredStorage(v.addr, slotGenesisApplied, &applied); err != nil {
		return err
	}
	if applied {
		return nil
	}

	for _, admin := range cfg.admins {
		if err := v.registry.Add(admin); err != nil {
			return err
		}
	}
	if len(cfg.admins) > 0 {
		operator := cfg.admins[0]
		if len(cfg.multipliers) > 0 {
			tiers := make([]vault.Tier, 0, len(cfg.multipliers))
			multipliers := make([]uint32, 0, len(cfg.multipliers))
			for _, tier := range vault.Tiers() {
				if m, ok := cfg.multipliers[tier]; ok {
					tiers = append(tiers, tier)
					multipliers = append(multipliers, m)
				}
			}
			if err := v.conf.SetMultipliers(operator, tiers, multipliers); err != nil {
				return err
			}
		}
		if cfg.stakingPermitted != nil {
			if err := v.conf.SetStakingPermitted(operator, *cfg.stakingPermitted); err != nil {
				return err
			}
		}
		if !cfg.rewardAsset.IsZero() {
			if err := v.conf.SetRewardAsset(operator, cfg.rewardAsset); err != nil {
				return err
			}
		}
	}
	for addr, bal := range cfg.allocations {
		if err := v.base.Add(addr, bal); err != nil {
			return err
		}
	}
	if cfg.rewardPool != nil && !cfg.rewardAsset.IsZero() {
		if err := token.New(cfg.rewardAsset, v.state).Add(v.addr, cfg.rewardPool); err != nil {
			return err
		}
	}
	if err := v.state.SetStructuredStorage(v.addr, slotGenesisApplied, true); err != nil {
		return err
	}
	if err := v.state.Commit(); err != nil {
		return err
	}
	logger.Info("genesis applied", "vault", v.addr, "admins", len(cfg.admins))
	return nil
}

// run serializes one operation: checkpoint, execute, commit, notify.
func (v *Vault) run(op string, fn func(now uint64) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buf.reset()
	cp := v.state.NewCheckpoint()
	started := time.Now()

	err := fn(v.now())
	if err == nil {
		err = v.state.Commit()
	}
	if err != nil {
		v.state.RevertTo(cp)
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "reverted"})
		return err
	}

	events := v.buf.drain()
	if v.logDB != nil {
		if werr := v.logDB.Write(events); werr != nil {
			logger.Warn("failed to persist events", "op", op, "error", werr)
		}
	}
	v.subs.broadcast(events)

	metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "ok"})
	metricOpDuration().Observe(time.Since(started).Microseconds())
	return nil
}

//
// Staking operations
//

// Stake deposits amount for the given tier and returns the new stake id.
func (v *Vault) Stake(caller vault.Address, tier vault.Tier, amount *big.Int) (id uint64, err error) {
	err = v.run("stake", func(now uint64) error {
		id, err = v.ledger.Stake(caller, tier, amount, now)
		return err
	})
	if err == nil {
		metricActive().Add(1)
	}
	return
}

// Restake rolls a matured stake over into a new tier.
func (v *Vault) Restake(caller vault.Address, id uint64, newTier vault.Tier) (newID uint64, err error) {
	err = v.run("restake", func(now uint64) error {
		newID, err = v.ledger.Restake(caller, id, newTier, now)
		return err
	})
	return
}

// Withdraw releases a matured stake's principal.
func (v *Vault) Withdraw(caller vault.Address, id uint64) error {
	err := v.run("withdraw", func(now uint64) error {
		return v.ledger.Withdraw(caller, id, now)
	})
	if err == nil {
		metricActive().Add(-1)
	}
	return err
}

// Claim pays out vested rewards.
func (v *Vault) Claim(caller vault.Address, amount *big.Int) error {
	return v.run("claim", func(now uint64) error {
		return v.ledger.Claim(caller, amount, now)
	})
}

//
// Admin operations
//

// SetMultipliers overwrites tier multipliers, gated.
func (v *Vault) SetMultipliers(caller vault.Address, tiers []vault.Tier, multipliers []uint32) error {
	return v.run("set-multipliers", func(uint64) error {
		return v.conf.SetMultipliers(caller, tiers, multipliers)
	})
}

// SetStakingPermitted flips the new-stakes toggle, gated.
func (v *Vault) SetStakingPermitted(caller vault.Address, permitted bool) error {
	return v.run("set-staking", func(uint64) error {
		return v.conf.SetStakingPermitted(caller, permitted)
	})
}

// SetRewardAsset rewires the reward asset, gated.
func (v *Vault) SetRewardAsset(caller vault.Address, asset vault.Address) error {
	return v.run("set-reward-asset", func(uint64) error {
		return v.conf.SetRewardAsset(caller, asset)
	})
}

// Sweep transfers held base asset out to the gated caller.
func (v *Vault) Sweep(caller vault.Address, amount *big.Int) error {
	return v.run("sweep", func(now uint64) error {
		if err := v.conf.Sweep(caller, amount); err != nil {
			return err
		}
		v.buf.Notify(&ledger.Event{Type: ledger.EventSwept, Owner: caller, Amount: amount, Time: now})
		return nil
	})
}

//
// Reads
//

// GetStake returns the record at id along with its accrued reward units.
func (v *Vault) GetStake(id uint64) (*ledger.StakeRecord, *big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec, err := v.ledger.GetStake(id)
	if err != nil {
		return nil, nil, err
	}
	earned, err := v.ledger.StakeAccrued(rec, v.now())
	if err != nil {
		return nil, nil, err
	}
	return rec, earned, nil
}

// StakesOf returns all records ever created for the owner.
func (v *Vault) StakesOf(owner vault.Address) ([]uint64, []*ledger.StakeRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ledger.StakesOf(owner)
}

// Accrued returns the owner's lifetime accrued reward units at the given
// time, or at the current time when at is nil.
func (v *Vault) Accrued(owner vault.Address, at *uint64) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	if at != nil {
		now = *at
	}
	return v.ledger.Accrued(owner, now)
}

// Claimed returns the owner's lifetime claimed reward units.
func (v *Vault) Claimed(owner vault.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ledger.Claimed(owner)
}

// Claimable returns lifetime accrued minus lifetime claimed.
func (v *Vault) Claimable(owner vault.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ledger.Claimable(owner, v.now())
}

// Balances returns the owner's base and reward asset balances.
func (v *Vault) Balances(owner vault.Address) (base *big.Int, reward *big.Int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if base, err = v.base.Balance(owner); err != nil {
		return nil, nil, err
	}
	asset, err := v.conf.RewardAsset()
	if err != nil {
		return nil, nil, err
	}
	reward = &big.Int{}
	if !asset.IsZero() {
		if reward, err = token.New(asset, v.state).Balance(owner); err != nil {
			return nil, nil, err
		}
	}
	return base, reward, nil
}

// Config returns the current administrative configuration.
func (v *Vault) Config() (multipliers map[vault.Tier]uint32, permitted bool, asset vault.Address, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	multipliers = make(map[vault.Tier]uint32)
	for _, tier := range vault.Tiers() {
		m, err := v.conf.Multiplier(tier)
		if err != nil {
			return nil, false, vault.Address{}, err
		}
		multipliers[tier] = m
	}
	if permitted, err = v.conf.StakingPermitted(); err != nil {
		return nil, false, vault.Address{}, err
	}
	if asset, err = v.conf.RewardAsset(); err != nil {
		return nil, false, vault.Address{}, err
	}
	return multipliers, permitted, asset, nil
}

// SubscribeEvents registers a live event feed.
// The returned cancel func must be called to release the feed.
func (v *Vault) SubscribeEvents() (<-chan *ledger.Event, func()) {
	return v.subs.subscribe()
}
