// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/stakes"
	"github.com/stakevault/stakevault/api/utils"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/node"
	"github.com/stakevault/stakevault/vault"
)

type Accounts struct {
	vault *node.Vault
}

func New(vault *node.Vault) *Accounts {
	return &Accounts{vault}
}

func (a *Accounts) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req)
	if err != nil {
		return err
	}
	ids, recs, err := a.vault.StakesOf(owner)
	if err != nil {
		return utils.RevertError(err)
	}
	presented := make([]*stakes.Stake, 0, len(ids))
	for i, id := range ids {
		_, accrued, err := a.vault.GetStake(id)
		if err != nil {
			return utils.RevertError(err)
		}
		presented = append(presented, convertStake(id, recs[i], accrued))
	}
	return utils.WriteJSON(w, presented)
}

func (a *Accounts) handleGetAccrued(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req)
	if err != nil {
		return err
	}
	var at *uint64
	if v := req.URL.Query().Get("time"); v != "" {
		t, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "time"))
		}
		at = &t
	}
	accrued, err := a.vault.Accrued(owner, at)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"accrued": (*math.HexOrDecimal256)(accrued)})
}

func (a *Accounts) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req)
	if err != nil {
		return err
	}
	claimable, err := a.vault.Claimable(owner)
	if err != nil {
		return utils.RevertError(err)
	}
	claimed, err := a.vault.Claimed(owner)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{
		"claimable": (*math.HexOrDecimal256)(claimable),
		"claimed":   (*math.HexOrDecimal256)(claimed),
	})
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	owner, err := parseAddress(req)
	if err != nil {
		return err
	}
	base, reward, err := a.vault.Balances(owner)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{
		"base":   (*math.HexOrDecimal256)(base),
		"reward": (*math.HexOrDecimal256)(reward),
	})
}

func convertStake(id uint64, rec *ledger.StakeRecord, accrued *big.Int) *stakes.Stake {
	return &stakes.Stake{
		ID:        id,
		Owner:     rec.Owner,
		Amount:    (*math.HexOrDecimal256)(rec.Amount),
		StartTime: rec.StartTime,
		Tier:      rec.Tier,
		Withdrawn: rec.Withdrawn,
		Accrued:   (*math.HexOrDecimal256)(accrued),
	}
}

func parseAddress(req *http.Request) (vault.Address, error) {
	addr, err := vault.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return vault.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/stakes").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetStakes))
	sub.Path("/{address}/accrued").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccrued))
	sub.Path("/{address}/claimable").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetClaimable))
	sub.Path("/{address}/balance").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
}
