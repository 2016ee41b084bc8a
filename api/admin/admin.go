// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/utils"
	"github.com/stakevault/stakevault/node"
	"github.com/stakevault/stakevault/vault"
)

type Admin struct {
	vault *node.Vault
}

func New(vault *node.Vault) *Admin {
	return &Admin{vault}
}

// MultipliersRequest overwrites reward multipliers pairwise.
type MultipliersRequest struct {
	Caller      vault.Address `json:"caller"`
	Tiers       []vault.Tier  `json:"tiers"`
	Multipliers []uint32      `json:"multipliers"`
}

// StakingRequest toggles acceptance of new stakes.
type StakingRequest struct {
	Caller    vault.Address `json:"caller"`
	Permitted bool          `json:"permitted"`
}

// RewardAssetRequest rewires the asset claims pay out in.
type RewardAssetRequest struct {
	Caller  vault.Address `json:"caller"`
	Address vault.Address `json:"address"`
}

// SweepRequest moves held base asset to the caller.
type SweepRequest struct {
	Caller vault.Address         `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func (a *Admin) handleSetMultipliers(w http.ResponseWriter, req *http.Request) error {
	var body MultipliersRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := a.vault.SetMultipliers(body.Caller, body.Tiers, body.Multipliers); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"updated": true})
}

func (a *Admin) handleSetStaking(w http.ResponseWriter, req *http.Request) error {
	var body StakingRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := a.vault.SetStakingPermitted(body.Caller, body.Permitted); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"updated": true})
}

func (a *Admin) handleSetRewardAsset(w http.ResponseWriter, req *http.Request) error {
	var body RewardAssetRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := a.vault.SetRewardAsset(body.Caller, body.Address); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"updated": true})
}

func (a *Admin) handleSweep(w http.ResponseWriter, req *http.Request) error {
	var body SweepRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := a.vault.Sweep(body.Caller, (*big.Int)(body.Amount)); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"swept": true})
}

func (a *Admin) handleGetConfig(w http.ResponseWriter, req *http.Request) error {
	multipliers, permitted, asset, err := a.vault.Config()
	if err != nil {
		return err
	}
	presented := make(map[string]uint32, len(multipliers))
	for tier, m := range multipliers {
		presented[tier.String()] = m
	}
	return utils.WriteJSON(w, utils.M{
		"multipliers":      presented,
		"stakingPermitted": permitted,
		"rewardAsset":      asset,
	})
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/config").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetConfig))
	sub.Path("/multipliers").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleSetMultipliers))
	sub.Path("/staking").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleSetStaking))
	sub.Path("/reward-asset").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleSetRewardAsset))
	sub.Path("/sweep").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleSweep))
}
