// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/utils"
	"github.com/stakevault/stakevault/node"
)

type Stakes struct {
	vault *node.Vault
}

func New(vault *node.Vault) *Stakes {
	return &Stakes{vault}
}

func (s *Stakes) handleCreateStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	id, err := s.vault.Stake(body.Caller, body.Tier, (*big.Int)(body.Amount))
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, &StakeID{ID: id})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	rec, accrued, err := s.vault.GetStake(id)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, convertStake(id, rec, (*math.HexOrDecimal256)(accrued)))
}

func (s *Stakes) handleRestake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var body RestakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	newID, err := s.vault.Restake(body.Caller, id, body.Tier)
	if err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, &StakeID{ID: newID})
}

func (s *Stakes) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var body WithdrawRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.vault.Withdraw(body.Caller, id); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"withdrawn": true})
}

func parseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleCreateStake))
	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{id}/restake").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleRestake))
	sub.Path("/{id}/withdraw").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleWithdraw))
}
