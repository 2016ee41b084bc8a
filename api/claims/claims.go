// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package claims

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

type Claims struct {
	vault *node.Vault
}

func New(vault *node.Vault) *Claims {
	return &Claims{vault}
}

// ClaimRequest pays out vested rewards to the caller.
type ClaimRequest struct {
	Caller vault.Address         `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func (c *Claims) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	if err := c.vault.Claim(body.Caller, (*big.Int)(body.Amount)); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"claimed": true})
}

func (c *Claims) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(c.handleClaim))
}
