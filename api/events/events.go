// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/api/utils"
	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/vault"
)

type Events struct {
	logDB *logdb.LogDB
	limit uint64
}

// New creates the historical event query surface. limit caps the page size
// of a single query.
func New(logDB *logdb.LogDB, limit uint64) *Events {
	return &Events{logDB, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req, e.limit)
	if err != nil {
		return err
	}
	found, err := e.logDB.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, found)
}

func parseFilter(req *http.Request, maxLimit uint64) (*logdb.EventFilter, error) {
	query := req.URL.Query()
	filter := &logdb.EventFilter{
		Type:  query.Get("type"),
		Order: logdb.ASC,
		Options: &logdb.Options{
			Limit: maxLimit,
		},
	}
	if v := query.Get("owner"); v != "" {
		owner, err := vault.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "owner"))
		}
		filter.Owner = &owner
	}
	if v := query.Get("order"); v != "" {
		switch logdb.Order(v) {
		case logdb.ASC, logdb.DESC:
			filter.Order = logdb.Order(v)
		default:
			return nil, utils.BadRequest(errors.Errorf("order: invalid value %q", v))
		}
	}
	from, err := parseUintQuery(query.Get("from"), "from")
	if err != nil {
		return nil, err
	}
	to, err := parseUintQuery(query.Get("to"), "to")
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		r := &logdb.TimeRange{To: ^uint64(0)}
		if from != nil {
			r.From = *from
		}
		if to != nil {
			r.To = *to
		}
		filter.Range = r
	}
	if v, err := parseUintQuery(query.Get("offset"), "offset"); err != nil {
		return nil, err
	} else if v != nil {
		filter.Options.Offset = *v
	}
	if v, err := parseUintQuery(query.Get("limit"), "limit"); err != nil {
		return nil, err
	} else if v != nil {
		if *v > maxLimit {
			return nil, utils.BadRequest(errors.Errorf("limit: exceeds maximum of %d", maxLimit))
		}
		filter.Options.Limit = *v
	}
	return filter, nil
}

func parseUintQuery(v, name string) (*uint64, error) {
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &parsed, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
