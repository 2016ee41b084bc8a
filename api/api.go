// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stakevault/stakevault/api/accounts"
	"github.com/stakevault/stakevault/api/admin"
	"github.com/stakevault/stakevault/api/claims"
	"github.com/stakevault/stakevault/api/events"
	"github.com/stakevault/stakevault/api/stakes"
	"github.com/stakevault/stakevault/api/subscriptions"
	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/metrics"
	"github.com/stakevault/stakevault/node"
)

// Options tunes the api surface.
type Options struct {
	AllowedOrigins string
	LogsLimit      uint64
	EnableMetrics  bool
}

// New return api router.
func New(vault *node.Vault, logDB *logdb.LogDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	logsLimit := opts.LogsLimit
	if logsLimit == 0 {
		logsLimit = 1000
	}

	router := mux.NewRouter()

	stakes.New(vault).Mount(router, "/stakes")
	claims.New(vault).Mount(router, "/claims")
	accounts.New(vault).Mount(router, "/accounts")
	admin.New(vault).Mount(router, "/admin")
	if logDB != nil {
		events.New(logDB, logsLimit).Mount(router, "/events")
	}
	subs := subscriptions.New(vault)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Path("/metrics").Methods(http.MethodGet).Handler(metrics.HTTPHandler())
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler.ServeHTTP, subs.Close
}
