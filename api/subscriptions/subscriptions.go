// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/stakevault/stakevault/api/utils"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/node"
)

const (
	pingPeriod   = 2 * time.Second
	writeTimeout = 10 * time.Second
)

var logger = log.WithContext("pkg", "subscriptions")

type Subscriptions struct {
	vault    *node.Vault
	upgrader *websocket.Upgrader
	done     chan struct{}
}

func New(vault *node.Vault) *Subscriptions {
	return &Subscriptions{
		vault: vault,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		done: make(chan struct{}),
	}
}

// Close stops all running subscriptions.
func (s *Subscriptions) Close() {
	close(s.done)
}

func (s *Subscriptions) handleEvents(w http.ResponseWriter, req *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already replied
		logger.Debug("upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	feed, cancel := s.vault.SubscribeEvents()
	defer cancel()

	closed := make(chan struct{})
	// reader detects the client going away
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("failed to write event", "error", err)
				return nil
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-s.done:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "service shutting down"))
			return nil
		}
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleEvents))
}
