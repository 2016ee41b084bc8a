// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/node"
)

const (
	adminHex = "0x2000000000000000000000000000000000000001"
	aliceHex = "0x3000000000000000000000000000000000000001"
)

const lockup90 = 7_776_000

type testServer struct {
	*httptest.Server
	clock *uint64
}

func newTestServer(t *testing.T) *testServer {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(logDB.Close)

	now := uint64(100)
	gene := &node.Genesis{
		Vault:       "0x1000000000000000000000000000000000000001",
		BaseAsset:   "0x1000000000000000000000000000000000000002",
		RewardAsset: "0x1000000000000000000000000000000000000003",
		Admins:      []string{adminHex},
		Allocations: []node.Allocation{{Address: aliceHex, Balance: "1000000"}},
		RewardPool:  "10000000",
	}
	vault, err := node.New(store, logDB, gene, node.Options{Now: func() uint64 { return now }})
	require.NoError(t, err)

	handler, closer := New(vault, logDB, Options{AllowedOrigins: "*"})
	t.Cleanup(closer)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, clock: &now}
}

func (s *testServer) post(t *testing.T, path string, body any) (int, []byte) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, payload
}

func (s *testServer) get(t *testing.T, path string) (int, []byte) {
	res, err := http.Get(s.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, payload
}

func TestStakeLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.post(t, "/stakes", map[string]any{
		"caller": aliceHex,
		"tier":   "three-months",
		"amount": "1000000",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, uint64(1), created.ID)

	status, body = srv.get(t, "/stakes/1")
	require.Equal(t, http.StatusOK, status)
	var stake struct {
		Owner     string `json:"owner"`
		Tier      string `json:"tier"`
		Withdrawn bool   `json:"withdrawn"`
	}
	require.NoError(t, json.Unmarshal(body, &stake))
	assert.Equal(t, aliceHex, stake.Owner)
	assert.Equal(t, "three-months", stake.Tier)
	assert.False(t, stake.Withdrawn)

	*srv.clock = 100 + lockup90

	status, body = srv.post(t, "/claims", map[string]any{
		"caller": aliceHex,
		"amount": "1000000",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = srv.post(t, "/stakes/1/withdraw", map[string]any{"caller": aliceHex})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = srv.get(t, fmt.Sprintf("/accounts/%s/balance", aliceHex))
	require.Equal(t, http.StatusOK, status)
	var balance struct {
		Base   string `json:"base"`
		Reward string `json:"reward"`
	}
	require.NoError(t, json.Unmarshal(body, &balance))
	assert.Equal(t, "0xf4240", balance.Base)
	assert.Equal(t, "0xf4240", balance.Reward)

	status, body = srv.get(t, "/events?owner="+aliceHex)
	require.Equal(t, http.StatusOK, status)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(body, &events))
	assert.Len(t, events, 4)
}

func TestFailureStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	// input fault: zero amount
	status, _ := srv.post(t, "/stakes", map[string]any{
		"caller": aliceHex,
		"tier":   "three-months",
		"amount": "0",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// state fault: withdrawing an unknown stake
	status, _ = srv.post(t, "/stakes/42/withdraw", map[string]any{"caller": aliceHex})
	assert.Equal(t, http.StatusBadRequest, status)

	// auth fault: non-admin toggling staking
	status, _ = srv.post(t, "/admin/staking", map[string]any{
		"caller":    aliceHex,
		"permitted": false,
	})
	assert.Equal(t, http.StatusForbidden, status)

	// transfer fault: deposit exceeding the balance
	status, _ = srv.post(t, "/stakes", map[string]any{
		"caller": aliceHex,
		"tier":   "three-months",
		"amount": "2000000",
	})
	assert.Equal(t, http.StatusConflict, status)

	// strict body parsing
	status, _ = srv.post(t, "/stakes", map[string]any{
		"caller":  aliceHex,
		"tier":    "three-months",
		"amount":  "100",
		"unknown": true,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.post(t, "/admin/multipliers", map[string]any{
		"caller":      adminHex,
		"tiers":       []string{"one-year"},
		"multipliers": []uint32{25000},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = srv.get(t, "/admin/config")
	require.Equal(t, http.StatusOK, status)
	var config struct {
		Multipliers      map[string]uint32 `json:"multipliers"`
		StakingPermitted bool              `json:"stakingPermitted"`
	}
	require.NoError(t, json.Unmarshal(body, &config))
	assert.Equal(t, uint32(25000), config.Multipliers["one-year"])
	assert.True(t, config.StakingPermitted)
}
