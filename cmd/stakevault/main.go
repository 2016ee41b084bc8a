// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakevault/stakevault/api"
	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/logdb"
	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/metrics"
	"github.com/stakevault/stakevault/node"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeVault",
		Usage:     "Time-locked value staking service",
		Copyright: "2025 The StakeVault developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			verbosityFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := loadGenesis(ctx)
	if err != nil {
		return err
	}

	mainDB, logDB, err := openDatabases(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	vault, err := node.New(mainDB, logDB, gene, node.Options{})
	if err != nil {
		return err
	}

	handler, closeAPI := api.New(vault, logDB, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		LogsLimit:      ctx.Uint64(apiLogsLimitFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	})
	defer closeAPI()

	srv, srvURL, err := startAPIServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("stopping API server...")
		srv.Shutdown(context.Background())
	}()

	logger.Info("service started", "version", fullVersion(), "api", srvURL)

	<-handleExitSignal().Done()
	return nil
}

func loadGenesis(ctx *cli.Context) (*node.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return nil, fmt.Errorf("flag --%s is required", genesisFlag.Name)
	}
	return node.LoadGenesis(path)
}

func openDatabases(ctx *cli.Context) (kv.GetPutCloser, *logdb.LogDB, error) {
	if ctx.Bool(memFlag.Name) {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			return nil, nil, err
		}
		logDB, err := logdb.NewMem()
		if err != nil {
			return nil, nil, err
		}
		return mainDB, logDB, nil
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, err
	}
	mainDB, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		return nil, nil, err
	}
	logDB, err := logdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		mainDB.Close()
		return nil, nil, err
	}
	return mainDB, logDB, nil
}

func startAPIServer(addr string, handler http.HandlerFunc) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen API addr [%v]: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server stopped", "error", err)
		}
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}
