// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scrapyard/scrapmaster/admin"
	"github.com/scrapyard/scrapmaster/api"
	"github.com/scrapyard/scrapmaster/cache"
	"github.com/scrapyard/scrapmaster/health"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/metrics"
	"github.com/scrapyard/scrapmaster/solo"
	"github.com/scrapyard/scrapmaster/txpool"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "scrapd")
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
		Name:      "scrapd",
		Usage:     "Standalone node running the reward farm and fee recycler",
		Copyright: "2025 The Scrapyard Developers",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			skipLogsFlag,
			enableAPILogsFlag,
			verifyLogsFlag,
			blockIntervalFlag,
			txPoolLimitFlag,
			cacheFlag,
			skipNTPFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "genesis-dump",
				Usage:  "print the genesis config as yaml",
				Flags:  []cli.Flag{genesisFlag},
				Action: dumpGenesisAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func dumpGenesisAction(ctx *cli.Context) error {
	gene, err := selectGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}
	data, err := gene.Config().Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	gene, err := selectGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
	)
	if ctx.Bool(persistFlag.Name) {
		if instanceDir, err = makeInstanceDir(ctx.String(dataDirFlag.Name), gene); err != nil {
			return err
		}
		if mainDB, err = openMainDB(instanceDir, ctx.Int(cacheFlag.Name)); err != nil {
			return err
		}
		if logDB, err = openLogDB(instanceDir); err != nil {
			mainDB.Close()
			return err
		}
	} else {
		instanceDir = "Memory"
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			mainDB.Close()
			return err
		}
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	repo, err := initChain(gene, mainDB, logDB)
	if err != nil {
		return err
	}
	if err := syncLogDB(exitSignal, repo, logDB, ctx.Bool(verifyLogsFlag.Name), os.Stdout); err != nil {
		return err
	}
	stateDB := cache.NewStore("state", kv.Bucket(stateBucket).NewStore(mainDB), stateCacheSizeMB)

	txPool := txpool.New(repo, txpool.Options{
		Limit:       ctx.Int(txPoolLimitFlag.Name),
		MaxLifetime: txpool.DefaultOptions.MaxLifetime,
	})
	defer func() { logger.Info("closing tx pool..."); txPool.Close() }()

	blockInterval := ctx.Duration(blockIntervalFlag.Name)
	node, err := solo.New(repo, stateDB, logDB, txPool, solo.Options{
		BlockInterval: blockInterval,
		SkipNTP:       ctx.Bool(skipNTPFlag.Name),
	})
	if err != nil {
		return err
	}

	adminURL := ""
	if addr := ctx.String(adminAddrFlag.Name); addr != "" {
		url, closeAdmin, err := admin.StartServer(addr, logLevel, health.New(repo, blockInterval))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closeAdmin() }()
		adminURL = url
	}

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	handler, closeAPI := api.New(repo, stateDB, txPool, logDB, node, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		SkipLogs:        ctx.Bool(skipLogsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   enableMetrics,
	})
	defer closeAPI()

	apiListener, apiURL, err := listen(ctx.String(apiAddrFlag.Name))
	if err != nil {
		return err
	}
	servers := []*http.Server{newHTTPServer(handler)}
	listeners := []func() error{func() error { return servers[0].Serve(apiListener) }}

	var metricsURL string
	if enableMetrics {
		metricsListener, url, err := listen(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			apiListener.Close()
			return err
		}
		metricsURL = url + "metrics"
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler())
		srv := newHTTPServer(mux)
		servers = append(servers, srv)
		listeners = append(listeners, func() error { return srv.Serve(metricsListener) })
	}

	printStartupMessage(gene, repo, instanceDir, apiURL, metricsURL, adminURL)

	group, groupCtx := errgroup.WithContext(exitSignal)
	for _, serve := range listeners {
		group.Go(func() error {
			if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		return node.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("stopping servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown", "err", err)
			}
		}
		return nil
	})
	return group.Wait()
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
