// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/genesis"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
)

const (
	stateBucket      = "state."
	stateCacheSizeMB = 64
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func newLogHandler(w io.Writer, lvl *slog.LevelVar, jsonLogs bool, useColor bool) slog.Handler {
	if jsonLogs {
		return log.JSONHandlerWithLevel(w, lvl)
	}
	return log.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name))))

	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	log.SetDefault(log.NewLogger(newLogHandler(os.Stderr, lvl, ctx.Bool(jsonLogsFlag.Name), useColor)))
	return lvl
}

func selectGenesis(path string) (*genesis.Genesis, error) {
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	cfg, err := genesis.LoadConfig(path)
	if err != nil {
		return nil, errors.Wrap(err, "load genesis config")
	}
	return genesis.New(filepath.Base(path), cfg)
}

func makeInstanceDir(dataDir string, gene *genesis.Genesis) (string, error) {
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

// normalizeCacheSize keeps the leveldb cache within half of the physical memory.
func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "err", err)
		return 500
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

func openMainDB(instanceDir string, cacheMB int) (*lvldb.LevelDB, error) {
	dir := filepath.Join(instanceDir, "main.db")
	cacheMB = normalizeCacheSize(cacheMB)
	fdCache := suggestFDCache()
	logger.Debug("open main database", "cache", cacheMB, "fd-cache", fdCache)

	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func openLogDB(instanceDir string) (*logdb.LogDB, error) {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", dir)
	}
	return db, nil
}

func isEmptyStore(store kv.Store) (bool, error) {
	it := store.Iterate(kv.Range{})
	defer it.Release()
	if it.Next() {
		return false, nil
	}
	return true, it.Error()
}

// initChain opens the repository over db. On a fresh db the genesis state is committed and
// genesis events are written to logDB. Otherwise the genesis is rebuilt on a scratch store,
// only to be checked against the stored one.
func initChain(gene *genesis.Genesis, db kv.Store, logDB *logdb.LogDB) (*chain.Repository, error) {
	stateDB := kv.Bucket(stateBucket).NewStore(db)
	fresh, err := isEmptyStore(stateDB)
	if err != nil {
		return nil, err
	}

	target := stateDB
	if !fresh {
		scratch, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		defer scratch.Close()
		target = scratch
	}

	genesisBlock, genesisEvents, err := gene.Build(state.New(target))
	if err != nil {
		return nil, errors.Wrap(err, "build genesis")
	}

	repo, err := chain.NewRepository(db, genesisBlock)
	if err != nil {
		return nil, errors.Wrap(err, "initialize block chain")
	}

	_, logged, err := logDB.NewestBlock()
	if err != nil {
		return nil, err
	}
	if !logged {
		header := genesisBlock.Header()
		if err := logDB.NewWriter(0, header.Timestamp()).
			Write(scrap.Bytes32{}, scrap.Address{}, genesisEvents).
			Commit(); err != nil {
			return nil, errors.Wrap(err, "write genesis logs")
		}
	}
	return repo, nil
}

func listen(addr string) (net.Listener, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	return listener, "http://" + listener.Addr().String() + "/", nil
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
}

func orDisabled(url string) string {
	if url == "" {
		return "Disabled"
	}
	return url
}

func printStartupMessage(gene *genesis.Genesis, repo *chain.Repository, dataDir, apiURL, metricsURL, adminURL string) {
	bestBlock := repo.BestBlockSummary()

	fmt.Printf(`Starting %v
    Network      [ %v %v ]
    Best block   [ %v #%v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		"Scrapmaster",
		gene.ID(), gene.Name(),
		bestBlock.Header.ID(), bestBlock.Header.Number(),
		dataDir,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

// copy from go-ethereum
func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "io.scrapyard.scrapmaster")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "io.scrapyard.scrapmaster")
		}
		return filepath.Join(home, ".io.scrapyard.scrapmaster")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
