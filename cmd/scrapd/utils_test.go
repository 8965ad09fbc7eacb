// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/genesis"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/lvldb"
)

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis("")
	require.NoError(t, err)
	assert.Equal(t, genesis.NewDevnet().ID(), gene.ID())

	data, err := genesis.DevConfig().Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))

	custom, err := selectGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", custom.Name())
	assert.Equal(t, gene.ID(), custom.ID())

	_, err = selectGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMakeInstanceDir(t *testing.T) {
	gene := genesis.NewDevnet()
	dir, err := makeInstanceDir(t.TempDir(), gene)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	_, err = makeInstanceDir("", gene)
	assert.Error(t, err)
}

func TestInitChain(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	gene := genesis.NewDevnet()
	stateDB := kv.Bucket(stateBucket).NewStore(db)

	empty, err := isEmptyStore(stateDB)
	require.NoError(t, err)
	assert.True(t, empty)

	repo, err := initChain(gene, db, logDB)
	require.NoError(t, err)
	assert.Equal(t, gene.ID(), repo.GenesisBlock().Header().ID())

	empty, err = isEmptyStore(stateDB)
	require.NoError(t, err)
	assert.False(t, empty)

	events, err := logDB.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	// reopening neither rewrites state nor duplicates genesis logs
	repo, err = initChain(gene, db, logDB)
	require.NoError(t, err)
	assert.Equal(t, gene.ID(), repo.BestBlockSummary().Header.ID())

	again, err := logDB.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, again, len(events))
}

func TestInitChainGenesisMismatch(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	_, err = initChain(genesis.NewDevnet(), db, logDB)
	require.NoError(t, err)

	cfg := genesis.DevConfig()
	cfg.LaunchTime++
	other, err := genesis.New("other", cfg)
	require.NoError(t, err)

	_, err = initChain(other, db, logDB)
	assert.Error(t, err)
}

func TestNewLogHandler(t *testing.T) {
	var buf bytes.Buffer
	lvl := &slog.LevelVar{}
	lvl.Set(slog.LevelWarn)

	h := newLogHandler(&buf, lvl, true, false)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	h = newLogHandler(&buf, lvl, false, false)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.GreaterOrEqual(t, normalizeCacheSize(1), 1)
	assert.LessOrEqual(t, normalizeCacheSize(1<<30), 1<<30)
}
