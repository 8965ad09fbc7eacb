// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/genesis"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/solo"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/txpool"
	"github.com/scrapyard/scrapmaster/xenv"
)

type testNode struct {
	repo    *chain.Repository
	stateDB kv.Store
	logDB   *logdb.LogDB
	pool    *txpool.TxPool
	solo    *solo.Solo
}

func newTestNode(t *testing.T, maxTxs int) *testNode {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stateDB := kv.Bucket("state.").NewStore(db)
	gene, _, err := genesis.NewDevnet().Build(state.New(stateDB))
	require.NoError(t, err)
	repo, err := chain.NewRepository(db, gene)
	require.NoError(t, err)

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	pool := txpool.New(repo, txpool.Options{Limit: 100, MaxLifetime: time.Hour})
	t.Cleanup(pool.Close)

	s, err := solo.New(repo, stateDB, logDB, pool, solo.Options{SkipNTP: true, MaxTxsPerBlock: maxTxs})
	require.NoError(t, err)
	return &testNode{repo, stateDB, logDB, pool, s}
}

func (n *testNode) balance(t *testing.T, symbol string, owner scrap.Address) *big.Int {
	env := xenv.New(state.New(n.stateDB), &xenv.BlockContext{}, nil, scrap.Address{}, nil)
	bal, err := token.New(builtin.TokenAddress(symbol), env).BalanceOf(owner)
	require.NoError(t, err)
	return bal
}

func transfer(from, to scrap.Address, symbol string, amount string, nonce uint64) *tx.Transaction {
	return tx.New(from, nonce, tx.NewClause(builtin.TokenAddress(symbol), "transfer").
		MustWithArgs(map[string]any{"to": to, "amount": amount}))
}

func TestPack(t *testing.T) {
	node := newTestNode(t, 0)
	accs := genesis.DevAccounts()
	alice, bob := accs[1], accs[2]

	ok := transfer(alice, bob, "USDT", "1000", 1)
	reverted := transfer(bob, alice, "USDT", "0xd3c21bcecceda10000000", 2) // more than bob owns
	deposit := tx.New(alice, 3,
		tx.NewClause(builtin.TokenAddress("WVET"), "approve").MustWithArgs(map[string]any{"spender": builtin.Farm.Address, "amount": "500"}),
		tx.NewClause(builtin.Farm.Address, "deposit").MustWithArgs(map[string]any{"pid": 0, "amount": "500", "harvest": true}),
	)
	for _, trx := range []*tx.Transaction{ok, reverted, deposit} {
		require.NoError(t, node.pool.Add(trx))
	}

	ch := make(chan *solo.BlockEvent, 1)
	sub := node.solo.SubscribeBlockEvent(ch)
	defer sub.Unsubscribe()

	blk, err := node.solo.Pack(genesis.DevLaunchTime + 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), blk.Header().Number())
	assert.Equal(t, uint64(genesis.DevLaunchTime+10), blk.Header().Timestamp())
	assert.Len(t, blk.Transactions(), 3)
	assert.Equal(t, 0, node.pool.Len())
	assert.Equal(t, blk.Header().ID(), node.repo.BestBlockSummary().Header.ID())

	select {
	case ev := <-ch:
		assert.Equal(t, blk.Header().ID(), ev.Block.Header().ID())
		require.Len(t, ev.Receipts, 3)
		assert.False(t, ev.Receipts[0].Reverted)
		assert.True(t, ev.Receipts[1].Reverted)
		assert.False(t, ev.Receipts[2].Reverted)
	case <-time.After(time.Second):
		t.Fatal("no block event")
	}

	receipt, err := node.repo.GetReceipt(reverted.ID())
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Contains(t, receipt.Error, "clause #0")

	million := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	assert.Equal(t, new(big.Int).Add(million, big.NewInt(1000)), node.balance(t, "USDT", bob))
	assert.Equal(t, new(big.Int).Sub(million, big.NewInt(500)), node.balance(t, "WVET", alice))
	assert.Equal(t, big.NewInt(500), node.balance(t, "WVET", builtin.Farm.Address))

	deposits, err := node.logDB.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Address: &builtin.Farm.Address, Name: "Deposit"}},
	})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, deposit.ID(), deposits[0].TxID)
	assert.Equal(t, uint32(1), deposits[0].BlockNumber)

	// an empty block, with the time adjusted past the parent
	blk2, err := node.solo.Pack(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), blk2.Header().Number())
	assert.Equal(t, blk.Header().Timestamp()+1, blk2.Header().Timestamp())
	assert.Empty(t, blk2.Transactions())
}

func TestPackDropsKnownAndPostponesOverflow(t *testing.T) {
	node := newTestNode(t, 1)
	accs := genesis.DevAccounts()

	first := transfer(accs[1], accs[2], "DAI", "1", 1)
	second := transfer(accs[1], accs[2], "DAI", "2", 2)
	require.NoError(t, node.pool.Add(first))
	require.NoError(t, node.pool.Add(second))

	blk, err := node.solo.Pack(genesis.DevLaunchTime + 10)
	require.NoError(t, err)
	require.Len(t, blk.Transactions(), 1)
	assert.Equal(t, first.ID(), blk.Transactions()[0].ID())

	exes := node.pool.Executables()
	require.Len(t, exes, 1)
	assert.Equal(t, second.ID(), exes[0].ID())

	blk, err = node.solo.Pack(genesis.DevLaunchTime + 20)
	require.NoError(t, err)
	require.Len(t, blk.Transactions(), 1)
	assert.Equal(t, second.ID(), blk.Transactions()[0].ID())
	assert.Equal(t, 0, node.pool.Len())
}

func TestRunStops(t *testing.T) {
	node := newTestNode(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- node.solo.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("solo did not stop")
	}
}
