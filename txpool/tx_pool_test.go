// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

var (
	alice = scrap.BytesToAddress([]byte("alice"))
	token = scrap.BytesToAddress([]byte("token"))
)

func newTx(nonce uint64) *tx.Transaction {
	return tx.New(alice, nonce, tx.NewClause(token, "approve").MustWithArgs(map[string]any{"spender": alice, "amount": "1"}))
}

func newPool(t *testing.T, limit int) (*TxPool, *chain.Repository) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := chain.NewRepository(db, chain.NewBlock(chain.HeaderParams{Timestamp: 1}, nil))
	require.NoError(t, err)
	pool := New(repo, Options{Limit: limit, MaxLifetime: time.Hour})
	t.Cleanup(pool.Close)
	return pool, repo
}

func TestAddFIFO(t *testing.T) {
	pool, _ := newPool(t, 10)

	txs := tx.Transactions{newTx(3), newTx(1), newTx(2)}
	for _, trx := range txs {
		require.NoError(t, pool.Add(trx))
	}
	assert.Equal(t, 3, pool.Len())

	exes := pool.Executables()
	require.Len(t, exes, 3)
	for i := range txs {
		assert.Equal(t, txs[i].ID(), exes[i].ID())
	}

	assert.True(t, IsErrKnownTx(pool.Add(newTx(1))))
	assert.NotNil(t, pool.Get(txs[0].ID()))

	assert.True(t, pool.Remove(txs[1].ID()))
	assert.False(t, pool.Remove(txs[1].ID()))
	exes = pool.Executables()
	require.Len(t, exes, 2)
	assert.Equal(t, txs[0].ID(), exes[0].ID())
	assert.Equal(t, txs[2].ID(), exes[1].ID())
	assert.Nil(t, pool.Get(txs[1].ID()))
}

func TestAddRejects(t *testing.T) {
	pool, _ := newPool(t, 2)

	require.NoError(t, pool.Add(newTx(1)))
	require.NoError(t, pool.Add(newTx(2)))
	assert.True(t, IsErrPoolFull(pool.Add(newTx(3))))

	assert.True(t, IsBadTx(pool.Add(tx.New(alice, 4))), "no clauses")
	assert.True(t, IsBadTx(pool.Add(tx.New(scrap.Address{}, 5, tx.NewClause(token, "approve")))))
}

func TestSubscribeTxEvent(t *testing.T) {
	pool, _ := newPool(t, 10)

	ch := make(chan *TxEvent, 1)
	sub := pool.SubscribeTxEvent(ch)
	defer sub.Unsubscribe()

	trx := newTx(1)
	require.NoError(t, pool.Add(trx))
	select {
	case ev := <-ch:
		assert.Equal(t, trx.ID(), ev.Tx.ID())
	case <-time.After(time.Second):
		t.Fatal("no tx event")
	}
}

func TestWash(t *testing.T) {
	pool, repo := newPool(t, 10)

	included, pending := newTx(1), newTx(2)
	require.NoError(t, pool.Add(included))
	require.NoError(t, pool.Add(pending))

	genesis := repo.GenesisBlock().Header()
	blk := chain.NewBlock(chain.HeaderParams{ParentID: genesis.ID(), Number: 1, Timestamp: 11}, tx.Transactions{included})
	require.NoError(t, repo.AddBlock(blk, tx.Receipts{{TxID: included.ID(), BlockNumber: 1}}))

	// the housekeeping loop may get there first
	pool.wash(time.Now().UnixNano())
	exes := pool.Executables()
	require.Len(t, exes, 1)
	assert.Equal(t, pending.ID(), exes[0].ID())

	// an included tx can not come back
	assert.True(t, IsErrKnownTx(pool.Add(included)))

	// expired
	assert.Equal(t, 1, pool.wash(time.Now().Add(2*time.Hour).UnixNano()))
	assert.Equal(t, 0, pool.Len())
}
