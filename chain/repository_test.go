// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

var (
	alice = scrap.BytesToAddress([]byte("alice"))
	token = scrap.BytesToAddress([]byte("token"))
)

func newGenesis() *Block {
	return NewBlock(HeaderParams{Timestamp: 1700000000, EventCount: 3}, nil)
}

func newTx(nonce uint64) *tx.Transaction {
	return tx.New(alice, nonce, tx.NewClause(token, "transfer").MustWithArgs(map[string]any{"to": alice, "amount": "1"}))
}

func newChild(parent *Header, txs ...*tx.Transaction) (*Block, tx.Receipts) {
	blk := NewBlock(HeaderParams{
		ParentID:  parent.ID(),
		Number:    parent.Number() + 1,
		Timestamp: parent.Timestamp() + 10,
	}, txs)
	receipts := make(tx.Receipts, 0, len(txs))
	for i, trx := range txs {
		receipts = append(receipts, &tx.Receipt{
			TxID:        trx.ID(),
			Origin:      trx.Origin(),
			BlockNumber: parent.Number() + 1,
			Reverted:    i%2 == 1,
			Outputs:     []json.RawMessage{json.RawMessage(`true`)},
		})
	}
	return blk, receipts
}

func TestHeaderID(t *testing.T) {
	genesis := newGenesis()
	blk, _ := newChild(genesis.Header(), newTx(1))

	id := blk.Header().ID()
	assert.Equal(t, uint32(1), Number(id))
	assert.Equal(t, uint32(0), Number(genesis.Header().ID()))
	assert.NotEqual(t, blk.Header().ID(), genesis.Header().ID())
	assert.True(t, genesis.Header().TxsRoot().IsZero())
	assert.False(t, blk.Header().TxsRoot().IsZero())
	assert.Equal(t, uint32(3), genesis.Header().EventCount())
}

func TestRepository(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	genesis := newGenesis()
	repo, err := NewRepository(db, genesis)
	require.NoError(t, err)
	assert.Equal(t, genesis.Header().ID(), repo.BestBlockSummary().Header.ID())

	tx1, tx2 := newTx(1), newTx(2)
	b1, receipts := newChild(genesis.Header(), tx1, tx2)

	ticker := repo.NewTicker()
	require.NoError(t, repo.AddBlock(b1, receipts))
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("no tick on new block")
	}
	assert.Equal(t, b1.Header().ID(), repo.BestBlockSummary().Header.ID())

	summary, err := repo.GetBlockSummary(1)
	require.NoError(t, err)
	assert.Equal(t, []scrap.Bytes32{tx1.ID(), tx2.ID()}, summary.Txs)

	blk, err := repo.GetBlock(1)
	require.NoError(t, err)
	assert.Equal(t, b1.Header().ID(), blk.Header().ID())
	assert.Len(t, blk.Transactions(), 2)

	trx, meta, err := repo.GetTransaction(tx2.ID())
	require.NoError(t, err)
	assert.Equal(t, tx2.ID(), trx.ID())
	assert.Equal(t, TxMeta{BlockNumber: 1, Index: 1, Reverted: true}, *meta)

	receipt, err := repo.GetReceipt(tx1.ID())
	require.NoError(t, err)
	assert.Equal(t, tx1.ID(), receipt.TxID)
	assert.False(t, receipt.Reverted)

	all, err := repo.GetBlockReceipts(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.GetBlockSummaryByID(b1.Header().ID())
	assert.NoError(t, err)
	_, err = repo.GetBlockSummaryByID(scrap.Bytes32{0, 0, 0, 1})
	assert.True(t, repo.IsNotFound(err))
	_, err = repo.GetBlockSummary(2)
	assert.True(t, repo.IsNotFound(err))
	_, _, err = repo.GetTransaction(scrap.Bytes32{1})
	assert.True(t, repo.IsNotFound(err))
}

func TestAddBlockRejectsNonChild(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	genesis := newGenesis()
	repo, err := NewRepository(db, genesis)
	require.NoError(t, err)

	b1, r1 := newChild(genesis.Header())
	require.NoError(t, repo.AddBlock(b1, r1))

	// sibling of b1
	other := NewBlock(HeaderParams{ParentID: genesis.Header().ID(), Number: 1, Timestamp: 99}, nil)
	assert.Error(t, repo.AddBlock(other, nil))

	skipped := NewBlock(HeaderParams{ParentID: b1.Header().ID(), Number: 3}, nil)
	assert.Error(t, repo.AddBlock(skipped, nil))

	b2, _ := newChild(b1.Header(), newTx(1))
	assert.Error(t, repo.AddBlock(b2, nil), "receipts count")
	assert.Equal(t, uint32(1), repo.BestBlockSummary().Header.Number())
}

func TestReopenRepository(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	genesis := newGenesis()
	repo, err := NewRepository(db, genesis)
	require.NoError(t, err)
	b1, r1 := newChild(genesis.Header(), newTx(1))
	require.NoError(t, repo.AddBlock(b1, r1))

	reopened, err := NewRepository(db, newGenesis())
	require.NoError(t, err)
	assert.Equal(t, b1.Header().ID(), reopened.BestBlockSummary().Header.ID())

	_, err = NewRepository(db, NewBlock(HeaderParams{Timestamp: 1}, nil))
	assert.EqualError(t, err, "genesis mismatch")

	_, err = NewRepository(db, b1)
	assert.Error(t, err)
}
