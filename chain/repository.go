// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/cache"
	"github.com/scrapyard/scrapmaster/co"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

const (
	summaryStoreName = "chain.sum"   // for block summaries keyed by number
	bodyStoreName    = "chain.body"  // for txs, receipts and tx metadata
	propStoreName    = "chain.props" // for property-named values such as best block
)

var (
	errNotFound = errors.New("not found")
	logger      = log.WithContext("pkg", "chain")
)

type txEntry struct {
	tx   *tx.Transaction
	meta *TxMeta
}

// Repository stores block summaries, txs and receipts.
//
// It's thread-safe.
type Repository struct {
	db           kv.Store
	summaryStore kv.Store
	bodyStore    kv.Store
	propStore    kv.Store

	genesis     *Block
	bestSummary atomic.Pointer[BlockSummary]
	tick        co.Signal
	writeLock   sync.Mutex

	caches struct {
		summaries *cache.LRU
		txs       *cache.LRU
		receipts  *cache.LRU
	}
}

// NewRepository create an instance of repository.
// The genesis block is saved on first open, and verified against the stored one afterwards.
func NewRepository(db kv.Store, genesis *Block) (*Repository, error) {
	if genesis.Header().Number() != 0 {
		return nil, errors.New("genesis number != 0")
	}
	if len(genesis.Transactions()) != 0 {
		return nil, errors.New("genesis block should not have transactions")
	}

	repo := &Repository{
		db:           db,
		summaryStore: kv.Bucket(summaryStoreName).NewStore(db),
		bodyStore:    kv.Bucket(bodyStoreName).NewStore(db),
		propStore:    kv.Bucket(propStoreName).NewStore(db),
		genesis:      genesis,
	}
	repo.caches.summaries, _ = cache.NewLRU("summaries", 512)
	repo.caches.txs, _ = cache.NewLRU("txs", 2048)
	repo.caches.receipts, _ = cache.NewLRU("receipts", 2048)

	bestNum, err := loadBestNumber(repo.propStore)
	if err != nil {
		if !repo.propStore.IsNotFound(err) {
			return nil, err
		}
		summary, err := repo.saveBlock(genesis, nil)
		if err != nil {
			return nil, err
		}
		repo.bestSummary.Store(summary)
		return repo, nil
	}

	existing, err := repo.GetBlockSummary(0)
	if err != nil {
		return nil, errors.Wrap(err, "get existing genesis")
	}
	if existing.Header.ID() != genesis.Header().ID() {
		return nil, errors.New("genesis mismatch")
	}
	summary, err := repo.GetBlockSummary(bestNum)
	if err != nil {
		return nil, errors.Wrap(err, "get best block")
	}
	repo.bestSummary.Store(summary)
	metricBestBlock().Set(int64(bestNum))
	return repo, nil
}

// GenesisBlock returns genesis block.
func (r *Repository) GenesisBlock() *Block {
	return r.genesis
}

// BestBlockSummary returns the summary of the newest block.
func (r *Repository) BestBlockSummary() *BlockSummary {
	return r.bestSummary.Load()
}

// NewTicker create a signal Waiter to receive events when a block is added.
func (r *Repository) NewTicker() co.Waiter {
	return r.tick.NewWaiter()
}

// IsNotFound returns if the error means not found.
func (r *Repository) IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound || r.db.IsNotFound(errors.Cause(err))
}

// AddBlock saves a block with its receipts, and makes it the best block.
// The block must extend the current best block.
func (r *Repository) AddBlock(newBlock *Block, receipts tx.Receipts) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	header := newBlock.Header()
	best := r.BestBlockSummary()
	if header.ParentID() != best.Header.ID() {
		return errors.Errorf("parent mismatch: want %v, got %v", best.Header.ID(), header.ParentID())
	}
	if header.Number() != best.Header.Number()+1 {
		return errors.Errorf("number mismatch: want %v, got %v", best.Header.Number()+1, header.Number())
	}
	if len(receipts) != len(newBlock.txs) {
		return errors.Errorf("receipts count mismatch: want %v, got %v", len(newBlock.txs), len(receipts))
	}

	summary, err := r.saveBlock(newBlock, receipts)
	if err != nil {
		return err
	}
	r.bestSummary.Store(summary)
	r.tick.Broadcast()

	logger.Debug("block added", "number", header.Number(), "id", header.ID(), "txs", len(newBlock.txs))
	return nil
}

func (r *Repository) saveBlock(block *Block, receipts tx.Receipts) (*BlockSummary, error) {
	var (
		header        = block.Header()
		num           = header.Number()
		batch         = r.db.NewBatch()
		summaryPutter = kv.Bucket(summaryStoreName).NewPutter(batch)
		bodyPutter    = kv.Bucket(bodyStoreName).NewPutter(batch)
		propPutter    = kv.Bucket(propStoreName).NewPutter(batch)
		txIDs         = []scrap.Bytes32{}
	)

	for i, trx := range block.txs {
		txid := trx.ID()
		txIDs = append(txIDs, txid)
		meta := &TxMeta{
			BlockNumber: num,
			Index:       uint64(i),
			Reverted:    receipts[i].Reverted,
		}
		if err := saveRLP(bodyPutter, txKey(txid, txFlag), trx); err != nil {
			return nil, err
		}
		if err := saveRLP(bodyPutter, txKey(txid, metaFlag), meta); err != nil {
			return nil, err
		}
		if err := saveRLP(bodyPutter, txKey(txid, receiptFlag), receipts[i]); err != nil {
			return nil, err
		}
	}

	summary := &BlockSummary{Header: header, Txs: txIDs}
	if err := saveBlockSummary(summaryPutter, summary); err != nil {
		return nil, err
	}
	if err := saveBestNumber(propPutter, num); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}

	for i, trx := range block.txs {
		r.caches.txs.Add(txIDs[i], &txEntry{trx, &TxMeta{num, uint64(i), receipts[i].Reverted}})
		r.caches.receipts.Add(txIDs[i], receipts[i])
	}
	r.caches.summaries.Add(num, summary)

	metricBestBlock().Set(int64(num))
	metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "write", "target": "db"})
	return summary, nil
}

// GetBlockSummary get block summary by block number.
func (r *Repository) GetBlockSummary(num uint32) (*BlockSummary, error) {
	cached, err := r.caches.summaries.GetOrLoad(num, func() (any, error) {
		metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "db"})
		return loadBlockSummary(r.summaryStore, num)
	})
	if err != nil {
		return nil, err
	}
	return cached.(*BlockSummary), nil
}

// GetBlockSummaryByID get block summary by block id.
func (r *Repository) GetBlockSummaryByID(id scrap.Bytes32) (*BlockSummary, error) {
	summary, err := r.GetBlockSummary(Number(id))
	if err != nil {
		return nil, err
	}
	if summary.Header.ID() != id {
		return nil, errNotFound
	}
	return summary, nil
}

// GetBlock get block by number.
func (r *Repository) GetBlock(num uint32) (*Block, error) {
	summary, err := r.GetBlockSummary(num)
	if err != nil {
		return nil, err
	}
	txs := make(tx.Transactions, 0, len(summary.Txs))
	for _, id := range summary.Txs {
		trx, _, err := r.GetTransaction(id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, trx)
	}
	return &Block{header: summary.Header, txs: txs}, nil
}

// GetTransaction returns the transaction with the given id and where it is included.
func (r *Repository) GetTransaction(id scrap.Bytes32) (*tx.Transaction, *TxMeta, error) {
	cached, err := r.caches.txs.GetOrLoad(id, func() (any, error) {
		metricTransactionRepositoryCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "db"})
		trx, err := loadTransaction(r.bodyStore, id)
		if err != nil {
			return nil, err
		}
		meta, err := loadTxMeta(r.bodyStore, id)
		if err != nil {
			return nil, err
		}
		return &txEntry{trx, meta}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	entry := cached.(*txEntry)
	return entry.tx, entry.meta, nil
}

// GetReceipt returns the receipt of the transaction with the given id.
func (r *Repository) GetReceipt(id scrap.Bytes32) (*tx.Receipt, error) {
	cached, err := r.caches.receipts.GetOrLoad(id, func() (any, error) {
		metricTransactionRepositoryCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "db"})
		return loadReceipt(r.bodyStore, id)
	})
	if err != nil {
		return nil, err
	}
	return cached.(*tx.Receipt), nil
}

// GetBlockReceipts returns all receipts of the block in order.
func (r *Repository) GetBlockReceipts(num uint32) (tx.Receipts, error) {
	summary, err := r.GetBlockSummary(num)
	if err != nil {
		return nil, err
	}
	receipts := make(tx.Receipts, 0, len(summary.Txs))
	for _, id := range summary.Txs {
		receipt, err := r.GetReceipt(id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
