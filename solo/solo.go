// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/co"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/metrics"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

var (
	logger = log.WithContext("pkg", "solo")

	metricBlockPackDuration = metrics.LazyLoadHistogram("block_pack_duration_ms", metrics.Bucket10s)
	metricPackedTxs         = metrics.LazyLoadCounterVec("block_packed_txs_count", []string{"result"})
)

// DefaultBlockInterval is the interval between two blocks.
const DefaultBlockInterval = 10 * time.Second

// Options options for solo.
type Options struct {
	BlockInterval  time.Duration
	MaxTxsPerBlock int
	SkipNTP        bool
	NTPServer      string
}

// TxPool is the source of txs to pack.
type TxPool interface {
	Executables() tx.Transactions
	Remove(id scrap.Bytes32) bool
}

// BlockEvent is posted when a block is added.
type BlockEvent struct {
	Block    *chain.Block
	Receipts tx.Receipts
}

// Solo is the block producer of a standalone node.
type Solo struct {
	repo    *chain.Repository
	packer  *Packer
	logDB   *logdb.LogDB
	txPool  TxPool
	options Options

	packLock  sync.Mutex
	blockFeed event.Feed
	scope     event.SubscriptionScope
}

// New returns Solo instance.
// Events of blocks beyond the best block, left by an interrupted pack, are dropped from logDB.
func New(repo *chain.Repository, stateDB kv.Store, logDB *logdb.LogDB, txPool TxPool, options Options) (*Solo, error) {
	if options.BlockInterval <= 0 {
		options.BlockInterval = DefaultBlockInterval
	}
	if options.NTPServer == "" {
		options.NTPServer = "pool.ntp.org"
	}

	best := repo.BestBlockSummary().Header.Number()
	newest, ok, err := logDB.NewestBlock()
	if err != nil {
		return nil, errors.Wrap(err, "newest logged block")
	}
	if ok && newest > best {
		logger.Warn("logdb ahead of chain, truncating", "logdb", newest, "best", best)
		if err := logDB.Truncate(best + 1); err != nil {
			return nil, errors.Wrap(err, "truncate logdb")
		}
	}

	return &Solo{
		repo:    repo,
		packer:  NewPacker(repo, stateDB, options.MaxTxsPerBlock),
		logDB:   logDB,
		txPool:  txPool,
		options: options,
	}, nil
}

// SubscribeBlockEvent receivers will receive every added block with its receipts.
func (s *Solo) SubscribeBlockEvent(ch chan *BlockEvent) event.Subscription {
	return s.scope.Track(s.blockFeed.Subscribe(ch))
}

// Run packs a block every BlockInterval until ctx is done.
func (s *Solo) Run(ctx context.Context) error {
	goes := &co.Goes{}
	defer func() {
		goes.Wait()
		s.scope.Close()
	}()

	if !s.options.SkipNTP {
		goes.Go(func() { s.checkClockOffset() })
	}

	logger.Info("prepared to pack block", "interval", s.options.BlockInterval)
	ticker := time.NewTicker(s.options.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping interval packing service......")
			return nil
		case now := <-ticker.C:
			if _, err := s.Pack(uint64(now.Unix())); err != nil {
				logger.Error("failed to pack block", "err", err)
			}
		}
	}
}

func (s *Solo) checkClockOffset() {
	resp, err := ntp.Query(s.options.NTPServer)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > s.options.BlockInterval/2 || -resp.ClockOffset > s.options.BlockInterval/2 {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

// Pack packs the executable txs of the pool into a new block on top of the best block.
// The block time is now, or one second past the parent when now is not later.
func (s *Solo) Pack(now uint64) (*chain.Block, error) {
	s.packLock.Lock()
	defer s.packLock.Unlock()

	startTime := time.Now()
	parent := s.repo.BestBlockSummary().Header
	timestamp := now
	if timestamp <= parent.Timestamp() {
		timestamp = parent.Timestamp() + 1
	}

	adopt, pack := s.packer.Prepare(parent, timestamp)
loop:
	for _, trx := range s.txPool.Executables() {
		err := adopt(trx)
		switch {
		case err == nil:
			metricPackedTxs().AddWithLabel(1, map[string]string{"result": "packed"})
		case IsBlockFull(err):
			metricPackedTxs().AddWithLabel(1, map[string]string{"result": "postponed"})
			break loop
		case IsBadTx(err), IsKnownTx(err):
			logger.Debug("tx dropped", "id", trx.ID(), "err", err)
			metricPackedTxs().AddWithLabel(1, map[string]string{"result": "dropped"})
			s.txPool.Remove(trx.ID())
		default:
			return nil, err
		}
	}

	newBlock, stage, receipts, err := pack()
	if err != nil {
		return nil, err
	}

	if err := stage.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit state")
	}

	header := newBlock.Header()
	w := s.logDB.NewWriter(header.Number(), header.Timestamp())
	for _, receipt := range receipts {
		w.Write(receipt.TxID, receipt.Origin, receipt.Events)
	}
	if err := w.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit logs")
	}

	if err := s.repo.AddBlock(newBlock, receipts); err != nil {
		return nil, errors.Wrap(err, "add block")
	}
	for _, trx := range newBlock.Transactions() {
		s.txPool.Remove(trx.ID())
	}

	elapsed := time.Since(startTime)
	metricBlockPackDuration().Observe(elapsed.Milliseconds())
	logger.Info("📦 new block packed",
		"txs", len(receipts),
		"events", header.EventCount(),
		"elapsed", elapsed,
		"number", header.Number(),
		"id", header.ID(),
	)

	s.blockFeed.Send(&BlockEvent{newBlock, receipts})
	return newBlock, nil
}
