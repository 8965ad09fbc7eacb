// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/co"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

var logger = log.WithContext("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Limit       int
	MaxLifetime time.Duration
}

// DefaultOptions are used by the node.
var DefaultOptions = Options{
	Limit:       10000,
	MaxLifetime: 20 * time.Minute,
}

// TxEvent will be posted when tx is added.
type TxEvent struct {
	Tx *tx.Transaction
}

type txObject struct {
	*tx.Transaction
	timeAdded int64
}

// TxPool maintains unprocessed transactions in arrival order.
type TxPool struct {
	options Options
	repo    *chain.Repository

	lock    sync.Mutex
	all     map[scrap.Bytes32]*txObject
	pending []*txObject

	ctx    context.Context
	cancel func()
	txFeed event.Feed
	scope  event.SubscriptionScope
	goes   co.Goes
}

// New create a new TxPool instance.
// Shutdown is required to be called at end.
func New(repo *chain.Repository, options Options) *TxPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &TxPool{
		options: options,
		repo:    repo,
		all:     make(map[scrap.Bytes32]*txObject),
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.goes.Go(pool.housekeeping)
	return pool
}

func (p *TxPool) housekeeping() {
	logger.Debug("enter housekeeping")
	defer logger.Debug("leave housekeeping")

	ticker := p.repo.NewTicker()
	timer := time.NewTicker(time.Minute)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C():
			if n := p.wash(time.Now().UnixNano()); n > 0 {
				logger.Debug("wash done", "removed", n)
			}
		case <-timer.C:
			p.wash(time.Now().UnixNano())
		}
	}
}

// Close cleanup inner go routines.
func (p *TxPool) Close() {
	p.cancel()
	p.scope.Close()
	p.goes.Wait()
	logger.Debug("closed")
}

// SubscribeTxEvent receivers will receive a tx.
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// Add adds a new tx into pool.
// It returns an error if the tx is malformed, already known, or the pool is full.
func (p *TxPool) Add(newTx *tx.Transaction) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "rejected"
		}
		metricTxPoolCounter().AddWithLabel(1, map[string]string{"result": result})
	}()

	if _, err := runtime.ResolveTransaction(newTx); err != nil {
		return badTxError{err.Error()}
	}

	txID := newTx.ID()
	if _, _, err := p.repo.GetTransaction(txID); err == nil {
		return errKnownTx
	} else if !p.repo.IsNotFound(err) {
		return errors.WithMessage(err, "lookup chain")
	}

	p.lock.Lock()
	if _, ok := p.all[txID]; ok {
		p.lock.Unlock()
		return errKnownTx
	}
	if len(p.all) >= p.options.Limit {
		p.lock.Unlock()
		return errPoolFull
	}
	obj := &txObject{newTx, time.Now().UnixNano()}
	p.all[txID] = obj
	p.pending = append(p.pending, obj)
	size := len(p.all)
	p.lock.Unlock()

	metricTxPoolGauge().Set(int64(size))
	logger.Debug("tx added", "id", txID, "origin", newTx.Origin())
	go p.txFeed.Send(&TxEvent{newTx})
	return nil
}

// Get get pooled tx by id.
func (p *TxPool) Get(id scrap.Bytes32) *tx.Transaction {
	p.lock.Lock()
	defer p.lock.Unlock()

	if obj, ok := p.all[id]; ok {
		return obj.Transaction
	}
	return nil
}

// Remove removes tx from pool by its id.
func (p *TxPool) Remove(id scrap.Bytes32) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, ok := p.all[id]; !ok {
		return false
	}
	delete(p.all, id)
	p.compact()
	return true
}

// compact drops removed entries from the pending queue. Lock must be held.
func (p *TxPool) compact() {
	kept := p.pending[:0]
	for _, obj := range p.pending {
		if _, ok := p.all[obj.ID()]; ok {
			kept = append(kept, obj)
		}
	}
	for i := len(kept); i < len(p.pending); i++ {
		p.pending[i] = nil
	}
	p.pending = kept
	metricTxPoolGauge().Set(int64(len(p.all)))
}

// Executables returns pending txs in arrival order.
func (p *TxPool) Executables() tx.Transactions {
	p.lock.Lock()
	defer p.lock.Unlock()

	txs := make(tx.Transactions, 0, len(p.pending))
	for _, obj := range p.pending {
		txs = append(txs, obj.Transaction)
	}
	return txs
}

// Len returns count of pooled txs.
func (p *TxPool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.all)
}

// wash removes txs that were included in the chain or outlived MaxLifetime.
func (p *TxPool) wash(now int64) int {
	p.lock.Lock()
	defer p.lock.Unlock()

	removed := 0
	for id, obj := range p.all {
		if p.options.MaxLifetime > 0 && now-obj.timeAdded > int64(p.options.MaxLifetime) {
			delete(p.all, id)
			removed++
			continue
		}
		if _, _, err := p.repo.GetTransaction(id); err == nil {
			delete(p.all, id)
			removed++
		}
	}
	if removed > 0 {
		p.compact()
	}
	return removed
}
