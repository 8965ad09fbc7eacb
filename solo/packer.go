// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	errBlockFull = errors.New("block is full")
	errKnownTx   = errors.New("known tx")
)

type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// Adopt executes a tx on the block being packed.
type Adopt func(trx *tx.Transaction) error

// Pack builds the block from adopted txs. The returned stage holds the state changes to commit.
type Pack func() (*chain.Block, *state.Stage, tx.Receipts, error)

// Packer to pack txs and build new blocks.
type Packer struct {
	repo    *chain.Repository
	stateDB kv.Store
	maxTxs  int
}

// NewPacker create a new Packer instance. maxTxs limits txs per block, 0 means no limit.
func NewPacker(repo *chain.Repository, stateDB kv.Store, maxTxs int) *Packer {
	return &Packer{repo, stateDB, maxTxs}
}

// Prepare opens the state on top of parent and returns the adopt and pack functions of the new block.
func (p *Packer) Prepare(parent *chain.Header, newBlockTimestamp uint64) (Adopt, Pack) {
	var (
		st           = state.New(p.stateDB)
		blockNum     = parent.Number() + 1
		rt           = runtime.New(st, &xenv.BlockContext{Number: blockNum, Time: newBlockTimestamp})
		txs          tx.Transactions
		receipts     tx.Receipts
		eventCount   int
		processedTxs = make(map[scrap.Bytes32]bool)
	)

	return func(trx *tx.Transaction) error {
			if p.maxTxs > 0 && len(txs) >= p.maxTxs {
				return errBlockFull
			}
			if processedTxs[trx.ID()] {
				return errKnownTx
			}
			if _, _, err := p.repo.GetTransaction(trx.ID()); err == nil {
				return errKnownTx
			} else if !p.repo.IsNotFound(err) {
				return err
			}

			receipt, err := rt.ExecuteTransaction(trx)
			if err != nil {
				var stateErr *state.Error
				if errors.As(err, &stateErr) {
					return err
				}
				return badTxError{err.Error()}
			}
			processedTxs[trx.ID()] = true
			txs = append(txs, trx)
			receipts = append(receipts, receipt)
			eventCount += len(receipt.Events)
			return nil
		},
		func() (*chain.Block, *state.Stage, tx.Receipts, error) {
			stage := st.Stage()
			newBlock := chain.NewBlock(chain.HeaderParams{
				ParentID:   parent.ID(),
				Number:     blockNum,
				Timestamp:  newBlockTimestamp,
				StageHash:  stage.Hash(),
				EventCount: uint32(eventCount),
			}, txs)
			return newBlock, stage, receipts, nil
		}
}

// IsBlockFull block if full of txs.
func IsBlockFull(err error) bool {
	return errors.Cause(err) == errBlockFull
}

// IsBadTx not a valid tx.
func IsBadTx(err error) bool {
	_, ok := errors.Cause(err).(badTxError)
	return ok
}

// IsKnownTx tx is already adopted, or in the chain.
func IsKnownTx(err error) bool {
	return errors.Cause(err) == errKnownTx
}
