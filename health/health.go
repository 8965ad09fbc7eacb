// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"time"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
)

// BestBlocker is the part of the chain repository health looks at.
type BestBlocker interface {
	BestBlockSummary() *chain.BlockSummary
}

type BlockIngestion struct {
	BestBlock          scrap.Bytes32 `json:"bestBlock"`
	BestBlockNumber    uint32        `json:"bestBlockNumber"`
	BestBlockTimestamp time.Time     `json:"bestBlockTimestamp"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	BlockIngestion *BlockIngestion `json:"blockIngestion"`
}

// Health reports whether blocks are still being packed.
type Health struct {
	repo      BestBlocker
	tolerance time.Duration
	now       func() time.Time
}

// New returns a Health that turns unhealthy once the best block is older than two block intervals.
func New(repo BestBlocker, blockInterval time.Duration) *Health {
	return &Health{
		repo:      repo,
		tolerance: 2 * blockInterval,
		now:       time.Now,
	}
}

func (h *Health) Status() *Status {
	header := h.repo.BestBlockSummary().Header
	blockTime := time.Unix(int64(header.Timestamp()), 0)

	return &Status{
		Healthy: h.now().Sub(blockTime) <= h.tolerance,
		BlockIngestion: &BlockIngestion{
			BestBlock:          header.ID(),
			BestBlockNumber:    header.Number(),
			BestBlockTimestamp: blockTime,
		},
	}
}
