// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrapyard/scrapmaster/chain"
)

type fixedBest struct {
	header *chain.Header
}

func (f fixedBest) BestBlockSummary() *chain.BlockSummary {
	return &chain.BlockSummary{Header: f.header}
}

func TestStatus(t *testing.T) {
	const blockTime = 1_700_000_000
	header := chain.NewBlock(chain.HeaderParams{Number: 7, Timestamp: blockTime}, nil).Header()

	h := New(fixedBest{header}, 10*time.Second)

	tests := []struct {
		name    string
		elapsed time.Duration
		healthy bool
	}{
		{"fresh", 0, true},
		{"one interval", 10 * time.Second, true},
		{"at tolerance", 20 * time.Second, true},
		{"stale", 21 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.now = func() time.Time { return time.Unix(blockTime, 0).Add(tt.elapsed) }
			status := h.Status()
			assert.Equal(t, tt.healthy, status.Healthy)
			assert.Equal(t, header.ID(), status.BlockIngestion.BestBlock)
			assert.Equal(t, uint32(7), status.BlockIngestion.BestBlockNumber)
		})
	}
}
