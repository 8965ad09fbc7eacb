// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import "github.com/scrapyard/scrapmaster/metrics"

var (
	metricBestBlock                    = metrics.LazyLoadGauge("chain_best_block")
	metricBlockRepositoryCounter       = metrics.LazyLoadCounterVec("block_repository_count", []string{"type", "target"})
	metricTransactionRepositoryCounter = metrics.LazyLoadCounterVec("transaction_repository_count", []string{"type", "target"})
)
