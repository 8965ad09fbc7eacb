// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/scrapyard/scrapmaster/metrics"

var (
	metricTxPoolGauge   = metrics.LazyLoadGauge("txpool_pending")
	metricTxPoolCounter = metrics.LazyLoadCounterVec("txpool_added_count", []string{"result"})
)
