// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/scrapyard/scrapmaster/metrics"
)

var metricLookups = metrics.LazyLoadCounterVec("cache_lookup_count", []string{"cache", "result"})

// Stats counts the lookups of one named cache. Every lookup is also exported
// as cache_lookup_count, labeled with the cache name.
type Stats struct {
	name      string
	hit, miss atomic.Int64
}

func newStats(name string) Stats {
	return Stats{name: name}
}

func (cs *Stats) record(result string) {
	metricLookups().AddWithLabel(1, map[string]string{"cache": cs.name, "result": result})
}

// Hit records a hit and returns the hits so far.
func (cs *Stats) Hit() int64 {
	cs.record("hit")
	return cs.hit.Add(1)
}

// Miss records a miss and returns the misses so far.
func (cs *Stats) Miss() int64 {
	cs.record("miss")
	return cs.miss.Add(1)
}

// Counts returns the number of hits and misses.
func (cs *Stats) Counts() (hit, miss int64) {
	return cs.hit.Load(), cs.miss.Load()
}

// HitRate returns hits over lookups, zero before the first lookup.
func (cs *Stats) HitRate() float64 {
	hit, miss := cs.Counts()
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}

// Name returns the label the stats are exported with.
func (cs *Stats) Name() string {
	return cs.name
}
