// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestNoopMetrics(t *testing.T) {
	m := defaultNoopMetrics()

	m.GetOrCreateCountMeter("c").Add(1)
	m.GetOrCreateCountVecMeter("cv", []string{"a"}).AddWithLabel(1, map[string]string{"a": "b"})
	m.GetOrCreateGaugeMeter("g").Set(3)
	m.GetOrCreateGaugeVecMeter("gv", []string{"a"}).SetWithLabel(1, map[string]string{"a": "b"})
	m.GetOrCreateHistogramMeter("h", nil).Observe(1)
	m.GetOrCreateHistogramVecMeter("hv", []string{"a"}, nil).ObserveWithLabels(1, map[string]string{"a": "b"})

	rec := httptest.NewRecorder()
	m.GetOrCreateHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 204, rec.Code)
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newPrometheusMetrics(reg, reg)

	count := m.GetOrCreateCountMeter("blocks_total")
	count.Add(2)
	m.GetOrCreateCountMeter("blocks_total").Add(3)

	gauge := m.GetOrCreateGaugeMeter("pool_size")
	gauge.Set(10)
	gauge.Add(-4)

	gaugeVec := m.GetOrCreateGaugeVecMeter("staked", []string{"pool"})
	gaugeVec.SetWithLabel(7, map[string]string{"pool": "0"})
	gaugeVec.AddWithLabel(1, map[string]string{"pool": "0"})

	countVec := m.GetOrCreateCountVecMeter("recycled", []string{"result"})
	countVec.AddWithLabel(1, map[string]string{"result": "skipped"})
	countVec.AddWithLabel(2, map[string]string{"result": "converted"})

	hist := m.GetOrCreateHistogramMeter("pack_ms", Bucket10s)
	hist.Observe(600)

	histVec := m.GetOrCreateHistogramVecMeter("req_ms", []string{"method"}, BucketHTTPReqs)
	histVec.ObserveWithLabels(3, map[string]string{"method": "GET"})

	assert.Equal(t, 5.0, findFamily(t, reg, "scrap_blocks_total").Metric[0].GetCounter().GetValue())
	assert.Equal(t, 6.0, findFamily(t, reg, "scrap_pool_size").Metric[0].GetGauge().GetValue())
	assert.Equal(t, 8.0, findFamily(t, reg, "scrap_staked").Metric[0].GetGauge().GetValue())
	assert.Len(t, findFamily(t, reg, "scrap_recycled").Metric, 2)
	assert.Equal(t, uint64(1), findFamily(t, reg, "scrap_pack_ms").Metric[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 3.0, findFamily(t, reg, "scrap_req_ms").Metric[0].GetHistogram().GetSampleSum())

	rec := httptest.NewRecorder()
	m.GetOrCreateHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "scrap_blocks_total 5")
}

func TestLazyLoad(t *testing.T) {
	calls := 0
	get := LazyLoad(func() int {
		calls++
		return 42
	})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 42, get())
	assert.Equal(t, 42, get())
	assert.Equal(t, 1, calls)
}
