// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/metrics"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func labelsOf(m *dto.Metric) map[string]string {
	labels := make(map[string]string)
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	return labels
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Path("/ping/{code}").
		Methods(http.MethodGet).
		Name("metrics_ping").
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mux.Vars(r)["code"] == "bad" {
				w.WriteHeader(http.StatusBadRequest)
			}
		})
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	get := func(path string) []byte {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return body
	}
	get("/ping/ok")
	get("/ping/ok")
	get("/ping/bad")

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(get("/metrics")))
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, m := range families["scrap_api_request_count"].GetMetric() {
		labels := labelsOf(m)
		if labels["name"] != "metrics_ping" {
			continue
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		counts[labels["code"]] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"200": 2, "400": 1}, counts)

	var observed uint64
	for _, m := range families["scrap_api_duration_ms"].GetMetric() {
		if labelsOf(m)["name"] == "metrics_ping" {
			observed += m.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), observed)
}
