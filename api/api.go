// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/scrapyard/scrapmaster/api/accounts"
	"github.com/scrapyard/scrapmaster/api/blocks"
	"github.com/scrapyard/scrapmaster/api/events"
	"github.com/scrapyard/scrapmaster/api/farm"
	"github.com/scrapyard/scrapmaster/api/recycler"
	"github.com/scrapyard/scrapmaster/api/subscriptions"
	"github.com/scrapyard/scrapmaster/api/transactions"
	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/txpool"
)

var logger = log.WithContext("pkg", "api")

// DefaultLogsLimit bounds the result of a log filter.
const DefaultLogsLimit = 1000

type Options struct {
	AllowedOrigins  string
	LogsLimit       uint64
	SkipLogs        bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New return api router
func New(
	repo *chain.Repository,
	stateDB kv.Store,
	txPool *txpool.TxPool,
	logDB *logdb.LogDB,
	feed subscriptions.BlockFeed,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.LogsLimit == 0 {
		opts.LogsLimit = DefaultLogsLimit
	}

	router := mux.NewRouter()
	caller := utils.NewCaller(repo, stateDB)

	accounts.New(caller).
		Mount(router, "/accounts")
	if !opts.SkipLogs {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	blocks.New(repo).
		Mount(router, "/blocks")
	transactions.New(repo, txPool).
		Mount(router, "/transactions")
	farm.New(repo, caller).
		Mount(router, "/farm")
	recycler.New(caller).
		Mount(router, "/recycler")

	subs := subscriptions.New(feed, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
