// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
)

type Blocks struct {
	repo *chain.Repository
}

func New(repo *chain.Repository) *Blocks {
	return &Blocks{repo}
}

func (b *Blocks) handleGetBlock(w http.ResponseWriter, req *http.Request) error {
	revision, err := utils.ParseRevision(mux.Vars(req)["revision"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "revision"))
	}
	expanded := req.URL.Query().Get("expanded")
	if expanded != "" && expanded != "false" && expanded != "true" {
		return utils.BadRequest(errors.WithMessage(errors.New("should be boolean"), "expanded"))
	}

	summary, err := utils.GetSummary(revision, b.repo)
	if err != nil {
		if utils.StatusOf(err) == http.StatusNotFound {
			return utils.WriteJSON(w, nil)
		}
		return err
	}

	jSummary := BuildJSONBlockSummary(summary.Header)
	if expanded == "true" {
		blk, err := b.repo.GetBlock(summary.Header.Number())
		if err != nil {
			return err
		}
		receipts, err := b.repo.GetBlockReceipts(summary.Header.Number())
		if err != nil {
			return err
		}
		return utils.WriteJSON(w, &JSONExpandedBlock{
			jSummary,
			buildJSONEmbeddedTxs(blk.Transactions(), receipts),
		})
	}

	txs := summary.Txs
	if txs == nil {
		txs = []scrap.Bytes32{}
	}
	return utils.WriteJSON(w, &JSONCollapsedBlock{
		jSummary,
		txs,
	})
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{revision}").
		Methods(http.MethodGet).
		Name("blocks_get_block").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBlock))
}
