// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/txpool"
)

type Transactions struct {
	repo *chain.Repository
	pool *txpool.TxPool
}

func New(repo *chain.Repository, pool *txpool.TxPool) *Transactions {
	return &Transactions{
		repo,
		pool,
	}
}

func (t *Transactions) getTransactionByID(txID scrap.Bytes32, allowPending bool) (*Transaction, error) {
	trx, meta, err := t.repo.GetTransaction(txID)
	if err != nil {
		if !t.repo.IsNotFound(err) {
			return nil, err
		}
		if allowPending {
			if pending := t.pool.Get(txID); pending != nil {
				return convertTransaction(pending, nil), nil
			}
		}
		return nil, nil
	}
	summary, err := t.repo.GetBlockSummary(meta.BlockNumber)
	if err != nil {
		return nil, err
	}
	return convertTransaction(trx, newTxMeta(summary.Header, meta.Index)), nil
}

func (t *Transactions) getTransactionReceiptByID(txID scrap.Bytes32) (*Receipt, error) {
	receipt, err := t.repo.GetReceipt(txID)
	if err != nil {
		if t.repo.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	_, meta, err := t.repo.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	summary, err := t.repo.GetBlockSummary(meta.BlockNumber)
	if err != nil {
		return nil, err
	}
	return &Receipt{receipt, newTxMeta(summary.Header, meta.Index)}, nil
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var body SendTx
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	trx, err := body.decode()
	if err != nil {
		return utils.BadRequest(err)
	}

	if err := t.pool.Add(trx); err != nil {
		switch {
		case txpool.IsBadTx(err), txpool.IsErrKnownTx(err):
			return utils.BadRequest(err)
		case txpool.IsErrPoolFull(err):
			return utils.HTTPError(err, http.StatusServiceUnavailable)
		default:
			return err
		}
	}
	return utils.WriteJSON(w, map[string]string{
		"id": trx.ID().String(),
	})
}

func (t *Transactions) handleGetTransactionByID(w http.ResponseWriter, req *http.Request) error {
	txID, err := scrap.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	pending := req.URL.Query().Get("pending")
	if pending != "" && pending != "false" && pending != "true" {
		return utils.BadRequest(errors.WithMessage(errors.New("should be boolean"), "pending"))
	}
	trx, err := t.getTransactionByID(txID, pending == "true")
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, trx)
}

func (t *Transactions) handleGetTransactionReceiptByID(w http.ResponseWriter, req *http.Request) error {
	txID, err := scrap.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	receipt, err := t.getTransactionReceiptByID(txID)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, receipt)
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("transactions_send_tx").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("transactions_get_tx").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetTransactionByID))
	sub.Path("/{id}/receipt").
		Methods(http.MethodGet).
		Name("transactions_get_receipt").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetTransactionReceiptByID))
}
