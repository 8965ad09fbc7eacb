// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"encoding/json"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

type JSONBlockSummary struct {
	Number     uint32        `json:"number"`
	ID         scrap.Bytes32 `json:"id"`
	ParentID   scrap.Bytes32 `json:"parentID"`
	Timestamp  uint64        `json:"timestamp"`
	StageHash  scrap.Bytes32 `json:"stageHash"`
	TxsRoot    scrap.Bytes32 `json:"txsRoot"`
	EventCount uint32        `json:"eventCount"`
}

type JSONCollapsedBlock struct {
	*JSONBlockSummary
	Transactions []scrap.Bytes32 `json:"transactions"`
}

type JSONEmbeddedTx struct {
	ID       scrap.Bytes32     `json:"id"`
	Origin   scrap.Address     `json:"origin"`
	Nonce    uint64            `json:"nonce"`
	Clauses  []*tx.Clause      `json:"clauses"`
	Reverted bool              `json:"reverted"`
	Error    string            `json:"error,omitempty"`
	Outputs  []json.RawMessage `json:"outputs"`
	Events   tx.Events         `json:"events"`
}

type JSONExpandedBlock struct {
	*JSONBlockSummary
	Transactions []*JSONEmbeddedTx `json:"transactions"`
}

func BuildJSONBlockSummary(header *chain.Header) *JSONBlockSummary {
	return &JSONBlockSummary{
		Number:     header.Number(),
		ID:         header.ID(),
		ParentID:   header.ParentID(),
		Timestamp:  header.Timestamp(),
		StageHash:  header.StageHash(),
		TxsRoot:    header.TxsRoot(),
		EventCount: header.EventCount(),
	}
}

func buildJSONEmbeddedTxs(txs tx.Transactions, receipts tx.Receipts) []*JSONEmbeddedTx {
	jTxs := make([]*JSONEmbeddedTx, 0, len(txs))
	for i, trx := range txs {
		receipt := receipts[i]
		jTxs = append(jTxs, &JSONEmbeddedTx{
			ID:       trx.ID(),
			Origin:   trx.Origin(),
			Nonce:    trx.Nonce(),
			Clauses:  trx.Clauses(),
			Reverted: receipt.Reverted,
			Error:    receipt.Error,
			Outputs:  receipt.Outputs,
			Events:   receipt.Events,
		})
	}
	return jTxs
}
