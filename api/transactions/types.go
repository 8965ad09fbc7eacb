// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// SendTx is either a hex encoded rlp transaction or its json fields.
type SendTx struct {
	Raw     string         `json:"raw,omitempty"`
	Origin  *scrap.Address `json:"origin,omitempty"`
	Clauses []*tx.Clause   `json:"clauses,omitempty"`
	Nonce   uint64         `json:"nonce,omitempty"`
}

func (s *SendTx) decode() (*tx.Transaction, error) {
	if s.Raw != "" {
		if s.Origin != nil || len(s.Clauses) > 0 {
			return nil, errors.New("raw and fields are exclusive")
		}
		data, err := hexutil.Decode(s.Raw)
		if err != nil {
			return nil, errors.WithMessage(err, "raw")
		}
		var trx tx.Transaction
		if err := rlp.DecodeBytes(data, &trx); err != nil {
			return nil, errors.WithMessage(err, "raw")
		}
		return &trx, nil
	}
	if s.Origin == nil {
		return nil, errors.New("origin: missing")
	}
	for i, c := range s.Clauses {
		if c == nil {
			return nil, errors.Errorf("clauses[%d]: null", i)
		}
	}
	return tx.New(*s.Origin, s.Nonce, s.Clauses...), nil
}

// TxMeta locates an included transaction.
type TxMeta struct {
	BlockID        scrap.Bytes32 `json:"blockID"`
	BlockNumber    uint32        `json:"blockNumber"`
	BlockTimestamp uint64        `json:"blockTimestamp"`
	Index          uint64        `json:"index"`
}

// Transaction with its inclusion meta, nil meta for a pending one.
type Transaction struct {
	ID      scrap.Bytes32 `json:"id"`
	Origin  scrap.Address `json:"origin"`
	Clauses []*tx.Clause  `json:"clauses"`
	Nonce   uint64        `json:"nonce"`
	Meta    *TxMeta       `json:"meta"`
}

func convertTransaction(trx *tx.Transaction, meta *TxMeta) *Transaction {
	return &Transaction{
		ID:      trx.ID(),
		Origin:  trx.Origin(),
		Clauses: trx.Clauses(),
		Nonce:   trx.Nonce(),
		Meta:    meta,
	}
}

type Receipt struct {
	*tx.Receipt
	Meta *TxMeta `json:"meta"`
}

func newTxMeta(header *chain.Header, index uint64) *TxMeta {
	return &TxMeta{
		BlockID:        header.ID(),
		BlockNumber:    header.Number(),
		BlockTimestamp: header.Timestamp(),
		Index:          index,
	}
}
