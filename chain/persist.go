// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

const (
	txFlag      = byte(0) // flag byte of the key for saving tx blob
	receiptFlag = byte(1) // flag byte of the key for saving receipt blob
	metaFlag    = byte(2) // flag byte of the key for saving tx metadata
)

var bestBlockKey = []byte("best-block-num")

func numberKey(num uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], num)
	return k[:]
}

// the key for tx/receipt/meta: ( tx id | flag )
func txKey(id scrap.Bytes32, flag byte) []byte {
	return append(id.Bytes(), flag)
}

func saveRLP(w kv.Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func saveBlockSummary(w kv.Putter, summary *BlockSummary) error {
	return saveRLP(w, numberKey(summary.Header.Number()), summary)
}

func loadBlockSummary(r kv.Getter, num uint32) (*BlockSummary, error) {
	var summary BlockSummary
	if err := loadRLP(r, numberKey(num), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func loadTransaction(r kv.Getter, id scrap.Bytes32) (*tx.Transaction, error) {
	var trx tx.Transaction
	if err := loadRLP(r, txKey(id, txFlag), &trx); err != nil {
		return nil, err
	}
	return &trx, nil
}

func loadTxMeta(r kv.Getter, id scrap.Bytes32) (*TxMeta, error) {
	var meta TxMeta
	if err := loadRLP(r, txKey(id, metaFlag), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func loadReceipt(r kv.Getter, id scrap.Bytes32) (*tx.Receipt, error) {
	var receipt tx.Receipt
	if err := loadRLP(r, txKey(id, receiptFlag), &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func saveBestNumber(w kv.Putter, num uint32) error {
	return w.Put(bestBlockKey, numberKey(num))
}

func loadBestNumber(r kv.Getter) (uint32, error) {
	data, err := r.Get(bestBlockKey)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.New("invalid best block number")
	}
	return binary.BigEndian.Uint32(data), nil
}
