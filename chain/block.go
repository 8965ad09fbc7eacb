// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// Header contains almost all information about a block, except its transactions.
type Header struct {
	body headerBody

	cache struct {
		id atomic.Pointer[scrap.Bytes32]
	}
}

type headerBody struct {
	ParentID   scrap.Bytes32
	Number     uint32
	Timestamp  uint64
	StageHash  scrap.Bytes32
	TxsRoot    scrap.Bytes32
	EventCount uint32
}

// HeaderParams holds the fields to build a header.
type HeaderParams struct {
	ParentID   scrap.Bytes32
	Number     uint32
	Timestamp  uint64
	StageHash  scrap.Bytes32
	EventCount uint32
}

// ParentID returns id of parent block.
func (h *Header) ParentID() scrap.Bytes32 { return h.body.ParentID }

// Number returns the block number.
func (h *Header) Number() uint32 { return h.body.Number }

// Timestamp returns the block time in unix seconds.
func (h *Header) Timestamp() uint64 { return h.body.Timestamp }

// StageHash returns the hash of the state changes made by the block.
func (h *Header) StageHash() scrap.Bytes32 { return h.body.StageHash }

// TxsRoot returns the digest of the block transaction ids.
func (h *Header) TxsRoot() scrap.Bytes32 { return h.body.TxsRoot }

// EventCount returns the count of events emitted by the block.
func (h *Header) EventCount() uint32 { return h.body.EventCount }

// ID computes id of block.
// The id is the blake2b hash of the header with the first 4 bytes replaced by the block number.
func (h *Header) ID() scrap.Bytes32 {
	if cached := h.cache.id.Load(); cached != nil {
		return *cached
	}
	id := scrap.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &h.body)
	})
	binary.BigEndian.PutUint32(id[:], h.body.Number)
	h.cache.id.Store(&id)
	return id
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

// Number extracts block number from block id.
func Number(blockID scrap.Bytes32) uint32 {
	return binary.BigEndian.Uint32(blockID[:])
}

// Block is an immutable block: a header and its transactions.
type Block struct {
	header *Header
	txs    tx.Transactions
}

// NewBlock assembles a block. TxsRoot of the header is computed from txs.
func NewBlock(params HeaderParams, txs tx.Transactions) *Block {
	return &Block{
		header: &Header{body: headerBody{
			ParentID:   params.ParentID,
			Number:     params.Number,
			Timestamp:  params.Timestamp,
			StageHash:  params.StageHash,
			TxsRoot:    txsRoot(txs),
			EventCount: params.EventCount,
		}},
		txs: append(tx.Transactions(nil), txs...),
	}
}

// Header returns the block header.
func (b *Block) Header() *Header { return b.header }

// Transactions returns a copy of transactions.
func (b *Block) Transactions() tx.Transactions {
	return append(tx.Transactions(nil), b.txs...)
}

func txsRoot(txs tx.Transactions) scrap.Bytes32 {
	if len(txs) == 0 {
		return scrap.Bytes32{}
	}
	return scrap.Blake2bFn(func(w io.Writer) {
		for _, t := range txs {
			id := t.ID()
			w.Write(id[:])
		}
	})
}

// BlockSummary presents block summary.
type BlockSummary struct {
	Header *Header
	Txs    []scrap.Bytes32
}

// TxMeta locates a transaction in the chain.
type TxMeta struct {
	BlockNumber uint32
	Index       uint64
	Reverted    bool
}
