// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Transaction is a list of clauses executed on behalf of origin.
// Clauses of one transaction succeed or fail together.
type Transaction struct {
	body body

	cache struct {
		id atomic.Pointer[scrap.Bytes32]
	}
}

type body struct {
	Origin  scrap.Address
	Clauses []*Clause
	Nonce   uint64
}

// New creates a transaction.
func New(origin scrap.Address, nonce uint64, clauses ...*Clause) *Transaction {
	return &Transaction{body: body{
		Origin:  origin,
		Clauses: append([]*Clause(nil), clauses...),
		Nonce:   nonce,
	}}
}

// ID returns the identifier of the transaction, the blake2b hash of its rlp encoding.
func (t *Transaction) ID() scrap.Bytes32 {
	if cached := t.cache.id.Load(); cached != nil {
		return *cached
	}
	id := scrap.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &t.body)
	})
	t.cache.id.Store(&id)
	return id
}

// Origin returns the caller of all clauses.
func (t *Transaction) Origin() scrap.Address {
	return t.body.Origin
}

// Nonce returns nonce value.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Clauses returns clauses in tx.
func (t *Transaction) Clauses() []*Clause {
	return append([]*Clause(nil), t.body.Clauses...)
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var b body
	if err := s.Decode(&b); err != nil {
		return err
	}
	*t = Transaction{body: b}
	return nil
}

type jsonTransaction struct {
	ID      *scrap.Bytes32 `json:"id,omitempty"`
	Origin  scrap.Address  `json:"origin"`
	Clauses []*Clause      `json:"clauses"`
	Nonce   uint64         `json:"nonce"`
}

// MarshalJSON implements json.Marshaler.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	id := t.ID()
	return json.Marshal(&jsonTransaction{&id, t.body.Origin, t.body.Clauses, t.body.Nonce})
}

// UnmarshalJSON implements json.Unmarshaler. The id field, if present, is ignored.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var jt jsonTransaction
	if err := json.Unmarshal(data, &jt); err != nil {
		return err
	}
	*t = Transaction{body: body{jt.Origin, jt.Clauses, jt.Nonce}}
	return nil
}

// Transactions a slice of transactions.
type Transactions []*Transaction
