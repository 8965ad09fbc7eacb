// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/scrapyard/scrapmaster/scrap"
)

type clauseBody struct {
	To     scrap.Address
	Method string
	Args   []byte
}

// Clause is the basic execution unit of a transaction: one method call on one builtin contract.
type Clause struct {
	body clauseBody
}

// NewClause create a new clause calling method on contract to.
func NewClause(to scrap.Address, method string) *Clause {
	return &Clause{clauseBody{To: to, Method: method}}
}

// WithArgs create a new clause copy with args encoded as json.
func (c *Clause) WithArgs(args any) (*Clause, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	newClause := *c
	newClause.body.Args = data
	return &newClause, nil
}

// MustWithArgs is WithArgs panicking on encoding failure.
func (c *Clause) MustWithArgs(args any) *Clause {
	cla, err := c.WithArgs(args)
	if err != nil {
		panic(err)
	}
	return cla
}

// To returns 'To' address.
func (c *Clause) To() scrap.Address {
	return c.body.To
}

// Method returns the called method name.
func (c *Clause) Method() string {
	return c.body.Method
}

// Args returns the json encoded arguments.
func (c *Clause) Args() json.RawMessage {
	return append(json.RawMessage(nil), c.body.Args...)
}

// EncodeRLP implements rlp.Encoder
func (c *Clause) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &c.body)
}

// DecodeRLP implements rlp.Decoder
func (c *Clause) DecodeRLP(s *rlp.Stream) error {
	var body clauseBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*c = Clause{body}
	return nil
}

type jsonClause struct {
	To     scrap.Address   `json:"to"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c *Clause) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonClause{c.body.To, c.body.Method, c.body.Args})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Clause) UnmarshalJSON(data []byte) error {
	var jc jsonClause
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}
	*c = Clause{clauseBody{jc.To, jc.Method, jc.Args}}
	return nil
}
