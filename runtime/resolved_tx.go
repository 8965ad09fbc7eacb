// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// MaxClauses limits the number of clauses of one transaction.
const MaxClauses = 64

// ResolvedTransaction is a transaction that passed the stateless checks.
type ResolvedTransaction struct {
	tx      *tx.Transaction
	Origin  scrap.Address
	Clauses []*tx.Clause
}

// ResolveTransaction resolves the transaction and performs basic validation.
func ResolveTransaction(trx *tx.Transaction) (*ResolvedTransaction, error) {
	origin := trx.Origin()
	if origin.IsZero() {
		return nil, errors.New("origin is the zero address")
	}
	clauses := trx.Clauses()
	if len(clauses) == 0 {
		return nil, errors.New("no clause")
	}
	if len(clauses) > MaxClauses {
		return nil, errors.Errorf("too many clauses: %d > %d", len(clauses), MaxClauses)
	}
	for i, clause := range clauses {
		if clause.To().IsZero() {
			return nil, errors.Errorf("clause #%d: missing 'to'", i)
		}
		if clause.Method() == "" {
			return nil, errors.Errorf("clause #%d: missing method", i)
		}
		if args := clause.Args(); len(args) > 0 && !json.Valid(args) {
			return nil, errors.Errorf("clause #%d: args is not valid json", i)
		}
	}
	return &ResolvedTransaction{
		trx,
		origin,
		clauses,
	}, nil
}

// CommonTo returns common 'To' field of clauses if any.
// Nil returned if no common 'To'.
func (r *ResolvedTransaction) CommonTo() *scrap.Address {
	if len(r.Clauses) == 0 {
		return nil
	}
	firstTo := r.Clauses[0].To()
	for _, clause := range r.Clauses[1:] {
		if clause.To() != firstTo {
			return nil
		}
	}
	return &firstTo
}
