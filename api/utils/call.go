// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

// Caller runs clauses against the latest committed state. Nothing it does is ever committed.
type Caller struct {
	repo    *chain.Repository
	stateDB kv.Store
}

func NewCaller(repo *chain.Repository, stateDB kv.Store) *Caller {
	return &Caller{repo, stateDB}
}

// Runtime returns a runtime on a disposable state, in the context of the best block.
func (c *Caller) Runtime() *runtime.Runtime {
	header := c.repo.BestBlockSummary().Header
	return runtime.New(state.New(c.stateDB), &xenv.BlockContext{
		Number: header.Number(),
		Time:   header.Timestamp(),
	})
}

// Call executes method on contract to and decodes its output into out.
// A revert is reported as BadRequest and an unknown target as NotFound.
func (c *Caller) Call(to scrap.Address, method string, args any, out any) error {
	clause := tx.NewClause(to, method)
	if args != nil {
		var err error
		if clause, err = clause.WithArgs(args); err != nil {
			return err
		}
	}
	output := c.Runtime().Call(clause, scrap.Address{})
	if err := CallError(output.Err); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(output.Data, out)
}

// CallError maps the failure of a clause to an http error.
func CallError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, runtime.ErrMethodNotFound):
		return NotFound(err)
	case reverts.IsRevertErr(err):
		return BadRequest(err)
	default:
		return err
	}
}
