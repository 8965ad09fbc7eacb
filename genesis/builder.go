// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

// Builder helper to build genesis block.
type Builder struct {
	timestamp uint64

	stateProcs []func(env *xenv.Environment) error
	calls      []call
	extraData  [28]byte
}

type call struct {
	clause *tx.Clause
	caller scrap.Address
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process. It runs before the calls, with builtin contracts reachable through env.
func (b *Builder) State(proc func(env *xenv.Environment) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Call add a contract call.
func (b *Builder) Call(clause *tx.Clause, caller scrap.Address) *Builder {
	b.calls = append(b.calls, call{clause, caller})
	return b
}

// ExtraData set extra data, which will be put into last 28 bytes of genesis parent id.
func (b *Builder) ExtraData(data [28]byte) *Builder {
	b.extraData = data
	return b
}

// ComputeID compute genesis ID.
func (b *Builder) ComputeID() (scrap.Bytes32, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return scrap.Bytes32{}, err
	}
	defer db.Close()

	blk, _, err := b.Build(state.New(db))
	if err != nil {
		return scrap.Bytes32{}, err
	}
	return blk.Header().ID(), nil
}

// Build build genesis block according to presets. The state changes are committed to st's store.
func (b *Builder) Build(st *state.State) (blk *chain.Block, events tx.Events, err error) {
	blockCtx := &xenv.BlockContext{Time: b.timestamp}

	env := xenv.New(st, blockCtx, nil, scrap.Address{}, nil)
	for _, proc := range b.stateProcs {
		if err := proc(env); err != nil {
			return nil, nil, errors.Wrap(err, "state process")
		}
	}
	events = append(events, env.Events()...)

	rt := runtime.New(st, blockCtx)
	for i, call := range b.calls {
		out := rt.ExecuteClause(call.clause, call.caller)
		if out.Err != nil {
			return nil, nil, errors.Wrapf(out.Err, "call #%d %s", i, call.clause.Method())
		}
		events = append(events, out.Events...)
	}

	stage := st.Stage()
	if err := stage.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit state")
	}

	parentID := scrap.Bytes32{0xff, 0xff, 0xff, 0xff} // so, genesis number is 0
	copy(parentID[4:], b.extraData[:])

	return chain.NewBlock(chain.HeaderParams{
		ParentID:   parentID,
		Timestamp:  b.timestamp,
		StageHash:  stage.Hash(),
		EventCount: uint32(len(events)),
	}, nil), events, nil
}
