// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/metrics"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricNativeCalls = metrics.LazyLoadCounterVec("native_calls_count", []string{"kind", "method", "status"})
)

// ErrMethodNotFound is returned for a clause targeting no deployed contract or an unknown method.
var ErrMethodNotFound = errors.New("method not found")

// Output is the result of a single clause.
type Output struct {
	Data   json.RawMessage
	Events tx.Events
	// Err is the failure of the clause, nil on success.
	Err error
}

// Runtime is to support transaction execution.
type Runtime struct {
	state    *state.State
	blockCtx *xenv.BlockContext
}

// New create a Runtime object.
func New(state *state.State, blockCtx *xenv.BlockContext) *Runtime {
	return &Runtime{
		state:    state,
		blockCtx: blockCtx,
	}
}

func (rt *Runtime) State() *state.State              { return rt.state }
func (rt *Runtime) BlockNumber() uint32              { return rt.blockCtx.Number }
func (rt *Runtime) BlockTime() uint64                { return rt.blockCtx.Time }
func (rt *Runtime) BlockContext() *xenv.BlockContext { return rt.blockCtx }

// execute dispatches clause to the native method it targets. A panic raised by the
// method is turned into an error. The state is left as the method left it.
func (rt *Runtime) execute(clause *tx.Clause, txCtx *xenv.TransactionContext) (output *Output) {
	method, found, err := builtin.FindNativeMethod(rt.state, clause.To(), clause.Method())
	if err != nil {
		return &Output{Err: err}
	}
	if !found {
		return &Output{Err: errors.WithMessagef(ErrMethodNotFound, "%v.%s", clause.To(), clause.Method())}
	}

	env := xenv.New(rt.state, rt.blockCtx, txCtx, clause.To(), clause.Args())
	defer func() {
		if e := recover(); e != nil {
			output = &Output{Err: fmt.Errorf("native: %v", e)}
		}
		status := "ok"
		switch {
		case output.Err == nil:
		case reverts.IsRevertErr(output.Err):
			status = "reverted"
		default:
			status = "error"
		}
		metricNativeCalls().AddWithLabel(1, map[string]string{
			"kind":   string(method.Kind),
			"method": method.Name,
			"status": status,
		})
	}()

	data, err := env.Call(method.Run)()
	if err != nil {
		return &Output{Err: err}
	}
	return &Output{Data: data, Events: env.Events()}
}

// Call executes a single clause without checkpoint. Used for read only calls on a disposable state.
func (rt *Runtime) Call(clause *tx.Clause, origin scrap.Address) *Output {
	return rt.execute(clause, &xenv.TransactionContext{Origin: origin})
}

// ExecuteClause executes a single clause atomically: on failure every state change of the
// clause is reverted and no event is kept.
func (rt *Runtime) ExecuteClause(clause *tx.Clause, origin scrap.Address) *Output {
	checkpoint := rt.state.NewCheckpoint()
	output := rt.Call(clause, origin)
	if output.Err != nil {
		rt.state.RevertTo(checkpoint)
		output.Events = nil
	}
	return output
}

// ExecuteTransaction executes a transaction.
// If some clause failed, all clauses are reverted, receipt.Reverted is set and receipt.Outputs is nil.
// The returned error is non-nil only for an invalid transaction or a storage failure.
func (rt *Runtime) ExecuteTransaction(trx *tx.Transaction) (*tx.Receipt, error) {
	resolvedTx, err := ResolveTransaction(trx)
	if err != nil {
		return nil, err
	}

	// checkpoint to be reverted when clause failure.
	clauseCheckpoint := rt.state.NewCheckpoint()

	txCtx := &xenv.TransactionContext{ID: trx.ID(), Origin: resolvedTx.Origin}
	receipt := &tx.Receipt{
		TxID:        trx.ID(),
		Origin:      resolvedTx.Origin,
		BlockNumber: rt.blockCtx.Number,
		Outputs:     make([]json.RawMessage, 0, len(resolvedTx.Clauses)),
		Events:      tx.Events{},
	}

	for i, clause := range resolvedTx.Clauses {
		output := rt.execute(clause, txCtx)
		if output.Err != nil {
			rt.state.RevertTo(clauseCheckpoint)

			var stateErr *state.Error
			if errors.As(output.Err, &stateErr) {
				return nil, output.Err
			}
			logger.Debug("transaction reverted", "id", trx.ID(), "clause", i, "error", output.Err)
			receipt.Reverted = true
			receipt.Error = fmt.Sprintf("clause #%d: %v", i, output.Err)
			receipt.Outputs = nil
			receipt.Events = tx.Events{}
			break
		}
		receipt.Outputs = append(receipt.Outputs, output.Data)
		receipt.Events = append(receipt.Events, output.Events...)
	}
	return receipt, nil
}
