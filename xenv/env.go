// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     scrap.Bytes32
	Origin scrap.Address
}

type vmError struct {
	cause error
}

// Environment an env to execute native method.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	to       scrap.Address
	args     json.RawMessage
	events   tx.Events
}

// New create a new env.
func New(
	state *state.State,
	blockCtx *BlockContext,
	txCtx *TransactionContext,
	to scrap.Address,
	args json.RawMessage,
) *Environment {
	if txCtx == nil {
		txCtx = &TransactionContext{}
	}
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
		to:       to,
		args:     args,
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) Caller() scrap.Address                   { return env.txCtx.Origin }
func (env *Environment) To() scrap.Address                       { return env.to }

// Events returns events logged so far.
func (env *Environment) Events() tx.Events {
	return env.events
}

// ParseArgs decodes the json arguments of the call into val.
func (env *Environment) ParseArgs(val any) {
	args := env.args
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(val); err != nil {
		panic(&vmError{reverts.New(reverts.ErrInvalidParameter, "decode native input: %v", err)})
	}
}

// Require stops the call with an invalid parameter revert if cond is false.
func (env *Environment) Require(cond bool, format string, args ...any) {
	if !cond {
		panic(&vmError{reverts.New(reverts.ErrInvalidParameter, format, args...)})
	}
}

// Log appends an event.
func (env *Environment) Log(ev *tx.Event) {
	env.events = append(env.events, ev)
}

// Emit encodes body and logs it as an event of the contract at addr.
func (env *Environment) Emit(addr scrap.Address, name string, body any, topics ...scrap.Bytes32) error {
	ev, err := tx.NewEvent(addr, name, body, topics...)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	env.Log(ev)
	return nil
}

// Stop aborts the call with err.
func (env *Environment) Stop(err error) {
	panic(&vmError{err})
}

// Call wraps proc into a function returning the json encoded output of the call.
// Errors raised through Stop, ParseArgs and Require are returned, any other panic propagates.
func (env *Environment) Call(proc func(env *Environment) any) func() (json.RawMessage, error) {
	return func() (data json.RawMessage, err error) {
		defer func() {
			if e := recover(); e != nil {
				if rec, ok := e.(*vmError); ok {
					data, err = nil, rec.cause
				} else {
					panic(e)
				}
			}
		}()
		output := proc(env)
		if output == nil {
			return nil, nil
		}
		data, err = json.Marshal(output)
		if err != nil {
			return nil, errors.WithMessage(err, "encode native output")
		}
		return data, nil
	}
}
