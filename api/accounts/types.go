// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/tx"
)

// Account describes what is deployed at an address.
type Account struct {
	Kind    registry.Kind `json:"kind"`
	Methods []string      `json:"methods"`
}

// Balance of one token held by an account.
type Balance struct {
	Token   scrap.Address         `json:"token"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// BatchCallData executes clauses in order on one disposable state.
type BatchCallData struct {
	Clauses []*tx.Clause   `json:"clauses"`
	Caller  *scrap.Address `json:"caller"`
}

type CallResult struct {
	Data     json.RawMessage `json:"data"`
	Events   tx.Events       `json:"events"`
	Reverted bool            `json:"reverted"`
	VMError  string          `json:"vmError"`
}

type BatchCallResults []*CallResult

func convertCallResult(output *runtime.Output) *CallResult {
	events := output.Events
	if events == nil {
		events = tx.Events{}
	}
	result := &CallResult{
		Data:   output.Data,
		Events: events,
	}
	if output.Err != nil {
		result.Reverted = true
		result.VMError = output.Err.Error()
	}
	return result
}
