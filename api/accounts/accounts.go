// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/runtime"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
)

type Accounts struct {
	caller *utils.Caller
}

func New(caller *utils.Caller) *Accounts {
	return &Accounts{caller}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := scrap.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	kind, err := registry.New(a.caller.Runtime().State()).Kind(addr)
	if err != nil {
		return err
	}
	methods := builtin.NativeMethods(kind)
	if methods == nil {
		methods = []string{}
	}
	return utils.WriteJSON(w, &Account{kind, methods})
}

func (a *Accounts) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := scrap.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	token, err := scrap.ParseAddress(mux.Vars(req)["token"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "token"))
	}
	var balance math.HexOrDecimal256
	if err := a.caller.Call(token, "balanceOf", utils.M{"owner": addr}, &balance); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{token, &balance})
}

func (a *Accounts) handleCallBatch(w http.ResponseWriter, req *http.Request) error {
	var batchCallData BatchCallData
	if err := utils.ParseJSON(req.Body, &batchCallData); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	results, err := a.batchCall(req.Context(), &batchCallData)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, results)
}

// batchCall stops at the first failed clause, the failure being the last result.
func (a *Accounts) batchCall(ctx context.Context, data *BatchCallData) (BatchCallResults, error) {
	if len(data.Clauses) == 0 {
		return nil, utils.BadRequest(errors.New("clauses: empty"))
	}
	if len(data.Clauses) > runtime.MaxClauses {
		return nil, utils.Forbidden(errors.Errorf("clauses: exceeds limit %d", runtime.MaxClauses))
	}
	var caller scrap.Address
	if data.Caller != nil {
		caller = *data.Caller
	}
	for i, clause := range data.Clauses {
		if clause == nil {
			return nil, utils.BadRequest(errors.Errorf("clauses[%d]: null", i))
		}
	}

	rt := a.caller.Runtime()
	results := make(BatchCallResults, 0, len(data.Clauses))
	for _, clause := range data.Clauses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		output := rt.ExecuteClause(clause, caller)
		var stateErr *state.Error
		if errors.As(output.Err, &stateErr) {
			return nil, output.Err
		}
		results = append(results, convertCallResult(output))
		if output.Err != nil {
			break
		}
	}
	return results, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/*").
		Methods(http.MethodPost).
		Name("accounts_call_batch").
		HandlerFunc(utils.WrapHandlerFunc(a.handleCallBatch))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/balances/{token}").
		Methods(http.MethodGet).
		Name("accounts_get_balance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
}
