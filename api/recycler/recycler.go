// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package recycler

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/scrap"
)

type Params struct {
	Factory   scrap.Address `json:"factory"`
	MainAsset scrap.Address `json:"mainAsset"`
	BaseAsset scrap.Address `json:"baseAsset"`
	Owner     scrap.Address `json:"owner"`
	Vault     scrap.Address `json:"vault"`
	// FeeTo is where the factory mints the protocol fee shares.
	FeeTo scrap.Address `json:"feeTo"`
}

type Pair struct {
	Address     scrap.Address         `json:"address"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
	*builtin.Reserves
}

type Recycler struct {
	caller *utils.Caller
}

func New(caller *utils.Caller) *Recycler {
	return &Recycler{caller}
}

func (r *Recycler) handleGetParams(w http.ResponseWriter, req *http.Request) error {
	var params Params
	if err := r.caller.Call(builtin.Recycler.Address, "params", nil, &params); err != nil {
		return err
	}
	if err := r.caller.Call(builtin.Factory.Address, "feeTo", nil, &params.FeeTo); err != nil {
		return err
	}
	return utils.WriteJSON(w, &params)
}

func (r *Recycler) handleGetBridge(w http.ResponseWriter, req *http.Request) error {
	asset, err := scrap.ParseAddress(mux.Vars(req)["asset"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "asset"))
	}
	var bridge scrap.Address
	if err := r.caller.Call(builtin.Recycler.Address, "bridgeFor", utils.M{"asset": asset}, &bridge); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"asset": asset, "bridge": bridge})
}

func (r *Recycler) handlePreview(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	tokenX, err := scrap.ParseAddress(query.Get("tokenX"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tokenX"))
	}
	tokenY, err := scrap.ParseAddress(query.Get("tokenY"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tokenY"))
	}
	var result json.RawMessage
	if err := r.caller.Call(builtin.Recycler.Address, "preview", utils.M{"tokenX": tokenX, "tokenY": tokenY}, &result); err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

func (r *Recycler) handleGetPair(w http.ResponseWriter, req *http.Request) error {
	tokenA, err := scrap.ParseAddress(mux.Vars(req)["tokenA"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tokenA"))
	}
	tokenB, err := scrap.ParseAddress(mux.Vars(req)["tokenB"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tokenB"))
	}
	var addr scrap.Address
	if err := r.caller.Call(builtin.Factory.Address, "getPair", utils.M{"tokenA": tokenA, "tokenB": tokenB}, &addr); err != nil {
		return err
	}
	if addr.IsZero() {
		return utils.NotFound(errors.New("pair not found"))
	}
	pair := Pair{Address: addr, TotalSupply: new(math.HexOrDecimal256)}
	if err := r.caller.Call(addr, "getReserves", nil, &pair.Reserves); err != nil {
		return err
	}
	if err := r.caller.Call(addr, "totalSupply", nil, pair.TotalSupply); err != nil {
		return err
	}
	return utils.WriteJSON(w, &pair)
}

func (r *Recycler) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("recycler_get_params").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetParams))
	sub.Path("/preview").
		Methods(http.MethodGet).
		Name("recycler_preview").
		HandlerFunc(utils.WrapHandlerFunc(r.handlePreview))
	sub.Path("/bridges/{asset}").
		Methods(http.MethodGet).
		Name("recycler_get_bridge").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetBridge))
	sub.Path("/pairs/{tokenA}/{tokenB}").
		Methods(http.MethodGet).
		Name("recycler_get_pair").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetPair))
}
