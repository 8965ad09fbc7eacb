// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package farm

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/api/utils"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/cache"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Farm serves the reward ledger. Responses are cached per best block.
type Farm struct {
	repo   *chain.Repository
	caller *utils.Caller
	cache  *cache.LRU
}

type cacheKey struct {
	best scrap.Bytes32
	path string
}

func New(repo *chain.Repository, caller *utils.Caller) *Farm {
	c, _ := cache.NewLRU("api_farm", 512)
	return &Farm{repo, caller, c}
}

// cached loads the response of req once per best block.
func (f *Farm) cached(req *http.Request, load func() (any, error)) (any, error) {
	key := cacheKey{f.repo.BestBlockSummary().Header.ID(), req.URL.Path}
	return f.cache.GetOrLoad(key, load)
}

func (f *Farm) handleGetParams(w http.ResponseWriter, req *http.Request) error {
	params, err := f.cached(req, func() (any, error) {
		var params builtin.FarmParamsJSON
		if err := f.caller.Call(builtin.Farm.Address, "params", nil, &params); err != nil {
			return nil, err
		}
		return &params, nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, params)
}

func (f *Farm) handleGetPools(w http.ResponseWriter, req *http.Request) error {
	pools, err := f.cached(req, func() (any, error) {
		var n uint64
		if err := f.caller.Call(builtin.Farm.Address, "poolLength", nil, &n); err != nil {
			return nil, err
		}
		pools := make([]*builtin.PoolJSON, 0, n)
		for pid := uint64(0); pid < n; pid++ {
			var pool builtin.PoolJSON
			if err := f.caller.Call(builtin.Farm.Address, "poolInfo", utils.M{"pid": pid}, &pool); err != nil {
				return nil, err
			}
			pools = append(pools, &pool)
		}
		return pools, nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, pools)
}

func (f *Farm) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pid, err := parsePID(req)
	if err != nil {
		return err
	}
	pool, err := f.cached(req, func() (any, error) {
		var pool builtin.PoolJSON
		if err := f.caller.Call(builtin.Farm.Address, "poolInfo", utils.M{"pid": pid}, &pool); err != nil {
			return nil, err
		}
		return &pool, nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, pool)
}

func (f *Farm) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	pid, err := parsePID(req)
	if err != nil {
		return err
	}
	user, err := scrap.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var stake builtin.StakeJSON
	if err := f.caller.Call(builtin.Farm.Address, "userInfo", utils.M{"pid": pid, "user": user}, &stake); err != nil {
		return err
	}
	return utils.WriteJSON(w, &stake)
}

func parsePID(req *http.Request) (uint64, error) {
	pid, err := strconv.ParseUint(mux.Vars(req)["pid"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "pid"))
	}
	return pid, nil
}

func (f *Farm) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("farm_get_params").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetParams))
	sub.Path("/pools").
		Methods(http.MethodGet).
		Name("farm_get_pools").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetPools))
	sub.Path("/pools/{pid}").
		Methods(http.MethodGet).
		Name("farm_get_pool").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetPool))
	sub.Path("/pools/{pid}/users/{address}").
		Methods(http.MethodGet).
		Name("farm_get_stake").
		HandlerFunc(utils.WrapHandlerFunc(f.handleGetStake))
}
