// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpclient calls the REST API of a scrapd node.
package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/scrapyard/scrapmaster/api/accounts"
	"github.com/scrapyard/scrapmaster/api/blocks"
	"github.com/scrapyard/scrapmaster/api/events"
	"github.com/scrapyard/scrapmaster/api/recycler"
	"github.com/scrapyard/scrapmaster/api/transactions"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/scrap"
)

var ErrNotFound = errors.New("not found")

const BestRevision = "best"

type Client struct {
	url     string
	c       *http.Client
	genesis atomic.Pointer[blocks.JSONCollapsedBlock]
}

func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		c:   c,
	}
}

// GetBlock returns the collapsed block at revision. The genesis block is cached once seen.
func (c *Client) GetBlock(revision string) (*blocks.JSONCollapsedBlock, error) {
	if revision == "0" {
		if genesis := c.genesis.Load(); genesis != nil {
			return genesis, nil
		}
	}
	var block blocks.JSONCollapsedBlock
	if err := c.getJSON(c.url+"/blocks/"+revision, &block); err != nil {
		return nil, fmt.Errorf("unable to retrieve block - %w", err)
	}
	if block.Number == 0 {
		c.genesis.Store(&block)
	}
	return &block, nil
}

func (c *Client) GetExpandedBlock(revision string) (*blocks.JSONExpandedBlock, error) {
	var block blocks.JSONExpandedBlock
	if err := c.getJSON(c.url+"/blocks/"+revision+"?expanded=true", &block); err != nil {
		return nil, fmt.Errorf("unable to retrieve expanded block - %w", err)
	}
	return &block, nil
}

func (c *Client) GetAccount(addr scrap.Address) (*accounts.Account, error) {
	var account accounts.Account
	if err := c.getJSON(c.url+"/accounts/"+addr.String(), &account); err != nil {
		return nil, fmt.Errorf("unable to retrieve account - %w", err)
	}
	return &account, nil
}

func (c *Client) GetBalance(owner, token scrap.Address) (*accounts.Balance, error) {
	var balance accounts.Balance
	if err := c.getJSON(c.url+"/accounts/"+owner.String()+"/balances/"+token.String(), &balance); err != nil {
		return nil, fmt.Errorf("unable to retrieve balance - %w", err)
	}
	return &balance, nil
}

// InspectClauses runs clauses on a disposable copy of the latest state.
func (c *Client) InspectClauses(calldata *accounts.BatchCallData) (accounts.BatchCallResults, error) {
	var results accounts.BatchCallResults
	if err := c.postJSON(c.url+"/accounts/*", calldata, &results); err != nil {
		return nil, fmt.Errorf("unable to inspect clauses - %w", err)
	}
	return results, nil
}

func (c *Client) SendTransaction(obj *transactions.SendTx) (scrap.Bytes32, error) {
	var res struct {
		ID scrap.Bytes32 `json:"id"`
	}
	if err := c.postJSON(c.url+"/transactions", obj, &res); err != nil {
		return scrap.Bytes32{}, fmt.Errorf("unable to send transaction - %w", err)
	}
	return res.ID, nil
}

func (c *Client) GetTransaction(id scrap.Bytes32, pending bool) (*transactions.Transaction, error) {
	u := c.url + "/transactions/" + id.String()
	if pending {
		u += "?pending=true"
	}
	var trx transactions.Transaction
	if err := c.getJSON(u, &trx); err != nil {
		return nil, fmt.Errorf("unable to retrieve transaction - %w", err)
	}
	return &trx, nil
}

func (c *Client) GetTransactionReceipt(id scrap.Bytes32) (*transactions.Receipt, error) {
	var receipt transactions.Receipt
	if err := c.getJSON(c.url+"/transactions/"+id.String()+"/receipt", &receipt); err != nil {
		return nil, fmt.Errorf("unable to fetch receipt - %w", err)
	}
	return &receipt, nil
}

func (c *Client) FilterEvents(req *events.EventFilter) ([]*events.FilteredEvent, error) {
	body, err := c.httpPOST(c.url+"/logs/event", req)
	if err != nil {
		return nil, fmt.Errorf("unable to filter events - %w", err)
	}
	var filtered []*events.FilteredEvent
	if err := json.Unmarshal(body, &filtered); err != nil {
		return nil, fmt.Errorf("unable to unmarshal events - %w", err)
	}
	return filtered, nil
}

func (c *Client) GetFarmParams() (*builtin.FarmParamsJSON, error) {
	var params builtin.FarmParamsJSON
	if err := c.getJSON(c.url+"/farm", &params); err != nil {
		return nil, fmt.Errorf("unable to retrieve farm params - %w", err)
	}
	return &params, nil
}

func (c *Client) GetPools() ([]*builtin.PoolJSON, error) {
	var pools []*builtin.PoolJSON
	if err := c.getJSON(c.url+"/farm/pools", &pools); err != nil {
		return nil, fmt.Errorf("unable to retrieve pools - %w", err)
	}
	return pools, nil
}

func (c *Client) GetPool(pid uint64) (*builtin.PoolJSON, error) {
	var pool builtin.PoolJSON
	if err := c.getJSON(fmt.Sprintf("%s/farm/pools/%d", c.url, pid), &pool); err != nil {
		return nil, fmt.Errorf("unable to retrieve pool - %w", err)
	}
	return &pool, nil
}

// GetStake returns the stake of user in pool pid, with its pending reward.
func (c *Client) GetStake(pid uint64, user scrap.Address) (*builtin.StakeJSON, error) {
	var stake builtin.StakeJSON
	if err := c.getJSON(fmt.Sprintf("%s/farm/pools/%d/users/%s", c.url, pid, user), &stake); err != nil {
		return nil, fmt.Errorf("unable to retrieve stake - %w", err)
	}
	return &stake, nil
}

func (c *Client) GetRecyclerParams() (*recycler.Params, error) {
	var params recycler.Params
	if err := c.getJSON(c.url+"/recycler", &params); err != nil {
		return nil, fmt.Errorf("unable to retrieve recycler params - %w", err)
	}
	return &params, nil
}

func (c *Client) GetBridge(asset scrap.Address) (scrap.Address, error) {
	var res struct {
		Bridge scrap.Address `json:"bridge"`
	}
	if err := c.getJSON(c.url+"/recycler/bridges/"+asset.String(), &res); err != nil {
		return scrap.Address{}, fmt.Errorf("unable to retrieve bridge - %w", err)
	}
	return res.Bridge, nil
}

func (c *Client) GetPair(tokenA, tokenB scrap.Address) (*recycler.Pair, error) {
	var pair recycler.Pair
	if err := c.getJSON(c.url+"/recycler/pairs/"+tokenA.String()+"/"+tokenB.String(), &pair); err != nil {
		return nil, fmt.Errorf("unable to retrieve pair - %w", err)
	}
	return &pair, nil
}

// Preview returns what recycling the pair of tokenX and tokenY would yield, as the node encodes it.
func (c *Client) Preview(tokenX, tokenY scrap.Address) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("tokenX", tokenX.String())
	query.Set("tokenY", tokenY.String())
	var res json.RawMessage
	if err := c.getJSON(c.url+"/recycler/preview?"+query.Encode(), &res); err != nil {
		return nil, fmt.Errorf("unable to preview recycle - %w", err)
	}
	return res, nil
}

// RawHTTPGet sends a GET to path and returns the body and status, whatever the status is.
func (c *Client) RawHTTPGet(path string) ([]byte, int, error) {
	resp, err := c.c.Get(c.url + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}
