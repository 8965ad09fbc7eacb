// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scrapclient is a Go client of a scrapd node, over its REST API and websocket feeds.
package scrapclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/scrapyard/scrapmaster/api/accounts"
	"github.com/scrapyard/scrapmaster/api/blocks"
	"github.com/scrapyard/scrapmaster/api/events"
	"github.com/scrapyard/scrapmaster/api/subscriptions"
	"github.com/scrapyard/scrapmaster/api/transactions"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/scrapclient/httpclient"
	"github.com/scrapyard/scrapmaster/scrapclient/wsclient"
	"github.com/scrapyard/scrapmaster/tx"
)

var errNoWebsocket = errors.New("not a websocket typed client")

type Client struct {
	httpConn *httpclient.Client
	wsConn   *wsclient.Client
}

func New(url string) *Client {
	return &Client{
		httpConn: httpclient.New(url),
	}
}

func NewWithWS(url string) (*Client, error) {
	wsClient, err := wsclient.NewClient(url)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpConn: httpclient.New(url),
		wsConn:   wsClient,
	}, nil
}

func (c *Client) RawHTTPClient() *httpclient.Client {
	return c.httpConn
}

func (c *Client) RawWSClient() *wsclient.Client {
	return c.wsConn
}

func (c *Client) Block(revision string) (*blocks.JSONCollapsedBlock, error) {
	return c.httpConn.GetBlock(revision)
}

func (c *Client) ExpandedBlock(revision string) (*blocks.JSONExpandedBlock, error) {
	return c.httpConn.GetExpandedBlock(revision)
}

func (c *Client) Account(addr scrap.Address) (*accounts.Account, error) {
	return c.httpConn.GetAccount(addr)
}

func (c *Client) Balance(owner, token scrap.Address) (*accounts.Balance, error) {
	return c.httpConn.GetBalance(owner, token)
}

func (c *Client) InspectClauses(calldata *accounts.BatchCallData) (accounts.BatchCallResults, error) {
	return c.httpConn.InspectClauses(calldata)
}

// InspectTxClauses dry runs the clauses of trx as its origin.
func (c *Client) InspectTxClauses(trx *tx.Transaction) (accounts.BatchCallResults, error) {
	origin := trx.Origin()
	return c.InspectClauses(&accounts.BatchCallData{
		Clauses: trx.Clauses(),
		Caller:  &origin,
	})
}

// SendTransaction submits trx in its rlp encoding.
func (c *Client) SendTransaction(trx *tx.Transaction) (scrap.Bytes32, error) {
	data, err := rlp.EncodeToBytes(trx)
	if err != nil {
		return scrap.Bytes32{}, fmt.Errorf("unable to encode transaction - %w", err)
	}
	return c.httpConn.SendTransaction(&transactions.SendTx{Raw: hexutil.Encode(data)})
}

func (c *Client) Transaction(id scrap.Bytes32, pending bool) (*transactions.Transaction, error) {
	return c.httpConn.GetTransaction(id, pending)
}

func (c *Client) TransactionReceipt(id scrap.Bytes32) (*transactions.Receipt, error) {
	return c.httpConn.GetTransactionReceipt(id)
}

// WaitForReceipt polls for the receipt of id until it is packed or ctx is done.
func (c *Client) WaitForReceipt(ctx context.Context, id scrap.Bytes32, interval time.Duration) (*transactions.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, err := c.TransactionReceipt(id)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, httpclient.ErrNotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) FilterEvents(req *events.EventFilter) ([]*events.FilteredEvent, error) {
	return c.httpConn.FilterEvents(req)
}

func (c *Client) FarmParams() (*builtin.FarmParamsJSON, error) {
	return c.httpConn.GetFarmParams()
}

func (c *Client) Pools() ([]*builtin.PoolJSON, error) {
	return c.httpConn.GetPools()
}

func (c *Client) Stake(pid uint64, user scrap.Address) (*builtin.StakeJSON, error) {
	return c.httpConn.GetStake(pid, user)
}

func (c *Client) GenesisID() (scrap.Bytes32, error) {
	genesisBlock, err := c.Block("0")
	if err != nil {
		return scrap.Bytes32{}, err
	}
	return genesisBlock.ID, nil
}

func (c *Client) SubscribeBlocks() (*wsclient.Subscription[*subscriptions.BlockMessage], error) {
	if c.wsConn == nil {
		return nil, errNoWebsocket
	}
	return c.wsConn.SubscribeBlocks()
}

func (c *Client) SubscribeEvents(query *wsclient.EventQuery) (*wsclient.Subscription[*subscriptions.EventMessage], error) {
	if c.wsConn == nil {
		return nil, errNoWebsocket
	}
	return c.wsConn.SubscribeEvents(query)
}
