// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/api"
	"github.com/scrapyard/scrapmaster/builtin"
	"github.com/scrapyard/scrapmaster/chain"
	"github.com/scrapyard/scrapmaster/genesis"
	"github.com/scrapyard/scrapmaster/kv"
	"github.com/scrapyard/scrapmaster/logdb"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/solo"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/txpool"
)

type testServer struct {
	*httptest.Server
	repo *chain.Repository
	pool *txpool.TxPool
	solo *solo.Solo
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stateDB := kv.Bucket("state.").NewStore(db)
	gene, _, err := genesis.NewDevnet().Build(state.New(stateDB))
	require.NoError(t, err)
	repo, err := chain.NewRepository(db, gene)
	require.NoError(t, err)

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	pool := txpool.New(repo, txpool.Options{Limit: 100, MaxLifetime: time.Hour})
	t.Cleanup(pool.Close)

	s, err := solo.New(repo, stateDB, logDB, pool, solo.Options{SkipNTP: true})
	require.NoError(t, err)

	handler, closeAPI := api.New(repo, stateDB, pool, logDB, s, api.Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeAPI()
		ts.Close()
	})
	return &testServer{ts, repo, pool, s}
}

func (ts *testServer) get(t *testing.T, path string) ([]byte, int) {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func (ts *testServer) post(t *testing.T, path string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func (ts *testServer) getJSON(t *testing.T, path string, v any) {
	body, status := ts.get(t, path)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, v))
}

func (ts *testServer) pack(t *testing.T) *chain.Block {
	blk, err := ts.solo.Pack(uint64(time.Now().Unix()))
	require.NoError(t, err)
	return blk
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	return (*big.Int)(v)
}

func token(symbol string) scrap.Address {
	return builtin.TokenAddress(symbol)
}

func TestBlocks(t *testing.T) {
	ts := newTestServer(t)
	genesisID := ts.repo.GenesisBlock().Header().ID()

	var best map[string]any
	ts.getJSON(t, "/blocks/best", &best)
	assert.Equal(t, float64(0), best["number"])
	assert.Equal(t, genesisID.String(), best["id"])
	assert.Equal(t, []any{}, best["transactions"])

	var byID map[string]any
	ts.getJSON(t, "/blocks/"+genesisID.String(), &byID)
	assert.Equal(t, float64(0), byID["number"])

	body, status := ts.get(t, "/blocks/5")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))

	_, status = ts.get(t, "/blocks/abc")
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.get(t, "/blocks/0?expanded=maybe")
	assert.Equal(t, http.StatusBadRequest, status)

	accs := genesis.DevAccounts()
	trx := tx.New(accs[1], 1, tx.NewClause(token("DAI"), "transfer").
		MustWithArgs(map[string]any{"to": accs[2], "amount": "7"}))
	require.NoError(t, ts.pool.Add(trx))
	ts.pack(t)

	var expanded struct {
		Number       uint32 `json:"number"`
		EventCount   uint32 `json:"eventCount"`
		Transactions []struct {
			ID       scrap.Bytes32 `json:"id"`
			Reverted bool          `json:"reverted"`
			Events   tx.Events     `json:"events"`
		} `json:"transactions"`
	}
	ts.getJSON(t, "/blocks/1?expanded=true", &expanded)
	assert.Equal(t, uint32(1), expanded.Number)
	assert.Equal(t, uint32(1), expanded.EventCount)
	require.Len(t, expanded.Transactions, 1)
	assert.Equal(t, trx.ID(), expanded.Transactions[0].ID)
	assert.False(t, expanded.Transactions[0].Reverted)
	require.Len(t, expanded.Transactions[0].Events, 1)
	assert.Equal(t, "Transfer", expanded.Transactions[0].Events[0].Name)
}

func TestAccounts(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	alice, bob := accs[1], accs[2]

	var account struct {
		Kind    string   `json:"kind"`
		Methods []string `json:"methods"`
	}
	ts.getJSON(t, "/accounts/"+builtin.Farm.Address.String(), &account)
	assert.Equal(t, "farm", account.Kind)
	assert.Contains(t, account.Methods, "deposit")
	assert.Contains(t, account.Methods, "pendingReward")

	ts.getJSON(t, "/accounts/"+alice.String(), &account)
	assert.Equal(t, "", account.Kind)
	assert.Empty(t, account.Methods)

	var balance struct {
		Token   scrap.Address         `json:"token"`
		Balance *math.HexOrDecimal256 `json:"balance"`
	}
	ts.getJSON(t, "/accounts/"+alice.String()+"/balances/"+token("USDT").String(), &balance)
	assert.Equal(t, token("USDT"), balance.Token)
	assert.Equal(t, ether(1_000_000), bigOf(balance.Balance))

	_, status := ts.get(t, "/accounts/"+alice.String()+"/balances/"+builtin.Factory.Address.String())
	assert.Equal(t, http.StatusNotFound, status)

	// clauses see the effects of the previous ones, nothing is committed
	body, status := ts.post(t, "/accounts/*", map[string]any{
		"caller": alice,
		"clauses": []any{
			map[string]any{"to": token("USDT"), "method": "transfer", "args": map[string]any{"to": bob, "amount": "1000"}},
			map[string]any{"to": token("USDT"), "method": "balanceOf", "args": map[string]any{"owner": bob}},
			map[string]any{"to": token("USDT"), "method": "transfer", "args": map[string]any{"to": bob, "amount": "-1"}},
			map[string]any{"to": token("USDT"), "method": "totalSupply"},
		},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var results []struct {
		Data     json.RawMessage `json:"data"`
		Events   tx.Events       `json:"events"`
		Reverted bool            `json:"reverted"`
		VMError  string          `json:"vmError"`
	}
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results, 3)
	assert.False(t, results[0].Reverted)
	require.Len(t, results[0].Events, 1)
	assert.Equal(t, "Transfer", results[0].Events[0].Name)

	var bobBalance math.HexOrDecimal256
	require.NoError(t, json.Unmarshal(results[1].Data, &bobBalance))
	assert.Equal(t, new(big.Int).Add(ether(1_000_000), big.NewInt(1000)), bigOf(&bobBalance))

	assert.True(t, results[2].Reverted)
	assert.Contains(t, results[2].VMError, "negative amount")
	assert.Empty(t, results[2].Events)

	ts.getJSON(t, "/accounts/"+bob.String()+"/balances/"+token("USDT").String(), &balance)
	assert.Equal(t, ether(1_000_000), bigOf(balance.Balance))

	_, status = ts.post(t, "/accounts/*", map[string]any{"clauses": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.post(t, "/accounts/*", map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTransactions(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	alice, bob := accs[1], accs[2]

	send := map[string]any{
		"origin": alice,
		"nonce":  42,
		"clauses": []any{
			map[string]any{"to": token("WVET"), "method": "transfer", "args": map[string]any{"to": bob, "amount": "10"}},
		},
	}
	body, status := ts.post(t, "/transactions", send)
	require.Equal(t, http.StatusOK, status, string(body))
	var sent struct {
		ID scrap.Bytes32 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &sent))

	_, status = ts.post(t, "/transactions", send)
	assert.Equal(t, http.StatusBadRequest, status, "known tx")

	body, _ = ts.get(t, "/transactions/"+sent.ID.String())
	assert.Equal(t, "null", strings.TrimSpace(string(body)))

	var pending map[string]any
	ts.getJSON(t, "/transactions/"+sent.ID.String()+"?pending=true", &pending)
	assert.Equal(t, sent.ID.String(), pending["id"])
	assert.Nil(t, pending["meta"])

	body, _ = ts.get(t, "/transactions/"+sent.ID.String()+"/receipt")
	assert.Equal(t, "null", strings.TrimSpace(string(body)))

	blk := ts.pack(t)

	var included struct {
		ID   scrap.Bytes32 `json:"id"`
		Meta *struct {
			BlockID     scrap.Bytes32 `json:"blockID"`
			BlockNumber uint32        `json:"blockNumber"`
			Index       uint64        `json:"index"`
		} `json:"meta"`
	}
	ts.getJSON(t, "/transactions/"+sent.ID.String(), &included)
	require.NotNil(t, included.Meta)
	assert.Equal(t, blk.Header().ID(), included.Meta.BlockID)
	assert.Equal(t, uint32(1), included.Meta.BlockNumber)
	assert.Equal(t, uint64(0), included.Meta.Index)

	var receipt struct {
		TxID     scrap.Bytes32 `json:"txID"`
		Reverted bool          `json:"reverted"`
		Events   tx.Events     `json:"events"`
		Meta     *struct {
			BlockNumber uint32 `json:"blockNumber"`
		} `json:"meta"`
	}
	ts.getJSON(t, "/transactions/"+sent.ID.String()+"/receipt", &receipt)
	assert.Equal(t, sent.ID, receipt.TxID)
	assert.False(t, receipt.Reverted)
	assert.Len(t, receipt.Events, 1)
	require.NotNil(t, receipt.Meta)
	assert.Equal(t, uint32(1), receipt.Meta.BlockNumber)

	_, status = ts.post(t, "/transactions", send)
	assert.Equal(t, http.StatusBadRequest, status, "already included")

	_, status = ts.post(t, "/transactions", map[string]any{"origin": alice, "clauses": []any{}})
	assert.Equal(t, http.StatusBadRequest, status, "no clause")
	_, status = ts.post(t, "/transactions", map[string]any{"raw": "0xzz"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.get(t, "/transactions/0x1234")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFarm(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	alice := accs[1]

	var params struct {
		RewardToken           scrap.Address         `json:"rewardToken"`
		RewardPerBlock        *math.HexOrDecimal256 `json:"rewardPerBlock"`
		TotalAllocationWeight uint64                `json:"totalAllocationWeight"`
		PoolLength            uint64                `json:"poolLength"`
	}
	ts.getJSON(t, "/farm", &params)
	assert.Equal(t, token("SCRAP"), params.RewardToken)
	assert.Equal(t, ether(10), bigOf(params.RewardPerBlock))
	assert.Equal(t, uint64(5500), params.TotalAllocationWeight)
	assert.Equal(t, uint64(3), params.PoolLength)

	var pools []struct {
		PID           uint64        `json:"pid"`
		Token         scrap.Address `json:"token"`
		Weight        uint64        `json:"weight"`
		DepositFeeBps uint64        `json:"depositFeeBps"`
	}
	ts.getJSON(t, "/farm/pools", &pools)
	require.Len(t, pools, 3)
	assert.Equal(t, token("WVET"), pools[0].Token)
	assert.Equal(t, uint64(1000), pools[0].Weight)
	assert.Equal(t, uint64(2), pools[2].PID)
	assert.Equal(t, uint64(400), pools[2].DepositFeeBps)

	_, status := ts.get(t, "/farm/pools/7")
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.get(t, "/farm/pools/x")
	assert.Equal(t, http.StatusBadRequest, status)

	deposit := tx.New(alice, 1,
		tx.NewClause(token("WVET"), "approve").MustWithArgs(map[string]any{"spender": builtin.Farm.Address, "amount": "500"}),
		tx.NewClause(builtin.Farm.Address, "deposit").MustWithArgs(map[string]any{"pid": 0, "amount": "500", "harvest": true}),
	)
	require.NoError(t, ts.pool.Add(deposit))
	ts.pack(t)

	var stake struct {
		Amount  *math.HexOrDecimal256 `json:"amount"`
		Pending *math.HexOrDecimal256 `json:"pending"`
	}
	ts.getJSON(t, "/farm/pools/0/users/"+alice.String(), &stake)
	assert.Equal(t, big.NewInt(500), bigOf(stake.Amount))
	assert.Equal(t, 0, bigOf(stake.Pending).Sign())

	var pool struct {
		TotalStaked *math.HexOrDecimal256 `json:"totalStaked"`
	}
	ts.getJSON(t, "/farm/pools/0", &pool)
	assert.Equal(t, big.NewInt(500), bigOf(pool.TotalStaked))

	// the deposit event is indexed
	body, status := ts.post(t, "/logs/event", map[string]any{
		"criteriaSet": []any{map[string]any{"address": builtin.Farm.Address, "name": "Deposit"}},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var logs []struct {
		Name string `json:"name"`
		Meta struct {
			BlockNumber uint32        `json:"blockNumber"`
			TxID        scrap.Bytes32 `json:"txID"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(body, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "Deposit", logs[0].Name)
	assert.Equal(t, deposit.ID(), logs[0].Meta.TxID)
	assert.Equal(t, uint32(1), logs[0].Meta.BlockNumber)
}

func TestLogsLimit(t *testing.T) {
	ts := newTestServer(t)

	_, status := ts.post(t, "/logs/event", map[string]any{"options": map[string]any{"offset": 0, "limit": api.DefaultLogsLimit + 1}})
	assert.Equal(t, http.StatusForbidden, status)
	_, status = ts.post(t, "/logs/event", map[string]any{"range": map[string]any{"from": 5, "to": 1}})
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.post(t, "/logs/event", map[string]any{"order": "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, status = ts.post(t, "/logs/event", map[string]any{"criteriaSet": []any{nil}})
	assert.Equal(t, http.StatusBadRequest, status)

	body, status := ts.post(t, "/logs/event", map[string]any{"range": map[string]any{"from": 1}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestRecycler(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()

	var params struct {
		MainAsset scrap.Address `json:"mainAsset"`
		BaseAsset scrap.Address `json:"baseAsset"`
		Vault     scrap.Address `json:"vault"`
		FeeTo     scrap.Address `json:"feeTo"`
	}
	ts.getJSON(t, "/recycler", &params)
	assert.Equal(t, token("SCRAP"), params.MainAsset)
	assert.Equal(t, token("WVET"), params.BaseAsset)
	assert.Equal(t, accs[9], params.Vault)
	assert.Equal(t, builtin.Recycler.Address, params.FeeTo)

	var bridge struct {
		Bridge scrap.Address `json:"bridge"`
	}
	ts.getJSON(t, "/recycler/bridges/"+token("DAI").String(), &bridge)
	assert.Equal(t, token("USDT"), bridge.Bridge)

	var pair struct {
		Address     scrap.Address         `json:"address"`
		TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
		Token0      scrap.Address         `json:"token0"`
		Reserve0    *math.HexOrDecimal256 `json:"reserve0"`
		Reserve1    *math.HexOrDecimal256 `json:"reserve1"`
	}
	ts.getJSON(t, "/recycler/pairs/"+token("SCRAP").String()+"/"+token("WVET").String(), &pair)
	t0, t1 := scrap.SortAddresses(token("SCRAP"), token("WVET"))
	assert.Equal(t, scrap.CreatePairAddress(builtin.Factory.Address, t0, t1), pair.Address)
	assert.Equal(t, t0, pair.Token0)
	assert.Positive(t, bigOf(pair.TotalSupply).Sign())
	if t0 == token("SCRAP") {
		assert.Equal(t, ether(100_000), bigOf(pair.Reserve0))
		assert.Equal(t, ether(400_000), bigOf(pair.Reserve1))
	} else {
		assert.Equal(t, ether(400_000), bigOf(pair.Reserve0))
		assert.Equal(t, ether(100_000), bigOf(pair.Reserve1))
	}

	_, status := ts.get(t, "/recycler/pairs/"+token("SCRAP").String()+"/"+token("DAI").String())
	assert.Equal(t, http.StatusNotFound, status)

	// the recycler holds no shares yet
	var preview struct {
		Shares *math.HexOrDecimal256 `json:"shares"`
	}
	ts.getJSON(t, "/recycler/preview?tokenX="+token("SCRAP").String()+"&tokenY="+token("WVET").String(), &preview)
	assert.Equal(t, 0, bigOf(preview.Shares).Sign())

	_, status = ts.get(t, "/recycler/preview?tokenX=bad&tokenY="+token("WVET").String())
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t)
	accs := genesis.DevAccounts()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	blockConn, _, err := websocket.DefaultDialer.Dial(wsURL+"/subscriptions/block", nil)
	require.NoError(t, err)
	defer blockConn.Close()

	usdt := token("USDT")
	eventConn, _, err := websocket.DefaultDialer.Dial(wsURL+"/subscriptions/event?addr="+usdt.String()+"&name=Transfer", nil)
	require.NoError(t, err)
	defer eventConn.Close()

	_, res, err := websocket.DefaultDialer.Dial(wsURL+"/subscriptions/event?addr=0x12", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	trx := tx.New(accs[3], 1,
		tx.NewClause(token("DAI"), "transfer").MustWithArgs(map[string]any{"to": accs[4], "amount": "1"}),
		tx.NewClause(usdt, "transfer").MustWithArgs(map[string]any{"to": accs[4], "amount": "2"}),
	)
	require.NoError(t, ts.pool.Add(trx))
	blk := ts.pack(t)

	var blockMsg struct {
		Number       uint32          `json:"number"`
		ID           scrap.Bytes32   `json:"id"`
		Transactions []scrap.Bytes32 `json:"transactions"`
	}
	require.NoError(t, blockConn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, blockConn.ReadJSON(&blockMsg))
	assert.Equal(t, uint32(1), blockMsg.Number)
	assert.Equal(t, blk.Header().ID(), blockMsg.ID)
	assert.Equal(t, []scrap.Bytes32{trx.ID()}, blockMsg.Transactions)

	var eventMsg struct {
		Address scrap.Address `json:"address"`
		Name    string        `json:"name"`
		Meta    struct {
			BlockID scrap.Bytes32 `json:"blockID"`
			TxID    scrap.Bytes32 `json:"txID"`
		} `json:"meta"`
	}
	require.NoError(t, eventConn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, eventConn.ReadJSON(&eventMsg))
	assert.Equal(t, usdt, eventMsg.Address)
	assert.Equal(t, "Transfer", eventMsg.Name)
	assert.Equal(t, blk.Header().ID(), eventMsg.Meta.BlockID)
	assert.Equal(t, trx.ID(), eventMsg.Meta.TxID)
}
