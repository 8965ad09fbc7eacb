// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/builtin/farm"
	"github.com/scrapyard/scrapmaster/builtin/recycler"
	"github.com/scrapyard/scrapmaster/builtin/registry"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	admin = scrap.BytesToAddress([]byte("admin"))
	alice = scrap.BytesToAddress([]byte("alice"))
	vault = scrap.BytesToAddress([]byte("vault"))
)

type ctx struct {
	t     *testing.T
	st    *state.State
	block *xenv.BlockContext
}

func newCtx(t *testing.T) *ctx {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return &ctx{t: t, st: state.New(db), block: &xenv.BlockContext{Number: 1}}
}

func (c *ctx) env(to scrap.Address) *xenv.Environment {
	return xenv.New(c.st, c.block, &xenv.TransactionContext{Origin: admin}, to, nil)
}

func (c *ctx) call(origin, to scrap.Address, method string, args string) (string, error) {
	m, ok, err := FindNativeMethod(c.st, to, method)
	require.NoError(c.t, err)
	require.True(c.t, ok, "method %s not found", method)
	env := xenv.New(c.st, c.block, &xenv.TransactionContext{Origin: origin}, to, json.RawMessage(args))
	out, err := env.Call(m.Run)()
	return string(out), err
}

func (c *ctx) mustCall(origin, to scrap.Address, method string, args string) string {
	out, err := c.call(origin, to, method, args)
	require.NoError(c.t, err, method)
	return out
}

func TestFindNativeMethod(t *testing.T) {
	c := newCtx(t)
	addr := TokenAddress("AAA")

	_, ok, err := FindNativeMethod(c.st, addr, "transfer")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = DeployToken(c.env(addr), addr, "Token A", "AAA", admin)
	require.NoError(t, err)

	m, ok, err := FindNativeMethod(c.st, addr, "transfer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, registry.KindToken, m.Kind)
	assert.False(t, m.ReadOnly)

	m, ok, _ = FindNativeMethod(c.st, addr, "balanceOf")
	require.True(t, ok)
	assert.True(t, m.ReadOnly)

	_, ok, _ = FindNativeMethod(c.st, addr, "swap")
	assert.False(t, ok)

	assert.Contains(t, NativeMethods(registry.KindFarm), "emergencyWithdraw")
	for _, name := range []string{"getReserves", "kLast", "balanceOf", "totalSupply", "swap"} {
		assert.Contains(t, NativeMethods(registry.KindPair), name)
	}
	assert.NotContains(t, NativeMethods(registry.KindPair), "grantMinter")
}

func TestTokenCalls(t *testing.T) {
	c := newCtx(t)
	addr := TokenAddress("AAA")
	_, err := DeployToken(c.env(addr), addr, "Token A", "AAA", admin)
	require.NoError(t, err)

	assert.Equal(t, `"AAA"`, c.mustCall(alice, addr, "symbol", ""))
	c.mustCall(admin, addr, "mint", fmt.Sprintf(`{"to":"%v","amount":"1000"}`, alice))
	assert.Equal(t, `"0x3e8"`, c.mustCall(alice, addr, "balanceOf", fmt.Sprintf(`{"owner":"%v"}`, alice)))

	_, err = c.call(alice, addr, "mint", fmt.Sprintf(`{"to":"%v","amount":"1"}`, alice))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	c.mustCall(alice, addr, "transfer", fmt.Sprintf(`{"to":"%v","amount":"0x64"}`, vault))
	assert.Equal(t, `"0x64"`, c.mustCall(alice, addr, "balanceOf", fmt.Sprintf(`{"owner":"%v"}`, vault)))

	tests := []struct {
		args string
		kind error
	}{
		{fmt.Sprintf(`{"to":"%v","amount":"901"}`, vault), reverts.ErrTransferFailed},
		{fmt.Sprintf(`{"to":"%v","amount":"-1"}`, vault), reverts.ErrInvalidParameter},
		{fmt.Sprintf(`{"to":"%v"}`, vault), reverts.ErrInvalidParameter},
		{fmt.Sprintf(`{"to":"%v","amount":"1","memo":"x"}`, vault), reverts.ErrInvalidParameter},
	}
	for _, tt := range tests {
		_, err := c.call(alice, addr, "transfer", tt.args)
		assert.ErrorIs(t, err, tt.kind, tt.args)
	}
	assert.Equal(t, `"0x384"`, c.mustCall(alice, addr, "balanceOf", fmt.Sprintf(`{"owner":"%v"}`, alice)))
}

func TestFactoryAndPairCalls(t *testing.T) {
	c := newCtx(t)
	tokenA, tokenB := TokenAddress("AAA"), TokenAddress("BBB")
	for _, addr := range []scrap.Address{tokenA, tokenB} {
		tk, err := DeployToken(c.env(addr), addr, "Mock", "MCK", admin)
		require.NoError(t, err)
		require.NoError(t, tk.Mint(admin, admin, big.NewInt(10_000_000)))
	}
	_, err := Factory.Deploy(c.env(Factory.Address), admin)
	require.NoError(t, err)
	deployed, err := Factory.Deployed(c.st)
	require.NoError(t, err)
	assert.True(t, deployed)

	out := c.mustCall(admin, Factory.Address, "createPair", fmt.Sprintf(`{"tokenA":"%v","tokenB":"%v"}`, tokenA, tokenB))
	var pairAddr scrap.Address
	require.NoError(t, json.Unmarshal([]byte(out), &pairAddr))
	assert.Equal(t, scrap.CreatePairAddress(Factory.Address, tokenA, tokenB), pairAddr)
	assert.Equal(t, out, c.mustCall(alice, Factory.Address, "getPair", fmt.Sprintf(`{"tokenA":"%v","tokenB":"%v"}`, tokenB, tokenA)))

	c.mustCall(admin, tokenA, "transfer", fmt.Sprintf(`{"to":"%v","amount":"1000000"}`, pairAddr))
	c.mustCall(admin, tokenB, "transfer", fmt.Sprintf(`{"to":"%v","amount":"4000000"}`, pairAddr))
	assert.Equal(t, `"0x1e8098"`, c.mustCall(admin, pairAddr, "mint", fmt.Sprintf(`{"to":"%v"}`, admin)))

	var reserves Reserves
	require.NoError(t, json.Unmarshal([]byte(c.mustCall(alice, pairAddr, "getReserves", "")), &reserves))
	total := new(big.Int).Add((*big.Int)(reserves.Reserve0), (*big.Int)(reserves.Reserve1))
	assert.Equal(t, "5000000", total.String())
	assert.Equal(t, uint32(1), reserves.BlockLast)

	_, err = c.call(alice, Factory.Address, "setFeeTo", fmt.Sprintf(`{"feeTo":"%v"}`, alice))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
}

func TestFarmCalls(t *testing.T) {
	c := newCtx(t)
	reward, stakeToken := TokenAddress("SCRAP"), TokenAddress("LP")
	rewardToken, err := DeployToken(c.env(reward), reward, "Scrap", "SCRAP", admin)
	require.NoError(t, err)
	require.NoError(t, rewardToken.GrantMinter(admin, Farm.Address))
	stake, err := DeployToken(c.env(stakeToken), stakeToken, "Stake", "LP", admin)
	require.NoError(t, err)
	require.NoError(t, stake.Mint(admin, alice, big.NewInt(1000)))

	_, err = Farm.Deploy(c.env(Farm.Address), &farm.Config{
		RewardToken:     reward,
		RewardPerBlock:  big.NewInt(10),
		BonusMultiplier: 1,
		FeeAddress:      vault,
		Owner:           admin,
	})
	require.NoError(t, err)

	_, err = c.call(alice, Farm.Address, "addPool", fmt.Sprintf(`{"token":"%v","weight":100}`, stakeToken))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	assert.Equal(t, "0", c.mustCall(admin, Farm.Address, "addPool", fmt.Sprintf(`{"token":"%v","weight":100,"depositFeeBps":400}`, stakeToken)))

	c.mustCall(alice, stakeToken, "approve", fmt.Sprintf(`{"spender":"%v","amount":"1000"}`, Farm.Address))
	c.mustCall(alice, Farm.Address, "deposit", `{"pid":0,"amount":"250"}`)
	assert.Equal(t, `"0xa"`, c.mustCall(alice, stakeToken, "balanceOf", fmt.Sprintf(`{"owner":"%v"}`, vault)))

	c.block.Number = 4
	assert.Equal(t, `"0x1e"`, c.mustCall(alice, Farm.Address, "pendingReward", fmt.Sprintf(`{"pid":0,"user":"%v"}`, alice)))

	var pool PoolJSON
	require.NoError(t, json.Unmarshal([]byte(c.mustCall(alice, Farm.Address, "poolInfo", `{"pid":0}`)), &pool))
	assert.Equal(t, stakeToken, pool.Token)
	assert.Equal(t, "240", (*big.Int)(pool.TotalStaked).String())

	assert.Equal(t, `"0x1e"`, c.mustCall(alice, Farm.Address, "claim", `{"pid":0}`))
	assert.Equal(t, `"0x1e"`, c.mustCall(alice, reward, "balanceOf", fmt.Sprintf(`{"owner":"%v"}`, alice)))

	_, err = c.call(alice, Farm.Address, "withdraw", `{"pid":0,"amount":"241"}`)
	assert.ErrorIs(t, err, reverts.ErrInsufficientStake)
	_, err = c.call(alice, Farm.Address, "poolInfo", `{"pid":7}`)
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)

	assert.Equal(t, `"0xf0"`, c.mustCall(alice, Farm.Address, "emergencyWithdraw", `{"pid":0}`))

	var params FarmParamsJSON
	require.NoError(t, json.Unmarshal([]byte(c.mustCall(alice, Farm.Address, "params", "")), &params))
	assert.Equal(t, uint64(1), params.PoolLength)
	assert.Equal(t, uint64(100), params.TotalAllocationWeight)
}

func TestRecyclerCalls(t *testing.T) {
	c := newCtx(t)
	mainAsset, baseAsset := TokenAddress("MAIN"), TokenAddress("BASE")
	_, err := Factory.Deploy(c.env(Factory.Address), admin)
	require.NoError(t, err)
	_, err = Recycler.Deploy(c.env(Recycler.Address), &recycler.Config{
		Factory:   Factory.Address,
		MainAsset: mainAsset,
		BaseAsset: baseAsset,
		Owner:     admin,
	})
	require.NoError(t, err)

	_, err = c.call(alice, Recycler.Address, "setVault", fmt.Sprintf(`{"vault":"%v"}`, vault))
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	c.mustCall(admin, Recycler.Address, "setVault", fmt.Sprintf(`{"vault":"%v"}`, vault))

	var params struct {
		Vault     scrap.Address `json:"vault"`
		MainAsset scrap.Address `json:"mainAsset"`
	}
	require.NoError(t, json.Unmarshal([]byte(c.mustCall(alice, Recycler.Address, "params", "")), &params))
	assert.Equal(t, vault, params.Vault)
	assert.Equal(t, mainAsset, params.MainAsset)

	_, err = c.call(alice, Recycler.Address, "recycle", fmt.Sprintf(`{"tokenX":"%v","tokenY":"%v"}`, mainAsset, baseAsset))
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
}
