// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package recycler

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapyard/scrapmaster/builtin/pair"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/lvldb"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/state"
	"github.com/scrapyard/scrapmaster/tx"
	"github.com/scrapyard/scrapmaster/xenv"
)

var (
	owner        = scrap.BytesToAddress([]byte("owner"))
	vault        = scrap.BytesToAddress([]byte("vault"))
	factoryAddr  = scrap.BytesToAddress([]byte("factory"))
	recyclerAddr = scrap.BytesToAddress([]byte("recycler"))

	mainAsset = scrap.BytesToAddress([]byte("main"))
	baseAsset = scrap.BytesToAddress([]byte("base"))
	tokenX    = scrap.BytesToAddress([]byte("tokenX"))
	tokenY    = scrap.BytesToAddress([]byte("tokenY"))
	tokenW    = scrap.BytesToAddress([]byte("tokenW"))
	tokenQ    = scrap.BytesToAddress([]byte("tokenQ"))
)

type fixture struct {
	t        *testing.T
	env      *xenv.Environment
	factory  *pair.Factory
	recycler *Recycler
}

func newFixture(t *testing.T, withVault bool) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	env := xenv.New(state.New(db), &xenv.BlockContext{Number: 10}, nil, recyclerAddr, nil)

	f := &fixture{
		t:        t,
		env:      env,
		factory:  pair.NewFactory(factoryAddr, env),
		recycler: New(recyclerAddr, env),
	}
	require.NoError(t, f.factory.Initialize(owner))
	for _, addr := range []scrap.Address{mainAsset, baseAsset, tokenX, tokenY, tokenW, tokenQ} {
		tk := token.New(addr, env)
		require.NoError(t, tk.Initialize("Mock", "MCK", owner))
		require.NoError(t, tk.Mint(owner, owner, big.NewInt(1_000_000_000_000)))
	}
	cfg := &Config{
		Factory:   factoryAddr,
		MainAsset: mainAsset,
		BaseAsset: baseAsset,
		Owner:     owner,
	}
	if withVault {
		cfg.Vault = vault
	}
	require.NoError(t, f.recycler.Initialize(cfg))
	return f
}

// pool creates the (a, b) pair and seeds it from owner.
func (f *fixture) pool(a, b scrap.Address, amountA, amountB int64) *pair.Pair {
	addr, err := f.factory.CreatePair(a, b)
	require.NoError(f.t, err)
	p := pair.New(addr, f.env)
	require.NoError(f.t, token.New(a, f.env).Transfer(owner, addr, big.NewInt(amountA)))
	require.NoError(f.t, token.New(b, f.env).Transfer(owner, addr, big.NewInt(amountB)))
	_, err = p.Mint(owner)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) give(p *pair.Pair, shares int64) {
	require.NoError(f.t, p.LP().Transfer(owner, recyclerAddr, big.NewInt(shares)))
}

func (f *fixture) balance(asset, holder scrap.Address) string {
	bal, err := token.New(asset, f.env).BalanceOf(holder)
	require.NoError(f.t, err)
	return bal.String()
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, true)

	params, err := f.recycler.Params()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Factory:   factoryAddr,
		MainAsset: mainAsset,
		BaseAsset: baseAsset,
		Owner:     owner,
		Vault:     vault,
	}, params)

	err = f.recycler.Initialize(params)
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)

	other := New(scrap.BytesToAddress([]byte("other")), f.env)
	err = other.Initialize(&Config{Factory: factoryAddr, MainAsset: mainAsset, BaseAsset: mainAsset, Owner: owner})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
	err = other.Initialize(&Config{Factory: factoryAddr, MainAsset: mainAsset, Owner: owner})
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
}

func TestAdmin(t *testing.T) {
	f := newFixture(t, false)

	assert.ErrorIs(t, f.recycler.SetVault(vault, vault), reverts.ErrUnauthorized)
	assert.ErrorIs(t, f.recycler.SetVault(owner, scrap.Address{}), reverts.ErrInvalidParameter)
	require.NoError(t, f.recycler.SetVault(owner, vault))
	params, _ := f.recycler.Params()
	assert.Equal(t, vault, params.Vault)

	bridge, err := f.recycler.BridgeFor(tokenY)
	require.NoError(t, err)
	assert.Equal(t, baseAsset, bridge)

	assert.ErrorIs(t, f.recycler.SetBridge(vault, tokenY, tokenW), reverts.ErrUnauthorized)
	assert.ErrorIs(t, f.recycler.SetBridge(owner, mainAsset, tokenW), reverts.ErrInvalidParameter)
	assert.ErrorIs(t, f.recycler.SetBridge(owner, tokenY, tokenY), reverts.ErrInvalidParameter)
	require.NoError(t, f.recycler.SetBridge(owner, tokenY, tokenW))
	bridge, _ = f.recycler.BridgeFor(tokenY)
	assert.Equal(t, tokenW, bridge)

	events := f.env.Events().Filter(func(ev *tx.Event) bool { return ev.Address == recyclerAddr })
	require.Len(t, events, 2)
	assert.Equal(t, "VaultChanged", events[0].Name)
	assert.Equal(t, "BridgeChanged", events[1].Name)
}

func TestRecycleRequiresVaultAndPair(t *testing.T) {
	f := newFixture(t, false)
	f.pool(tokenX, tokenY, 1_000_000, 1_000_000)

	_, err := f.recycler.Recycle(owner, tokenX, tokenY)
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)

	require.NoError(t, f.recycler.SetVault(owner, vault))
	_, err = f.recycler.Recycle(owner, tokenX, tokenQ)
	assert.ErrorIs(t, err, reverts.ErrInvalidParameter)
}

func TestRecycleNoShares(t *testing.T) {
	f := newFixture(t, true)
	f.pool(tokenX, tokenY, 1_000_000, 1_000_000)

	res, err := f.recycler.Recycle(owner, tokenY, tokenX)
	require.NoError(t, err)
	assert.Equal(t, "0", res.Shares.String())
	assert.Empty(t, f.env.Events().Filter(func(ev *tx.Event) bool { return ev.Address == recyclerAddr }))
}

func TestRecycleCanonicalPair(t *testing.T) {
	f := newFixture(t, true)
	p := f.pool(mainAsset, baseAsset, 1_000_000, 4_000_000)
	f.give(p, 199_900)

	res, err := f.recycler.Recycle(owner, mainAsset, baseAsset)
	require.NoError(t, err)
	assert.Equal(t, "199900", res.Shares.String())
	assert.Empty(t, res.Converted)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, "99950", f.balance(mainAsset, vault))
	assert.Equal(t, "399800", f.balance(baseAsset, vault))
	assert.Equal(t, "0", f.balance(mainAsset, recyclerAddr))
	assert.Equal(t, "0", f.balance(p.Address(), recyclerAddr))
}

func TestRecycleDirect(t *testing.T) {
	f := newFixture(t, true)
	p := f.pool(tokenX, tokenY, 1_000_000, 1_000_000)
	f.pool(tokenX, mainAsset, 10_000_000, 10_000_000)
	f.pool(tokenY, baseAsset, 10_000_000, 20_000_000)
	f.give(p, 99_900)

	res, err := f.recycler.Recycle(owner, tokenX, tokenY)
	require.NoError(t, err)
	assert.Len(t, res.Converted, 2)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, "98618", f.balance(mainAsset, vault))
	assert.Equal(t, "197236", f.balance(baseAsset, vault))
	assert.Equal(t, "98618", res.Main.String())
	assert.Equal(t, "197236", res.Base.String())
	for _, asset := range []scrap.Address{tokenX, tokenY, mainAsset, baseAsset} {
		assert.Equal(t, "0", f.balance(asset, recyclerAddr), asset.String())
	}

	names := map[string]int{}
	for _, ev := range f.env.Events() {
		if ev.Address == recyclerAddr {
			names[ev.Name]++
		}
	}
	assert.Equal(t, map[string]int{"Converted": 2, "Forwarded": 2, "Recycled": 1}, names)
}

func TestRecycleBridged(t *testing.T) {
	f := newFixture(t, true)
	p := f.pool(tokenX, tokenY, 1_000_000, 1_000_000)
	f.pool(tokenX, mainAsset, 10_000_000, 10_000_000)
	f.pool(tokenY, tokenW, 10_000_000, 10_000_000)
	f.pool(tokenW, baseAsset, 10_000_000, 30_000_000)
	require.NoError(t, f.recycler.SetBridge(owner, tokenY, tokenW))
	f.give(p, 99_900)

	res, err := f.recycler.Recycle(owner, tokenX, tokenY)
	require.NoError(t, err)
	assert.Len(t, res.Converted, 3)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, "98618", f.balance(mainAsset, vault))
	assert.Equal(t, "292094", f.balance(baseAsset, vault))
	assert.Equal(t, "0", f.balance(tokenW, recyclerAddr))
}

func TestRecycleSkipsUnroutable(t *testing.T) {
	f := newFixture(t, true)
	p := f.pool(tokenX, tokenQ, 1_000_000, 1_000_000)
	f.pool(tokenX, mainAsset, 10_000_000, 10_000_000)
	f.give(p, 99_900)

	res, err := f.recycler.Recycle(owner, tokenX, tokenQ)
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, tokenQ, res.Skipped[0].Asset)
	assert.Equal(t, "99900", res.Skipped[0].Amount.String())

	assert.Equal(t, "98618", f.balance(mainAsset, vault))
	assert.Equal(t, "0", f.balance(baseAsset, vault))
	assert.Equal(t, "99900", f.balance(tokenQ, recyclerAddr))

	skipped := f.env.Events().Filter(func(ev *tx.Event) bool { return ev.Name == "Skipped" })
	require.Len(t, skipped, 1)
	var body amountEvent
	require.NoError(t, skipped[0].Decode(&body))
	assert.Equal(t, tokenQ, body.Asset)
	assert.Equal(t, "99900", (*big.Int)(body.Amount).String())
}

func TestPreview(t *testing.T) {
	f := newFixture(t, true)
	p := f.pool(tokenX, tokenY, 1_000_000, 1_000_000)
	f.pool(tokenX, mainAsset, 10_000_000, 10_000_000)
	f.pool(tokenY, baseAsset, 10_000_000, 20_000_000)
	f.give(p, 99_900)
	before := len(f.env.Events())

	res, err := f.recycler.Preview(tokenX, tokenY)
	require.NoError(t, err)
	assert.Equal(t, "98618", res.Main.String())
	assert.Equal(t, "197236", res.Base.String())

	assert.Equal(t, "99900", f.balance(p.Address(), recyclerAddr))
	assert.Equal(t, "0", f.balance(mainAsset, recyclerAddr))
	assert.Len(t, f.env.Events(), before)

	res, err = f.recycler.Recycle(owner, tokenX, tokenY)
	require.NoError(t, err)
	assert.Equal(t, "98618", res.Main.String())
}

func TestRecycleProtocolFee(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.factory.SetFeeTo(owner, recyclerAddr))
	p := f.pool(mainAsset, baseAsset, 10_000_000, 10_000_000)

	// trade to grow k, then touch liquidity so the fee shares are minted
	r0, r1, _, err := p.Reserves()
	require.NoError(t, err)
	t0, _ := p.Token0()
	rIn, rOut := r0, r1
	if t0 != mainAsset {
		rIn, rOut = r1, r0
	}
	out, err := pair.GetAmountOut(big.NewInt(1_000_000), rIn, rOut)
	require.NoError(t, err)
	require.NoError(t, token.New(mainAsset, f.env).Transfer(owner, p.Address(), big.NewInt(1_000_000)))
	if t0 == mainAsset {
		require.NoError(t, p.Swap(new(big.Int), out, owner))
	} else {
		require.NoError(t, p.Swap(out, new(big.Int), owner))
	}
	require.NoError(t, token.New(mainAsset, f.env).Transfer(owner, p.Address(), big.NewInt(1000)))
	require.NoError(t, token.New(baseAsset, f.env).Transfer(owner, p.Address(), big.NewInt(1000)))
	_, err = p.Mint(owner)
	require.NoError(t, err)

	shares, err := p.LP().BalanceOf(recyclerAddr)
	require.NoError(t, err)
	require.Positive(t, shares.Sign())

	res, err := f.recycler.Recycle(owner, baseAsset, mainAsset)
	require.NoError(t, err)
	assert.Equal(t, shares.String(), res.Shares.String())
	assert.Equal(t, res.Main.String(), f.balance(mainAsset, vault))
	assert.Equal(t, res.Base.String(), f.balance(baseAsset, vault))
	assert.Positive(t, res.Main.Sign())
	assert.Positive(t, res.Base.Sign())
	assert.Equal(t, "0", f.balance(p.Address(), recyclerAddr))
}
