// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package recycler converts the protocol fee shares collected from pairs into the main and base
// assets and forwards them to a vault.
package recycler

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/builtin/pair"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/metrics"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

// MaxHops bounds the number of bridge hops tried for one asset.
const MaxHops = 3

var (
	logger = log.WithContext("pkg", "recycler")

	metricConverted = metrics.LazyLoadCounterVec("recycler_converted_count", []string{"path"})

	slotFactory = solidity.Slot("recycler-factory")
	slotMain    = solidity.Slot("recycler-main-asset")
	slotBase    = solidity.Slot("recycler-base-asset")
	slotOwner   = solidity.Slot("recycler-owner")
	slotVault   = solidity.Slot("recycler-vault")
	slotBridges = solidity.Slot("recycler-bridges")
)

// Config holds the construction parameters of a recycler. Vault is optional.
type Config struct {
	Factory   scrap.Address
	MainAsset scrap.Address
	BaseAsset scrap.Address
	Owner     scrap.Address
	Vault     scrap.Address
}

// Result reports the outcome of one recycle.
type Result struct {
	Shares    *big.Int
	Main      *big.Int
	Base      *big.Int
	Converted []*Conversion
	Skipped   []*Skip
}

// Conversion is one swap hop.
type Conversion struct {
	From      scrap.Address
	To        scrap.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

// Skip is an asset left in the recycler for lack of a path.
type Skip struct {
	Asset  scrap.Address
	Amount *big.Int
}

// Recycler is the fee router bound to an address.
type Recycler struct {
	addr scrap.Address
	env  *xenv.Environment

	factory *solidity.Raw[scrap.Address]
	main    *solidity.Raw[scrap.Address]
	base    *solidity.Raw[scrap.Address]
	owner   *solidity.Raw[scrap.Address]
	vault   *solidity.Raw[scrap.Address]
	bridges *solidity.Mapping[scrap.Address, scrap.Address]
}

func New(addr scrap.Address, env *xenv.Environment) *Recycler {
	sctx := solidity.NewContext(addr, env.State())
	return &Recycler{
		addr:    addr,
		env:     env,
		factory: solidity.NewRaw[scrap.Address](sctx, slotFactory),
		main:    solidity.NewRaw[scrap.Address](sctx, slotMain),
		base:    solidity.NewRaw[scrap.Address](sctx, slotBase),
		owner:   solidity.NewRaw[scrap.Address](sctx, slotOwner),
		vault:   solidity.NewRaw[scrap.Address](sctx, slotVault),
		bridges: solidity.NewMapping[scrap.Address, scrap.Address](sctx, slotBridges),
	}
}

func (r *Recycler) Address() scrap.Address {
	return r.addr
}

// Initialize stores the configuration. A recycler is initialized once.
func (r *Recycler) Initialize(cfg *Config) error {
	owner, err := r.owner.Get()
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "recycler %v already initialized", r.addr)
	}
	switch {
	case cfg.Owner.IsZero(), cfg.Factory.IsZero(), cfg.MainAsset.IsZero(), cfg.BaseAsset.IsZero():
		return reverts.New(reverts.ErrInvalidParameter, "zero address in config")
	case cfg.MainAsset == cfg.BaseAsset:
		return reverts.New(reverts.ErrInvalidParameter, "main and base assets are identical")
	}
	if err := r.factory.Set(cfg.Factory); err != nil {
		return err
	}
	if err := r.main.Set(cfg.MainAsset); err != nil {
		return err
	}
	if err := r.base.Set(cfg.BaseAsset); err != nil {
		return err
	}
	if err := r.vault.Set(cfg.Vault); err != nil {
		return err
	}
	return r.owner.Set(cfg.Owner)
}

// Params returns the current configuration.
func (r *Recycler) Params() (*Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.Factory, err = r.factory.Get(); err != nil {
		return nil, err
	}
	if cfg.MainAsset, err = r.main.Get(); err != nil {
		return nil, err
	}
	if cfg.BaseAsset, err = r.base.Get(); err != nil {
		return nil, err
	}
	if cfg.Owner, err = r.owner.Get(); err != nil {
		return nil, err
	}
	if cfg.Vault, err = r.vault.Get(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Recycler) checkOwner(caller scrap.Address) error {
	owner, err := r.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.ErrUnauthorized, "caller is not the owner")
	}
	return nil
}

// SetVault changes where the canonical assets go. Owner only.
func (r *Recycler) SetVault(caller, vault scrap.Address) error {
	if err := r.checkOwner(caller); err != nil {
		return err
	}
	if vault.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "vault is the zero address")
	}
	if err := r.vault.Set(vault); err != nil {
		return err
	}
	return r.env.Emit(r.addr, "VaultChanged", &struct {
		Vault scrap.Address `json:"vault"`
	}{vault}, scrap.AddressToBytes32(vault))
}

// SetBridge sets the intermediate asset used for asset when no direct path exists. Owner only.
func (r *Recycler) SetBridge(caller, asset, bridge scrap.Address) error {
	if err := r.checkOwner(caller); err != nil {
		return err
	}
	main, err := r.main.Get()
	if err != nil {
		return err
	}
	base, err := r.base.Get()
	if err != nil {
		return err
	}
	if asset == main || asset == base || asset == bridge || asset.IsZero() || bridge.IsZero() {
		return reverts.New(reverts.ErrInvalidParameter, "invalid bridge")
	}
	if err := r.bridges.Set(asset, bridge); err != nil {
		return err
	}
	return r.env.Emit(r.addr, "BridgeChanged", &struct {
		Asset  scrap.Address `json:"asset"`
		Bridge scrap.Address `json:"bridge"`
	}{asset, bridge}, scrap.AddressToBytes32(asset), scrap.AddressToBytes32(bridge))
}

// BridgeFor returns the intermediate asset of asset, the base asset by default.
func (r *Recycler) BridgeFor(asset scrap.Address) (scrap.Address, error) {
	bridge, err := r.bridges.Get(asset)
	if err != nil {
		return scrap.Address{}, err
	}
	if bridge.IsZero() {
		return r.base.Get()
	}
	return bridge, nil
}

// Recycle redeems the shares of the (tokenX, tokenY) pair held by the recycler, converts the
// redeemed assets into the main and base assets and sends those to the vault.
// Assets without a path are kept and reported as skipped.
func (r *Recycler) Recycle(caller, tokenX, tokenY scrap.Address) (res *Result, err error) {
	logger.Debug("recycling", "caller", caller, "tokenX", tokenX, "tokenY", tokenY)
	defer func() {
		if err != nil {
			logger.Info("recycle failed", "tokenX", tokenX, "tokenY", tokenY, "error", err)
		}
	}()
	vault, err := r.vault.Get()
	if err != nil {
		return nil, err
	}
	if vault.IsZero() {
		return nil, reverts.New(reverts.ErrInvalidParameter, "vault not set")
	}
	if res, err = r.convert(tokenX, tokenY); err != nil {
		return nil, err
	}
	if res.Shares.Sign() == 0 {
		return res, nil
	}
	if err := r.forward(vault, res); err != nil {
		return nil, err
	}
	logger.Info("recycled", "tokenX", tokenX, "tokenY", tokenY, "shares", res.Shares, "main", res.Main, "base", res.Base)
	return res, r.env.Emit(r.addr, "Recycled", &recycledEvent{
		TokenX: tokenX,
		TokenY: tokenY,
		Shares: hex(res.Shares),
	}, scrap.AddressToBytes32(tokenX), scrap.AddressToBytes32(tokenY))
}

// Preview runs a recycle against a throwaway checkpoint and reports what it would produce.
// Main and Base of the result are the balances that would be forwarded.
func (r *Recycler) Preview(tokenX, tokenY scrap.Address) (*Result, error) {
	st := r.env.State()
	rev := st.NewCheckpoint()
	defer st.RevertTo(rev)

	sim := New(r.addr, xenv.New(st, r.env.BlockContext(), r.env.TransactionContext(), r.addr, nil))
	res, err := sim.convert(tokenX, tokenY)
	if err != nil {
		return nil, err
	}
	if err := sim.balances(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Recycler) convert(tokenX, tokenY scrap.Address) (*Result, error) {
	factoryAddr, err := r.factory.Get()
	if err != nil {
		return nil, err
	}
	pairAddr, err := pair.NewFactory(factoryAddr, r.env).GetPair(tokenX, tokenY)
	if err != nil {
		return nil, err
	}
	if pairAddr.IsZero() {
		return nil, reverts.New(reverts.ErrInvalidParameter, "invalid pair")
	}
	p := pair.New(pairAddr, r.env)
	shares, err := p.LP().BalanceOf(r.addr)
	if err != nil {
		return nil, err
	}
	res := &Result{Shares: shares, Main: new(big.Int), Base: new(big.Int)}
	if shares.Sign() == 0 {
		return res, nil
	}

	if err := p.LP().Transfer(r.addr, pairAddr, shares); err != nil {
		return nil, err
	}
	amount0, amount1, err := p.Burn(r.addr)
	if err != nil {
		return nil, errors.WithMessage(err, "redeem shares")
	}
	token0, err := p.Token0()
	if err != nil {
		return nil, err
	}
	token1, err := p.Token1()
	if err != nil {
		return nil, err
	}
	if err := r.toCanonical(res, token0, amount0, 0); err != nil {
		return nil, err
	}
	if err := r.toCanonical(res, token1, amount1, 0); err != nil {
		return nil, err
	}
	return res, nil
}

// toCanonical converts amount of asset held by the recycler into the main or base asset.
func (r *Recycler) toCanonical(res *Result, asset scrap.Address, amount *big.Int, hops int) error {
	main, err := r.main.Get()
	if err != nil {
		return err
	}
	base, err := r.base.Get()
	if err != nil {
		return err
	}
	if asset == main || asset == base || amount.Sign() == 0 {
		return nil
	}

	for _, target := range []scrap.Address{main, base} {
		ok, err := r.swap(res, asset, target, amount)
		if err != nil {
			return err
		}
		if ok {
			path := "direct"
			if hops > 0 {
				path = "bridged"
			}
			metricConverted().AddWithLabel(1, map[string]string{"path": path})
			return nil
		}
	}

	if hops < MaxHops {
		bridge, err := r.BridgeFor(asset)
		if err != nil {
			return err
		}
		if bridge != asset {
			before := len(res.Converted)
			ok, err := r.swap(res, asset, bridge, amount)
			if err != nil {
				return err
			}
			if ok {
				return r.toCanonical(res, bridge, res.Converted[before].AmountOut, hops+1)
			}
		}
	}

	metricConverted().AddWithLabel(1, map[string]string{"path": "skipped"})
	logger.Warn("no conversion path, asset kept", "asset", asset, "amount", amount)
	res.Skipped = append(res.Skipped, &Skip{Asset: asset, Amount: amount})
	return r.env.Emit(r.addr, "Skipped", &amountEvent{Asset: asset, Amount: hex(amount)}, scrap.AddressToBytes32(asset))
}

// swap sells amountIn of from through the (from, to) pair. It reports false without touching
// anything when the pair does not exist or the output rounds down to zero.
func (r *Recycler) swap(res *Result, from, to scrap.Address, amountIn *big.Int) (bool, error) {
	factoryAddr, err := r.factory.Get()
	if err != nil {
		return false, err
	}
	pairAddr, err := pair.NewFactory(factoryAddr, r.env).GetPair(from, to)
	if err != nil || pairAddr.IsZero() {
		return false, err
	}
	p := pair.New(pairAddr, r.env)
	r0, r1, _, err := p.Reserves()
	if err != nil {
		return false, err
	}
	token0, err := p.Token0()
	if err != nil {
		return false, err
	}
	reserveIn, reserveOut := r0, r1
	if token0 != from {
		reserveIn, reserveOut = r1, r0
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return false, nil
	}
	amountOut, err := pair.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return false, err
	}
	if amountOut.Sign() == 0 {
		return false, nil
	}

	if err := token.New(from, r.env).Transfer(r.addr, pairAddr, amountIn); err != nil {
		return false, err
	}
	out0, out1 := new(big.Int), amountOut
	if token0 != from {
		out0, out1 = amountOut, new(big.Int)
	}
	if err := p.Swap(out0, out1, r.addr); err != nil {
		return false, errors.WithMessagef(err, "swap %v to %v", from, to)
	}
	res.Converted = append(res.Converted, &Conversion{From: from, To: to, AmountIn: amountIn, AmountOut: amountOut})
	return true, r.env.Emit(r.addr, "Converted", &convertedEvent{
		From:      from,
		To:        to,
		AmountIn:  hex(amountIn),
		AmountOut: hex(amountOut),
	}, scrap.AddressToBytes32(from), scrap.AddressToBytes32(to))
}

// assets returns the configured main and base asset addresses.
func (r *Recycler) assets() (main, base scrap.Address, err error) {
	if main, err = r.main.Get(); err != nil {
		return
	}
	base, err = r.base.Get()
	return
}

// balances fills Main and Base with what the recycler holds of main and base.
func (r *Recycler) balances(main, base scrap.Address, res *Result) (err error) {
	if res.Main, err = token.New(main, r.env).BalanceOf(r.addr); err != nil {
		return err
	}
	res.Base, err = token.New(base, r.env).BalanceOf(r.addr)
	return err
}

// forward sends all main and base balances to vault.
func (r *Recycler) forward(vault scrap.Address, res *Result) error {
	main, base, err := r.assets()
	if err != nil {
		return err
	}
	if err := r.balances(main, base, res); err != nil {
		return err
	}
	for _, f := range []struct {
		asset  scrap.Address
		amount *big.Int
	}{{main, res.Main}, {base, res.Base}} {
		if f.amount.Sign() == 0 {
			continue
		}
		if err := token.New(f.asset, r.env).Transfer(r.addr, vault, f.amount); err != nil {
			return errors.WithMessage(err, "forward to vault")
		}
		if err := r.env.Emit(r.addr, "Forwarded", &forwardedEvent{
			Asset:  f.asset,
			Vault:  vault,
			Amount: hex(f.amount),
		}, scrap.AddressToBytes32(f.asset), scrap.AddressToBytes32(vault)); err != nil {
			return err
		}
	}
	return nil
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

type recycledEvent struct {
	TokenX scrap.Address         `json:"tokenX"`
	TokenY scrap.Address         `json:"tokenY"`
	Shares *math.HexOrDecimal256 `json:"shares"`
}

type convertedEvent struct {
	From      scrap.Address         `json:"from"`
	To        scrap.Address         `json:"to"`
	AmountIn  *math.HexOrDecimal256 `json:"amountIn"`
	AmountOut *math.HexOrDecimal256 `json:"amountOut"`
}

type amountEvent struct {
	Asset  scrap.Address         `json:"asset"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type forwardedEvent struct {
	Asset  scrap.Address         `json:"asset"`
	Vault  scrap.Address         `json:"vault"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}
