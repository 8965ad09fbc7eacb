// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pair

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
	"github.com/scrapyard/scrapmaster/builtin/solidity"
	"github.com/scrapyard/scrapmaster/builtin/token"
	"github.com/scrapyard/scrapmaster/log"
	"github.com/scrapyard/scrapmaster/scrap"
	"github.com/scrapyard/scrapmaster/xenv"
)

// MinimumLiquidity is locked at the zero address by the first liquidity provider.
const MinimumLiquidity = 1000

var (
	logger = log.WithContext("pkg", "pair")

	minimumLiquidity = big.NewInt(MinimumLiquidity)

	slotFactory   = solidity.Slot("pair-factory")
	slotToken0    = solidity.Slot("pair-token0")
	slotToken1    = solidity.Slot("pair-token1")
	slotReserve0  = solidity.Slot("pair-reserve0")
	slotReserve1  = solidity.Slot("pair-reserve1")
	slotBlockLast = solidity.Slot("pair-block-last")
	slotKLast     = solidity.Slot("pair-k-last")
)

// Pair is a constant product pool of two tokens. Its liquidity shares are a token kept at the
// pair address.
type Pair struct {
	addr scrap.Address
	env  *xenv.Environment
	lp   *token.Token

	factory   *solidity.Raw[scrap.Address]
	token0    *solidity.Raw[scrap.Address]
	token1    *solidity.Raw[scrap.Address]
	reserve0  *solidity.Uint256
	reserve1  *solidity.Uint256
	blockLast *solidity.Raw[uint32]
	kLast     *solidity.Uint256
}

func New(addr scrap.Address, env *xenv.Environment) *Pair {
	sctx := solidity.NewContext(addr, env.State())
	return &Pair{
		addr:      addr,
		env:       env,
		lp:        token.New(addr, env),
		factory:   solidity.NewRaw[scrap.Address](sctx, slotFactory),
		token0:    solidity.NewRaw[scrap.Address](sctx, slotToken0),
		token1:    solidity.NewRaw[scrap.Address](sctx, slotToken1),
		reserve0:  solidity.NewUint256(sctx, slotReserve0),
		reserve1:  solidity.NewUint256(sctx, slotReserve1),
		blockLast: solidity.NewRaw[uint32](sctx, slotBlockLast),
		kLast:     solidity.NewUint256(sctx, slotKLast),
	}
}

// initialize is called once by the factory creating the pair.
func (p *Pair) initialize(factory, token0, token1 scrap.Address) error {
	if err := p.lp.Initialize("Scrap LP", "SLP", factory); err != nil {
		return err
	}
	if err := p.factory.Set(factory); err != nil {
		return err
	}
	if err := p.token0.Set(token0); err != nil {
		return err
	}
	return p.token1.Set(token1)
}

func (p *Pair) Address() scrap.Address {
	return p.addr
}

// LP returns the liquidity share token.
func (p *Pair) LP() *token.Token {
	return p.lp
}

func (p *Pair) Token0() (scrap.Address, error) {
	return p.token0.Get()
}

func (p *Pair) Token1() (scrap.Address, error) {
	return p.token1.Get()
}

func (p *Pair) Factory() (scrap.Address, error) {
	return p.factory.Get()
}

func (p *Pair) tokens() (*token.Token, *token.Token, error) {
	t0, err := p.token0.Get()
	if err != nil {
		return nil, nil, err
	}
	t1, err := p.token1.Get()
	if err != nil {
		return nil, nil, err
	}
	return token.New(t0, p.env), token.New(t1, p.env), nil
}

// Reserves returns the reserves and the block they were last updated at.
func (p *Pair) Reserves() (r0, r1 *big.Int, blockLast uint32, err error) {
	if r0, err = p.reserve0.Get(); err != nil {
		return
	}
	if r1, err = p.reserve1.Get(); err != nil {
		return
	}
	blockLast, err = p.blockLast.Get()
	return
}

// KLast returns reserve0 * reserve1 as of the most recent liquidity event, when the protocol fee
// is on.
func (p *Pair) KLast() (*big.Int, error) {
	return p.kLast.Get()
}

func (p *Pair) balances(t0, t1 *token.Token) (b0, b1 *big.Int, err error) {
	if b0, err = t0.BalanceOf(p.addr); err != nil {
		return
	}
	b1, err = t1.BalanceOf(p.addr)
	return
}

func (p *Pair) update(b0, b1 *big.Int) error {
	if err := p.reserve0.Set(b0); err != nil {
		return err
	}
	if err := p.reserve1.Set(b1); err != nil {
		return err
	}
	if err := p.blockLast.Set(p.env.BlockContext().Number); err != nil {
		return err
	}
	return p.env.Emit(p.addr, "Sync", &syncEvent{
		Reserve0: (*math.HexOrDecimal256)(b0),
		Reserve1: (*math.HexOrDecimal256)(b1),
	})
}

// mintFee mints one sixth of the growth in sqrt(k) to the factory feeTo.
func (p *Pair) mintFee(r0, r1 *big.Int) (bool, error) {
	factory, err := p.factory.Get()
	if err != nil {
		return false, err
	}
	feeTo, err := NewFactory(factory, p.env).FeeTo()
	if err != nil {
		return false, err
	}
	kLast, err := p.kLast.Get()
	if err != nil {
		return false, err
	}
	if feeTo.IsZero() {
		if kLast.Sign() != 0 {
			return false, p.kLast.Set(new(big.Int))
		}
		return false, nil
	}
	if kLast.Sign() == 0 {
		return true, nil
	}

	k, err := bn.Mul(r0, r1)
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	rootK, err := bn.Sqrt(k)
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	rootKLast, err := bn.Sqrt(kLast)
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	if rootK.Cmp(rootKLast) <= 0 {
		return true, nil
	}
	supply, err := p.lp.TotalSupply()
	if err != nil {
		return false, err
	}
	num, err := bn.Mul(supply, new(big.Int).Sub(rootK, rootKLast))
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	den, err := bn.Mul(rootK, big.NewInt(5))
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	if den, err = bn.Add(den, rootKLast); err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	liquidity, err := bn.Div(num, den)
	if err != nil {
		return false, reverts.Arithmetic(err, "mint fee")
	}
	if liquidity.Sign() > 0 {
		logger.Debug("minting protocol fee", "pair", p.addr, "feeTo", feeTo, "liquidity", liquidity)
		if err := p.lp.MintUnchecked(feeTo, liquidity); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Pair) updateKLast(feeOn bool, b0, b1 *big.Int) error {
	if !feeOn {
		return nil
	}
	k, err := bn.Mul(b0, b1)
	if err != nil {
		return reverts.Arithmetic(err, "k")
	}
	return p.kLast.Set(k)
}

// Mint issues liquidity shares to `to` for the tokens transferred to the pair since the last
// update.
func (p *Pair) Mint(to scrap.Address) (*big.Int, error) {
	t0, t1, err := p.tokens()
	if err != nil {
		return nil, err
	}
	r0, r1, _, err := p.Reserves()
	if err != nil {
		return nil, err
	}
	b0, b1, err := p.balances(t0, t1)
	if err != nil {
		return nil, err
	}
	amount0, err := bn.Sub(b0, r0)
	if err != nil {
		return nil, reverts.Arithmetic(err, "mint")
	}
	amount1, err := bn.Sub(b1, r1)
	if err != nil {
		return nil, reverts.Arithmetic(err, "mint")
	}

	feeOn, err := p.mintFee(r0, r1)
	if err != nil {
		return nil, err
	}
	supply, err := p.lp.TotalSupply()
	if err != nil {
		return nil, err
	}

	var liquidity *big.Int
	if supply.Sign() == 0 {
		product, err := bn.Mul(amount0, amount1)
		if err != nil {
			return nil, reverts.Arithmetic(err, "mint")
		}
		root, err := bn.Sqrt(product)
		if err != nil {
			return nil, reverts.Arithmetic(err, "mint")
		}
		if root.Cmp(minimumLiquidity) <= 0 {
			return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity minted")
		}
		liquidity = root.Sub(root, minimumLiquidity)
		if err := p.lp.MintUnchecked(scrap.Address{}, minimumLiquidity); err != nil {
			return nil, err
		}
	} else {
		l0, err := bn.MulDiv(amount0, supply, r0)
		if err != nil {
			return nil, reverts.Arithmetic(err, "mint")
		}
		l1, err := bn.MulDiv(amount1, supply, r1)
		if err != nil {
			return nil, reverts.Arithmetic(err, "mint")
		}
		liquidity = bn.Min(l0, l1)
	}
	if liquidity.Sign() == 0 {
		return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity minted")
	}
	if err := p.lp.MintUnchecked(to, liquidity); err != nil {
		return nil, err
	}
	if err := p.update(b0, b1); err != nil {
		return nil, err
	}
	if err := p.updateKLast(feeOn, b0, b1); err != nil {
		return nil, err
	}
	return liquidity, p.env.Emit(p.addr, "Mint", &liquidityEvent{
		Amount0: (*math.HexOrDecimal256)(amount0),
		Amount1: (*math.HexOrDecimal256)(amount1),
		To:      to,
	}, scrap.AddressToBytes32(to))
}

// Burn redeems the shares held by the pair itself for a pro-rata part of both reserves, sent to
// `to`.
func (p *Pair) Burn(to scrap.Address) (amount0, amount1 *big.Int, err error) {
	t0, t1, err := p.tokens()
	if err != nil {
		return nil, nil, err
	}
	r0, r1, _, err := p.Reserves()
	if err != nil {
		return nil, nil, err
	}
	b0, b1, err := p.balances(t0, t1)
	if err != nil {
		return nil, nil, err
	}
	liquidity, err := p.lp.BalanceOf(p.addr)
	if err != nil {
		return nil, nil, err
	}

	feeOn, err := p.mintFee(r0, r1)
	if err != nil {
		return nil, nil, err
	}
	supply, err := p.lp.TotalSupply()
	if err != nil {
		return nil, nil, err
	}
	if supply.Sign() == 0 {
		return nil, nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity burned")
	}
	if amount0, err = bn.MulDiv(liquidity, b0, supply); err != nil {
		return nil, nil, reverts.Arithmetic(err, "burn")
	}
	if amount1, err = bn.MulDiv(liquidity, b1, supply); err != nil {
		return nil, nil, reverts.Arithmetic(err, "burn")
	}
	if amount0.Sign() == 0 || amount1.Sign() == 0 {
		return nil, nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity burned")
	}

	if err := p.lp.Burn(p.addr, liquidity); err != nil {
		return nil, nil, err
	}
	if err := t0.Transfer(p.addr, to, amount0); err != nil {
		return nil, nil, err
	}
	if err := t1.Transfer(p.addr, to, amount1); err != nil {
		return nil, nil, err
	}
	if b0, b1, err = p.balances(t0, t1); err != nil {
		return nil, nil, err
	}
	if err := p.update(b0, b1); err != nil {
		return nil, nil, err
	}
	if err := p.updateKLast(feeOn, b0, b1); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, p.env.Emit(p.addr, "Burn", &liquidityEvent{
		Amount0: (*math.HexOrDecimal256)(amount0),
		Amount1: (*math.HexOrDecimal256)(amount1),
		To:      to,
	}, scrap.AddressToBytes32(to))
}

// Swap sends the requested outputs to `to`, then checks that the inputs transferred to the pair
// keep the fee adjusted product of the reserves from decreasing.
func (p *Pair) Swap(amount0Out, amount1Out *big.Int, to scrap.Address) error {
	if amount0Out.Sign() <= 0 && amount1Out.Sign() <= 0 {
		return reverts.New(reverts.ErrInvalidParameter, "insufficient output amount")
	}
	t0, t1, err := p.tokens()
	if err != nil {
		return err
	}
	r0, r1, _, err := p.Reserves()
	if err != nil {
		return err
	}
	if amount0Out.Cmp(r0) >= 0 || amount1Out.Cmp(r1) >= 0 {
		return reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity")
	}
	if to == t0.Address() || to == t1.Address() {
		return reverts.New(reverts.ErrInvalidParameter, "invalid to")
	}

	if amount0Out.Sign() > 0 {
		if err := t0.Transfer(p.addr, to, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := t1.Transfer(p.addr, to, amount1Out); err != nil {
			return err
		}
	}
	b0, b1, err := p.balances(t0, t1)
	if err != nil {
		return err
	}

	amount0In := amountIn(b0, r0, amount0Out)
	amount1In := amountIn(b1, r1, amount1Out)
	if amount0In.Sign() == 0 && amount1In.Sign() == 0 {
		return reverts.New(reverts.ErrInvalidParameter, "insufficient input amount")
	}

	adj0, err := adjusted(b0, amount0In)
	if err != nil {
		return err
	}
	adj1, err := adjusted(b1, amount1In)
	if err != nil {
		return err
	}
	k, err := bn.Mul(adj0, adj1)
	if err != nil {
		return reverts.Arithmetic(err, "swap")
	}
	kReserves, err := bn.Mul(r0, r1)
	if err != nil {
		return reverts.Arithmetic(err, "swap")
	}
	if kReserves, err = bn.Mul(kReserves, big.NewInt(1000*1000)); err != nil {
		return reverts.Arithmetic(err, "swap")
	}
	if k.Cmp(kReserves) < 0 {
		return reverts.New(reverts.ErrInvalidParameter, "K")
	}

	if err := p.update(b0, b1); err != nil {
		return err
	}
	return p.env.Emit(p.addr, "Swap", &swapEvent{
		Amount0In:  (*math.HexOrDecimal256)(amount0In),
		Amount1In:  (*math.HexOrDecimal256)(amount1In),
		Amount0Out: (*math.HexOrDecimal256)(amount0Out),
		Amount1Out: (*math.HexOrDecimal256)(amount1Out),
		To:         to,
	}, scrap.AddressToBytes32(to))
}

// amountIn is what arrived on top of the reserve left after the output.
func amountIn(balance, reserve, out *big.Int) *big.Int {
	left := new(big.Int).Sub(reserve, out)
	if balance.Cmp(left) > 0 {
		return left.Sub(balance, left)
	}
	return new(big.Int)
}

// adjusted returns balance * 1000 - amountIn * 3.
func adjusted(balance, amountIn *big.Int) (*big.Int, error) {
	b, err := bn.Mul(balance, feeDen)
	if err != nil {
		return nil, reverts.Arithmetic(err, "swap")
	}
	fee, err := bn.Mul(amountIn, big.NewInt(3))
	if err != nil {
		return nil, reverts.Arithmetic(err, "swap")
	}
	adj, err := bn.Sub(b, fee)
	if err != nil {
		return nil, reverts.Arithmetic(err, "swap")
	}
	return adj, nil
}

// Skim sends the balances exceeding the reserves to `to`.
func (p *Pair) Skim(to scrap.Address) error {
	t0, t1, err := p.tokens()
	if err != nil {
		return err
	}
	r0, r1, _, err := p.Reserves()
	if err != nil {
		return err
	}
	b0, b1, err := p.balances(t0, t1)
	if err != nil {
		return err
	}
	if excess := new(big.Int).Sub(b0, r0); excess.Sign() > 0 {
		if err := t0.Transfer(p.addr, to, excess); err != nil {
			return err
		}
	}
	if excess := new(big.Int).Sub(b1, r1); excess.Sign() > 0 {
		if err := t1.Transfer(p.addr, to, excess); err != nil {
			return err
		}
	}
	return nil
}

// Sync forces the reserves to match the balances.
func (p *Pair) Sync() error {
	t0, t1, err := p.tokens()
	if err != nil {
		return err
	}
	b0, b1, err := p.balances(t0, t1)
	if err != nil {
		return err
	}
	return errors.WithMessage(p.update(b0, b1), "sync")
}

type syncEvent struct {
	Reserve0 *math.HexOrDecimal256 `json:"reserve0"`
	Reserve1 *math.HexOrDecimal256 `json:"reserve1"`
}

type liquidityEvent struct {
	Amount0 *math.HexOrDecimal256 `json:"amount0"`
	Amount1 *math.HexOrDecimal256 `json:"amount1"`
	To      scrap.Address         `json:"to"`
}

type swapEvent struct {
	Amount0In  *math.HexOrDecimal256 `json:"amount0In"`
	Amount1In  *math.HexOrDecimal256 `json:"amount1In"`
	Amount0Out *math.HexOrDecimal256 `json:"amount0Out"`
	Amount1Out *math.HexOrDecimal256 `json:"amount1Out"`
	To         scrap.Address         `json:"to"`
}
