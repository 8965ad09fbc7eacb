// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pair

import (
	"math/big"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/builtin/reverts"
)

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

// GetAmountOut returns the output of swapping amountIn against the reserves.
//
//	amountOut = reserveOut * amountIn * 997 / (reserveIn * 1000 + amountIn * 997)
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient input amount")
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity")
	}
	inWithFee, err := bn.Mul(amountIn, feeMul)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount out")
	}
	den, err := bn.Mul(reserveIn, feeDen)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount out")
	}
	if den, err = bn.Add(den, inWithFee); err != nil {
		return nil, reverts.Arithmetic(err, "amount out")
	}
	out, err := bn.MulDiv(inWithFee, reserveOut, den)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount out")
	}
	return out, nil
}

// GetAmountIn returns the input required to receive amountOut.
//
//	amountIn = reserveIn * amountOut * 1000 / ((reserveOut - amountOut) * 997) + 1
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient output amount")
	}
	if reserveIn.Sign() <= 0 || reserveOut.Cmp(amountOut) <= 0 {
		return nil, reverts.New(reverts.ErrInvalidParameter, "insufficient liquidity")
	}
	num, err := bn.Mul(reserveIn, feeDen)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount in")
	}
	den, err := bn.Mul(new(big.Int).Sub(reserveOut, amountOut), feeMul)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount in")
	}
	in, err := bn.MulDiv(num, amountOut, den)
	if err != nil {
		return nil, reverts.Arithmetic(err, "amount in")
	}
	return in.Add(in, big.NewInt(1)), nil
}
