// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bn

import (
	"math/big"
)

// Precision scales per-share values so that sub-unit rewards survive integer division.
const Precision = 1_000_000_000_000

var (
	precision = big.NewInt(Precision)
	bpsDen    = big.NewInt(10000)
)

// PerShare returns reward * Precision / totalShares.
func PerShare(reward, totalShares *big.Int) (*big.Int, error) {
	return MulDiv(reward, precision, totalShares)
}

// Accrued returns shares * accPerShare / Precision, the scaled-down share of an accumulator.
func Accrued(shares, accPerShare *big.Int) (*big.Int, error) {
	return MulDiv(shares, accPerShare, precision)
}

// Bps returns amount * bps / 10000.
func Bps(amount *big.Int, bps uint64) (*big.Int, error) {
	return MulDiv(amount, new(big.Int).SetUint64(bps), bpsDen)
}

// Emission returns blocks * rate * weight / totalWeight.
func Emission(blocks uint64, rate *big.Int, weight, totalWeight uint64) (*big.Int, error) {
	if totalWeight == 0 {
		return new(big.Int), nil
	}
	perBlocks, err := Mul(new(big.Int).SetUint64(blocks), rate)
	if err != nil {
		return nil, err
	}
	return MulDiv(perBlocks, new(big.Int).SetUint64(weight), new(big.Int).SetUint64(totalWeight))
}
