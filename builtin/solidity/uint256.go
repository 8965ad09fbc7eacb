// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/scrapyard/scrapmaster/bn"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Uint256 stores an unsigned 256-bit amount. Add and Sub are overflow checked.
type Uint256 struct {
	raw *Raw[*big.Int]
}

func NewUint256(context *Context, pos scrap.Bytes32) *Uint256 {
	return &Uint256{raw: NewRaw[*big.Int](context, pos)}
}

func (u *Uint256) Get() (*big.Int, error) {
	return u.raw.Get()
}

func (u *Uint256) Set(value *big.Int) error {
	if value.Sign() == 0 {
		u.raw.Clear()
		return nil
	}
	return u.raw.Set(value)
}

// Add increases the stored value. On overflow the stored value is left unchanged.
func (u *Uint256) Add(value *big.Int) (*big.Int, error) {
	cur, err := u.Get()
	if err != nil {
		return nil, err
	}
	sum, err := bn.Add(cur, value)
	if err != nil {
		return nil, err
	}
	return sum, u.Set(sum)
}

// Sub decreases the stored value. On underflow the stored value is left unchanged.
func (u *Uint256) Sub(value *big.Int) (*big.Int, error) {
	cur, err := u.Get()
	if err != nil {
		return nil, err
	}
	diff, err := bn.Sub(cur, value)
	if err != nil {
		return nil, err
	}
	return diff, u.Set(diff)
}
