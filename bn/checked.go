// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bn provides 256-bit overflow checked arithmetic on big.Int amounts.
// Every result is guaranteed to fit in [0, 2^256).
package bn

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow   = errors.New("arithmetic overflow")
	ErrUnderflow  = errors.New("arithmetic underflow")
	ErrDivByZero  = errors.New("division by zero")
	ErrOutOfRange = errors.New("value out of range")
)

func toU256(x *big.Int) (*uint256.Int, error) {
	if x == nil {
		return new(uint256.Int), nil
	}
	if x.Sign() < 0 {
		return nil, ErrOutOfRange
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return nil, ErrOutOfRange
	}
	return v, nil
}

// toBig keeps zero in its canonical form, with no backing words.
func toBig(z *uint256.Int) *big.Int {
	if z.IsZero() {
		return new(big.Int)
	}
	return z.ToBig()
}

func operands(x, y *big.Int) (*uint256.Int, *uint256.Int, error) {
	a, err := toU256(x)
	if err != nil {
		return nil, nil, err
	}
	b, err := toU256(y)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Add returns x + y.
func Add(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	if _, overflow := a.AddOverflow(a, b); overflow {
		return nil, ErrOverflow
	}
	return toBig(a), nil
}

// Sub returns x - y, failing when y > x.
func Sub(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	if _, underflow := a.SubOverflow(a, b); underflow {
		return nil, ErrUnderflow
	}
	return toBig(a), nil
}

// Mul returns x * y.
func Mul(x, y *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	if _, overflow := a.MulOverflow(a, b); overflow {
		return nil, ErrOverflow
	}
	return toBig(a), nil
}

// MulDiv returns floor(x * y / d). The product is computed on 512 bits, so only a quotient
// exceeding 256 bits overflows.
func MulDiv(x, y, d *big.Int) (*big.Int, error) {
	a, b, err := operands(x, y)
	if err != nil {
		return nil, err
	}
	den, err := toU256(d)
	if err != nil {
		return nil, err
	}
	if den.IsZero() {
		return nil, ErrDivByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, den)
	if overflow {
		return nil, ErrOverflow
	}
	return toBig(z), nil
}

// Div returns floor(x / d).
func Div(x, d *big.Int) (*big.Int, error) {
	a, b, err := operands(x, d)
	if err != nil {
		return nil, err
	}
	if b.IsZero() {
		return nil, ErrDivByZero
	}
	return toBig(a.Div(a, b)), nil
}

// Sqrt returns floor(sqrt(x)).
func Sqrt(x *big.Int) (*big.Int, error) {
	a, err := toU256(x)
	if err != nil {
		return nil, err
	}
	return toBig(a.Sqrt(a)), nil
}

// Min returns the smaller one of x and y.
func Min(x, y *big.Int) *big.Int {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

// InRange reports whether x is a valid 256-bit unsigned amount.
func InRange(x *big.Int) bool {
	_, err := toU256(x)
	return err == nil
}
