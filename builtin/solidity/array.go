// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pkg/errors"
	"github.com/scrapyard/scrapmaster/scrap"
)

// Array is an append only list of values. Indices are stable.
type Array[V any] struct {
	length *Raw[uint64]
	items  *Mapping[scrap.Bytes32, V]
}

func NewArray[V any](context *Context, pos scrap.Bytes32) *Array[V] {
	return &Array[V]{
		length: NewRaw[uint64](context, pos),
		items:  NewMapping[scrap.Bytes32, V](context, scrap.Blake2b(pos.Bytes())),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

// Get returns the item at index. It fails when index is out of range.
func (a *Array[V]) Get(index uint64) (value V, err error) {
	n, err := a.Len()
	if err != nil {
		return value, err
	}
	if index >= n {
		return value, errors.Errorf("index %d out of range [0, %d)", index, n)
	}
	return a.items.Get(scrap.Uint64ToBytes32(index))
}

// Set replaces the item at an existing index.
func (a *Array[V]) Set(index uint64, value V) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if index >= n {
		return errors.Errorf("index %d out of range [0, %d)", index, n)
	}
	return a.items.Set(scrap.Uint64ToBytes32(index), value)
}

// Append adds value at the end and returns its index.
func (a *Array[V]) Append(value V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.items.Set(scrap.Uint64ToBytes32(n), value); err != nil {
		return 0, err
	}
	if err := a.length.Set(n + 1); err != nil {
		return 0, err
	}
	return n, nil
}

// ForEach visits items in index order until cb returns false or an error.
func (a *Array[V]) ForEach(cb func(index uint64, value V) (bool, error)) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		v, err := a.items.Get(scrap.Uint64ToBytes32(i))
		if err != nil {
			return err
		}
		next, err := cb(i, v)
		if err != nil {
			return err
		}
		if !next {
			return nil
		}
	}
	return nil
}
